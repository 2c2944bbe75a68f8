//go:build !dev && !debug

package main

const devTools = false
