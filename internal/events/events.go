// Package events centralizes the Wails event names used to talk to the
// UI, to avoid magic strings spread across the codebase.
package events

// Download lifecycle events (core -> UI).
const (
	DownloadProgressBatch = "download-progress-batch"
	DownloadComplete      = "download-complete"
	DownloadError         = "download-error"
)

// Application lifecycle events.
const (
	AppReady = "app:ready"
)

// InstallProgress is reserved for the external dependency-bootstrap
// collaborator; no concrete implementation emits it in this repo.
const InstallProgress = "install-progress"
