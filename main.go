package main

import (
	"embed"
	"fmt"
	"os"
	"strings"

	"github.com/wailsapp/wails/v3/pkg/application"

	"multiytdlp/internal/constants"
)

//go:embed all:frontend/dist
var assets embed.FS

//go:embed build/appicon.png
var appIcon []byte

//go:embed VERSION
var versionFile string

func main() {
	if Version == "" {
		Version = strings.TrimSpace(versionFile)
	}

	appInstance := NewApp()

	app := application.New(application.Options{
		Name: constants.AppName,
		Icon: appIcon,
		Services: []application.Service{
			application.NewService(appInstance),
		},
		Assets: application.AssetOptions{
			Handler: application.AssetFileServerFS(assets),
		},
	})

	app.Window.NewWithOptions(application.WebviewWindowOptions{
		Title:                  constants.AppName,
		Width:                  1280,
		Height:                 800,
		BackgroundColour:       application.NewRGB(255, 255, 255),
		DevToolsEnabled:        devTools,
		OpenInspectorOnStartup: devTools,
	})

	if err := app.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
