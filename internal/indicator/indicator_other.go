//go:build !windows

package indicator

import "github.com/rs/zerolog"

// otherIndicator covers macOS and Linux. Neither platform gets a taskbar
// progress overlay here (no cgo Cocoa bridge is attempted); both still
// get desktop notifications via notifier.
type otherIndicator struct {
	notifier
}

// New returns the platform Indicator.
func New(appID, iconPath string, log zerolog.Logger) Indicator {
	return &otherIndicator{notifier: notifier{appID: appID, iconPath: iconPath, log: log}}
}

func (o *otherIndicator) SetProgress(fraction float64, errorTint bool) {}

func (o *otherIndicator) Clear() {}
