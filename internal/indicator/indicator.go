// Package indicator implements the Native Indicator Adapter: a
// platform-conditional taskbar/dock progress surface plus desktop
// notifications on session completion.
package indicator

import (
	"github.com/rs/zerolog"

	toast "git.sr.ht/~jackmordaunt/go-toast/v2"
)

// Indicator mirrors orchestrator.Indicator; defined here too so platform
// files can be self-contained without importing the orchestrator package.
type Indicator interface {
	SetProgress(fraction float64, errorTint bool)
	Clear()
	Notify(title, body string)
}

// notifier sends desktop toast notifications, shared across platforms.
type notifier struct {
	appID    string
	iconPath string
	log      zerolog.Logger
}

func (n *notifier) Notify(title, body string) {
	note := toast.Notification{
		AppID: n.appID,
		Title: title,
		Body:  body,
		Icon:  n.iconPath,
	}
	if err := note.Push(); err != nil {
		n.log.Warn().Err(err).Msg("failed to push desktop notification")
	}
}
