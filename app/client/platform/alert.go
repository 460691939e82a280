package platform

import (
	"log/slog"

	"github.com/gen2brain/beeep"
)

// Alerter shows blocking user-facing alerts through the desktop notification system.
type Alerter struct{}

func NewAlerter() *Alerter {
	return &Alerter{}
}

func (a *Alerter) Alert(title, message string) {
	slog.Warn("Alert", "title", title, "message", message)

	if err := beeep.Alert(title, message, ""); err != nil {
		slog.Debug("Failed to show alert", "error", err)
	}
}
