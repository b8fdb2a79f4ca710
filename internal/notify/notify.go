// Package notify sends best-effort desktop notifications.
package notify

import (
	"context"
	"log/slog"
	"os/exec"
	"time"
)

// Urgency mirrors notify-send urgency levels.
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyNormal   Urgency = "normal"
	UrgencyCritical Urgency = "critical"
)

// Notifier delivers fire-and-forget user notices. Failures never propagate.
type Notifier interface {
	Notify(ctx context.Context, message string, urgency Urgency)
}

// Noop drops every notice; used in tests and when notifications are disabled.
type Noop struct{}

func (Noop) Notify(context.Context, string, Urgency) {}

// Desktop shells out to notify-send.
type Desktop struct {
	AppName string
	Logger  *slog.Logger
}

// Notify dispatches one transient desktop notification.
func (d Desktop) Notify(ctx context.Context, message string, urgency Urgency) {
	if urgency == "" {
		urgency = UrgencyNormal
	}
	expire := "1500"
	if urgency == UrgencyLow {
		expire = "800"
	}

	runCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	appName := d.AppName
	if appName == "" {
		appName = "dicto"
	}

	cmd := exec.CommandContext(runCtx, "notify-send",
		"--app-name", appName,
		"--urgency", string(urgency),
		"--expire-time", expire,
		"--hint", "int:transient:1",
		appName, message,
	)
	if err := cmd.Run(); err != nil && d.Logger != nil {
		d.Logger.Debug("notification dispatch failed", "error", err.Error())
	}
}
