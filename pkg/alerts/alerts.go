// Package alerts raises operator alerts for conditions that need a human.
package alerts

import (
	"context"
	"log/slog"
	"time"
)

// Severity of an alert.
type Severity string

const (
	// Warning alerts need follow-up but money is accounted for.
	Warning Severity = "warning"
	// Page alerts mean money may be stranded and someone must act now.
	Page Severity = "page"
)

// Alert is a single operator notification.
type Alert struct {
	Severity    Severity  `json:"severity"`
	Subject     string    `json:"subject"`
	ReferenceID string    `json:"referenceId,omitempty"`
	Detail      string    `json:"detail,omitempty"`
	At          time.Time `json:"at"`
}

// Alerter delivers alerts to operators.
type Alerter interface {
	Alert(ctx context.Context, alert Alert) error
}

// LogAlerter writes alerts to the structured log only. Used when no queue is configured.
type LogAlerter struct{}

var _ Alerter = LogAlerter{}

func (LogAlerter) Alert(ctx context.Context, alert Alert) error {
	level := slog.LevelWarn
	if alert.Severity == Page {
		level = slog.LevelError
	}
	slog.Log(ctx, level, "operator alert",
		"severity", alert.Severity, "subject", alert.Subject,
		"reference_id", alert.ReferenceID, "detail", alert.Detail)
	return nil
}
