// Package notifier delivers operator alerts: consistency mismatches between
// call sites, conflicted verdicts, exhausted fetches. Alerts are advisory
// side channels: a failed delivery never fails the evaluation that raised it.
package notifier

import "time"

// Alert kinds.
const (
	KindConsistencyMismatch = "consistency_mismatch"
	KindSignalConflict      = "signal_conflict"
	KindFetchFailure        = "fetch_failure"
)

// Alert is one operator notification.
type Alert struct {
	Kind    string         `json:"kind"`
	Ticker  string         `json:"ticker,omitempty"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	At      time.Time      `json:"at"`
}

// Config holds notifier configuration
type Config struct {
	Type   string         `mapstructure:"type"`
	Params map[string]any `mapstructure:"params"`
}

// Notifier defines the interface for alert delivery
type Notifier interface {
	// Name returns the unique identifier for this notifier
	Name() string

	// Init initializes the notifier with configuration
	Init(cfg Config) error

	// Send delivers a single alert
	Send(alert Alert) error

	// SendBatch delivers multiple alerts
	SendBatch(alerts []Alert) error
}
