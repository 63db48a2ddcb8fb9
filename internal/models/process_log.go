package models

import "time"

// LogStatus grades a diagnostic entry.
type LogStatus string

const (
	LogStatusInfo    LogStatus = "info"
	LogStatusWarning LogStatus = "warning"
	LogStatusError   LogStatus = "error"
)

// ProcessLog is one diagnostic trail entry. DurationMs is measured from the
// start of the run the entry belongs to.
type ProcessLog struct {
	Timestamp  time.Time   `json:"timestamp"`
	Action     string      `json:"action"`
	Details    string      `json:"details"`
	Status     LogStatus   `json:"status"`
	Data       interface{} `json:"data,omitempty"`
	DurationMs int64       `json:"durationMs"`
}
