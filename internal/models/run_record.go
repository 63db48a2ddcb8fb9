package models

import "time"

// RunRecord is one completed allocation run as persisted in the on-device
// history store. Payload holds the full RunResult as JSON.
type RunRecord struct {
	ID              int64     `db:"id" json:"id"`
	RunDate         string    `db:"run_date" json:"run_date"`
	Day             string    `db:"day" json:"day"`
	AssignmentCount int       `db:"assignment_count" json:"assignment_count"`
	WarningCount    int       `db:"warning_count" json:"warning_count"`
	Payload         []byte    `db:"payload" json:"-"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}
