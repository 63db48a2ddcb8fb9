package service

import (
	"time"

	"github.com/noah-isme/substitution-api/internal/models"
)

// runTrail collects the diagnostic entries of one allocation run. Entry
// durations are measured from the trail's creation, so they increase
// monotonically over the run.
type runTrail struct {
	start   time.Time
	entries []models.ProcessLog
}

func newRunTrail() *runTrail {
	return &runTrail{start: time.Now()}
}

func (t *runTrail) add(status models.LogStatus, action, details string, data interface{}) {
	t.entries = append(t.entries, models.ProcessLog{
		Timestamp:  time.Now().UTC(),
		Action:     action,
		Details:    details,
		Status:     status,
		Data:       data,
		DurationMs: time.Since(t.start).Milliseconds(),
	})
}

func (t *runTrail) info(action, details string, data interface{}) {
	t.add(models.LogStatusInfo, action, details, data)
}

func (t *runTrail) warning(action, details string, data interface{}) {
	t.add(models.LogStatusWarning, action, details, data)
}

func (t *runTrail) error(action, details string, data interface{}) {
	t.add(models.LogStatusError, action, details, data)
}

func (t *runTrail) list() []models.ProcessLog {
	if t.entries == nil {
		return []models.ProcessLog{}
	}
	return t.entries
}
