package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/noah-isme/substitution-api/internal/models"
	appErrors "github.com/noah-isme/substitution-api/pkg/errors"
	"github.com/noah-isme/substitution-api/pkg/storage"
)

const (
	assignmentsFile = "assignments.json"
	processLogsFile = "process_logs.json"
	warningsFile    = "warnings.json"
	archiveDirName  = "archive"
)

// StateRepository persists run output under the state directory. Logs and
// warnings are stored as one record per date; assignments as the latest run
// only. Existing log and warning content is archived before each overwrite,
// and a corrupt file is set aside as a timestamped backup instead of
// aborting the run.
type StateRepository struct {
	dir string
}

// NewStateRepository ensures the state and archive directories exist.
func NewStateRepository(dir string) (*StateRepository, error) {
	if dir == "" {
		dir = "./state"
	}
	if err := os.MkdirAll(filepath.Join(dir, archiveDirName), 0o755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}
	return &StateRepository{dir: dir}, nil
}

type assignmentsEnvelope struct {
	Assignments []models.SubstituteAssignment `json:"assignments"`
}

// SaveAssignments overwrites the persisted assignment list.
func (r *StateRepository) SaveAssignments(_ context.Context, assignments []models.SubstituteAssignment) error {
	return r.writeJSON(assignmentsFile, assignmentsEnvelope{Assignments: assignments})
}

// GetAssignments returns the persisted assignment list from the latest run.
func (r *StateRepository) GetAssignments(_ context.Context) ([]models.SubstituteAssignment, error) {
	raw, err := os.ReadFile(r.path(assignmentsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no persisted assignments")
		}
		return nil, fmt.Errorf("read assignments: %w", err)
	}
	var envelope assignmentsEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("parse assignments: %w", err)
	}
	return envelope.Assignments, nil
}

// SaveLogs stores the diagnostic trail for one date, replacing that date's
// prior entry and leaving other dates untouched.
func (r *StateRepository) SaveLogs(_ context.Context, date string, entries []models.ProcessLog) error {
	byDate, err := r.loadLogsForWrite(date)
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []models.ProcessLog{}
	}
	byDate[date] = entries
	return r.writeJSON(processLogsFile, byDate)
}

// GetLogs returns the diagnostic trail recorded for one date.
func (r *StateRepository) GetLogs(_ context.Context, date string) ([]models.ProcessLog, error) {
	byDate := map[string][]models.ProcessLog{}
	if err := r.readJSON(processLogsFile, &byDate); err != nil {
		return nil, err
	}
	entries, ok := byDate[date]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no logs recorded for %s", date))
	}
	return entries, nil
}

// SaveWarnings stores the warning list for one date, replacing that date's
// prior entry and leaving other dates untouched.
func (r *StateRepository) SaveWarnings(_ context.Context, date string, warnings []string) error {
	byDate, err := r.loadWarningsForWrite(date)
	if err != nil {
		return err
	}
	if warnings == nil {
		warnings = []string{}
	}
	byDate[date] = warnings
	return r.writeJSON(warningsFile, byDate)
}

// GetWarnings returns the warnings recorded for one date.
func (r *StateRepository) GetWarnings(_ context.Context, date string) ([]string, error) {
	byDate := map[string][]string{}
	if err := r.readJSON(warningsFile, &byDate); err != nil {
		return nil, err
	}
	warnings, ok := byDate[date]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no warnings recorded for %s", date))
	}
	return warnings, nil
}

// loadLogsForWrite reads the current log file ahead of an overwrite,
// archiving intact content and backing up corrupt content.
func (r *StateRepository) loadLogsForWrite(date string) (map[string][]models.ProcessLog, error) {
	raw, ok, err := r.prepareOverwrite(processLogsFile, date)
	if err != nil || !ok {
		return map[string][]models.ProcessLog{}, err
	}
	parsed := map[string][]models.ProcessLog{}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		// content is already archived at this point; start clean
		return map[string][]models.ProcessLog{}, nil
	}
	return parsed, nil
}

// loadWarningsForWrite mirrors loadLogsForWrite for the warnings file.
func (r *StateRepository) loadWarningsForWrite(date string) (map[string][]string, error) {
	raw, ok, err := r.prepareOverwrite(warningsFile, date)
	if err != nil || !ok {
		return map[string][]string{}, err
	}
	parsed := map[string][]string{}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return map[string][]string{}, nil
	}
	return parsed, nil
}

// prepareOverwrite reads a date-keyed file before it is rewritten. Intact
// content is archived under a dated name; corrupt content is copied to a
// timestamped backup and reported as absent. The bool says whether usable
// content was returned.
func (r *StateRepository) prepareOverwrite(name, date string) ([]byte, bool, error) {
	path := r.path(name)
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read %s: %w", name, err)
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		backup := fmt.Sprintf("%s.corrupt-%d.json", trimJSONExt(path), time.Now().Unix())
		if copyErr := storage.CopyFile(path, backup); copyErr != nil {
			return nil, false, fmt.Errorf("backup corrupt %s: %w", name, copyErr)
		}
		return nil, false, nil
	}

	archive := filepath.Join(r.dir, archiveDirName, fmt.Sprintf("%s-%s.json", trimJSONExt(name), date))
	if err := storage.CopyFile(path, archive); err != nil {
		return nil, false, fmt.Errorf("archive %s: %w", name, err)
	}
	return raw, true, nil
}

func (r *StateRepository) readJSON(name string, dest interface{}) error {
	raw, err := os.ReadFile(r.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

func (r *StateRepository) writeJSON(name string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	if err := os.WriteFile(r.path(name), data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func (r *StateRepository) path(name string) string {
	return filepath.Join(r.dir, name)
}

func trimJSONExt(name string) string {
	if filepath.Ext(name) == ".json" {
		return name[:len(name)-len(".json")]
	}
	return name
}
