package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/substitution-api/internal/models"
)

const historySchema = `
CREATE TABLE IF NOT EXISTS substitution_runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_date TEXT NOT NULL,
	day TEXT NOT NULL,
	assignment_count INTEGER NOT NULL,
	warning_count INTEGER NOT NULL,
	payload BLOB NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_substitution_runs_date ON substitution_runs(run_date);
`

// HistoryRepository records completed allocation runs in the on-device
// SQLite store.
type HistoryRepository struct {
	db *sqlx.DB
}

// NewHistoryRepository ensures the schema exists and returns the repository.
func NewHistoryRepository(db *sqlx.DB) (*HistoryRepository, error) {
	if _, err := db.Exec(historySchema); err != nil {
		return nil, fmt.Errorf("migrate history schema: %w", err)
	}
	return &HistoryRepository{db: db}, nil
}

// Record stores one completed run and returns its row id.
func (r *HistoryRepository) Record(ctx context.Context, result *models.RunResult) (int64, error) {
	payload, err := json.Marshal(result)
	if err != nil {
		return 0, fmt.Errorf("marshal run payload: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO substitution_runs (run_date, day, assignment_count, warning_count, payload, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		result.Date, result.Day, len(result.Assignments), len(result.Warnings), payload, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("insert run record: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read run record id: %w", err)
	}
	return id, nil
}

// ListRecent returns the newest runs, newest first.
func (r *HistoryRepository) ListRecent(ctx context.Context, limit int) ([]models.RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	records := []models.RunRecord{}
	err := r.db.SelectContext(ctx, &records,
		`SELECT id, run_date, day, assignment_count, warning_count, payload, created_at
		 FROM substitution_runs
		 ORDER BY id DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list run records: %w", err)
	}
	return records, nil
}
