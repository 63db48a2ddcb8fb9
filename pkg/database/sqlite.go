package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/noah-isme/substitution-api/pkg/config"
)

// NewSQLite opens the on-device SQLite database used for run history.
func NewSQLite(cfg config.HistoryConfig) (*sqlx.DB, error) {
	path := cfg.DBPath
	if path == "" {
		path = "./state/runs.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// modernc sqlite allows a single writer; serialise access through one conn.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}
