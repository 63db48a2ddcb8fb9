package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/substitution-api/internal/models"
)

func newHistoryRepoMock(t *testing.T) (*HistoryRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "sqlite")

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS substitution_runs").
		WillReturnResult(sqlmock.NewResult(0, 0))
	repo, err := NewHistoryRepository(sqlxDB)
	require.NoError(t, err)

	return repo, mock, func() {
		sqlxDB.Close()
		db.Close()
	}
}

func TestHistoryRepositoryRecord(t *testing.T) {
	repo, mock, cleanup := newHistoryRepoMock(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO substitution_runs").
		WithArgs("2025-03-10", "monday", 1, 0, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(7, 1))

	result := &models.RunResult{
		Date: "2025-03-10",
		Day:  "monday",
		Assignments: []models.SubstituteAssignment{
			{OriginalTeacher: "Budi Santoso", Period: 1, ClassName: "10A", Substitute: "Sari Dewi"},
		},
		Warnings: []string{},
	}

	id, err := repo.Record(context.Background(), result)
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryRepositoryListRecent(t *testing.T) {
	repo, mock, cleanup := newHistoryRepoMock(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"id", "run_date", "day", "assignment_count", "warning_count", "payload", "created_at"}).
		AddRow(int64(2), "2025-03-11", "tuesday", 3, 1, []byte(`{}`), time.Now()).
		AddRow(int64(1), "2025-03-10", "monday", 2, 0, []byte(`{}`), time.Now())
	mock.ExpectQuery("SELECT id, run_date, day").
		WithArgs(5).
		WillReturnRows(rows)

	records, err := repo.ListRecent(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "2025-03-11", records[0].RunDate)
	assert.Equal(t, 3, records[0].AssignmentCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}
