package repository

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/substitution-api/internal/models"
)

func timetableRow(day, period string, cells map[string]string) string {
	fields := []string{day, period}
	for _, class := range TimetableClassColumns {
		fields = append(fields, cells[class])
	}
	return strings.Join(fields, ",")
}

func writeTimetable(t *testing.T, lines ...string) string {
	t.Helper()
	header := timetableRow("Day", "Period", map[string]string{})
	content := header + "\n" + strings.Join(lines, "\n") + "\n"
	path := filepath.Join(t.TempDir(), "timetable.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestTimetableLoadBuildsScheduleModel(t *testing.T) {
	path := writeTimetable(t,
		timetableRow("Mon", "1", map[string]string{"10A": "Budi Santoso", "10B": "EMPTY", "9A": "Sari Dewi"}),
		timetableRow("Mon", "2", map[string]string{"10A": "Sari Dewi"}),
		timetableRow("Tue", "1", map[string]string{"6C": "Budi Santoso"}),
	)

	model, err := NewTimetableRepository(path).Load(context.Background())
	require.NoError(t, err)
	assert.False(t, model.Repaired)

	assert.Equal(t, []string{"budi santoso", "sari dewi"}, model.TeachersAt("Monday", 1))
	assert.Equal(t, []string{"sari dewi"}, model.TeachersAt("mon", 2))
	assert.Nil(t, model.TeachersAt("wednesday", 1))

	entries := model.EntriesFor("  BUDI  Santoso ")
	require.Len(t, entries, 2)
	assert.Equal(t, models.ScheduleEntry{Day: "monday", Period: 1, ClassName: "10A"}, entries[0])
	assert.Equal(t, models.ScheduleEntry{Day: "tuesday", Period: 1, ClassName: "6C"}, entries[1])
}

func TestTimetableLoadSkipsNonNumericPeriod(t *testing.T) {
	path := writeTimetable(t,
		timetableRow("Mon", "break", map[string]string{"10A": "Budi Santoso"}),
		timetableRow("Mon", "3", map[string]string{"10A": "Budi Santoso"}),
	)

	model, err := NewTimetableRepository(path).Load(context.Background())
	require.NoError(t, err)

	assert.Nil(t, model.ByDay["monday"][0])
	assert.Equal(t, []string{"budi santoso"}, model.TeachersAt("monday", 3))
	// the skipped row still participates in raw scans
	assert.Len(t, model.RawRows, 2)
}

func TestTimetableLoadExcludesEmptyMarkers(t *testing.T) {
	path := writeTimetable(t,
		timetableRow("Fri", "1", map[string]string{"10A": "empty", "10B": "Empty", "10C": "  "}),
	)

	model, err := NewTimetableRepository(path).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, model.TeachersAt("friday", 1))
	assert.Empty(t, model.ByTeacher)
}

func TestTimetableLoadMissingFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.csv")
	_, err := NewTimetableRepository(path).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}
