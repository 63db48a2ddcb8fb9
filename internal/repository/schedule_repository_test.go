package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleRepositoryLoadMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "teacher_schedules.json")

	set, err := NewScheduleRepository(path, nil).Load(context.Background())
	require.NoError(t, err)
	assert.False(t, set.Found)
	assert.Empty(t, set.Teachers)
}

func TestScheduleRepositoryLoadRecords(t *testing.T) {
	content := `{
		"teachers": [
			{
				"name": "Budi Santoso",
				"phone": "0812",
				"gradeLevel": 9,
				"isRegular": false,
				"variations": ["Pak Budi"],
				"schedule": [
					{"day": "monday", "period": 1, "className": "10A"},
					{"day": "tuesday", "period": 2, "className": "9B"}
				]
			},
			{"name": "", "schedule": []}
		]
	}`
	path := filepath.Join(t.TempDir(), "teacher_schedules.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	set, err := NewScheduleRepository(path, nil).Load(context.Background())
	require.NoError(t, err)
	assert.True(t, set.Found)
	assert.Equal(t, 1, set.Skipped)
	require.Len(t, set.Teachers, 1)

	budi := set.Teachers[0]
	assert.Equal(t, "Budi Santoso", budi.Name)
	require.NotNil(t, budi.IsRegular)
	assert.False(t, *budi.IsRegular)
	assert.Equal(t, []string{"Pak Budi"}, budi.Variations)
	require.Len(t, budi.Schedule, 2)
	assert.Equal(t, "10A", budi.Schedule[0].ClassName)
}

func TestScheduleRepositoryLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "teacher_schedules.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewScheduleRepository(path, nil).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}
