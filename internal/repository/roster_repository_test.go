package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRoster(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "substitutes.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRosterLoadParsesRecordsInFileOrder(t *testing.T) {
	path := writeRoster(t, "Name,Phone,GradeLevel\nBudi Santoso,0812-111,9\nSari Dewi,0813222,\nAgus Salim,,8\n")

	teachers, repaired, err := NewRosterRepository(path, 10).Load(context.Background())
	require.NoError(t, err)
	assert.False(t, repaired)
	require.Len(t, teachers, 3)

	assert.Equal(t, "Budi Santoso", teachers[0].Name)
	assert.Equal(t, "t-0812111", teachers[0].ID)
	assert.Equal(t, 9, teachers[0].GradeLevel)
	assert.True(t, teachers[0].IsRegular)
	assert.True(t, teachers[0].IsSubstituteCandidate())

	assert.Equal(t, "Sari Dewi", teachers[1].Name)
	assert.Equal(t, 10, teachers[1].GradeLevel)

	assert.Equal(t, "Agus Salim", teachers[2].Name)
	assert.NotEmpty(t, teachers[2].ID)
	assert.False(t, teachers[2].IsSubstituteCandidate())
}

func TestRosterLoadSkipsBlankNames(t *testing.T) {
	path := writeRoster(t, "Budi,0812,9\n,0899,7\n")

	teachers, _, err := NewRosterRepository(path, 10).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, teachers, 1)
	assert.Equal(t, "Budi", teachers[0].Name)
}

func TestRosterLoadWithoutHeader(t *testing.T) {
	path := writeRoster(t, "Budi,0812,9\nSari,0813,8\n")

	teachers, _, err := NewRosterRepository(path, 10).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, teachers, 2)
}

func TestRosterLoadMissingFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.csv")
	_, _, err := NewRosterRepository(path, 10).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}
