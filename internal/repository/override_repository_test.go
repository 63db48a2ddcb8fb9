package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverrideRepositoryLoadMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "period_overrides.json")

	set, err := NewOverrideRepository(path, nil).Load(context.Background())
	require.NoError(t, err)
	assert.False(t, set.Found)
	assert.Empty(t, set.Overrides)
}

func TestOverrideRepositoryLoadEntries(t *testing.T) {
	content := `{
		"overrides": [
			{
				"teacher": "Budi Santoso",
				"day": "friday",
				"periods": [{"period": 1, "className": "10A"}, {"period": 2, "className": "10A"}]
			},
			{"teacher": "No Periods", "day": "monday", "periods": []}
		]
	}`
	path := filepath.Join(t.TempDir(), "period_overrides.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	set, err := NewOverrideRepository(path, nil).Load(context.Background())
	require.NoError(t, err)
	assert.True(t, set.Found)
	assert.Equal(t, 1, set.Skipped)
	require.Len(t, set.Overrides, 1)
	assert.Equal(t, "Budi Santoso", set.Overrides[0].Teacher)
	require.Len(t, set.Overrides[0].Periods, 2)
}
