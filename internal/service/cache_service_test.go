package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/substitution-api/pkg/errors"
)

type fakeCacheRepo struct {
	entries  map[string][]byte
	patterns []string
}

func newFakeCacheRepo() *fakeCacheRepo {
	return &fakeCacheRepo{entries: map[string][]byte{}}
}

func (r *fakeCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := r.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (r *fakeCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	r.entries[key] = raw
	return nil
}

func (r *fakeCacheRepo) DeleteByPattern(_ context.Context, pattern string) error {
	r.patterns = append(r.patterns, pattern)
	for key := range r.entries {
		delete(r.entries, key)
	}
	return nil
}

func TestAssignmentCacheKey(t *testing.T) {
	assert.Equal(t, "assignments:latest", AssignmentCacheKey(""))
	assert.Equal(t, "assignments:2025-03-10", AssignmentCacheKey("2025-03-10"))
}

func TestCacheServiceRoundTrip(t *testing.T) {
	repo := newFakeCacheRepo()
	svc := NewCacheService(repo, NewMetricsService(), time.Minute, nil, true)
	ctx := context.Background()

	var out []string
	hit, err := svc.Get(ctx, "assignments:2025-03-10", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Set(ctx, "assignments:2025-03-10", []string{"a", "b"}, 0))

	hit, err = svc.Get(ctx, "assignments:2025-03-10", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []string{"a", "b"}, out)
}

func TestCacheServiceInvalidateAssignmentsClearsNamespace(t *testing.T) {
	repo := newFakeCacheRepo()
	svc := NewCacheService(repo, NewMetricsService(), time.Minute, nil, true)
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, "assignments:2025-03-10", []string{"a"}, 0))
	require.NoError(t, svc.InvalidateAssignments(ctx, "2025-03-10"))

	require.Len(t, repo.patterns, 1)
	assert.Equal(t, "assignments:*", repo.patterns[0])
	assert.Empty(t, repo.entries)
}

func TestCacheServiceDisabledIsPassthrough(t *testing.T) {
	svc := NewCacheService(nil, nil, 0, nil, false)
	ctx := context.Background()

	assert.False(t, svc.Enabled())
	hit, err := svc.Get(ctx, "assignments:latest", nil)
	require.NoError(t, err)
	assert.False(t, hit)
	require.NoError(t, svc.Set(ctx, "assignments:latest", "x", 0))
	require.NoError(t, svc.InvalidateAssignments(ctx, ""))
}
