package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/predichain/backend-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileProjectStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "projects.json")

	store, err := NewFileProjectStore(path)
	require.NoError(t, err)

	projects, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, projects)

	first, err := store.Add(ctx, domain.Project{Name: "Metro Line 3", Location: "Mumbai", Type: "bridge"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, "active", first.Status)

	second, err := store.Add(ctx, domain.Project{Name: "Harbor Road", Status: "paused"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.ID)
	assert.Equal(t, "paused", second.Status)

	// A fresh store over the same file sees the persisted state.
	reopened, err := NewFileProjectStore(path)
	require.NoError(t, err)
	projects, err = reopened.List(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 2)

	require.NoError(t, reopened.Remove(ctx, first.ID))
	projects, err = reopened.List(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "Harbor Road", projects[0].Name)
}

func TestFileProjectStoreRemoveMissing(t *testing.T) {
	store, err := NewFileProjectStore(filepath.Join(t.TempDir(), "projects.json"))
	require.NoError(t, err)

	err = store.Remove(context.Background(), 42)
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestMemoryProjectStoreIDsNeverRepeatDownward(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryProjectStore()

	a, err := store.Add(ctx, domain.Project{Name: "A"})
	require.NoError(t, err)
	b, err := store.Add(ctx, domain.Project{Name: "B"})
	require.NoError(t, err)
	require.NoError(t, store.Remove(ctx, a.ID))

	c, err := store.Add(ctx, domain.Project{Name: "C"})
	require.NoError(t, err)
	assert.Greater(t, c.ID, b.ID-1)

	projects, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, projects, 2)
}

func TestFileIncidentLogAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "incidents.json")
	log, err := NewFileIncidentLog(path)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, log.Append(ctx, domain.Incident{Timestamp: 1, ProjectName: "p1", Phase: "curing"}))
	require.NoError(t, log.Append(ctx, domain.Incident{Timestamp: 2, ProjectName: "p2", Phase: "slabbing"}))
}
