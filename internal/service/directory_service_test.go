package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"go-timeclock/internal/model"
)

func TestDirectoryListManagers(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	managers, err := f.directory.ListManagers(ctx)
	require.NoError(t, err)
	require.Empty(t, managers)

	boss := f.seedManager(t, "boss@example.com")
	f.seedEmployee(t, "worker@example.com", boss.ID)

	managers, err = f.directory.ListManagers(ctx)
	require.NoError(t, err)
	require.Equal(t, []model.ManagerSummary{{ID: boss.ID, Name: "Mia Manager", Email: "boss@example.com"}}, managers)
}

func TestDirectoryResolveManager(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	boss := f.seedManager(t, "boss@example.com")
	worker := f.seedEmployee(t, "worker@example.com", boss.ID)

	tests := []struct {
		name  string
		id    *int64
		cause error
	}{
		{name: "nil", id: nil, cause: model.ErrManagerRequired},
		{name: "zero", id: int64Ptr(0), cause: model.ErrManagerRequired},
		{name: "unknown", id: int64Ptr(404), cause: model.ErrInvalidManager},
		{name: "not a manager", id: int64Ptr(worker.ID), cause: model.ErrNotAManager},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.directory.ResolveManager(ctx, tt.id)
			requireAPIError(t, err, http.StatusBadRequest, tt.cause)
		})
	}

	resolved, err := f.directory.ResolveManager(ctx, int64Ptr(boss.ID))
	require.NoError(t, err)
	require.Equal(t, boss.ID, resolved.ID)
}

func TestDirectoryIsManager(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	boss := f.seedManager(t, "boss@example.com")
	worker := f.seedEmployee(t, "worker@example.com", boss.ID)

	ok, err := f.directory.IsManager(ctx, boss.ID)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = f.directory.IsManager(ctx, worker.ID)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = f.directory.IsManager(ctx, 999)
	require.NoError(t, err)
	require.False(t, ok)
}
