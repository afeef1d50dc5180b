package repository

import (
	"context"
	"testing"
	"time"

	"prestaboost/internal/database/dbtest"
	"prestaboost/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncJobActiveAndIncrement(t *testing.T) {
	db := dbtest.New(t)
	repo := NewSyncJobRepository(db)
	ctx := context.Background()
	start := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

	done := &models.SyncJob{BoutiqueID: "b1", Type: models.SyncJobTypeStocks, Status: models.SyncJobStatusCompleted, StartedAt: start.Add(time.Hour)}
	running := &models.SyncJob{BoutiqueID: "b1", Type: models.SyncJobTypeOrdersBackfill, Status: models.SyncJobStatusRunning, StartedAt: start, UpdatedAt: start, TotalItems: 3}
	require.NoError(t, repo.Create(ctx, done))
	require.NoError(t, repo.Create(ctx, running))

	active, err := repo.FindActive(ctx, "b1")
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, running.ID, active.ID)

	job, err := repo.Increment(ctx, running.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, job.ItemsProcessed)
	job, err = repo.Increment(ctx, running.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, job.ItemsProcessed)

	missing, err := repo.Increment(ctx, "nope", 1)
	require.NoError(t, err)
	assert.Nil(t, missing)

	recent, err := repo.Recent(ctx, "b1", 0)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, done.ID, recent[0].ID)

	stale, err := repo.FindStale(ctx, start.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, running.ID, stale[0].ID)
}

func TestSyncJobFindStaleUsesLastUpdateForBackfills(t *testing.T) {
	repo := NewSyncJobRepository(dbtest.New(t))
	ctx := context.Background()
	start := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

	backfill := &models.SyncJob{BoutiqueID: "b1", Type: models.SyncJobTypeOrdersBackfill, Status: models.SyncJobStatusRunning,
		StartedAt: start, UpdatedAt: start.Add(7 * time.Hour), TotalItems: 4}
	quick := &models.SyncJob{BoutiqueID: "b1", Type: models.SyncJobTypeBoth, Status: models.SyncJobStatusRunning,
		StartedAt: start, UpdatedAt: start.Add(7 * time.Hour)}
	require.NoError(t, repo.Create(ctx, backfill))
	require.NoError(t, repo.Create(ctx, quick))

	stale, err := repo.FindStale(ctx, start.Add(6*time.Hour))
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, quick.ID, stale[0].ID)
}

func TestSyncJobUpdateActiveSkipsFinishedJobs(t *testing.T) {
	repo := NewSyncJobRepository(dbtest.New(t))
	ctx := context.Background()

	failed := &models.SyncJob{BoutiqueID: "b1", Type: models.SyncJobTypeStocks, Status: models.SyncJobStatusFailed, StartedAt: time.Now().UTC()}
	require.NoError(t, repo.Create(ctx, failed))

	changed, err := repo.UpdateActive(ctx, failed.ID, map[string]interface{}{"status": models.SyncJobStatusCompleted})
	require.NoError(t, err)
	assert.False(t, changed)

	got, err := repo.Get(ctx, failed.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SyncJobStatusFailed, got.Status)
}
