// Package tracker records the lifecycle of sync jobs:
// pending → running → completed | failed.
//
// Job records are informational. An unknown job id is logged and ignored,
// and a worker that dies mid-run leaves its job running until FailStale
// sweeps it. Completed and failed are final: later calls leave the job as is.
package tracker

import (
	"context"
	"fmt"
	"time"

	"prestaboost/internal/clock"
	"prestaboost/internal/logger"
	"prestaboost/internal/models"

	"go.uber.org/zap"
)

type Store interface {
	Create(ctx context.Context, job *models.SyncJob) error
	Get(ctx context.Context, id string) (*models.SyncJob, error)
	UpdateActive(ctx context.Context, id string, fields map[string]interface{}) (bool, error)
	Increment(ctx context.Context, id string, n int) (*models.SyncJob, error)
	FindStale(ctx context.Context, cutoff time.Time) ([]models.SyncJob, error)
}

type Tracker struct {
	jobs   Store
	clock  clock.Clock
	logger *logger.Logger
}

func New(jobs Store, log *logger.Logger, cl clock.Clock) *Tracker {
	if cl == nil {
		cl = clock.System
	}
	return &Tracker{jobs: jobs, clock: cl, logger: log.Named("tracker")}
}

func (t *Tracker) now() time.Time {
	return t.clock.Now().UTC().Truncate(time.Microsecond)
}

// Start creates a pending job. days is only recorded for order jobs.
func (t *Tracker) Start(ctx context.Context, boutiqueID string, jobType models.SyncJobType, days *int, totalItems int) (*models.SyncJob, error) {
	job := &models.SyncJob{
		BoutiqueID: boutiqueID,
		Type:       jobType,
		Status:     models.SyncJobStatusPending,
		StartedAt:  t.now(),
		TotalItems: totalItems,
		OrdersDays: days,
		UpdatedAt:  t.now(),
	}
	if err := t.jobs.Create(ctx, job); err != nil {
		return nil, err
	}
	t.logger.Info("sync job created",
		zap.String("job_id", job.ID),
		zap.String("boutique_id", boutiqueID),
		zap.String("type", string(jobType)),
		zap.Int("total_items", totalItems),
	)
	return job, nil
}

// Running marks the job as picked up by a worker.
func (t *Tracker) Running(ctx context.Context, jobID string) error {
	job, err := t.load(ctx, jobID)
	if err != nil || job == nil {
		return err
	}
	if job.Status != models.SyncJobStatusPending {
		return nil
	}
	now := t.now()
	_, err = t.jobs.UpdateActive(ctx, jobID, map[string]interface{}{
		"status":     models.SyncJobStatusRunning,
		"started_at": now,
		"updated_at": now,
	})
	return err
}

// Progress overwrites the processed and total counters.
func (t *Tracker) Progress(ctx context.Context, jobID string, processed, total int) error {
	_, err := t.update(ctx, jobID, map[string]interface{}{
		"items_processed": processed,
		"total_items":     total,
	})
	return err
}

// Complete finishes the job successfully.
func (t *Tracker) Complete(ctx context.Context, jobID string) error {
	job, err := t.load(ctx, jobID)
	if err != nil || job == nil || job.IsFinished() {
		return err
	}
	fields := map[string]interface{}{
		"status":       models.SyncJobStatusCompleted,
		"completed_at": t.now(),
	}
	if job.TotalItems > 0 && job.ItemsProcessed < job.TotalItems {
		fields["items_processed"] = job.TotalItems
	}
	_, err = t.update(ctx, jobID, fields)
	return err
}

// Fail finishes the job with an error message.
func (t *Tracker) Fail(ctx context.Context, jobID, message string) error {
	job, err := t.load(ctx, jobID)
	if err != nil || job == nil || job.IsFinished() {
		return err
	}
	changed, err := t.update(ctx, jobID, map[string]interface{}{
		"status":        models.SyncJobStatusFailed,
		"completed_at":  t.now(),
		"error_message": message,
	})
	if changed {
		t.logger.Warn("sync job failed", zap.String("job_id", jobID), zap.String("error", message))
	}
	return err
}

// ChunkDone counts one finished chunk of a backfill job. A non-empty chunkErr
// is kept on the job, which then ends failed instead of completed once every
// chunk has been counted. Chunks reported after the job finished are ignored.
func (t *Tracker) ChunkDone(ctx context.Context, jobID, chunkErr string) (*models.SyncJob, error) {
	if err := t.Running(ctx, jobID); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if chunkErr != "" {
		fields["error_message"] = chunkErr
	}
	active, err := t.update(ctx, jobID, fields)
	if err != nil {
		return nil, err
	}
	if !active {
		job, err := t.load(ctx, jobID)
		if err == nil && job != nil {
			t.logger.Warn("chunk reported for finished job", zap.String("job_id", jobID), zap.String("status", string(job.Status)))
		}
		return job, err
	}

	job, err := t.jobs.Increment(ctx, jobID, 1)
	if err != nil {
		return nil, err
	}
	if job == nil {
		t.logger.Warn("sync job not found", zap.String("job_id", jobID))
		return nil, nil
	}
	if job.TotalItems <= 0 || job.ItemsProcessed < job.TotalItems {
		return job, nil
	}

	now := t.now()
	status := models.SyncJobStatusCompleted
	if job.ErrorMessage != nil {
		status = models.SyncJobStatusFailed
	}
	changed, err := t.update(ctx, jobID, map[string]interface{}{
		"status":       status,
		"completed_at": now,
	})
	if err != nil || !changed {
		return job, err
	}
	job.Status = status
	job.CompletedAt = &now
	t.logger.Info("backfill finished",
		zap.String("job_id", jobID),
		zap.String("status", string(status)),
		zap.Int("chunks", job.TotalItems),
	)
	return job, nil
}

// update writes fields, stamped with updated_at, while the job is still
// active. It reports whether the job was active.
func (t *Tracker) update(ctx context.Context, jobID string, fields map[string]interface{}) (bool, error) {
	fields["updated_at"] = t.now()
	return t.jobs.UpdateActive(ctx, jobID, fields)
}

// FailStale fails running jobs started more than olderThan ago.
func (t *Tracker) FailStale(ctx context.Context, olderThan time.Duration) (int, error) {
	stale, err := t.jobs.FindStale(ctx, t.now().Add(-olderThan))
	if err != nil {
		return 0, err
	}
	msg := fmt.Sprintf("no completion reported within %s", olderThan)
	for i := range stale {
		if err := t.Fail(ctx, stale[i].ID, msg); err != nil {
			return i, err
		}
	}
	if len(stale) > 0 {
		t.logger.Warn("stale sync jobs failed", zap.Int("count", len(stale)))
	}
	return len(stale), nil
}

func (t *Tracker) load(ctx context.Context, jobID string) (*models.SyncJob, error) {
	job, err := t.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		t.logger.Warn("sync job not found", zap.String("job_id", jobID))
	}
	return job, nil
}
