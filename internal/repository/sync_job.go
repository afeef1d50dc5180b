package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"prestaboost/internal/models"

	"gorm.io/gorm"
)

var activeStatuses = []string{string(models.SyncJobStatusPending), string(models.SyncJobStatusRunning)}

type SyncJobRepository struct {
	db *gorm.DB
}

func NewSyncJobRepository(db *gorm.DB) *SyncJobRepository {
	return &SyncJobRepository{db: db}
}

func (r *SyncJobRepository) Create(ctx context.Context, job *models.SyncJob) error {
	if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
		return fmt.Errorf("failed to create sync job: %w", err)
	}
	return nil
}

// Get returns (nil, nil) for an unknown id.
func (r *SyncJobRepository) Get(ctx context.Context, id string) (*models.SyncJob, error) {
	var job models.SyncJob
	err := r.db.WithContext(ctx).First(&job, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load sync job %s: %w", id, err)
	}
	return &job, nil
}

// UpdateActive writes the given columns only while the job is pending or
// running. It reports whether a row was changed.
func (r *SyncJobRepository) UpdateActive(ctx context.Context, id string, fields map[string]interface{}) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.SyncJob{}).
		Where("id = ? AND status IN ?", id, activeStatuses).
		Updates(fields)
	if res.Error != nil {
		return false, fmt.Errorf("failed to update sync job %s: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Increment atomically adds n to items_processed and returns the job afterwards.
func (r *SyncJobRepository) Increment(ctx context.Context, id string, n int) (*models.SyncJob, error) {
	var job models.SyncJob
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.SyncJob{}).Where("id = ?", id).
			UpdateColumn("items_processed", gorm.Expr("items_processed + ?", n))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.First(&job, "id = ?", id).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to increment sync job %s: %w", id, err)
	}
	return &job, nil
}

// FindActive returns the newest pending or running job of the boutique.
func (r *SyncJobRepository) FindActive(ctx context.Context, boutiqueID string) (*models.SyncJob, error) {
	var job models.SyncJob
	err := r.db.WithContext(ctx).
		Where("boutique_id = ? AND status IN ?", boutiqueID, activeStatuses).
		Order("started_at DESC").
		First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load active sync job: %w", err)
	}
	return &job, nil
}

func (r *SyncJobRepository) Recent(ctx context.Context, boutiqueID string, limit int) ([]models.SyncJob, error) {
	if limit <= 0 {
		limit = 10
	}
	var jobs []models.SyncJob
	err := r.db.WithContext(ctx).
		Where("boutique_id = ?", boutiqueID).
		Order("started_at DESC").
		Limit(limit).
		Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load sync jobs: %w", err)
	}
	return jobs, nil
}

// FindStale returns running jobs with no sign of life since cutoff. Backfill
// jobs are judged by their last update, since every finished chunk touches
// them; other jobs by their start.
func (r *SyncJobRepository) FindStale(ctx context.Context, cutoff time.Time) ([]models.SyncJob, error) {
	var jobs []models.SyncJob
	err := r.db.WithContext(ctx).
		Where("status = ?", models.SyncJobStatusRunning).
		Where("(type = ? AND updated_at < ?) OR (type <> ? AND started_at < ?)",
			models.SyncJobTypeOrdersBackfill, cutoff, models.SyncJobTypeOrdersBackfill, cutoff).
		Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load stale sync jobs: %w", err)
	}
	return jobs, nil
}
