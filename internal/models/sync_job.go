package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SyncJobType string

const (
	SyncJobTypeStocks         SyncJobType = "stocks"
	SyncJobTypeOrders         SyncJobType = "orders"
	SyncJobTypeBoth           SyncJobType = "both"
	SyncJobTypeOrdersBackfill SyncJobType = "orders_backfill"
)

type SyncJobStatus string

const (
	SyncJobStatusPending   SyncJobStatus = "pending"
	SyncJobStatusRunning   SyncJobStatus = "running"
	SyncJobStatusCompleted SyncJobStatus = "completed"
	SyncJobStatusFailed    SyncJobStatus = "failed"
)

// SyncJob records the progress of a collection job. It is informational only.
type SyncJob struct {
	ID             string        `json:"id" gorm:"type:uuid;primaryKey"`
	BoutiqueID     string        `json:"boutique_id" gorm:"type:uuid;not null;index"`
	Type           SyncJobType   `json:"type" gorm:"not null"`
	Status         SyncJobStatus `json:"status" gorm:"not null;default:pending;index"`
	StartedAt      time.Time     `json:"started_at" gorm:"not null"`
	CompletedAt    *time.Time    `json:"completed_at"`
	ItemsProcessed int           `json:"items_processed" gorm:"not null;default:0"`
	TotalItems     int           `json:"total_items" gorm:"not null;default:0"`
	ErrorMessage   *string       `json:"error_message"`
	OrdersDays     *int          `json:"orders_days"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

func (j *SyncJob) IsActive() bool {
	return j.Status == SyncJobStatusPending || j.Status == SyncJobStatusRunning
}

func (j *SyncJob) IsFinished() bool {
	return j.Status == SyncJobStatusCompleted || j.Status == SyncJobStatusFailed
}

// ProgressPercentage is 0 without a known total and never exceeds 100.
func (j *SyncJob) ProgressPercentage() int {
	if j.TotalItems <= 0 {
		return 0
	}
	pct := j.ItemsProcessed * 100 / j.TotalItems
	if pct > 100 {
		return 100
	}
	return pct
}

// Duration runs until now for jobs that have not completed.
func (j *SyncJob) Duration(now time.Time) time.Duration {
	end := now
	if j.CompletedAt != nil {
		end = *j.CompletedAt
	}
	if end.Before(j.StartedAt) {
		return 0
	}
	return end.Sub(j.StartedAt)
}

func (j *SyncJob) BeforeCreate(tx *gorm.DB) error {
	if j.ID == "" {
		j.ID = uuid.New().String()
	}
	if j.Status == "" {
		j.Status = SyncJobStatusPending
	}
	return nil
}
