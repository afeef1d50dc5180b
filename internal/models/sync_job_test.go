package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSyncJobProgressPercentage(t *testing.T) {
	assert.Equal(t, 0, (&SyncJob{ItemsProcessed: 5}).ProgressPercentage())
	assert.Equal(t, 33, (&SyncJob{ItemsProcessed: 1, TotalItems: 3}).ProgressPercentage())
	assert.Equal(t, 100, (&SyncJob{ItemsProcessed: 4, TotalItems: 3}).ProgressPercentage())
}

func TestSyncJobDuration(t *testing.T) {
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	job := SyncJob{StartedAt: start}

	assert.Equal(t, 90*time.Second, job.Duration(start.Add(90*time.Second)))

	done := start.Add(2 * time.Hour)
	job.CompletedAt = &done
	assert.Equal(t, 2*time.Hour, job.Duration(start.Add(5*time.Hour)))
}
