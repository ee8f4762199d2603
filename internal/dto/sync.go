package dto

import (
	"time"

	"github.com/studora/forum-sync-api/internal/models"
)

// SyncRequest triggers a sync run. APIKey is the upstream forum's long-lived
// key; CourseID optionally restricts the run to one course.
type SyncRequest struct {
	APIKey   string `json:"apiKey" validate:"required"`
	CourseID *int64 `json:"courseId"`
}

// SyncResponse reports per-course outcomes for a sync run. The endpoint
// answers 200 even when individual courses failed; only malformed input or
// total authentication failure surface as HTTP errors.
type SyncResponse struct {
	Success    bool                      `json:"success"`
	Count      int                       `json:"count"`
	Synced     []models.CourseSyncResult `json:"synced"`
	LastSynced *time.Time                `json:"lastSynced"`
}

// LastSyncResponse reports the freshness watermark.
type LastSyncResponse struct {
	Success    bool       `json:"success"`
	LastSynced *time.Time `json:"lastSynced"`
}

// BackfillResponse acknowledges an enqueued embedding backfill.
type BackfillResponse struct {
	Success bool   `json:"success"`
	JobID   string `json:"jobId"`
}
