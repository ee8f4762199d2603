package models

import "time"

// SyncStats counts reconciliation outcomes for one scope. Answer stats roll
// into their course's stats, course stats into the run total.
type SyncStats struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Errored  int `json:"errored"`
}

// Add merges another scope's stats into this one.
func (s *SyncStats) Add(other SyncStats) {
	s.Inserted += other.Inserted
	s.Updated += other.Updated
	s.Errored += other.Errored
}

// CourseSyncAction describes what happened to one course during a sync run.
type CourseSyncAction string

const (
	ActionSkipped           CourseSyncAction = "skipped"
	ActionSkippedIDMismatch CourseSyncAction = "skipped_id_mismatch"
	ActionInserted          CourseSyncAction = "inserted"
	ActionUpdated           CourseSyncAction = "updated"
	ActionError             CourseSyncAction = "error"
	ActionErrorMain         CourseSyncAction = "error_main"
)

// CourseSyncResult is the per-course outcome entry reported by /sync.
type CourseSyncResult struct {
	ID      *int64           `json:"id"`
	Action  CourseSyncAction `json:"action"`
	Error   string           `json:"error,omitempty"`
	Threads SyncStats        `json:"threads"`
}

// SyncSummary aggregates a whole sync invocation.
type SyncSummary struct {
	SyncedCount int
	Results     []CourseSyncResult
	LastSynced  *time.Time
}
