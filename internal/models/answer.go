package models

import (
	"time"

	"github.com/lib/pq"
)

// Answer is a reply to a thread. parent_id is a weak same-table reference for
// nested replies; the store does not enforce integrity on it.
type Answer struct {
	ID         int64          `db:"id" json:"id"`
	ThreadID   int64          `db:"thread_id" json:"thread_id"`
	CourseID   int64          `db:"course_id" json:"course_id"`
	ParentID   *int64         `db:"parent_id" json:"parent_id,omitempty"`
	Body       *string        `db:"body" json:"body,omitempty"`
	Images     pq.StringArray `db:"images" json:"images"`
	IsResolved bool           `db:"is_resolved" json:"is_resolved"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at" json:"updated_at"`
	Embedding  NullVector     `db:"embedding" json:"-"`
}

// AnswerMatch is an answer row annotated with store-computed similarity.
// Answers without an embedding carry similarity 0.
type AnswerMatch struct {
	Answer
	Similarity  float64 `db:"similarity"`
	ThreadTitle string  `db:"thread_title"`
}
