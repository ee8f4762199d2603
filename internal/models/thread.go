package models

import (
	"time"

	"github.com/lib/pq"
)

// Thread is a top-level forum post. updated_at tracks the source's
// last-modified time; rows are only rewritten when the source reports a
// strictly newer timestamp.
type Thread struct {
	ID                int64          `db:"id" json:"id"`
	CourseID          int64          `db:"course_id" json:"course_id"`
	Title             string         `db:"title" json:"title"`
	Body              *string        `db:"body" json:"body,omitempty"`
	Category          *string        `db:"category" json:"category,omitempty"`
	Subcategory       *string        `db:"subcategory" json:"subcategory,omitempty"`
	Subsubcategory    *string        `db:"subsubcategory" json:"subsubcategory,omitempty"`
	IsAnswered        bool           `db:"is_answered" json:"is_answered"`
	IsStaffAnswered   bool           `db:"is_staff_answered" json:"is_staff_answered"`
	IsStudentAnswered bool           `db:"is_student_answered" json:"is_student_answered"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updated_at"`
	Images            pq.StringArray `db:"images" json:"images"`
	Embedding         NullVector     `db:"embedding" json:"-"`
}

// ThreadMatch is a thread row annotated with its cosine similarity to a query
// vector. The similarity is computed by the store, not in Go.
type ThreadMatch struct {
	Thread
	Similarity float64 `db:"similarity"`
}
