package forum

import "time"

// Upstream payload shapes. Every envelope is validated before use; a list
// response that fails validation aborts that call rather than being guessed
// at. The recursive comment tree in the detail payload is deliberately not
// modelled: comments are never persisted.

type tokenResponse struct {
	Token string `json:"token" validate:"required"`
}

// CourseItem is one course as listed by the upstream API.
type CourseItem struct {
	ID   int64  `json:"id" validate:"required"`
	Code string `json:"code"`
	Name string `json:"name"`
	Year string `json:"year"`
}

type coursesResponse struct {
	Courses []CourseItem `json:"courses" validate:"required,dive"`
}

// Pagination is the upstream paging envelope. A nil or zero-valued
// pagination object means there are no more pages.
type Pagination struct {
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
	Total       int `json:"total"`
}

// HasMore reports whether another page should be fetched after this one.
func (p *Pagination) HasMore() bool {
	if p == nil {
		return false
	}
	return p.CurrentPage > 0 && p.CurrentPage < p.LastPage
}

// ThreadItem is one thread as returned by the list and detail endpoints.
type ThreadItem struct {
	ID                int64     `json:"id" validate:"required"`
	Title             string    `json:"title"`
	Document          string    `json:"document"`
	Category          string    `json:"category"`
	Subcategory       string    `json:"subcategory"`
	Subsubcategory    string    `json:"subsubcategory"`
	IsAnswered        bool      `json:"is_answered"`
	IsStaffAnswered   bool      `json:"is_staff_answered"`
	IsStudentAnswered bool      `json:"is_student_answered"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" validate:"required"`
}

// ThreadsPage is one page of a course's thread listing.
type ThreadsPage struct {
	Threads    []ThreadItem `json:"threads" validate:"dive"`
	Pagination *Pagination  `json:"pagination"`
}

// AnswerItem is one answer in a thread detail payload.
type AnswerItem struct {
	ID         int64     `json:"id" validate:"required"`
	ParentID   *int64    `json:"parent_id"`
	Document   string    `json:"document"`
	IsResolved bool      `json:"is_resolved"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" validate:"required"`
}

// ThreadDetail is the full thread payload including nested answers.
type ThreadDetail struct {
	Thread  ThreadItem   `json:"thread" validate:"required"`
	Answers []AnswerItem `json:"answers" validate:"dive"`
}
