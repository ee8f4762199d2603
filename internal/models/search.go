package models

// SearchSource tells which ranking stage produced a result.
type SearchSource string

const (
	SourceThreadWithAnswers SearchSource = "thread_with_answers"
	SourceDirectAnswer      SearchSource = "direct_answer"
)

// SearchMetadata carries result provenance.
type SearchMetadata struct {
	Source     SearchSource `json:"source"`
	URL        string       `json:"url"`
	ThreadID   int64        `json:"threadId"`
	AnswerID   int64        `json:"answerId,omitempty"`
	CourseID   int64        `json:"courseId"`
	IsResolved bool         `json:"isResolved"`
}

// SearchResult is one ranked entry returned by semantic search.
type SearchResult struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	Content    string         `json:"content"`
	Similarity float64        `json:"similarity"`
	Metadata   SearchMetadata `json:"metadata"`
}
