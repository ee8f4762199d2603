package dto

import "github.com/studora/forum-sync-api/internal/models"

// SearchRequest is the semantic search payload. CourseID arrives as a
// string and must parse to an integer before any downstream call.
type SearchRequest struct {
	Query    string `json:"query" validate:"required"`
	CourseID string `json:"courseId" validate:"required"`
	Limit    int    `json:"limit" validate:"omitempty,min=1,max=50"`
}

// SearchResponse carries ranked results plus the echoed query context.
type SearchResponse struct {
	Results  []models.SearchResult `json:"results"`
	Query    string                `json:"query"`
	CourseID int64                 `json:"courseId"`
}
