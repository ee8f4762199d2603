package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/studora/forum-sync-api/internal/dto"
	appErrors "github.com/studora/forum-sync-api/pkg/errors"
	"github.com/studora/forum-sync-api/pkg/response"
)

type searchService interface {
	Search(ctx context.Context, query string, courseID int64, limit int) (*dto.SearchResponse, error)
}

// SearchHandler wires semantic search to HTTP.
type SearchHandler struct {
	search searchService
}

// NewSearchHandler constructs a SearchHandler.
func NewSearchHandler(search searchService) *SearchHandler {
	return &SearchHandler{search: search}
}

// Search runs a semantic similarity query. Missing fields or a courseId
// that fails integer parsing are rejected before any downstream call.
func (h *SearchHandler) Search(c *gin.Context) {
	var req dto.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid search payload"))
		return
	}
	if req.Query == "" || req.CourseID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "query and courseId are required"))
		return
	}
	if req.Limit < 0 || req.Limit > 50 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "limit must be between 1 and 50"))
		return
	}

	courseID, err := strconv.ParseInt(req.CourseID, 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "courseId must be an integer"))
		return
	}

	resp, err := h.search.Search(c.Request.Context(), req.Query, courseID, req.Limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp)
}
