package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/studora/forum-sync-api/internal/dto"
	appErrors "github.com/studora/forum-sync-api/pkg/errors"
	"github.com/studora/forum-sync-api/pkg/response"
)

type backfillService interface {
	Trigger() (string, error)
}

// BackfillHandler exposes the embedding backfill trigger.
type BackfillHandler struct {
	backfill backfillService
}

// NewBackfillHandler constructs a BackfillHandler.
func NewBackfillHandler(backfill backfillService) *BackfillHandler {
	return &BackfillHandler{backfill: backfill}
}

// Trigger enqueues one backfill pass and returns immediately.
func (h *BackfillHandler) Trigger(c *gin.Context) {
	jobID, err := h.backfill.Trigger()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue backfill"))
		return
	}
	response.Accepted(c, dto.BackfillResponse{Success: true, JobID: jobID})
}
