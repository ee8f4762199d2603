package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studora/forum-sync-api/internal/dto"
	appErrors "github.com/studora/forum-sync-api/pkg/errors"
	"github.com/studora/forum-sync-api/pkg/response"
)

type syncService interface {
	Sync(ctx context.Context, req dto.SyncRequest) (*dto.SyncResponse, error)
	LastSynced(ctx context.Context) (*dto.LastSyncResponse, error)
}

// SyncHandler wires the sync service to HTTP routes.
type SyncHandler struct {
	sync syncService
}

// NewSyncHandler constructs a SyncHandler.
func NewSyncHandler(sync syncService) *SyncHandler {
	return &SyncHandler{sync: sync}
}

// Sync triggers a full sync run. The response is 200 with embedded
// per-course outcomes; only malformed input or total upstream
// authentication failure map to HTTP errors.
func (h *SyncHandler) Sync(c *gin.Context) {
	var req dto.SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid sync payload"))
		return
	}

	resp, err := h.sync.Sync(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp)
}

// LastSync reports the freshness watermark.
func (h *SyncHandler) LastSync(c *gin.Context) {
	resp, err := h.sync.LastSynced(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp)
}
