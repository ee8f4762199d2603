package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studora/forum-sync-api/internal/dto"
	"github.com/studora/forum-sync-api/internal/models"
	appErrors "github.com/studora/forum-sync-api/pkg/errors"
)

type mockSyncService struct {
	gotReq   dto.SyncRequest
	syncResp *dto.SyncResponse
	syncErr  error
	lastResp *dto.LastSyncResponse
	lastErr  error
}

func (m *mockSyncService) Sync(ctx context.Context, req dto.SyncRequest) (*dto.SyncResponse, error) {
	m.gotReq = req
	if m.syncErr != nil {
		return nil, m.syncErr
	}
	return m.syncResp, nil
}

func (m *mockSyncService) LastSynced(ctx context.Context) (*dto.LastSyncResponse, error) {
	if m.lastErr != nil {
		return nil, m.lastErr
	}
	return m.lastResp, nil
}

func newSyncRouter(svc *mockSyncService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewSyncHandler(svc)
	r.POST("/sync", h.Sync)
	r.GET("/last-sync", h.LastSync)
	return r
}

func TestSyncHandler(t *testing.T) {
	id := int64(1)
	svc := &mockSyncService{syncResp: &dto.SyncResponse{
		Success: true,
		Count:   1,
		Synced:  []models.CourseSyncResult{{ID: &id, Action: models.ActionInserted}},
	}}
	r := newSyncRouter(svc)

	w := doJSON(t, r, http.MethodPost, "/sync", `{"apiKey":"secret","courseId":7}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "secret", svc.gotReq.APIKey)
	require.NotNil(t, svc.gotReq.CourseID)
	assert.Equal(t, int64(7), *svc.gotReq.CourseID)
	assert.Contains(t, w.Body.String(), `"inserted"`)
}

func TestSyncHandlerMalformedBody(t *testing.T) {
	r := newSyncRouter(&mockSyncService{})
	w := doJSON(t, r, http.MethodPost, "/sync", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSyncHandlerAuthFailure(t *testing.T) {
	svc := &mockSyncService{syncErr: appErrors.ErrAuthFailed}
	r := newSyncRouter(svc)

	w := doJSON(t, r, http.MethodPost, "/sync", `{"apiKey":"wrong"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "UPSTREAM_AUTH_FAILED")
}

func TestSyncHandlerValidationFailure(t *testing.T) {
	svc := &mockSyncService{syncErr: appErrors.ErrValidation}
	r := newSyncRouter(svc)

	w := doJSON(t, r, http.MethodPost, "/sync", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLastSyncHandler(t *testing.T) {
	ts := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	svc := &mockSyncService{lastResp: &dto.LastSyncResponse{Success: true, LastSynced: &ts}}
	r := newSyncRouter(svc)

	w := doJSON(t, r, http.MethodGet, "/last-sync", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "2026-08-30T10:00:00Z")
}

func TestLastSyncHandlerFailure(t *testing.T) {
	svc := &mockSyncService{lastErr: errors.New("db down")}
	r := newSyncRouter(svc)

	w := doJSON(t, r, http.MethodGet, "/last-sync", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

type mockBackfillService struct {
	jobID string
	err   error
}

func (m *mockBackfillService) Trigger() (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.jobID, nil
}

func TestBackfillHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/embeddings/backfill", NewBackfillHandler(&mockBackfillService{jobID: "backfill-123"}).Trigger)

	w := doJSON(t, r, http.MethodPost, "/embeddings/backfill", "")
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), "backfill-123")
}

func TestBackfillHandlerQueueFull(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/embeddings/backfill", NewBackfillHandler(&mockBackfillService{err: errors.New("queue full")}).Trigger)

	w := doJSON(t, r, http.MethodPost, "/embeddings/backfill", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
