package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/studora/forum-sync-api/internal/dto"
	"github.com/studora/forum-sync-api/internal/forum"
	"github.com/studora/forum-sync-api/internal/models"
	"github.com/studora/forum-sync-api/internal/repository"
	appErrors "github.com/studora/forum-sync-api/pkg/errors"
)

const (
	searchCachePattern = "search:*"
	watermarkCacheKey  = "sync:watermark"
	watermarkCacheTTL  = time.Minute
)

type courseStore interface {
	Exists(ctx context.Context, id int64) (bool, error)
	Insert(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	TouchLastSynced(ctx context.Context, id int64, ts time.Time) error
	MaxLastSynced(ctx context.Context) (*time.Time, error)
}

type courseFetcher interface {
	RenewToken(ctx context.Context, apiKey string) (string, error)
	ListCourses(ctx context.Context, token string) ([]forum.CourseItem, error)
}

type courseThreadSyncer interface {
	SyncCourse(ctx context.Context, token, embedKey string, courseID int64) (models.SyncStats, error)
}

// SyncService drives a full sync invocation: authenticate once, walk the
// course list sequentially, and report per-course outcomes. Only the token
// exchange and the course listing may fail the whole run.
type SyncService struct {
	forum     courseFetcher
	courses   courseStore
	threads   courseThreadSyncer
	cache     *repository.CacheRepository
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	embedKey  string
}

// NewSyncService constructs a SyncService.
func NewSyncService(client courseFetcher, courses courseStore, threads courseThreadSyncer, cache *repository.CacheRepository, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, embedKey string) *SyncService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncService{
		forum:     client,
		courses:   courses,
		threads:   threads,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		embedKey:  embedKey,
	}
}

// Sync runs one synchronous sync invocation.
func (s *SyncService) Sync(ctx context.Context, req dto.SyncRequest) (*dto.SyncResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid sync payload")
	}

	token, err := s.forum.RenewToken(ctx, req.APIKey)
	if err != nil {
		return nil, err
	}

	items, err := s.forum.ListCourses(ctx, token)
	if err != nil {
		return nil, err
	}

	results := make([]models.CourseSyncResult, 0, len(items))
	for _, item := range items {
		results = append(results, s.syncCourse(ctx, token, req, item))
	}

	count := 0
	for _, r := range results {
		if r.Action == models.ActionInserted || r.Action == models.ActionUpdated {
			count++
		}
	}

	// The watermark is read back from the store after the run, not taken
	// from the wall clock at invocation time.
	watermark, err := s.courses.MaxLastSynced(ctx)
	if err != nil {
		s.logger.Error("watermark query failed", zap.Error(err))
		watermark = nil
	}
	if watermark != nil {
		s.metrics.SetWatermark(*watermark)
	}

	if err := s.cache.DeleteByPattern(ctx, searchCachePattern); err != nil {
		s.logger.Warn("search cache invalidation failed", zap.Error(err))
	}
	if watermark != nil {
		if err := s.cache.Set(ctx, watermarkCacheKey, watermark, watermarkCacheTTL); err != nil {
			s.logger.Warn("watermark cache write failed", zap.Error(err))
		}
	}

	return &dto.SyncResponse{
		Success:    true,
		Count:      count,
		Synced:     results,
		LastSynced: watermark,
	}, nil
}

// syncCourse handles one course entry from the upstream listing. Failures
// here never stop the loop over remaining courses.
func (s *SyncService) syncCourse(ctx context.Context, token string, req dto.SyncRequest, item forum.CourseItem) models.CourseSyncResult {
	id := item.ID
	result := models.CourseSyncResult{ID: &id}

	if item.ID <= 0 {
		result.ID = nil
		result.Action = models.ActionSkippedIDMismatch
		return result
	}
	if req.CourseID != nil && *req.CourseID != item.ID {
		result.Action = models.ActionSkipped
		return result
	}

	exists, err := s.courses.Exists(ctx, item.ID)
	if err != nil {
		result.Action = models.ActionErrorMain
		result.Error = err.Error()
		return result
	}

	// Course metadata has no remote updated_at; it is overwritten on every
	// pass, with insert vs update decided by row existence alone.
	course := &models.Course{ID: item.ID, Code: item.Code, Name: item.Name, Year: item.Year}
	if exists {
		err = s.courses.Update(ctx, course)
		result.Action = models.ActionUpdated
	} else {
		err = s.courses.Insert(ctx, course)
		result.Action = models.ActionInserted
	}
	if err != nil {
		result.Action = models.ActionErrorMain
		result.Error = err.Error()
		s.metrics.RecordSyncRow("course", "errored")
		return result
	}
	s.metrics.RecordSyncRow("course", string(result.Action))

	stats, err := s.threads.SyncCourse(ctx, token, s.embedKey, item.ID)
	result.Threads = stats
	if err != nil {
		result.Action = models.ActionError
		result.Error = err.Error()
		s.logger.Error("course sync failed", zap.Int64("course_id", item.ID), zap.Error(err))
		return result
	}

	if err := s.courses.TouchLastSynced(ctx, item.ID, time.Now().UTC()); err != nil {
		s.logger.Warn("failed to stamp last_synced", zap.Int64("course_id", item.ID), zap.Error(err))
	}
	return result
}

// LastSynced reports the freshness watermark, preferring the cached value.
func (s *SyncService) LastSynced(ctx context.Context) (*dto.LastSyncResponse, error) {
	var cached *time.Time
	if err := s.cache.Get(ctx, watermarkCacheKey, &cached); err == nil {
		return &dto.LastSyncResponse{Success: true, LastSynced: cached}, nil
	}

	watermark, err := s.courses.MaxLastSynced(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read sync watermark")
	}
	if watermark != nil {
		if err := s.cache.Set(ctx, watermarkCacheKey, watermark, watermarkCacheTTL); err != nil {
			s.logger.Warn("watermark cache write failed", zap.Error(err))
		}
	}
	return &dto.LastSyncResponse{Success: true, LastSynced: watermark}, nil
}
