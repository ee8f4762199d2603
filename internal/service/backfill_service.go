package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/studora/forum-sync-api/internal/models"
	"github.com/studora/forum-sync-api/pkg/config"
	"github.com/studora/forum-sync-api/pkg/jobs"
)

type threadBackfillStore interface {
	ListMissingEmbedding(ctx context.Context, limit int) ([]models.Thread, error)
	UpdateEmbedding(ctx context.Context, id int64, embedding models.NullVector) error
}

type answerBackfillStore interface {
	ListMissingEmbedding(ctx context.Context, limit int) ([]models.Answer, error)
	UpdateEmbedding(ctx context.Context, id int64, embedding models.NullVector) error
}

// BackfillService regenerates embeddings for rows whose generation failed
// during sync and were stored with a NULL vector. It runs off the request
// path on the shared job queue; every write is per-row idempotent.
type BackfillService struct {
	threads  threadBackfillStore
	answers  answerBackfillStore
	embedder embedder
	queue    *jobs.Queue
	batch    int
	embedKey string
	logger   *zap.Logger
	metrics  *MetricsService
}

// NewBackfillService constructs a BackfillService with its own worker queue.
func NewBackfillService(threads threadBackfillStore, answers answerBackfillStore, embed embedder, cfg config.BackfillConfig, embedKey string, logger *zap.Logger, metrics *MetricsService) *BackfillService {
	if logger == nil {
		logger = zap.NewNop()
	}
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 100
	}

	s := &BackfillService{
		threads:  threads,
		answers:  answers,
		embedder: embed,
		batch:    batch,
		embedKey: embedKey,
		logger:   logger,
		metrics:  metrics,
	}
	s.queue = jobs.NewQueue("embedding-backfill", s.handle, jobs.QueueConfig{
		Workers: cfg.Workers,
		Logger:  logger,
	})
	return s
}

// Start launches the backfill workers.
func (s *BackfillService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the backfill workers.
func (s *BackfillService) Stop() {
	s.queue.Stop()
}

// Trigger enqueues one backfill pass and returns its job id.
func (s *BackfillService) Trigger() (string, error) {
	jobID := fmt.Sprintf("backfill-%d", time.Now().UnixNano())
	if err := s.queue.Enqueue(jobs.Job{ID: jobID, Type: "embedding_backfill"}); err != nil {
		return "", err
	}
	return jobID, nil
}

func (s *BackfillService) handle(ctx context.Context, job jobs.Job) error {
	threadsDone, err := s.backfillThreads(ctx)
	if err != nil {
		return err
	}
	answersDone, err := s.backfillAnswers(ctx)
	if err != nil {
		return err
	}
	s.logger.Info("embedding backfill pass complete",
		zap.String("job_id", job.ID),
		zap.Int("threads", threadsDone),
		zap.Int("answers", answersDone))
	return nil
}

func (s *BackfillService) backfillThreads(ctx context.Context) (int, error) {
	threads, err := s.threads.ListMissingEmbedding(ctx, s.batch)
	if err != nil {
		return 0, err
	}

	done := 0
	for _, t := range threads {
		vec, err := s.embedder.Embed(ctx, threadEmbeddingText(t.Title, textOrEmpty(t.Body)), s.embedKey)
		if err != nil {
			s.metrics.RecordEmbedding(false)
			s.logger.Warn("thread backfill embedding failed", zap.Int64("thread_id", t.ID), zap.Error(err))
			continue
		}
		s.metrics.RecordEmbedding(true)
		if err := s.threads.UpdateEmbedding(ctx, t.ID, models.SomeVector(vec)); err != nil {
			s.logger.Error("thread backfill write failed", zap.Int64("thread_id", t.ID), zap.Error(err))
			continue
		}
		done++
		if errors.Is(ctx.Err(), context.Canceled) {
			break
		}
	}
	return done, nil
}

func (s *BackfillService) backfillAnswers(ctx context.Context) (int, error) {
	answers, err := s.answers.ListMissingEmbedding(ctx, s.batch)
	if err != nil {
		return 0, err
	}

	done := 0
	for _, a := range answers {
		vec, err := s.embedder.Embed(ctx, textOrEmpty(a.Body), s.embedKey)
		if err != nil {
			s.metrics.RecordEmbedding(false)
			s.logger.Warn("answer backfill embedding failed", zap.Int64("answer_id", a.ID), zap.Error(err))
			continue
		}
		s.metrics.RecordEmbedding(true)
		if err := s.answers.UpdateEmbedding(ctx, a.ID, models.SomeVector(vec)); err != nil {
			s.logger.Error("answer backfill write failed", zap.Int64("answer_id", a.ID), zap.Error(err))
			continue
		}
		done++
		if errors.Is(ctx.Err(), context.Canceled) {
			break
		}
	}
	return done, nil
}
