package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"

	"github.com/studora/forum-sync-api/internal/embedding"
	"github.com/studora/forum-sync-api/internal/extract"
	"github.com/studora/forum-sync-api/internal/forum"
	"github.com/studora/forum-sync-api/internal/models"
	"github.com/studora/forum-sync-api/internal/repository"
)

type answerStore interface {
	FindByID(ctx context.Context, id int64) (*models.Answer, error)
	Insert(ctx context.Context, answer *models.Answer) error
	Update(ctx context.Context, answer *models.Answer) error
}

type embedder interface {
	Embed(ctx context.Context, text, apiKey string) (pgvector.Vector, error)
}

// AnswerSyncer reconciles the answers of a single thread against the store.
type AnswerSyncer struct {
	answers  answerStore
	embedder embedder
	logger   *zap.Logger
	metrics  *MetricsService
}

// NewAnswerSyncer constructs an AnswerSyncer.
func NewAnswerSyncer(answers answerStore, embedder embedder, logger *zap.Logger, metrics *MetricsService) *AnswerSyncer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnswerSyncer{answers: answers, embedder: embedder, logger: logger, metrics: metrics}
}

// SyncThread upserts every remote answer of a thread. A failing answer is
// counted and logged but never aborts the loop; the remaining answers in
// the same batch still get processed.
func (s *AnswerSyncer) SyncThread(ctx context.Context, embedKey string, courseID, threadID int64, items []forum.AnswerItem) models.SyncStats {
	var stats models.SyncStats
	for _, item := range items {
		if err := s.syncOne(ctx, embedKey, courseID, threadID, item, &stats); err != nil {
			stats.Errored++
			s.metrics.RecordSyncRow("answer", "errored")
			if repository.IsUndefinedTable(err) {
				s.logger.Warn("answers table does not exist", zap.Error(err))
			} else {
				s.logger.Error("answer sync failed",
					zap.Int64("answer_id", item.ID),
					zap.Int64("thread_id", threadID),
					zap.Error(err))
			}
		}
	}
	return stats
}

func (s *AnswerSyncer) syncOne(ctx context.Context, embedKey string, courseID, threadID int64, item forum.AnswerItem, stats *models.SyncStats) error {
	existing, err := s.answers.FindByID(ctx, item.ID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	if existing == nil {
		answer := mapAnswer(courseID, threadID, item)
		answer.Embedding = s.embed(ctx, embedKey, item.Document)
		if err := s.answers.Insert(ctx, answer); err != nil {
			return err
		}
		stats.Inserted++
		s.metrics.RecordSyncRow("answer", "inserted")
		return nil
	}

	// Strict timestamp gate: an answer that is not newer than the stored
	// row produces zero writes.
	if !item.UpdatedAt.After(existing.UpdatedAt) {
		return nil
	}

	// Answers re-embed on every accepted update, unlike threads.
	answer := mapAnswer(courseID, threadID, item)
	answer.Embedding = s.embed(ctx, embedKey, item.Document)
	if err := s.answers.Update(ctx, answer); err != nil {
		return err
	}
	stats.Updated++
	s.metrics.RecordSyncRow("answer", "updated")
	return nil
}

// embed downgrades any embedding failure to "no vector"; sync never aborts
// because an embedding could not be produced.
func (s *AnswerSyncer) embed(ctx context.Context, embedKey, text string) models.NullVector {
	vec, err := s.embedder.Embed(ctx, text, embedKey)
	if err != nil {
		s.metrics.RecordEmbedding(false)
		if !errors.Is(err, embedding.ErrEmptyText) {
			s.logger.Warn("embedding unavailable", zap.Error(err))
		}
		return models.NullVector{}
	}
	s.metrics.RecordEmbedding(true)
	return models.SomeVector(vec)
}

func mapAnswer(courseID, threadID int64, item forum.AnswerItem) *models.Answer {
	return &models.Answer{
		ID:         item.ID,
		ThreadID:   threadID,
		CourseID:   courseID,
		ParentID:   item.ParentID,
		Body:       optionalText(item.Document),
		Images:     extract.ImageURLs(item.Document),
		IsResolved: item.IsResolved,
		CreatedAt:  item.CreatedAt,
		UpdatedAt:  item.UpdatedAt,
	}
}

func optionalText(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
