package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/studora/forum-sync-api/internal/extract"
	"github.com/studora/forum-sync-api/internal/forum"
	"github.com/studora/forum-sync-api/internal/models"
	"github.com/studora/forum-sync-api/internal/repository"
)

type threadStore interface {
	FindByID(ctx context.Context, id int64) (*models.Thread, error)
	Insert(ctx context.Context, thread *models.Thread) error
	Update(ctx context.Context, thread *models.Thread) error
}

type threadFetcher interface {
	ListThreads(ctx context.Context, token string, courseID int64, page, limit int) (*forum.ThreadsPage, error)
	GetThread(ctx context.Context, token string, threadID int64) (*forum.ThreadDetail, error)
}

// ThreadSyncer reconciles one course's threads against the store, page by
// page, and drives the AnswerSyncer for threads that changed.
type ThreadSyncer struct {
	forum    threadFetcher
	threads  threadStore
	answers  *AnswerSyncer
	embedder embedder
	pageSize int
	logger   *zap.Logger
	metrics  *MetricsService
}

// NewThreadSyncer constructs a ThreadSyncer.
func NewThreadSyncer(client threadFetcher, threads threadStore, answers *AnswerSyncer, embed embedder, pageSize int, logger *zap.Logger, metrics *MetricsService) *ThreadSyncer {
	if pageSize <= 0 {
		pageSize = 50
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ThreadSyncer{
		forum:    client,
		threads:  threads,
		answers:  answers,
		embedder: embed,
		pageSize: pageSize,
		logger:   logger,
		metrics:  metrics,
	}
}

// SyncCourse pages through a course's threads and upserts each one. A page
// fetch failure aborts the course (the orchestrator records it); a failing
// individual thread only increments the error count.
func (s *ThreadSyncer) SyncCourse(ctx context.Context, token, embedKey string, courseID int64) (models.SyncStats, error) {
	var stats models.SyncStats

	page := 1
	for {
		threadsPage, err := s.forum.ListThreads(ctx, token, courseID, page, s.pageSize)
		if err != nil {
			return stats, err
		}

		for _, item := range threadsPage.Threads {
			if err := s.syncOne(ctx, token, embedKey, courseID, item, &stats); err != nil {
				stats.Errored++
				s.metrics.RecordSyncRow("thread", "errored")
				if repository.IsUndefinedTable(err) {
					s.logger.Warn("threads table does not exist", zap.Error(err))
				} else {
					s.logger.Error("thread sync failed",
						zap.Int64("thread_id", item.ID),
						zap.Int64("course_id", courseID),
						zap.Error(err))
				}
			}
		}

		if !threadsPage.Pagination.HasMore() {
			break
		}
		page++
	}

	return stats, nil
}

// syncOne upserts a single thread and, when the thread was inserted or
// updated, re-syncs its answers from the detail endpoint.
//
// Answers of an unchanged thread are assumed unchanged and are not
// re-fetched. Answers added upstream without bumping the parent thread's
// updated_at are therefore missed until the thread next changes.
func (s *ThreadSyncer) syncOne(ctx context.Context, token, embedKey string, courseID int64, item forum.ThreadItem, stats *models.SyncStats) error {
	existing, err := s.threads.FindByID(ctx, item.ID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	changed := false
	switch {
	case existing == nil:
		thread := mapThread(courseID, item)
		// Thread embeddings are generated on insert only, never refreshed
		// on update.
		thread.Embedding = s.embed(ctx, embedKey, threadEmbeddingText(item.Title, item.Document))
		if err := s.threads.Insert(ctx, thread); err != nil {
			return err
		}
		stats.Inserted++
		s.metrics.RecordSyncRow("thread", "inserted")
		changed = true

	case item.UpdatedAt.After(existing.UpdatedAt):
		thread := mapThread(courseID, item)
		if err := s.threads.Update(ctx, thread); err != nil {
			return err
		}
		stats.Updated++
		s.metrics.RecordSyncRow("thread", "updated")
		changed = true
	}

	if !changed {
		return nil
	}

	detail, err := s.forum.GetThread(ctx, token, item.ID)
	if err != nil {
		// The thread row itself is already written; only the answer pass is
		// lost. Count it and move on to the next thread.
		stats.Errored++
		s.metrics.RecordSyncRow("thread", "errored")
		s.logger.Error("thread detail fetch failed", zap.Int64("thread_id", item.ID), zap.Error(err))
		return nil
	}

	answerStats := s.answers.SyncThread(ctx, embedKey, courseID, item.ID, detail.Answers)
	stats.Add(answerStats)
	return nil
}

func (s *ThreadSyncer) embed(ctx context.Context, embedKey, text string) models.NullVector {
	return s.answers.embed(ctx, embedKey, text)
}

func threadEmbeddingText(title, body string) string {
	if body == "" {
		return title
	}
	return title + "\n\n" + body
}

func mapThread(courseID int64, item forum.ThreadItem) *models.Thread {
	return &models.Thread{
		ID:                item.ID,
		CourseID:          courseID,
		Title:             item.Title,
		Body:              optionalText(item.Document),
		Category:          optionalText(item.Category),
		Subcategory:       optionalText(item.Subcategory),
		Subsubcategory:    optionalText(item.Subsubcategory),
		IsAnswered:        item.IsAnswered,
		IsStaffAnswered:   item.IsStaffAnswered,
		IsStudentAnswered: item.IsStudentAnswered,
		CreatedAt:         item.CreatedAt,
		UpdatedAt:         item.UpdatedAt,
		Images:            extract.ImageURLs(item.Document),
	}
}
