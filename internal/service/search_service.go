package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"

	"github.com/studora/forum-sync-api/internal/dto"
	"github.com/studora/forum-sync-api/internal/models"
	"github.com/studora/forum-sync-api/internal/repository"
	"github.com/studora/forum-sync-api/pkg/config"
	appErrors "github.com/studora/forum-sync-api/pkg/errors"
)

type threadSearcher interface {
	TopBySimilarity(ctx context.Context, courseID int64, query pgvector.Vector, limit int) ([]models.ThreadMatch, error)
}

type answerSearcher interface {
	ListByThreadWithSimilarity(ctx context.Context, threadID int64, query pgvector.Vector) ([]models.AnswerMatch, error)
	TopBySimilarity(ctx context.Context, courseID int64, query pgvector.Vector, limit int) ([]models.AnswerMatch, error)
}

// SearchService ranks stored content against a query embedding. Similarity
// itself comes from the store's vector operator; this service only merges
// the two candidate stages and sorts.
type SearchService struct {
	threads    threadSearcher
	answers    answerSearcher
	embedder   embedder
	cache      *repository.CacheRepository
	cfg        config.SearchConfig
	webBaseURL string
	embedKey   string
	logger     *zap.Logger
	metrics    *MetricsService
}

// NewSearchService constructs a SearchService.
func NewSearchService(threads threadSearcher, answers answerSearcher, embed embedder, cache *repository.CacheRepository, cfg config.SearchConfig, webBaseURL, embedKey string, logger *zap.Logger, metrics *MetricsService) *SearchService {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SearchService{
		threads:    threads,
		answers:    answers,
		embedder:   embed,
		cache:      cache,
		cfg:        cfg,
		webBaseURL: webBaseURL,
		embedKey:   embedKey,
		logger:     logger,
		metrics:    metrics,
	}
}

// Search embeds the query and returns the merged, capped ranking of
// thread-with-best-answer composites and direct answer hits.
func (s *SearchService) Search(ctx context.Context, query string, courseID int64, limit int) (*dto.SearchResponse, error) {
	if limit <= 0 {
		limit = s.cfg.DefaultLimit
	}

	cacheKey := searchCacheKey(query, courseID, limit)
	var cached dto.SearchResponse
	if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
		return &cached, nil
	}

	// Query embedding failure is the one place an embedding error is hard:
	// without a query vector there is nothing to rank.
	vec, err := s.embedder.Embed(ctx, query, s.embedKey)
	if err != nil {
		s.metrics.RecordEmbedding(false)
		return nil, appErrors.Wrap(err, appErrors.ErrEmbeddingUnavailable.Code, appErrors.ErrEmbeddingUnavailable.Status, "failed to embed search query")
	}
	s.metrics.RecordEmbedding(true)

	composite, err := s.compositeResults(ctx, vec, courseID, limit)
	if err != nil {
		return nil, err
	}

	direct, err := s.directAnswerResults(ctx, vec, courseID, limit)
	if err != nil {
		return nil, err
	}

	merged := append(composite, direct...)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Similarity > merged[j].Similarity
	})
	if len(merged) > limit {
		merged = merged[:limit]
	}

	resp := &dto.SearchResponse{Results: merged, Query: query, CourseID: courseID}
	if err := s.cache.Set(ctx, cacheKey, resp, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("search cache write failed", zap.Error(err))
	}
	return resp, nil
}

// compositeResults pairs each nearby thread with its best answer. Threads
// without any answers cannot produce a composite and are dropped from this
// stage.
func (s *SearchService) compositeResults(ctx context.Context, vec pgvector.Vector, courseID int64, limit int) ([]models.SearchResult, error) {
	matches, err := s.threads.TopBySimilarity(ctx, courseID, vec, 2*limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "thread similarity query failed")
	}

	results := make([]models.SearchResult, 0, len(matches))
	for _, tm := range matches {
		answers, err := s.answers.ListByThreadWithSimilarity(ctx, tm.ID, vec)
		if err != nil {
			s.logger.Warn("answer lookup failed", zap.Int64("thread_id", tm.ID), zap.Error(err))
			continue
		}
		if len(answers) == 0 {
			continue
		}

		best := bestAnswer(answers)
		score := tm.Similarity
		for _, a := range answers {
			if a.Similarity > score {
				score = a.Similarity
			}
		}

		results = append(results, models.SearchResult{
			ID:         fmt.Sprintf("thread-%d", tm.ID),
			Title:      tm.Title,
			Content:    textOrEmpty(best.Body),
			Similarity: score,
			Metadata: models.SearchMetadata{
				Source:     models.SourceThreadWithAnswers,
				URL:        s.deepLink(courseID, tm.ID, best.ID),
				ThreadID:   tm.ID,
				AnswerID:   best.ID,
				CourseID:   courseID,
				IsResolved: best.IsResolved,
			},
		})
	}
	return results, nil
}

func (s *SearchService) directAnswerResults(ctx context.Context, vec pgvector.Vector, courseID int64, limit int) ([]models.SearchResult, error) {
	matches, err := s.answers.TopBySimilarity(ctx, courseID, vec, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "answer similarity query failed")
	}

	results := make([]models.SearchResult, 0, len(matches))
	for _, am := range matches {
		results = append(results, models.SearchResult{
			ID:         fmt.Sprintf("answer-%d", am.ID),
			Title:      am.ThreadTitle,
			Content:    textOrEmpty(am.Body),
			Similarity: am.Similarity,
			Metadata: models.SearchMetadata{
				Source:     models.SourceDirectAnswer,
				URL:        s.deepLink(courseID, am.ThreadID, am.ID),
				ThreadID:   am.ThreadID,
				AnswerID:   am.ID,
				CourseID:   courseID,
				IsResolved: am.IsResolved,
			},
		})
	}
	return results, nil
}

// bestAnswer selects a thread's representative answer: resolved answers
// beat unresolved ones, then newer created_at wins.
func bestAnswer(answers []models.AnswerMatch) models.AnswerMatch {
	best := answers[0]
	for _, a := range answers[1:] {
		if answerOutranks(a, best) {
			best = a
		}
	}
	return best
}

func answerOutranks(a, b models.AnswerMatch) bool {
	if a.IsResolved != b.IsResolved {
		return a.IsResolved
	}
	return a.CreatedAt.After(b.CreatedAt)
}

func (s *SearchService) deepLink(courseID, threadID, answerID int64) string {
	link := fmt.Sprintf("%s/courses/%d/threads/%d", s.webBaseURL, courseID, threadID)
	if answerID > 0 {
		link += fmt.Sprintf("?answer=%d", answerID)
	}
	return link
}

func searchCacheKey(query string, courseID int64, limit int) string {
	sum := sha256.Sum256([]byte(query))
	return fmt.Sprintf("search:%d:%d:%s", courseID, limit, hex.EncodeToString(sum[:8]))
}

func textOrEmpty(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
