package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pgvector/pgvector-go"

	"github.com/studora/forum-sync-api/internal/models"
)

const answerColumns = `id, thread_id, course_id, parent_id, body, images, is_resolved,
	created_at, updated_at, embedding`

// AnswerRepository manages persistence for answers.
type AnswerRepository struct {
	db *sqlx.DB
}

// NewAnswerRepository constructs an AnswerRepository.
func NewAnswerRepository(db *sqlx.DB) *AnswerRepository {
	return &AnswerRepository{db: db}
}

// FindByID fetches an answer by its external ID.
func (r *AnswerRepository) FindByID(ctx context.Context, id int64) (*models.Answer, error) {
	query := fmt.Sprintf(`SELECT %s FROM answers WHERE id = $1`, answerColumns)
	var answer models.Answer
	if err := r.db.GetContext(ctx, &answer, query, id); err != nil {
		return nil, err
	}
	return &answer, nil
}

// Insert stores a freshly observed answer.
func (r *AnswerRepository) Insert(ctx context.Context, answer *models.Answer) error {
	const query = `INSERT INTO answers (id, thread_id, course_id, parent_id, body, images, is_resolved,
			created_at, updated_at, embedding)
		VALUES (:id, :thread_id, :course_id, :parent_id, :body, :images, :is_resolved,
			:created_at, :updated_at, :embedding)`
	if _, err := r.db.NamedExecContext(ctx, query, answer); err != nil {
		return fmt.Errorf("insert answer: %w", err)
	}
	return nil
}

// Update rewrites an answer's fields including the embedding: unlike
// threads, answers re-embed whenever the source reports a newer timestamp.
func (r *AnswerRepository) Update(ctx context.Context, answer *models.Answer) error {
	const query = `UPDATE answers SET parent_id = :parent_id, body = :body, images = :images,
			is_resolved = :is_resolved, updated_at = :updated_at, embedding = :embedding
		WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, answer); err != nil {
		return fmt.Errorf("update answer: %w", err)
	}
	return nil
}

// UpdateEmbedding writes only the vector column. Used by the backfill.
func (r *AnswerRepository) UpdateEmbedding(ctx context.Context, id int64, embedding models.NullVector) error {
	const query = `UPDATE answers SET embedding = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, embedding); err != nil {
		return fmt.Errorf("update answer embedding: %w", err)
	}
	return nil
}

// ListByThreadWithSimilarity returns all of a thread's answers with their
// similarity to the query vector. Answers without an embedding score 0 so
// they can still be selected as "best answer" by the resolved/recency rule.
func (r *AnswerRepository) ListByThreadWithSimilarity(ctx context.Context, threadID int64, query pgvector.Vector) ([]models.AnswerMatch, error) {
	sqlQuery := fmt.Sprintf(`SELECT %s, COALESCE(1 - (embedding <=> $2::vector), 0) AS similarity, '' AS thread_title
		FROM answers
		WHERE thread_id = $1
		ORDER BY created_at DESC`, answerColumns)
	var matches []models.AnswerMatch
	if err := r.db.SelectContext(ctx, &matches, sqlQuery, threadID, query); err != nil {
		return nil, fmt.Errorf("answer similarity by thread: %w", err)
	}
	return matches, nil
}

// TopBySimilarity returns the limit nearest answers to the query vector
// within a course, joined with the parent thread title for presentation.
func (r *AnswerRepository) TopBySimilarity(ctx context.Context, courseID int64, query pgvector.Vector, limit int) ([]models.AnswerMatch, error) {
	sqlQuery := `SELECT a.id, a.thread_id, a.course_id, a.parent_id, a.body, a.images, a.is_resolved,
			a.created_at, a.updated_at, a.embedding,
			1 - (a.embedding <=> $2::vector) AS similarity,
			COALESCE(t.title, '') AS thread_title
		FROM answers a
		LEFT JOIN threads t ON t.id = a.thread_id
		WHERE a.course_id = $1 AND a.embedding IS NOT NULL
		ORDER BY a.embedding <=> $2::vector
		LIMIT $3`
	var matches []models.AnswerMatch
	if err := r.db.SelectContext(ctx, &matches, sqlQuery, courseID, query, limit); err != nil {
		return nil, fmt.Errorf("answer similarity search: %w", err)
	}
	return matches, nil
}

// ListMissingEmbedding returns answers that still have no vector but carry
// non-empty text.
func (r *AnswerRepository) ListMissingEmbedding(ctx context.Context, limit int) ([]models.Answer, error) {
	query := fmt.Sprintf(`SELECT %s FROM answers
		WHERE embedding IS NULL AND COALESCE(body, '') <> ''
		ORDER BY updated_at DESC
		LIMIT $1`, answerColumns)
	var answers []models.Answer
	if err := r.db.SelectContext(ctx, &answers, query, limit); err != nil {
		return nil, fmt.Errorf("list answers missing embedding: %w", err)
	}
	return answers, nil
}
