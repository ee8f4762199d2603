package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pgvector/pgvector-go"

	"github.com/studora/forum-sync-api/internal/models"
)

const threadColumns = `id, course_id, title, body, category, subcategory, subsubcategory,
	is_answered, is_staff_answered, is_student_answered, created_at, updated_at, images, embedding`

// ThreadRepository manages persistence for threads.
type ThreadRepository struct {
	db *sqlx.DB
}

// NewThreadRepository constructs a ThreadRepository.
func NewThreadRepository(db *sqlx.DB) *ThreadRepository {
	return &ThreadRepository{db: db}
}

// FindByID fetches a thread by its external ID.
func (r *ThreadRepository) FindByID(ctx context.Context, id int64) (*models.Thread, error) {
	query := fmt.Sprintf(`SELECT %s FROM threads WHERE id = $1`, threadColumns)
	var thread models.Thread
	if err := r.db.GetContext(ctx, &thread, query, id); err != nil {
		return nil, err
	}
	return &thread, nil
}

// Insert stores a freshly observed thread.
func (r *ThreadRepository) Insert(ctx context.Context, thread *models.Thread) error {
	const query = `INSERT INTO threads (id, course_id, title, body, category, subcategory, subsubcategory,
			is_answered, is_staff_answered, is_student_answered, created_at, updated_at, images, embedding)
		VALUES (:id, :course_id, :title, :body, :category, :subcategory, :subsubcategory,
			:is_answered, :is_staff_answered, :is_student_answered, :created_at, :updated_at, :images, :embedding)`
	if _, err := r.db.NamedExecContext(ctx, query, thread); err != nil {
		return fmt.Errorf("insert thread: %w", err)
	}
	return nil
}

// Update rewrites a thread's mapped fields. The embedding column is left
// untouched: thread embeddings are generated on insert only.
func (r *ThreadRepository) Update(ctx context.Context, thread *models.Thread) error {
	const query = `UPDATE threads SET title = :title, body = :body, category = :category,
			subcategory = :subcategory, subsubcategory = :subsubcategory,
			is_answered = :is_answered, is_staff_answered = :is_staff_answered,
			is_student_answered = :is_student_answered, updated_at = :updated_at, images = :images
		WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, thread); err != nil {
		return fmt.Errorf("update thread: %w", err)
	}
	return nil
}

// UpdateEmbedding writes only the vector column. Used by the backfill.
func (r *ThreadRepository) UpdateEmbedding(ctx context.Context, id int64, embedding models.NullVector) error {
	const query = `UPDATE threads SET embedding = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, embedding); err != nil {
		return fmt.Errorf("update thread embedding: %w", err)
	}
	return nil
}

// TopBySimilarity returns the limit nearest threads to the query vector
// within a course, most similar first. Similarity is the store-computed
// 1 - cosine distance; threads without an embedding are excluded.
func (r *ThreadRepository) TopBySimilarity(ctx context.Context, courseID int64, query pgvector.Vector, limit int) ([]models.ThreadMatch, error) {
	sqlQuery := fmt.Sprintf(`SELECT %s, 1 - (embedding <=> $2::vector) AS similarity
		FROM threads
		WHERE course_id = $1 AND embedding IS NOT NULL
		ORDER BY embedding <=> $2::vector
		LIMIT $3`, threadColumns)
	var matches []models.ThreadMatch
	if err := r.db.SelectContext(ctx, &matches, sqlQuery, courseID, query, limit); err != nil {
		return nil, fmt.Errorf("thread similarity search: %w", err)
	}
	return matches, nil
}

// ListMissingEmbedding returns threads that still have no vector but do have
// text worth embedding.
func (r *ThreadRepository) ListMissingEmbedding(ctx context.Context, limit int) ([]models.Thread, error) {
	query := fmt.Sprintf(`SELECT %s FROM threads
		WHERE embedding IS NULL AND (title <> '' OR COALESCE(body, '') <> '')
		ORDER BY updated_at DESC
		LIMIT $1`, threadColumns)
	var threads []models.Thread
	if err := r.db.SelectContext(ctx, &threads, query, limit); err != nil {
		return nil, fmt.Errorf("list threads missing embedding: %w", err)
	}
	return threads, nil
}
