package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/studora/forum-sync-api/internal/models"
)

// IsUndefinedTable reports whether err is Postgres' "relation does not
// exist". Syncers warn on it instead of failing the record outright.
func IsUndefinedTable(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "42P01"
	}
	return false
}

// CourseRepository manages persistence for courses.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs a CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// Exists checks whether a course row is already stored.
func (r *CourseRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	const query = `SELECT EXISTS (SELECT 1 FROM courses WHERE id = $1)`
	if err := r.db.GetContext(ctx, &exists, query, id); err != nil {
		return false, fmt.Errorf("check course existence: %w", err)
	}
	return exists, nil
}

// FindByID fetches a course by its external ID.
func (r *CourseRepository) FindByID(ctx context.Context, id int64) (*models.Course, error) {
	const query = `SELECT id, code, name, year, last_synced FROM courses WHERE id = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// Insert stores a new course row keyed by the source-assigned ID.
func (r *CourseRepository) Insert(ctx context.Context, course *models.Course) error {
	const query = `INSERT INTO courses (id, code, name, year, last_synced)
		VALUES (:id, :code, :name, :year, :last_synced)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("insert course: %w", err)
	}
	return nil
}

// Update overwrites the course metadata. Course rows have no reliable remote
// updated_at, so every sync pass rewrites them.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	const query = `UPDATE courses SET code = :code, name = :name, year = :year WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	return nil
}

// TouchLastSynced stamps the course's last successful sync time.
func (r *CourseRepository) TouchLastSynced(ctx context.Context, id int64, ts time.Time) error {
	const query = `UPDATE courses SET last_synced = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, ts); err != nil {
		return fmt.Errorf("touch course last_synced: %w", err)
	}
	return nil
}

// MaxLastSynced returns the freshness watermark: the greatest last_synced
// across all courses, or nil when nothing has synced yet.
func (r *CourseRepository) MaxLastSynced(ctx context.Context) (*time.Time, error) {
	var ts *time.Time
	const query = `SELECT MAX(last_synced) FROM courses`
	if err := r.db.GetContext(ctx, &ts, query); err != nil {
		return nil, fmt.Errorf("query sync watermark: %w", err)
	}
	return ts, nil
}
