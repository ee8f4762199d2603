package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studora/forum-sync-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestCourseRepositoryExists(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS (SELECT 1 FROM courses WHERE id = $1)`)).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.Exists(context.Background(), 42)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryInsert(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec("INSERT INTO courses").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Insert(context.Background(), &models.Course{ID: 42, Code: "CS101", Name: "Intro", Year: "2026"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryUpdate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec("UPDATE courses SET").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), &models.Course{ID: 42, Code: "CS101", Name: "Renamed", Year: "2026"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryTouchLastSynced(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	ts := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE courses SET last_synced = $2 WHERE id = $1`)).
		WithArgs(int64(42), ts).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.TouchLastSynced(context.Background(), 42, ts))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryMaxLastSynced(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	ts := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT MAX(last_synced) FROM courses`)).
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(ts))

	got, err := repo.MaxLastSynced(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Equal(ts))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryMaxLastSyncedEmpty(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT MAX(last_synced) FROM courses`)).
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(nil))

	got, err := repo.MaxLastSynced(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsUndefinedTable(t *testing.T) {
	assert.True(t, IsUndefinedTable(&pq.Error{Code: "42P01"}))
	assert.False(t, IsUndefinedTable(&pq.Error{Code: "23505"}))
	assert.False(t, IsUndefinedTable(assert.AnError))
	assert.False(t, IsUndefinedTable(nil))
}
