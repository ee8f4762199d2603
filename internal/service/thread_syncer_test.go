package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studora/forum-sync-api/internal/forum"
	"github.com/studora/forum-sync-api/internal/models"
)

type mockThreadStore struct {
	existing map[int64]*models.Thread
	inserted []*models.Thread
	updated  []*models.Thread

	insertErr map[int64]error
}

func newMockThreadStore() *mockThreadStore {
	return &mockThreadStore{existing: map[int64]*models.Thread{}, insertErr: map[int64]error{}}
}

func (m *mockThreadStore) FindByID(ctx context.Context, id int64) (*models.Thread, error) {
	if t, ok := m.existing[id]; ok {
		return t, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockThreadStore) Insert(ctx context.Context, thread *models.Thread) error {
	if err := m.insertErr[thread.ID]; err != nil {
		return err
	}
	m.inserted = append(m.inserted, thread)
	return nil
}

func (m *mockThreadStore) Update(ctx context.Context, thread *models.Thread) error {
	m.updated = append(m.updated, thread)
	return nil
}

type mockThreadFetcher struct {
	pages       map[int]*forum.ThreadsPage
	details     map[int64]*forum.ThreadDetail
	listCalls   int
	detailCalls int
	listErr     map[int]error
	detailErr   map[int64]error
}

func newMockThreadFetcher() *mockThreadFetcher {
	return &mockThreadFetcher{
		pages:     map[int]*forum.ThreadsPage{},
		details:   map[int64]*forum.ThreadDetail{},
		listErr:   map[int]error{},
		detailErr: map[int64]error{},
	}
}

func (m *mockThreadFetcher) ListThreads(ctx context.Context, token string, courseID int64, page, limit int) (*forum.ThreadsPage, error) {
	m.listCalls++
	if err := m.listErr[page]; err != nil {
		return nil, err
	}
	if p, ok := m.pages[page]; ok {
		return p, nil
	}
	return &forum.ThreadsPage{}, nil
}

func (m *mockThreadFetcher) GetThread(ctx context.Context, token string, threadID int64) (*forum.ThreadDetail, error) {
	m.detailCalls++
	if err := m.detailErr[threadID]; err != nil {
		return nil, err
	}
	if d, ok := m.details[threadID]; ok {
		return d, nil
	}
	return &forum.ThreadDetail{}, nil
}

func newThreadSyncerForTest(store *mockThreadStore, fetcher *mockThreadFetcher, embed *mockEmbedder) *ThreadSyncer {
	answers := NewAnswerSyncer(newMockAnswerStore(), embed, nil, nil)
	return NewThreadSyncer(fetcher, store, answers, embed, 50, nil, nil)
}

func threadItem(id int64, title string, updatedAt time.Time) forum.ThreadItem {
	return forum.ThreadItem{ID: id, Title: title, Document: "body", CreatedAt: updatedAt, UpdatedAt: updatedAt}
}

func TestThreadSyncerSinglePageTermination(t *testing.T) {
	store := newMockThreadStore()
	fetcher := newMockThreadFetcher()
	fetcher.pages[1] = &forum.ThreadsPage{
		Threads:    []forum.ThreadItem{threadItem(1, "only", time.Now())},
		Pagination: &forum.Pagination{CurrentPage: 1, LastPage: 1, Total: 1},
	}

	syncer := newThreadSyncerForTest(store, fetcher, &mockEmbedder{})
	stats, err := syncer.SyncCourse(context.Background(), "tok", "key", 42)
	require.NoError(t, err)

	assert.Equal(t, 1, fetcher.listCalls)
	assert.Equal(t, 1, stats.Inserted)
}

func TestThreadSyncerWalksAllPages(t *testing.T) {
	now := time.Now()
	store := newMockThreadStore()
	fetcher := newMockThreadFetcher()
	fetcher.pages[1] = &forum.ThreadsPage{
		Threads:    []forum.ThreadItem{threadItem(1, "a", now)},
		Pagination: &forum.Pagination{CurrentPage: 1, LastPage: 3},
	}
	fetcher.pages[2] = &forum.ThreadsPage{
		Threads:    []forum.ThreadItem{threadItem(2, "b", now)},
		Pagination: &forum.Pagination{CurrentPage: 2, LastPage: 3},
	}
	fetcher.pages[3] = &forum.ThreadsPage{
		Threads:    []forum.ThreadItem{threadItem(3, "c", now)},
		Pagination: &forum.Pagination{CurrentPage: 3, LastPage: 3},
	}

	syncer := newThreadSyncerForTest(store, fetcher, &mockEmbedder{})
	stats, err := syncer.SyncCourse(context.Background(), "tok", "key", 42)
	require.NoError(t, err)

	assert.Equal(t, 3, fetcher.listCalls)
	assert.Equal(t, 3, stats.Inserted)
}

func TestThreadSyncerMissingPaginationStops(t *testing.T) {
	store := newMockThreadStore()
	fetcher := newMockThreadFetcher()
	fetcher.pages[1] = &forum.ThreadsPage{Threads: []forum.ThreadItem{threadItem(1, "a", time.Now())}}

	syncer := newThreadSyncerForTest(store, fetcher, &mockEmbedder{})
	_, err := syncer.SyncCourse(context.Background(), "tok", "key", 42)
	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.listCalls)
}

func TestThreadSyncerPageFetchFailureAborts(t *testing.T) {
	now := time.Now()
	store := newMockThreadStore()
	fetcher := newMockThreadFetcher()
	fetcher.pages[1] = &forum.ThreadsPage{
		Threads:    []forum.ThreadItem{threadItem(1, "a", now)},
		Pagination: &forum.Pagination{CurrentPage: 1, LastPage: 2},
	}
	fetcher.listErr[2] = errors.New("gateway timeout")

	syncer := newThreadSyncerForTest(store, fetcher, &mockEmbedder{})
	stats, err := syncer.SyncCourse(context.Background(), "tok", "key", 42)
	require.Error(t, err)
	// Work from the first page is retained.
	assert.Equal(t, 1, stats.Inserted)
}

func TestThreadSyncerEmbedsOnInsertOnly(t *testing.T) {
	ts := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	store := newMockThreadStore()
	store.existing[2] = &models.Thread{ID: 2, UpdatedAt: ts}
	fetcher := newMockThreadFetcher()
	fetcher.pages[1] = &forum.ThreadsPage{
		Threads: []forum.ThreadItem{
			threadItem(1, "new", ts),
			threadItem(2, "edited", ts.Add(time.Hour)),
		},
		Pagination: &forum.Pagination{CurrentPage: 1, LastPage: 1},
	}

	embed := &mockEmbedder{}
	syncer := newThreadSyncerForTest(store, fetcher, embed)
	stats, err := syncer.SyncCourse(context.Background(), "tok", "key", 42)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Inserted)
	assert.Equal(t, 1, stats.Updated)
	// Only the inserted thread produced an embedding call.
	assert.Equal(t, 1, embed.calls)
	assert.Equal(t, "new\n\nbody", embed.texts[0])
	require.Len(t, store.updated, 1)
	assert.False(t, store.updated[0].Embedding.Valid)
}

func TestThreadSyncerSkipsUnchangedThreadAnswers(t *testing.T) {
	ts := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	store := newMockThreadStore()
	store.existing[1] = &models.Thread{ID: 1, UpdatedAt: ts}
	fetcher := newMockThreadFetcher()
	fetcher.pages[1] = &forum.ThreadsPage{
		Threads:    []forum.ThreadItem{threadItem(1, "same", ts)},
		Pagination: &forum.Pagination{CurrentPage: 1, LastPage: 1},
	}

	syncer := newThreadSyncerForTest(store, fetcher, &mockEmbedder{})
	stats, err := syncer.SyncCourse(context.Background(), "tok", "key", 42)
	require.NoError(t, err)

	assert.Equal(t, models.SyncStats{}, stats)
	assert.Equal(t, 0, fetcher.detailCalls)
}

func TestThreadSyncerSyncsAnswersOfChangedThread(t *testing.T) {
	now := time.Now()
	store := newMockThreadStore()
	fetcher := newMockThreadFetcher()
	fetcher.pages[1] = &forum.ThreadsPage{
		Threads:    []forum.ThreadItem{threadItem(1, "q", now)},
		Pagination: &forum.Pagination{CurrentPage: 1, LastPage: 1},
	}
	fetcher.details[1] = &forum.ThreadDetail{
		Thread: threadItem(1, "q", now),
		Answers: []forum.AnswerItem{
			{ID: 100, Document: "a1", CreatedAt: now, UpdatedAt: now},
			{ID: 101, Document: "a2", CreatedAt: now, UpdatedAt: now},
		},
	}

	answerStore := newMockAnswerStore()
	embed := &mockEmbedder{}
	answers := NewAnswerSyncer(answerStore, embed, nil, nil)
	syncer := NewThreadSyncer(fetcher, store, answers, embed, 50, nil, nil)

	stats, err := syncer.SyncCourse(context.Background(), "tok", "key", 42)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Inserted)
	assert.Len(t, answerStore.inserted, 2)
	assert.Equal(t, 1, fetcher.detailCalls)
}

func TestThreadSyncerDetailFailureCountsError(t *testing.T) {
	now := time.Now()
	store := newMockThreadStore()
	fetcher := newMockThreadFetcher()
	fetcher.pages[1] = &forum.ThreadsPage{
		Threads:    []forum.ThreadItem{threadItem(1, "q", now), threadItem(2, "r", now)},
		Pagination: &forum.Pagination{CurrentPage: 1, LastPage: 1},
	}
	fetcher.detailErr[1] = errors.New("detail unavailable")

	syncer := newThreadSyncerForTest(store, fetcher, &mockEmbedder{})
	stats, err := syncer.SyncCourse(context.Background(), "tok", "key", 42)
	require.NoError(t, err)

	// Both thread rows are written; the lost answer pass for thread 1 is
	// counted as an error.
	assert.Equal(t, 2, stats.Inserted)
	assert.Equal(t, 1, stats.Errored)
}

func TestThreadSyncerIsolatesRecordFailures(t *testing.T) {
	now := time.Now()
	store := newMockThreadStore()
	store.insertErr[3] = errors.New("write failed")
	fetcher := newMockThreadFetcher()
	fetcher.pages[1] = &forum.ThreadsPage{
		Threads: []forum.ThreadItem{
			threadItem(1, "a", now), threadItem(2, "b", now), threadItem(3, "c", now),
			threadItem(4, "d", now), threadItem(5, "e", now),
		},
		Pagination: &forum.Pagination{CurrentPage: 1, LastPage: 1},
	}

	syncer := newThreadSyncerForTest(store, fetcher, &mockEmbedder{})
	stats, err := syncer.SyncCourse(context.Background(), "tok", "key", 42)
	require.NoError(t, err)

	assert.Equal(t, 4, stats.Inserted)
	assert.Equal(t, 1, stats.Errored)
	assert.Len(t, store.inserted, 4)
}
