package workflow

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/garyjia/newsroom-workflow/internal/application/dispatcher"
	"github.com/garyjia/newsroom-workflow/internal/domain/entity"
	"github.com/garyjia/newsroom-workflow/internal/domain/event"
	domainwf "github.com/garyjia/newsroom-workflow/internal/domain/workflow"
)

// mockArticleRepo is an in-memory ArticleRepository with real compare-and-swap semantics
type mockArticleRepo struct {
	mu       sync.Mutex
	articles map[int64]entity.Article
	nextID   int64
	casCalls int

	// beforeSwap runs inside CompareAndSwap before the version check
	beforeSwap func(id int64)
}

func newMockArticleRepo() *mockArticleRepo {
	return &mockArticleRepo{articles: make(map[int64]entity.Article)}
}

func (m *mockArticleRepo) seed(status domainwf.State) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.articles[m.nextID] = entity.Article{
		ID:       m.nextID,
		Title:    "Budget vote",
		AuthorID: "w-1",
		Status:   status,
		Version:  1,
	}
	return m.nextID
}

func (m *mockArticleRepo) stored(id int64) entity.Article {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.articles[id]
}

func (m *mockArticleRepo) Create(ctx context.Context, article *entity.Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	article.ID = m.nextID
	m.articles[article.ID] = *article
	return nil
}

func (m *mockArticleRepo) GetByID(ctx context.Context, id int64) (*entity.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.articles[id]
	if !ok {
		return nil, domainwf.NotFound(id)
	}
	return &a, nil
}

func (m *mockArticleRepo) CompareAndSwap(ctx context.Context, next *entity.Article, expectedStatus domainwf.State, expectedVersion int64) error {
	if m.beforeSwap != nil {
		m.beforeSwap(next.ID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.casCalls++
	cur, ok := m.articles[next.ID]
	if !ok {
		return domainwf.NotFound(next.ID)
	}
	if cur.Status != expectedStatus || cur.Version != expectedVersion {
		return domainwf.Conflict(next.ID, expectedStatus, cur.Status)
	}
	next.Version = expectedVersion + 1
	m.articles[next.ID] = *next
	return nil
}

func (m *mockArticleRepo) List(ctx context.Context, filter entity.ArticleFilter) ([]*entity.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.Article
	for _, a := range m.articles {
		a := a
		out = append(out, &a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockArticleRepo) ListDueForPublication(ctx context.Context, now time.Time, limit int) ([]*entity.Article, error) {
	return nil, nil
}

func (m *mockArticleRepo) CountByStatus(ctx context.Context) ([]entity.StatusCount, error) {
	return nil, nil
}

// mockHistoryRepo records transitions in memory
type mockHistoryRepo struct {
	mu      sync.Mutex
	records []*entity.TransitionRecord
	err     error
}

func (m *mockHistoryRepo) Create(ctx context.Context, record *entity.TransitionRecord) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	record.ID = int64(len(m.records) + 1)
	m.records = append(m.records, record)
	return nil
}

func (m *mockHistoryRepo) GetByArticleID(ctx context.Context, articleID int64) ([]*entity.TransitionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.TransitionRecord
	for _, r := range m.records {
		if r.ArticleID == articleID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockHistoryRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// mockTxManager runs the function directly
type mockTxManager struct{}

func (mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// mockDispatcher records asynchronously dispatched events
type mockDispatcher struct {
	mu     sync.Mutex
	events []*event.Event
}

func (m *mockDispatcher) Subscribe(event.Type, dispatcher.Handler)              {}
func (m *mockDispatcher) SubscribeNamed(event.Type, string, dispatcher.Handler) {}
func (m *mockDispatcher) SubscribeAll(string, dispatcher.Handler)               {}
func (m *mockDispatcher) Unsubscribe(event.Type, string)                        {}
func (m *mockDispatcher) ListHandlers(event.Type) []dispatcher.HandlerInfo      { return nil }
func (m *mockDispatcher) Close() error                                          { return nil }
func (m *mockDispatcher) Dispatch(ctx context.Context, evt *event.Event) error {
	return errors.New("unused")
}

func (m *mockDispatcher) DispatchAsync(ctx context.Context, evt *event.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, evt)
}

func (m *mockDispatcher) recorded() []*event.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*event.Event(nil), m.events...)
}

// mockMetrics counts observations
type mockMetrics struct {
	mu          sync.Mutex
	transitions int
	rejected    map[string]int
	bulk        map[string]int
}

func newMockMetrics() *mockMetrics {
	return &mockMetrics{rejected: map[string]int{}, bulk: map[string]int{}}
}

func (m *mockMetrics) ObserveTransition(from, to, action string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitions++
}

func (m *mockMetrics) ObserveRejected(action, kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejected[kind]++
}

func (m *mockMetrics) ObserveBulkItem(action, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bulk[outcome]++
}

func (m *mockMetrics) ObserveScheduledPublish(outcome string) {}
