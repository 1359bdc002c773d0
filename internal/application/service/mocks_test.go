package service

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/garyjia/newsroom-workflow/internal/domain/entity"
	"github.com/garyjia/newsroom-workflow/internal/domain/workflow"
)

type mockLogger struct {
	mu     sync.Mutex
	infos  []string
	errors []string
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos = append(m.infos, msg)
}

func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, msg)
}

type mockNotifier struct {
	notifyFunc func(ctx context.Context, text string) error
	sent       []string
}

func (m *mockNotifier) Notify(ctx context.Context, text string) error {
	if m.notifyFunc != nil {
		if err := m.notifyFunc(ctx, text); err != nil {
			return err
		}
	}
	m.sent = append(m.sent, text)
	return nil
}

type mockArticleRepo struct {
	countByStatusFunc func(ctx context.Context) ([]entity.StatusCount, error)
}

func (m *mockArticleRepo) Create(ctx context.Context, article *entity.Article) error {
	return nil
}

func (m *mockArticleRepo) GetByID(ctx context.Context, id int64) (*entity.Article, error) {
	return nil, nil
}

func (m *mockArticleRepo) CompareAndSwap(ctx context.Context, next *entity.Article, expectedStatus workflow.State, expectedVersion int64) error {
	return nil
}

func (m *mockArticleRepo) List(ctx context.Context, filter entity.ArticleFilter) ([]*entity.Article, error) {
	return nil, nil
}

func (m *mockArticleRepo) ListDueForPublication(ctx context.Context, now time.Time, limit int) ([]*entity.Article, error) {
	return nil, nil
}

func (m *mockArticleRepo) CountByStatus(ctx context.Context) ([]entity.StatusCount, error) {
	if m.countByStatusFunc != nil {
		return m.countByStatusFunc(ctx)
	}
	return nil, nil
}

type mockRenderer struct {
	rendered *entity.StatusReport
	err      error
}

func (m *mockRenderer) Render(w io.Writer, report *entity.StatusReport) error {
	if m.err != nil {
		return m.err
	}
	m.rendered = report
	_, err := io.WriteString(w, "rendered")
	return err
}

func (m *mockRenderer) ContentType() string {
	return "application/test"
}
