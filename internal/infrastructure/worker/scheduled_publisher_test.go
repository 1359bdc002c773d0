package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/newsroom-workflow/internal/application/port"
	appworkflow "github.com/garyjia/newsroom-workflow/internal/application/workflow"
	"github.com/garyjia/newsroom-workflow/internal/domain/entity"
	"github.com/garyjia/newsroom-workflow/internal/domain/workflow"
)

type stubArticleRepo struct {
	port.ArticleRepository

	mu    sync.Mutex
	due   []*entity.Article
	err   error
	calls int
	limit int
	at    time.Time
}

func (s *stubArticleRepo) ListDueForPublication(ctx context.Context, now time.Time, limit int) ([]*entity.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.limit = limit
	s.at = now
	return s.due, s.err
}

func (s *stubArticleRepo) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubService struct {
	appworkflow.Service

	mu       sync.Mutex
	requests []appworkflow.TransitionRequest
	errs     map[int64]error
}

func (s *stubService) ApplyTransition(ctx context.Context, req appworkflow.TransitionRequest) (*appworkflow.TransitionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if err := s.errs[req.ArticleID]; err != nil {
		return nil, err
	}
	return &appworkflow.TransitionResult{}, nil
}

type countingMetrics struct {
	port.NopMetrics
	mu       sync.Mutex
	outcomes map[string]int
}

func (m *countingMetrics) ObserveScheduledPublish(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.outcomes == nil {
		m.outcomes = make(map[string]int)
	}
	m.outcomes[outcome]++
}

func scheduled(ids ...int64) []*entity.Article {
	out := make([]*entity.Article, 0, len(ids))
	for _, id := range ids {
		out = append(out, &entity.Article{ID: id, Status: workflow.StateScheduled})
	}
	return out
}

func TestScheduledPublisher_RunOncePublishesDueArticles(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	repo := &stubArticleRepo{due: scheduled(1, 2)}
	svc := &stubService{}
	metrics := &countingMetrics{}

	p := NewScheduledPublisher(ScheduledPublisherConfig{BatchSize: 10}, repo, svc, metrics, zap.NewNop())
	p.now = func() time.Time { return now }

	published, err := p.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, published)

	assert.Equal(t, 10, repo.limit)
	assert.True(t, repo.at.Equal(now))

	require.Len(t, svc.requests, 2)
	for i, req := range svc.requests {
		assert.Equal(t, int64(i+1), req.ArticleID)
		assert.Equal(t, workflow.ActionPublish, req.Action)
		assert.Equal(t, workflow.StateScheduled, req.ExpectedStatus)
		assert.Equal(t, entity.SystemActor, req.Actor)
	}

	assert.Equal(t, 2, metrics.outcomes[port.OutcomeSuccess])
	status := p.GetStatus()
	assert.Equal(t, 2, status.PublishedCount)
	assert.Equal(t, now, status.LastRun)
}

func TestScheduledPublisher_RunOnceCountsSkipsAndFailures(t *testing.T) {
	repo := &stubArticleRepo{due: scheduled(1, 2, 3)}
	svc := &stubService{errs: map[int64]error{
		2: workflow.Conflict(2, workflow.StateScheduled, workflow.StateApproved),
		3: errors.New("database is locked"),
	}}
	metrics := &countingMetrics{}

	p := NewScheduledPublisher(ScheduledPublisherConfig{}, repo, svc, metrics, zap.NewNop())

	published, err := p.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, published)

	assert.Equal(t, 1, metrics.outcomes[port.OutcomeSuccess])
	assert.Equal(t, 1, metrics.outcomes[port.OutcomeFailure])

	status := p.GetStatus()
	assert.Equal(t, 1, status.PublishedCount)
	assert.Equal(t, 1, status.SkippedCount)
	assert.Equal(t, 1, status.FailedCount)
	assert.Contains(t, status.LastError, "1 scheduled articles failed")
}

func TestScheduledPublisher_RunOnceListError(t *testing.T) {
	repo := &stubArticleRepo{err: errors.New("disk I/O error")}
	svc := &stubService{}

	p := NewScheduledPublisher(ScheduledPublisherConfig{}, repo, svc, nil, zap.NewNop())

	_, err := p.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list due articles")
	assert.Empty(t, svc.requests)
	assert.Equal(t, "disk I/O error", p.GetStatus().LastError)
}

func TestScheduledPublisher_Defaults(t *testing.T) {
	p := NewScheduledPublisher(ScheduledPublisherConfig{}, &stubArticleRepo{}, &stubService{}, nil, zap.NewNop())

	assert.Equal(t, DefaultScheduledPublisherConfig(), p.config)
	assert.Equal(t, "ScheduledPublisher", p.Name())
}

func TestScheduledPublisher_StartPollsImmediatelyAndStops(t *testing.T) {
	repo := &stubArticleRepo{}
	p := NewScheduledPublisher(ScheduledPublisherConfig{PollInterval: time.Hour}, repo, &stubService{}, nil, zap.NewNop())

	require.NoError(t, p.Start(context.Background()))
	assert.Error(t, p.Start(context.Background()), "second start must fail")

	assert.Eventually(t, func() bool { return repo.callCount() == 1 }, time.Second, 5*time.Millisecond)
	assert.True(t, p.GetStatus().IsRunning)

	require.NoError(t, p.Stop())
	assert.False(t, p.GetStatus().IsRunning)
	require.NoError(t, p.Stop(), "stop is idempotent")
}

func TestWorkerManager_Lifecycle(t *testing.T) {
	repo := &stubArticleRepo{}
	m := NewWorkerManager(zap.NewNop())
	m.Register(NewScheduledPublisher(ScheduledPublisherConfig{PollInterval: time.Hour}, repo, &stubService{}, nil, zap.NewNop()))

	assert.Equal(t, 1, m.GetWorkerCount())
	assert.False(t, m.IsRunning())

	require.NoError(t, m.StartAll(context.Background()))
	assert.True(t, m.IsRunning())
	assert.Error(t, m.StartAll(context.Background()))

	assert.Eventually(t, func() bool { return repo.callCount() >= 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, m.StopAll())
	assert.False(t, m.IsRunning())
	require.NoError(t, m.StopAll())
}

type fakeWorker struct {
	name     string
	startErr error
	stopLog  *[]string
}

func (w *fakeWorker) Start(ctx context.Context) error { return w.startErr }
func (w *fakeWorker) Name() string                    { return w.name }
func (w *fakeWorker) Stop() error {
	*w.stopLog = append(*w.stopLog, w.name)
	return nil
}

func TestWorkerManager_StopsStartedWorkersInReverse(t *testing.T) {
	var stopped []string
	m := NewWorkerManager(zap.NewNop())
	m.Register(&fakeWorker{name: "a", stopLog: &stopped})
	m.Register(&fakeWorker{name: "broken", startErr: errors.New("boom"), stopLog: &stopped})
	m.Register(&fakeWorker{name: "c", stopLog: &stopped})

	require.NoError(t, m.StartAll(context.Background()))

	health := m.Health()
	require.Len(t, health, 3)
	assert.True(t, health[0].Healthy)
	assert.False(t, health[1].Running)
	assert.Equal(t, "not running", health[1].Message)

	require.NoError(t, m.StopAll())
	assert.Equal(t, []string{"c", "a"}, stopped)
}

func TestScheduledPublisher_Health(t *testing.T) {
	repo := &stubArticleRepo{err: errors.New("disk I/O error")}
	p := NewScheduledPublisher(ScheduledPublisherConfig{PollInterval: time.Hour}, repo, &stubService{}, nil, zap.NewNop())

	h := p.Health()
	assert.False(t, h.Healthy)
	assert.Equal(t, "not running", h.Message)

	require.NoError(t, p.Start(context.Background()))
	defer p.Stop()
	assert.Eventually(t, func() bool { return repo.callCount() == 1 }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return p.GetStatus().LastRunFailed }, time.Second, 5*time.Millisecond)

	h = p.Health()
	assert.True(t, h.Running)
	assert.False(t, h.Healthy)
	assert.Contains(t, h.Message, "disk I/O error")
}
