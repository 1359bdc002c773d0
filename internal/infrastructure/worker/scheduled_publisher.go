package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/newsroom-workflow/internal/application/port"
	appworkflow "github.com/garyjia/newsroom-workflow/internal/application/workflow"
	"github.com/garyjia/newsroom-workflow/internal/domain/entity"
	"github.com/garyjia/newsroom-workflow/internal/domain/workflow"
)

// ScheduledPublisherConfig holds configuration for the scheduled publisher
type ScheduledPublisherConfig struct {
	PollInterval   time.Duration
	BatchSize      int
	ProcessTimeout time.Duration
}

// DefaultScheduledPublisherConfig returns default configuration
func DefaultScheduledPublisherConfig() ScheduledPublisherConfig {
	return ScheduledPublisherConfig{
		PollInterval:   30 * time.Second,
		BatchSize:      50,
		ProcessTimeout: 30 * time.Second,
	}
}

// PublisherStatus is a snapshot of the publisher's counters
type PublisherStatus struct {
	IsRunning      bool      `json:"is_running"`
	StartTime      time.Time `json:"start_time,omitempty"`
	LastRun        time.Time `json:"last_run,omitempty"`
	PublishedCount int       `json:"published_count"`
	SkippedCount   int       `json:"skipped_count"`
	FailedCount    int       `json:"failed_count"`
	LastError      string    `json:"last_error,omitempty"`
	LastRunFailed  bool      `json:"last_run_failed"`
}

// ScheduledPublisher publishes SCHEDULED articles once their scheduledAt has passed
type ScheduledPublisher struct {
	config ScheduledPublisherConfig

	articleRepo port.ArticleRepository
	service     appworkflow.Service
	metrics     port.WorkflowMetrics
	now         func() time.Time
	logger      *zap.Logger

	mu        sync.RWMutex
	cancel    context.CancelFunc
	done      chan struct{}
	isRunning bool
	status    PublisherStatus
}

// NewScheduledPublisher creates a new scheduled publisher
func NewScheduledPublisher(
	config ScheduledPublisherConfig,
	articleRepo port.ArticleRepository,
	service appworkflow.Service,
	metrics port.WorkflowMetrics,
	logger *zap.Logger,
) *ScheduledPublisher {
	defaults := DefaultScheduledPublisherConfig()
	if config.PollInterval <= 0 {
		config.PollInterval = defaults.PollInterval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = defaults.BatchSize
	}
	if config.ProcessTimeout <= 0 {
		config.ProcessTimeout = defaults.ProcessTimeout
	}
	if metrics == nil {
		metrics = port.NopMetrics{}
	}

	return &ScheduledPublisher{
		config:      config,
		articleRepo: articleRepo,
		service:     service,
		metrics:     metrics,
		now:         time.Now,
		logger:      logger,
	}
}

// Start begins the polling loop
func (p *ScheduledPublisher) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isRunning {
		return fmt.Errorf("scheduled publisher already running")
	}

	var runCtx context.Context
	runCtx, p.cancel = context.WithCancel(ctx)
	p.done = make(chan struct{})
	p.isRunning = true
	p.status.StartTime = p.now()

	p.logger.Info("ScheduledPublisher started",
		zap.Duration("poll_interval", p.config.PollInterval),
		zap.Int("batch_size", p.config.BatchSize))

	go p.pollLoop(runCtx, p.done)

	return nil
}

// Stop cancels the loop and waits for the in-flight batch to finish
func (p *ScheduledPublisher) Stop() error {
	p.mu.Lock()
	if !p.isRunning {
		p.mu.Unlock()
		return nil
	}
	p.isRunning = false
	cancel, done := p.cancel, p.done
	p.mu.Unlock()

	cancel()
	<-done

	status := p.GetStatus()
	p.logger.Info("ScheduledPublisher stopped",
		zap.Int("published_count", status.PublishedCount),
		zap.Int("failed_count", status.FailedCount))

	return nil
}

// Name returns the worker name for identification
func (p *ScheduledPublisher) Name() string {
	return "ScheduledPublisher"
}

// GetStatus returns a snapshot of the publisher's counters
func (p *ScheduledPublisher) GetStatus() PublisherStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s := p.status
	s.IsRunning = p.isRunning
	return s
}

// Health is unhealthy while stopped or when the latest run failed
func (p *ScheduledPublisher) Health() WorkerHealth {
	s := p.GetStatus()
	h := WorkerHealth{
		Name:    p.Name(),
		Running: s.IsRunning,
		Healthy: s.IsRunning && !s.LastRunFailed,
		Message: fmt.Sprintf("published %d, skipped %d, failed %d", s.PublishedCount, s.SkippedCount, s.FailedCount),
	}
	switch {
	case !s.IsRunning:
		h.Message = "not running"
	case s.LastRunFailed:
		h.Message = "last run failed: " + s.LastError
	}
	return h
}

func (p *ScheduledPublisher) pollLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	// Poll immediately on start
	p.runAndRecord(ctx)

	for {
		select {
		case <-ctx.Done():
			p.logger.Debug("Poll loop context cancelled")
			return

		case <-ticker.C:
			p.runAndRecord(ctx)
		}
	}
}

func (p *ScheduledPublisher) runAndRecord(ctx context.Context) {
	if _, err := p.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
		p.logger.Error("Failed to publish scheduled articles", zap.Error(err))
	}
}

// RunOnce publishes every article due at the current time, up to the batch size,
// and returns how many were published
func (p *ScheduledPublisher) RunOnce(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, p.config.ProcessTimeout)
	defer cancel()

	now := p.now()
	due, err := p.articleRepo.ListDueForPublication(ctx, now, p.config.BatchSize)
	if err != nil {
		p.recordRun(now, 0, 0, 0, err)
		return 0, fmt.Errorf("list due articles: %w", err)
	}

	var published, skipped, failed int
	for _, article := range due {
		if ctx.Err() != nil {
			break
		}

		switch err := p.publish(ctx, article); {
		case err == nil:
			published++
			p.metrics.ObserveScheduledPublish(port.OutcomeSuccess)
		case errors.Is(err, workflow.ErrConcurrentModification):
			// someone else moved it first; nothing to publish
			skipped++
			p.logger.Info("Scheduled article changed before publication",
				zap.Int64("article_id", article.ID),
				zap.String("reason", workflow.ReasonOf(err)))
		default:
			failed++
			p.metrics.ObserveScheduledPublish(port.OutcomeFailure)
			p.logger.Error("Failed to publish scheduled article",
				zap.Int64("article_id", article.ID),
				zap.Error(err))
		}
	}

	var lastErr error
	if failed > 0 {
		lastErr = fmt.Errorf("%d scheduled articles failed to publish", failed)
	}
	p.recordRun(now, published, skipped, failed, lastErr)

	if published > 0 || failed > 0 {
		p.logger.Info("Scheduled publication run finished",
			zap.Int("due", len(due)),
			zap.Int("published", published),
			zap.Int("skipped", skipped),
			zap.Int("failed", failed))
	}

	return published, ctx.Err()
}

func (p *ScheduledPublisher) publish(ctx context.Context, article *entity.Article) error {
	_, err := p.service.ApplyTransition(ctx, appworkflow.TransitionRequest{
		ArticleID:      article.ID,
		Action:         workflow.ActionPublish,
		Actor:          entity.SystemActor,
		ExpectedStatus: workflow.StateScheduled,
	})
	return err
}

func (p *ScheduledPublisher) recordRun(at time.Time, published, skipped, failed int, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status.LastRun = at
	p.status.PublishedCount += published
	p.status.SkippedCount += skipped
	p.status.FailedCount += failed
	p.status.LastRunFailed = err != nil
	if err != nil {
		p.status.LastError = err.Error()
	}
}
