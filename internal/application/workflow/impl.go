package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/garyjia/newsroom-workflow/internal/application/dispatcher"
	"github.com/garyjia/newsroom-workflow/internal/application/policy"
	"github.com/garyjia/newsroom-workflow/internal/application/port"
	"github.com/garyjia/newsroom-workflow/internal/domain/entity"
	"github.com/garyjia/newsroom-workflow/internal/domain/event"
	domainwf "github.com/garyjia/newsroom-workflow/internal/domain/workflow"
)

// actionCreate is the history action recorded for a newly stored article
const actionCreate = "CREATE"

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// serviceImpl is the concrete implementation of Service
type serviceImpl struct {
	articleRepo port.ArticleRepository
	historyRepo port.HistoryRepository
	txManager   port.TransactionManager
	engine      *domainwf.Engine

	dispatcher      dispatcher.Dispatcher
	policy          *policy.Policy
	metrics         port.WorkflowMetrics
	logger          Logger
	bulkConcurrency int
}

// Option configures the workflow service
type Option func(*serviceImpl)

// WithDispatcher sets the event dispatcher for emitting events
func WithDispatcher(d dispatcher.Dispatcher) Option {
	return func(s *serviceImpl) {
		s.dispatcher = d
	}
}

// WithPolicy makes the service reject actions the actor's role may not request
func WithPolicy(p *policy.Policy) Option {
	return func(s *serviceImpl) {
		s.policy = p
	}
}

// WithMetrics sets the metrics recorder
func WithMetrics(m port.WorkflowMetrics) Option {
	return func(s *serviceImpl) {
		s.metrics = m
	}
}

// WithLogger sets the logger
func WithLogger(l Logger) Option {
	return func(s *serviceImpl) {
		s.logger = l
	}
}

// WithEngine replaces the default editorial engine, e.g. to fix its clock
func WithEngine(e *domainwf.Engine) Option {
	return func(s *serviceImpl) {
		s.engine = e
	}
}

// WithBulkConcurrency bounds how many bulk items are applied at once
func WithBulkConcurrency(n int) Option {
	return func(s *serviceImpl) {
		if n > 0 {
			s.bulkConcurrency = n
		}
	}
}

// NewService creates a new workflow service
func NewService(
	articleRepo port.ArticleRepository,
	historyRepo port.HistoryRepository,
	txManager port.TransactionManager,
	opts ...Option,
) Service {
	s := &serviceImpl{
		articleRepo:     articleRepo,
		historyRepo:     historyRepo,
		txManager:       txManager,
		engine:          domainwf.NewEngine(),
		metrics:         port.NopMetrics{},
		logger:          nopLogger{},
		bulkConcurrency: 4,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Create stores a new article
func (s *serviceImpl) Create(ctx context.Context, req CreateRequest) (*entity.Article, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, inputError(domainwf.ErrMissingInput, "title_required", "title is required")
	}

	status := req.Status
	if status == "" {
		status = domainwf.StateDraft
	}
	if !status.IsInitial() {
		return nil, inputError(domainwf.ErrInvalidInput, "status_not_initial",
			fmt.Sprintf("articles cannot be created in status %s", status))
	}

	now := s.engine.Now()
	article := &entity.Article{
		Title:        title,
		AuthorID:     strings.TrimSpace(req.AuthorID),
		AssignedRole: strings.ToUpper(strings.TrimSpace(req.AssignedRole)),
		Status:       status,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.articleRepo.Create(txCtx, article); err != nil {
			return fmt.Errorf("failed to create article: %w", err)
		}
		return s.historyRepo.Create(txCtx, &entity.TransitionRecord{
			ArticleID: article.ID,
			ToStatus:  status.String(),
			Action:    actionCreate,
			ActorRole: req.Actor.Role,
			ActorID:   req.Actor.ID,
			CreatedAt: now,
		})
	})
	if err != nil {
		s.logger.Error("Failed to create article", "title", title, "error", err)
		return nil, err
	}

	s.logger.Info("Article created",
		"article_id", article.ID,
		"status", status,
		"actor_id", req.Actor.ID,
	)

	s.emit(ctx, event.NewEvent(event.TypeArticleCreated, article.ID, map[string]interface{}{
		event.KeyTitle:     article.Title,
		event.KeyTo:        status.String(),
		event.KeyActorRole: req.Actor.Role,
		event.KeyActorID:   req.Actor.ID,
	}))

	return article, nil
}

// Get returns an article by id
func (s *serviceImpl) Get(ctx context.Context, id int64) (*entity.Article, error) {
	return s.articleRepo.GetByID(ctx, id)
}

// List returns articles matching the filter
func (s *serviceImpl) List(ctx context.Context, filter entity.ArticleFilter) ([]*entity.Article, error) {
	return s.articleRepo.List(ctx, filter)
}

// History returns the audit trail of an article
func (s *serviceImpl) History(ctx context.Context, id int64) ([]*entity.TransitionRecord, error) {
	if _, err := s.articleRepo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.historyRepo.GetByArticleID(ctx, id)
}

// ApplyTransition validates and persists one action against one article
func (s *serviceImpl) ApplyTransition(ctx context.Context, req TransitionRequest) (*TransitionResult, error) {
	result, err := s.applyTransition(ctx, req)
	if err != nil {
		s.metrics.ObserveRejected(req.Action.String(), domainwf.KindOf(err))
		s.logger.Error("Transition rejected",
			"article_id", req.ArticleID,
			"action", req.Action,
			"expected_status", req.ExpectedStatus,
			"actor_role", req.Actor.Role,
			"kind", domainwf.KindOf(err),
			"reason", domainwf.ReasonOf(err),
			"error", err,
		)
		return nil, err
	}

	s.metrics.ObserveTransition(result.From.String(), result.To.String(), result.Action.String())
	s.logger.Info("Transition applied",
		"article_id", req.ArticleID,
		"action", result.Action,
		"from", result.From,
		"to", result.To,
		"actor_id", req.Actor.ID,
		"version", result.Article.Version,
	)

	s.emit(ctx, transitionEvent(req, result))

	return result, nil
}

func (s *serviceImpl) applyTransition(ctx context.Context, req TransitionRequest) (*TransitionResult, error) {
	if req.ExpectedStatus == "" {
		return nil, inputError(domainwf.ErrMissingInput, "expected_status_required",
			"expected current status is required")
	}
	if !req.ExpectedStatus.IsValid() {
		return nil, inputError(domainwf.ErrInvalidInput, "unknown_status",
			fmt.Sprintf("unknown expected status %q", req.ExpectedStatus))
	}
	if !req.Action.IsValid() {
		return nil, inputError(domainwf.ErrInvalidInput, "unknown_action",
			fmt.Sprintf("unknown action %q", req.Action))
	}
	if s.policy != nil {
		if err := s.policy.Check(req.Actor.Role, req.Action); err != nil {
			return nil, err
		}
	}

	var result *TransitionResult
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		current, err := s.articleRepo.GetByID(txCtx, req.ArticleID)
		if err != nil {
			return err
		}
		if current.Status != req.ExpectedStatus {
			return domainwf.Conflict(current.ID, req.ExpectedStatus, current.Status)
		}

		applied, err := s.engine.Apply(current.WorkflowState(), req.Action, req.Inputs)
		if err != nil {
			return err
		}

		next := current.WithWorkflowState(applied.State)
		if err := s.articleRepo.CompareAndSwap(txCtx, next, current.Status, current.Version); err != nil {
			return err
		}

		record := &entity.TransitionRecord{
			ArticleID:  current.ID,
			FromStatus: applied.From.String(),
			ToStatus:   applied.To.String(),
			Action:     applied.Action.String(),
			ActorRole:  req.Actor.Role,
			ActorID:    req.Actor.ID,
			CreatedAt:  applied.State.UpdatedAt,
		}
		if applied.Effects.FeedbackChanged {
			record.Feedback = applied.State.Feedback
		}
		if err := s.historyRepo.Create(txCtx, record); err != nil {
			return fmt.Errorf("failed to create history record: %w", err)
		}

		result = &TransitionResult{
			Article: next,
			From:    applied.From,
			To:      applied.To,
			Action:  applied.Action,
			Effects: applied.Effects,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// ListTransitionsFor returns the actions legal from a status
func (s *serviceImpl) ListTransitionsFor(state domainwf.State) []domainwf.Action {
	return s.engine.ListTransitionsFor(state)
}

// Classify evaluates the dashboard predicates for a status
func (s *serviceImpl) Classify(state domainwf.State) domainwf.Classification {
	return s.engine.Classify(state)
}

// emit fires an event after the transaction committed
func (s *serviceImpl) emit(ctx context.Context, evt *event.Event) {
	if s.dispatcher == nil {
		return
	}
	s.dispatcher.DispatchAsync(ctx, evt)
}

func transitionEvent(req TransitionRequest, result *TransitionResult) *event.Event {
	payload := map[string]interface{}{
		event.KeyTitle:     result.Article.Title,
		event.KeyFrom:      result.From.String(),
		event.KeyTo:        result.To.String(),
		event.KeyAction:    result.Action.String(),
		event.KeyActorRole: req.Actor.Role,
		event.KeyActorID:   req.Actor.ID,
	}

	evtType := event.TypeArticleTransitioned
	switch {
	case result.Action == domainwf.ActionSetFeatured:
		evtType = event.TypeArticleFlagged
		payload[event.KeyFlag] = "featured"
		payload[event.KeyValue] = result.Article.Featured
	case result.Action == domainwf.ActionSetTrending:
		evtType = event.TypeArticleFlagged
		payload[event.KeyFlag] = "trending"
		payload[event.KeyValue] = result.Article.Trending
	case result.Effects.FeedbackChanged:
		payload[event.KeyFeedback] = result.Article.Feedback
	}

	if req.CorrelationID != "" {
		return event.NewEventWithCorrelation(evtType, result.Article.ID, payload, req.CorrelationID)
	}
	return event.NewEvent(evtType, result.Article.ID, payload)
}

// inputError builds a workflow error for request validation outside the engine
func inputError(kind error, reason, msg string) error {
	return domainwf.NewError(kind, reason, msg)
}

// IsForbidden reports whether err is a role policy rejection
func IsForbidden(err error) bool {
	return errors.Is(err, policy.ErrForbidden)
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
