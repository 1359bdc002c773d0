package workflow

import (
	"errors"
	"strings"
	"time"
)

// Inputs carries the caller-supplied values an action may require
type Inputs struct {
	// Feedback is the reviewer note, or the reason for REJECT and RETRACT
	Feedback string

	// ScheduledAt is the publication time for SCHEDULE
	ScheduledAt *time.Time

	// Flag is the value recorded by SET_FEATURED and SET_TRENDING
	Flag *bool

	// Stage is the target desk for ROUTE
	Stage State
}

// ArticleState is the workflow-relevant projection of an article
type ArticleState struct {
	ArticleID   int64      `json:"article_id"`
	Status      State      `json:"status"`
	Feedback    string     `json:"feedback,omitempty"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Featured    bool       `json:"featured"`
	Trending    bool       `json:"trending"`
}

// Effects lists the fields a caller must persist after a successful Apply
type Effects struct {
	StatusChanged      bool `json:"status_changed"`
	FeedbackChanged    bool `json:"feedback_changed"`
	ScheduledAtChanged bool `json:"scheduled_at_changed"`
	PublishedAtChanged bool `json:"published_at_changed"`
	FeaturedChanged    bool `json:"featured_changed"`
	TrendingChanged    bool `json:"trending_changed"`
}

// Result is the outcome of a successful Apply
type Result struct {
	From    State        `json:"from"`
	To      State        `json:"to"`
	Action  Action       `json:"action"`
	State   ArticleState `json:"state"`
	Effects Effects      `json:"effects"`
}

// Clock returns the current time
type Clock func() time.Time

// Engine evaluates workflow actions against a transition table. It performs no I/O.
type Engine struct {
	table Table
	now   Clock
}

// EngineOption configures the engine
type EngineOption func(*Engine)

// WithClock sets the clock used to stamp timestamps
func WithClock(clock Clock) EngineOption {
	return func(e *Engine) {
		e.now = clock
	}
}

// WithTable replaces the editorial transition table
func WithTable(table Table) EngineOption {
	return func(e *Engine) {
		e.table = table
	}
}

// NewEngine creates an engine over the editorial transition table
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		table: BuildEditorialTable(),
		now:   time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Now returns the engine clock's current time
func (e *Engine) Now() time.Time {
	return e.now()
}

// Classify evaluates every classification predicate for a state
func (e *Engine) Classify(s State) Classification {
	return Classify(s)
}

// ListTransitionsFor returns the actions legal from a state, flag setters included
func (e *Engine) ListTransitionsFor(s State) []Action {
	if !s.IsValid() {
		return []Action{}
	}
	actions := e.table.PermittedActions(s)
	return append(actions, ActionSetFeatured, ActionSetTrending)
}

// CanApply reports whether an action is legal from a state, ignoring inputs
func (e *Engine) CanApply(s State, action Action) bool {
	if !s.IsValid() {
		return false
	}
	if action.IsFlag() {
		return true
	}
	return e.table.CanFire(s, action)
}

// Apply validates an action against the current state and computes the next state.
// On error the returned Result is empty and current is left untouched.
func (e *Engine) Apply(current ArticleState, action Action, in Inputs) (Result, error) {
	from := current.Status
	if !from.IsValid() {
		return Result{}, newError(ErrInvalidInput, "unknown_status", from, action, "unknown status %q", from)
	}
	if !action.IsValid() {
		return Result{}, newError(ErrInvalidInput, "unknown_action", from, action, "unknown action %q", action)
	}

	now := e.now()

	if action.IsFlag() {
		return e.applyFlag(current, action, in, now)
	}

	if !e.table.CanFire(from, action) {
		return Result{}, newError(ErrInvalidTransition, "action_not_permitted", from, action,
			"cannot apply %s from state %s", action, from)
	}

	feedback, err := validateInputs(from, action, in, now)
	if err != nil {
		return Result{}, err
	}

	to, err := e.table.Resolve(from, action, in)
	if err != nil {
		if errors.Is(err, ErrGuardFailed) {
			return Result{}, newError(ErrInvalidInput, "guard_rejected", from, action, "%v", err)
		}
		return Result{}, newError(ErrInvalidTransition, "action_not_permitted", from, action, "%v", err)
	}

	next := current
	next.Status = to
	next.UpdatedAt = now

	switch action {
	case ActionReject, ActionRequestRevision, ActionReturnToWriter:
		next.Feedback = feedback
	case ActionSchedule:
		at := *in.ScheduledAt
		next.ScheduledAt = &at
	case ActionPublish:
		if next.PublishedAt == nil {
			published := now
			next.PublishedAt = &published
		}
	case ActionUnpublish:
		next.PublishedAt = nil
	case ActionRetract:
		next.Feedback = feedback
		next.PublishedAt = nil
	}

	// scheduledAt lives exactly as long as the SCHEDULED status
	if to != StateScheduled {
		next.ScheduledAt = nil
	}

	return Result{
		From:    from,
		To:      to,
		Action:  action,
		State:   next,
		Effects: diff(current, next),
	}, nil
}

func (e *Engine) applyFlag(current ArticleState, action Action, in Inputs, now time.Time) (Result, error) {
	if in.Flag == nil {
		return Result{}, newError(ErrMissingInput, "flag_required", current.Status, action, "%s requires a flag value", action)
	}

	next := current
	next.UpdatedAt = now
	if action == ActionSetFeatured {
		next.Featured = *in.Flag
	} else {
		next.Trending = *in.Flag
	}

	return Result{
		From:    current.Status,
		To:      current.Status,
		Action:  action,
		State:   next,
		Effects: diff(current, next),
	}, nil
}

// validateInputs checks required inputs and returns the normalized feedback text
func validateInputs(from State, action Action, in Inputs, now time.Time) (string, error) {
	feedback := strings.TrimSpace(in.Feedback)

	switch action {
	case ActionReject, ActionRetract:
		if feedback == "" {
			return "", newError(ErrMissingInput, "reason_required", from, action, "%s requires a reason", action)
		}
	case ActionRequestRevision, ActionReturnToWriter:
		if feedback == "" {
			return "", newError(ErrMissingInput, "feedback_required", from, action, "%s requires feedback", action)
		}
	case ActionSchedule:
		if in.ScheduledAt == nil || in.ScheduledAt.IsZero() {
			return "", newError(ErrMissingInput, "scheduled_at_required", from, action, "%s requires scheduledAt", action)
		}
		if !in.ScheduledAt.After(now) {
			return "", newError(ErrInvalidInput, "scheduled_at_not_future", from, action,
				"scheduledAt %s is not after %s", in.ScheduledAt.Format(time.RFC3339), now.Format(time.RFC3339))
		}
	case ActionRoute:
		if in.Stage == "" {
			return "", newError(ErrMissingInput, "stage_required", from, action, "%s requires a stage", action)
		}
		if !in.Stage.IsDesk() {
			return "", newError(ErrInvalidInput, "stage_not_a_desk", from, action, "%s is not a review desk", in.Stage)
		}
		if in.Stage == from {
			return "", newError(ErrInvalidTransition, "already_at_stage", from, action, "article is already at %s", from)
		}
	}

	return feedback, nil
}

func diff(before, after ArticleState) Effects {
	return Effects{
		StatusChanged:      before.Status != after.Status,
		FeedbackChanged:    before.Feedback != after.Feedback,
		ScheduledAtChanged: !sameTime(before.ScheduledAt, after.ScheduledAt),
		PublishedAtChanged: !sameTime(before.PublishedAt, after.PublishedAt),
		FeaturedChanged:    before.Featured != after.Featured,
		TrendingChanged:    before.Trending != after.Trending,
	}
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
