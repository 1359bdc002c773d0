package workflow

import (
	"context"

	"github.com/garyjia/newsroom-workflow/internal/domain/entity"
	domainwf "github.com/garyjia/newsroom-workflow/internal/domain/workflow"
)

// Service applies editorial workflow actions to stored articles
type Service interface {
	// Create stores a new article in one of the initial statuses
	Create(ctx context.Context, req CreateRequest) (*entity.Article, error)

	// Get returns an article by id
	Get(ctx context.Context, id int64) (*entity.Article, error)

	// List returns articles matching the filter
	List(ctx context.Context, filter entity.ArticleFilter) ([]*entity.Article, error)

	// History returns the transition audit trail of an article, oldest first
	History(ctx context.Context, id int64) ([]*entity.TransitionRecord, error)

	// ApplyTransition validates and persists one action against one article.
	// The write only happens if the stored status still equals ExpectedStatus.
	ApplyTransition(ctx context.Context, req TransitionRequest) (*TransitionResult, error)

	// ApplyBulk applies one action to many articles independently and
	// reports the outcome of every item
	ApplyBulk(ctx context.Context, req BulkRequest) *BulkResult

	// ListTransitionsFor returns the actions legal from a status
	ListTransitionsFor(state domainwf.State) []domainwf.Action

	// Classify evaluates the dashboard predicates for a status
	Classify(state domainwf.State) domainwf.Classification
}

// CreateRequest describes a new article
type CreateRequest struct {
	Title        string
	AuthorID     string
	AssignedRole string
	Status       domainwf.State
	Actor        entity.Actor
}

// TransitionRequest is one applyTransition call
type TransitionRequest struct {
	ArticleID      int64
	Action         domainwf.Action
	Actor          entity.Actor
	Inputs         domainwf.Inputs
	ExpectedStatus domainwf.State

	// CorrelationID links the emitted event to a larger operation; optional
	CorrelationID string
}

// TransitionResult is the outcome of a successful transition
type TransitionResult struct {
	Article *entity.Article  `json:"article"`
	From    domainwf.State   `json:"from"`
	To      domainwf.State   `json:"to"`
	Action  domainwf.Action  `json:"action"`
	Effects domainwf.Effects `json:"effects"`
}

// BulkItem identifies one article of a bulk request.
// Transports decode their own item shape into it.
type BulkItem struct {
	ArticleID      int64
	ExpectedStatus domainwf.State
}

// BulkRequest applies the same action and inputs to every item
type BulkRequest struct {
	Action domainwf.Action
	Actor  entity.Actor
	Inputs domainwf.Inputs
	Items  []BulkItem
}

// BulkItemResult reports the outcome of one bulk item
type BulkItemResult struct {
	ArticleID int64             `json:"id"`
	Result    *TransitionResult `json:"result,omitempty"`
	Err       error             `json:"-"`
}

// OK reports whether the item succeeded
func (r BulkItemResult) OK() bool {
	return r.Err == nil
}

// BulkResult holds per-item outcomes in request order
type BulkResult struct {
	CorrelationID string           `json:"correlation_id"`
	Items         []BulkItemResult `json:"items"`
	Succeeded     int              `json:"succeeded"`
	Failed        int              `json:"failed"`
}
