package entity

import (
	"time"

	"github.com/garyjia/newsroom-workflow/internal/domain/workflow"
)

// Article is the workflow projection of a newsroom article
type Article struct {
	ID           int64          `json:"id"`
	Title        string         `json:"title"`
	AuthorID     string         `json:"author_id"`
	AssignedRole string         `json:"assigned_role,omitempty"`
	Status       workflow.State `json:"status"`
	Feedback     string         `json:"feedback,omitempty"`
	ScheduledAt  *time.Time     `json:"scheduled_at,omitempty"`
	PublishedAt  *time.Time     `json:"published_at,omitempty"`
	Featured     bool           `json:"featured"`
	Trending     bool           `json:"trending"`
	// Version is bumped on every write and guards compare-and-swap updates
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WorkflowState returns the fields the workflow engine evaluates
func (a *Article) WorkflowState() workflow.ArticleState {
	return workflow.ArticleState{
		ArticleID:   a.ID,
		Status:      a.Status,
		Feedback:    a.Feedback,
		ScheduledAt: a.ScheduledAt,
		PublishedAt: a.PublishedAt,
		UpdatedAt:   a.UpdatedAt,
		Featured:    a.Featured,
		Trending:    a.Trending,
	}
}

// WithWorkflowState returns a copy of the article carrying the engine's output
func (a *Article) WithWorkflowState(s workflow.ArticleState) *Article {
	next := *a
	next.Status = s.Status
	next.Feedback = s.Feedback
	next.ScheduledAt = s.ScheduledAt
	next.PublishedAt = s.PublishedAt
	next.UpdatedAt = s.UpdatedAt
	next.Featured = s.Featured
	next.Trending = s.Trending
	return &next
}

// Bucket names a dashboard view over the classification predicates
type Bucket string

const (
	BucketInWorkflow     Bucket = "in_workflow"
	BucketNeedsAttention Bucket = "needs_attention"
	BucketReviewable     Bucket = "reviewable"
	BucketPublishable    Bucket = "publishable"
)

// AllBuckets returns the dashboard buckets in display order
func AllBuckets() []Bucket {
	return []Bucket{BucketInWorkflow, BucketNeedsAttention, BucketReviewable, BucketPublishable}
}

// IsValid reports whether the bucket is known
func (b Bucket) IsValid() bool {
	switch b {
	case BucketInWorkflow, BucketNeedsAttention, BucketReviewable, BucketPublishable:
		return true
	default:
		return false
	}
}

// States returns the statuses that fall into the bucket
func (b Bucket) States() []workflow.State {
	var states []workflow.State
	for _, s := range workflow.AllStates() {
		c := workflow.Classify(s)
		var in bool
		switch b {
		case BucketInWorkflow:
			in = c.InWorkflow
		case BucketNeedsAttention:
			in = c.NeedsAttention
		case BucketReviewable:
			in = c.Reviewable
		case BucketPublishable:
			in = c.Publishable
		}
		if in {
			states = append(states, s)
		}
	}
	return states
}

// ArticleFilter narrows article listings
type ArticleFilter struct {
	Statuses []workflow.State
	AuthorID string
	Limit    int
	Offset   int
}

// StatusCount is the number of articles in one status
type StatusCount struct {
	Status workflow.State `json:"status"`
	Count  int            `json:"count"`
}
