package workflow

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/garyjia/newsroom-workflow/internal/application/port"
)

// ApplyBulk applies the action to every item independently. One item failing
// never aborts the others; outcomes keep the order of req.Items.
func (s *serviceImpl) ApplyBulk(ctx context.Context, req BulkRequest) *BulkResult {
	result := &BulkResult{
		CorrelationID: uuid.NewString(),
		Items:         make([]BulkItemResult, len(req.Items)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.bulkConcurrency)

	for i, item := range req.Items {
		i, item := i, item
		g.Go(func() error {
			res, err := s.ApplyTransition(gctx, TransitionRequest{
				ArticleID:      item.ArticleID,
				Action:         req.Action,
				Actor:          req.Actor,
				Inputs:         req.Inputs,
				ExpectedStatus: item.ExpectedStatus,
				CorrelationID:  result.CorrelationID,
			})
			result.Items[i] = BulkItemResult{ArticleID: item.ArticleID, Result: res, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	for _, item := range result.Items {
		outcome := port.OutcomeSuccess
		if item.OK() {
			result.Succeeded++
		} else {
			result.Failed++
			outcome = port.OutcomeFailure
		}
		s.metrics.ObserveBulkItem(req.Action.String(), outcome)
	}

	s.logger.Info("Bulk transition finished",
		"correlation_id", result.CorrelationID,
		"action", req.Action,
		"items", len(req.Items),
		"succeeded", result.Succeeded,
		"failed", result.Failed,
	)

	return result
}
