package port

import (
	"context"
	"time"

	"github.com/garyjia/newsroom-workflow/internal/domain/entity"
	"github.com/garyjia/newsroom-workflow/internal/domain/workflow"
)

// ArticleRepository defines persistence operations for Article.
// Lookups of unknown ids return an error matching workflow.ErrNotFound.
type ArticleRepository interface {
	Create(ctx context.Context, article *entity.Article) error
	GetByID(ctx context.Context, id int64) (*entity.Article, error)

	// CompareAndSwap writes next only if the stored row still has expectedStatus
	// and expectedVersion. A lost race returns workflow.ErrConcurrentModification.
	// On success next.Version holds the new version.
	CompareAndSwap(ctx context.Context, next *entity.Article, expectedStatus workflow.State, expectedVersion int64) error

	List(ctx context.Context, filter entity.ArticleFilter) ([]*entity.Article, error)
	ListDueForPublication(ctx context.Context, now time.Time, limit int) ([]*entity.Article, error)
	CountByStatus(ctx context.Context) ([]entity.StatusCount, error)
}

// HistoryRepository defines persistence operations for the transition audit trail
type HistoryRepository interface {
	Create(ctx context.Context, record *entity.TransitionRecord) error
	GetByArticleID(ctx context.Context, articleID int64) ([]*entity.TransitionRecord, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
