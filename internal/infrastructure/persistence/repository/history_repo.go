package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"go.uber.org/zap"

	"github.com/garyjia/newsroom-workflow/internal/application/port"
	"github.com/garyjia/newsroom-workflow/internal/domain/entity"
	"github.com/garyjia/newsroom-workflow/internal/infrastructure/persistence/sqlite"
)

// HistoryRepository implements port.HistoryRepository
type HistoryRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *sqlite.DB, logger *zap.Logger) port.HistoryRepository {
	return &HistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new history record
func (r *HistoryRepository) Create(ctx context.Context, record *entity.TransitionRecord) error {
	query, args, err := sq.Insert("transition_history").
		Columns("article_id", "from_status", "to_status", "action", "actor_role", "actor_id", "feedback", "created_at").
		Values(
			record.ArticleID,
			record.FromStatus,
			record.ToStatus,
			record.Action,
			record.ActorRole,
			record.ActorID,
			record.Feedback,
			formatTime(record.CreatedAt),
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}

	result, err := r.db.Executor(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to create history record",
			zap.Int64("article_id", record.ArticleID),
			zap.Error(err))
		return fmt.Errorf("failed to create history: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	record.ID = id
	return nil
}

// GetByArticleID retrieves all history records for an article, oldest first
func (r *HistoryRepository) GetByArticleID(ctx context.Context, articleID int64) ([]*entity.TransitionRecord, error) {
	query, args, err := sq.Select("id", "article_id", "from_status", "to_status", "action",
		"actor_role", "actor_id", "feedback", "created_at").
		From("transition_history").
		Where(sq.Eq{"article_id": articleID}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to get history by article ID", zap.Int64("article_id", articleID), zap.Error(err))
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	records := []*entity.TransitionRecord{}
	for rows.Next() {
		var record entity.TransitionRecord
		var createdAt string
		err := rows.Scan(
			&record.ID,
			&record.ArticleID,
			&record.FromStatus,
			&record.ToStatus,
			&record.Action,
			&record.ActorRole,
			&record.ActorID,
			&record.Feedback,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}
		if record.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		records = append(records, &record)
	}

	return records, rows.Err()
}

// Verify interface compliance
var _ port.HistoryRepository = (*HistoryRepository)(nil)
