package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"go.uber.org/zap"

	"github.com/garyjia/newsroom-workflow/internal/application/port"
	"github.com/garyjia/newsroom-workflow/internal/domain/entity"
	"github.com/garyjia/newsroom-workflow/internal/domain/workflow"
	"github.com/garyjia/newsroom-workflow/internal/infrastructure/persistence/sqlite"
)

var articleColumns = []string{
	"id", "title", "author_id", "assigned_role", "status", "feedback",
	"scheduled_at", "published_at", "featured", "trending", "version",
	"created_at", "updated_at",
}

// ArticleRepository implements port.ArticleRepository
type ArticleRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewArticleRepository creates a new article repository
func NewArticleRepository(db *sqlite.DB, logger *zap.Logger) port.ArticleRepository {
	return &ArticleRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts an article and sets its ID
func (r *ArticleRepository) Create(ctx context.Context, article *entity.Article) error {
	if article.Version == 0 {
		article.Version = 1
	}

	query, args, err := sq.Insert("articles").
		Columns(articleColumns[1:]...).
		Values(
			article.Title,
			article.AuthorID,
			article.AssignedRole,
			string(article.Status),
			article.Feedback,
			formatNullTime(article.ScheduledAt),
			formatNullTime(article.PublishedAt),
			article.Featured,
			article.Trending,
			article.Version,
			formatTime(article.CreatedAt),
			formatTime(article.UpdatedAt),
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}

	result, err := r.db.Executor(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to create article", zap.Error(err))
		return fmt.Errorf("failed to create article: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	article.ID = id
	return nil
}

// GetByID retrieves an article by ID
func (r *ArticleRepository) GetByID(ctx context.Context, id int64) (*entity.Article, error) {
	query, args, err := sq.Select(articleColumns...).
		From("articles").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}

	article, err := scanArticle(r.db.Executor(ctx).QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, workflow.NotFound(id)
	}
	if err != nil {
		r.logger.Error("Failed to get article by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get article: %w", err)
	}

	return article, nil
}

// CompareAndSwap writes next only if the row still holds expectedStatus and expectedVersion
func (r *ArticleRepository) CompareAndSwap(ctx context.Context, next *entity.Article, expectedStatus workflow.State, expectedVersion int64) error {
	query, args, err := sq.Update("articles").
		Set("status", string(next.Status)).
		Set("feedback", next.Feedback).
		Set("scheduled_at", formatNullTime(next.ScheduledAt)).
		Set("published_at", formatNullTime(next.PublishedAt)).
		Set("featured", next.Featured).
		Set("trending", next.Trending).
		Set("updated_at", formatTime(next.UpdatedAt)).
		Set("version", sq.Expr("version + 1")).
		Where(sq.Eq{
			"id":      next.ID,
			"status":  string(expectedStatus),
			"version": expectedVersion,
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update: %w", err)
	}

	exec := r.db.Executor(ctx)
	result, err := exec.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to update article", zap.Int64("id", next.ID), zap.Error(err))
		return fmt.Errorf("failed to update article: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if n == 0 {
		var actual string
		err := exec.QueryRowContext(ctx, "SELECT status FROM articles WHERE id = ?", next.ID).Scan(&actual)
		if errors.Is(err, sql.ErrNoRows) {
			return workflow.NotFound(next.ID)
		}
		if err != nil {
			return fmt.Errorf("failed to read current status: %w", err)
		}
		r.logger.Info("Compare-and-swap lost",
			zap.Int64("id", next.ID),
			zap.String("expected_status", string(expectedStatus)),
			zap.String("actual_status", actual),
			zap.Int64("expected_version", expectedVersion),
		)
		return workflow.Conflict(next.ID, expectedStatus, workflow.State(actual))
	}

	next.Version = expectedVersion + 1
	return nil
}

// List retrieves articles matching the filter, most recently updated first
func (r *ArticleRepository) List(ctx context.Context, filter entity.ArticleFilter) ([]*entity.Article, error) {
	builder := sq.Select(articleColumns...).
		From("articles").
		OrderBy("updated_at DESC", "id DESC")

	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		builder = builder.Where(sq.Eq{"status": statuses})
	}
	if filter.AuthorID != "" {
		builder = builder.Where(sq.Eq{"author_id": filter.AuthorID})
	}
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
		if filter.Offset > 0 {
			builder = builder.Offset(uint64(filter.Offset))
		}
	}

	return r.query(ctx, builder)
}

// ListDueForPublication retrieves SCHEDULED articles whose time has come, oldest schedule first
func (r *ArticleRepository) ListDueForPublication(ctx context.Context, now time.Time, limit int) ([]*entity.Article, error) {
	builder := sq.Select(articleColumns...).
		From("articles").
		Where(sq.Eq{"status": string(workflow.StateScheduled)}).
		Where(sq.LtOrEq{"scheduled_at": formatTime(now)}).
		OrderBy("scheduled_at ASC", "id ASC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	return r.query(ctx, builder)
}

// CountByStatus returns the number of articles per stored status
func (r *ArticleRepository) CountByStatus(ctx context.Context) ([]entity.StatusCount, error) {
	query, args, err := sq.Select("status", "COUNT(*)").
		From("articles").
		GroupBy("status").
		OrderBy("status").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build count: %w", err)
	}

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to count articles", zap.Error(err))
		return nil, fmt.Errorf("failed to count articles: %w", err)
	}
	defer rows.Close()

	var counts []entity.StatusCount
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts = append(counts, entity.StatusCount{Status: workflow.State(status), Count: count})
	}

	return counts, rows.Err()
}

func (r *ArticleRepository) query(ctx context.Context, builder sq.SelectBuilder) ([]*entity.Article, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list articles", zap.Error(err))
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	defer rows.Close()

	articles := []*entity.Article{}
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}
		articles = append(articles, article)
	}

	return articles, rows.Err()
}

// rowScanner covers *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanArticle(row rowScanner) (*entity.Article, error) {
	var (
		article                  entity.Article
		status                   string
		scheduledAt, publishedAt sql.NullString
		createdAt, updatedAt     string
	)

	err := row.Scan(
		&article.ID,
		&article.Title,
		&article.AuthorID,
		&article.AssignedRole,
		&status,
		&article.Feedback,
		&scheduledAt,
		&publishedAt,
		&article.Featured,
		&article.Trending,
		&article.Version,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	article.Status = workflow.State(status)
	if article.ScheduledAt, err = parseNullTime(scheduledAt); err != nil {
		return nil, err
	}
	if article.PublishedAt, err = parseNullTime(publishedAt); err != nil {
		return nil, err
	}
	if article.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if article.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	return &article, nil
}

// Verify interface compliance
var _ port.ArticleRepository = (*ArticleRepository)(nil)
