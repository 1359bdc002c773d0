package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/garyjia/newsroom-workflow/internal/application/port"
	"github.com/garyjia/newsroom-workflow/internal/domain/entity"
	"github.com/garyjia/newsroom-workflow/internal/domain/workflow"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ReportService builds status statistics for dashboards and exports
type ReportService interface {
	StatusReport(ctx context.Context) (*entity.StatusReport, error)
	Export(ctx context.Context, w io.Writer) error
	ContentType() string
}

type reportServiceImpl struct {
	articleRepo port.ArticleRepository
	renderer    port.ReportRenderer
	now         func() time.Time
	logger      Logger
}

// NewReportService creates a new ReportService
func NewReportService(
	articleRepo port.ArticleRepository,
	renderer port.ReportRenderer,
	logger Logger,
) ReportService {
	return &reportServiceImpl{
		articleRepo: articleRepo,
		renderer:    renderer,
		now:         time.Now,
		logger:      logger,
	}
}

// StatusReport counts articles per status, listing every status in enumeration order
func (s *reportServiceImpl) StatusReport(ctx context.Context) (*entity.StatusReport, error) {
	counts, err := s.articleRepo.CountByStatus(ctx)
	if err != nil {
		s.logger.Error("Failed to count articles by status", "error", err)
		return nil, fmt.Errorf("count by status: %w", err)
	}

	byStatus := make(map[workflow.State]int, len(counts))
	for _, c := range counts {
		byStatus[c.Status] += c.Count
	}

	report := &entity.StatusReport{
		GeneratedAt: s.now().UTC(),
		ByStatus:    make([]entity.StatusCount, 0, len(workflow.AllStates())),
		ByBucket:    make(map[entity.Bucket]int),
	}

	for _, st := range workflow.AllStates() {
		n := byStatus[st]
		report.ByStatus = append(report.ByStatus, entity.StatusCount{Status: st, Count: n})
		report.Total += n
	}

	for _, b := range entity.AllBuckets() {
		report.ByBucket[b] = 0
		for _, st := range b.States() {
			report.ByBucket[b] += byStatus[st]
		}
	}

	return report, nil
}

// Export renders the current status report
func (s *reportServiceImpl) Export(ctx context.Context, w io.Writer) error {
	report, err := s.StatusReport(ctx)
	if err != nil {
		return err
	}

	if err := s.renderer.Render(w, report); err != nil {
		s.logger.Error("Failed to render status report", "error", err)
		return fmt.Errorf("render report: %w", err)
	}

	s.logger.Info("Status report exported", "total", report.Total)
	return nil
}

// ContentType is the media type of exported reports
func (s *reportServiceImpl) ContentType() string {
	return s.renderer.ContentType()
}
