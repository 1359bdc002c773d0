// Package report renders workflow status reports as downloadable files.
package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/newsroom-workflow/internal/application/port"
	"github.com/garyjia/newsroom-workflow/internal/domain/entity"
	"github.com/garyjia/newsroom-workflow/internal/domain/workflow"
)

// ContentTypeXLSX is the media type of Office Open XML spreadsheets
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	statusSheet = "Status"
	bucketSheet = "Buckets"
)

var statusHeader = []interface{}{
	"Status", "Label", "Articles", "In workflow", "Reviewable", "Publishable", "Needs attention", "Terminal",
}

// XLSXRenderer writes a status report as a two-sheet workbook
type XLSXRenderer struct {
	label  func(workflow.State) string
	logger *zap.Logger
}

// NewXLSXRenderer creates a renderer; label renders status names for humans
func NewXLSXRenderer(label func(workflow.State) string, logger *zap.Logger) *XLSXRenderer {
	if label == nil {
		label = func(s workflow.State) string { return s.String() }
	}
	return &XLSXRenderer{label: label, logger: logger}
}

// ContentType implements port.ReportRenderer
func (r *XLSXRenderer) ContentType() string {
	return ContentTypeXLSX
}

// Render implements port.ReportRenderer
func (r *XLSXRenderer) Render(w io.Writer, report *entity.StatusReport) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), statusSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if _, err := f.NewSheet(bucketSheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := r.writeStatusSheet(f, report, headerStyle); err != nil {
		return err
	}
	if err := r.writeBucketSheet(f, report, headerStyle); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	r.logger.Info("Status report rendered",
		zap.Int("total", report.Total),
		zap.Int("statuses", len(report.ByStatus)))
	return nil
}

func (r *XLSXRenderer) writeStatusSheet(f *excelize.File, report *entity.StatusReport, headerStyle int) error {
	if err := f.SetSheetRow(statusSheet, "A1", &statusHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := f.SetCellStyle(statusSheet, "A1", "H1", headerStyle); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, sc := range report.ByStatus {
		c := workflow.Classify(sc.Status)
		row := []interface{}{
			sc.Status.String(),
			r.label(sc.Status),
			sc.Count,
			yesNo(c.InWorkflow),
			yesNo(c.Reviewable),
			yesNo(c.Publishable),
			yesNo(c.NeedsAttention),
			yesNo(c.Terminal),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(statusSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	totalRow := len(report.ByStatus) + 2
	if err := f.SetCellValue(statusSheet, fmt.Sprintf("A%d", totalRow), "TOTAL"); err != nil {
		return err
	}
	if err := f.SetCellValue(statusSheet, fmt.Sprintf("C%d", totalRow), report.Total); err != nil {
		return err
	}
	if err := f.SetCellValue(statusSheet, fmt.Sprintf("A%d", totalRow+2), "Generated at"); err != nil {
		return err
	}
	if err := f.SetCellValue(statusSheet, fmt.Sprintf("B%d", totalRow+2), report.GeneratedAt.UTC().Format("2006-01-02 15:04:05 UTC")); err != nil {
		return err
	}

	return f.SetColWidth(statusSheet, "A", "H", 18)
}

func (r *XLSXRenderer) writeBucketSheet(f *excelize.File, report *entity.StatusReport, headerStyle int) error {
	header := []interface{}{"Bucket", "Articles"}
	if err := f.SetSheetRow(bucketSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := f.SetCellStyle(bucketSheet, "A1", "B1", headerStyle); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, b := range entity.AllBuckets() {
		row := []interface{}{string(b), report.ByBucket[b]}
		if err := f.SetSheetRow(bucketSheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return fmt.Errorf("failed to write bucket %s: %w", b, err)
		}
	}

	return f.SetColWidth(bucketSheet, "A", "B", 20)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// Verify interface compliance
var _ port.ReportRenderer = (*XLSXRenderer)(nil)
