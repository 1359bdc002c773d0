package port

import (
	"context"
	"io"

	"github.com/garyjia/newsroom-workflow/internal/domain/entity"
)

// ChatNotifier posts workflow notifications to the newsroom chat
type ChatNotifier interface {
	Notify(ctx context.Context, text string) error
}

// ReportRenderer writes a status report in a downloadable format
type ReportRenderer interface {
	Render(w io.Writer, report *entity.StatusReport) error
	ContentType() string
}
