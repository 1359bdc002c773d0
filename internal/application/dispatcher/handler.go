package dispatcher

import (
	"context"

	"github.com/garyjia/newsroom-workflow/internal/domain/event"
)

// Handler processes domain events
type Handler func(ctx context.Context, evt *event.Event) error

// HandlerInfo contains handler metadata for debugging
type HandlerInfo struct {
	Name      string
	EventType event.Type
	Handler   Handler
}

// anyType keys handlers that receive every event type
const anyType event.Type = "*"
