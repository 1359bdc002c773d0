package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/garyjia/newsroom-workflow/internal/application/dispatcher"
	"github.com/garyjia/newsroom-workflow/internal/application/port"
	"github.com/garyjia/newsroom-workflow/internal/domain/event"
	"github.com/garyjia/newsroom-workflow/internal/domain/workflow"
)

// activityPhrases describe the move into a status the way the newsroom feed words it
var activityPhrases = map[workflow.State]string{
	workflow.StatePublished:        "published article",
	workflow.StateApproved:         "approved article",
	workflow.StateRejected:         "rejected article",
	workflow.StateUnderReview:      "started reviewing",
	workflow.StateNeedsRevision:    "requested revision",
	workflow.StateReturnedToWriter: "returned to writer",
	workflow.StateInProgress:       "started editing",
	workflow.StateReadyForReview:   "submitted for review",
	workflow.StatePendingApproval:  "awaiting approval",
	workflow.StateScheduled:        "scheduled article",
	workflow.StateFactChecking:     "started fact checking",
	workflow.StateLegalReview:      "started legal review",
	workflow.StateCopyEdit:         "started copy editing",
	workflow.StateProofreading:     "started proofreading",
	workflow.StateOnHold:           "put on hold",
	workflow.StateAssigned:         "assigned article",
	workflow.StateUnassigned:       "unassigned article",
	workflow.StateOverdue:          "marked overdue",
	workflow.StateRush:             "marked as rush",
	workflow.StateArchived:         "archived article",
	workflow.StateRetracted:        "retracted article",
	workflow.StateUnpublished:      "unpublished article",
}

// ActivityPhrase returns the feed wording for a move into status
func ActivityPhrase(status workflow.State) string {
	if p, ok := activityPhrases[status]; ok {
		return p
	}
	return "updated article"
}

// NotificationService turns workflow events into newsroom chat messages
type NotificationService interface {
	// Register subscribes the service's handlers on a dispatcher
	Register(d dispatcher.Dispatcher)

	// HandleEvent posts a chat message for an event if it is worth announcing
	HandleEvent(ctx context.Context, evt *event.Event) error
}

// NotificationOption configures the notification service
type NotificationOption func(*notificationServiceImpl)

// WithNotifyActions limits chat messages to transitions made by these actions.
// An empty list announces every transition.
func WithNotifyActions(actions []workflow.Action) NotificationOption {
	return func(s *notificationServiceImpl) {
		s.notifyActions = make(map[workflow.Action]bool, len(actions))
		for _, a := range actions {
			s.notifyActions[a] = true
		}
	}
}

// WithStatusLabels sets how statuses are rendered in messages; nil keeps the raw names
func WithStatusLabels(label func(workflow.State) string) NotificationOption {
	return func(s *notificationServiceImpl) {
		if label != nil {
			s.label = label
		}
	}
}

type notificationServiceImpl struct {
	notifier      port.ChatNotifier
	notifyActions map[workflow.Action]bool
	label         func(workflow.State) string
	logger        Logger
}

// NewNotificationService creates a new NotificationService.
// A nil notifier keeps the event log but sends no chat messages.
func NewNotificationService(notifier port.ChatNotifier, logger Logger, opts ...NotificationOption) NotificationService {
	s := &notificationServiceImpl{
		notifier: notifier,
		label:    func(st workflow.State) string { return st.String() },
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register subscribes the event log and, with a notifier, the chat handlers
func (s *notificationServiceImpl) Register(d dispatcher.Dispatcher) {
	d.SubscribeAll("event-log", s.logEvent)

	if s.notifier == nil {
		return
	}
	d.SubscribeNamed(event.TypeArticleCreated, "chat-notification", s.HandleEvent)
	d.SubscribeNamed(event.TypeArticleTransitioned, "chat-notification", s.HandleEvent)
	d.SubscribeNamed(event.TypeArticleFlagged, "chat-notification", s.HandleEvent)
}

// HandleEvent posts a chat message for an event if it is worth announcing
func (s *notificationServiceImpl) HandleEvent(ctx context.Context, evt *event.Event) error {
	if s.notifier == nil {
		return nil
	}

	text, ok := s.buildMessage(evt)
	if !ok {
		return nil
	}

	if err := s.notifier.Notify(ctx, text); err != nil {
		s.logger.Error("Failed to send chat notification",
			"error", err,
			"article_id", evt.ArticleID,
			"event_type", evt.Type,
		)
		return fmt.Errorf("send chat notification: %w", err)
	}

	s.logger.Info("Chat notification sent",
		"article_id", evt.ArticleID,
		"event_type", evt.Type,
		"correlation_id", evt.CorrelationID,
	)
	return nil
}

func (s *notificationServiceImpl) logEvent(ctx context.Context, evt *event.Event) error {
	s.logger.Info("Workflow event",
		"event_id", evt.ID,
		"event_type", evt.Type,
		"article_id", evt.ArticleID,
		"from", evt.GetPayloadString(event.KeyFrom),
		"to", evt.GetPayloadString(event.KeyTo),
		"action", evt.GetPayloadString(event.KeyAction),
		"actor_id", evt.GetPayloadString(event.KeyActorID),
		"correlation_id", evt.CorrelationID,
	)
	return nil
}

// buildMessage renders the chat text for an event; false means stay quiet
func (s *notificationServiceImpl) buildMessage(evt *event.Event) (string, bool) {
	title := evt.GetPayloadString(event.KeyTitle)
	who := actorName(evt)

	switch evt.Type {
	case event.TypeArticleCreated:
		if len(s.notifyActions) > 0 {
			return "", false
		}
		to := workflow.State(evt.GetPayloadString(event.KeyTo))
		return fmt.Sprintf("%s created article #%d %q (%s)", who, evt.ArticleID, title, s.label(to)), true

	case event.TypeArticleTransitioned:
		action := workflow.Action(evt.GetPayloadString(event.KeyAction))
		if len(s.notifyActions) > 0 && !s.notifyActions[action] {
			return "", false
		}
		from := workflow.State(evt.GetPayloadString(event.KeyFrom))
		to := workflow.State(evt.GetPayloadString(event.KeyTo))

		var b strings.Builder
		fmt.Fprintf(&b, "%s %s #%d %q\n%s -> %s", who, ActivityPhrase(to), evt.ArticleID, title, s.label(from), s.label(to))
		if feedback := evt.GetPayloadString(event.KeyFeedback); feedback != "" {
			fmt.Fprintf(&b, "\nFeedback: %s", feedback)
		}
		return b.String(), true

	case event.TypeArticleFlagged:
		action := workflow.Action(evt.GetPayloadString(event.KeyAction))
		if len(s.notifyActions) > 0 && !s.notifyActions[action] {
			return "", false
		}
		verb := "unmarked"
		if evt.GetPayloadBool(event.KeyValue) {
			verb = "marked"
		}
		return fmt.Sprintf("%s %s article #%d %q as %s", who, verb, evt.ArticleID, title, evt.GetPayloadString(event.KeyFlag)), true
	}

	return "", false
}

func actorName(evt *event.Event) string {
	id := evt.GetPayloadString(event.KeyActorID)
	role := evt.GetPayloadString(event.KeyActorRole)
	switch {
	case id == "" && role == "":
		return "Someone"
	case role == "":
		return id
	case id == "":
		return strings.ToLower(role)
	default:
		return fmt.Sprintf("%s (%s)", id, strings.ToLower(role))
	}
}
