package event

// Type identifies the type of domain event
type Type string

const (
	TypeArticleCreated      Type = "article.created"
	TypeArticleTransitioned Type = "article.transitioned"
	TypeArticleFlagged      Type = "article.flagged"
)

// Payload keys shared by publishers and handlers
const (
	KeyTitle     = "title"
	KeyFrom      = "from_status"
	KeyTo        = "to_status"
	KeyAction    = "action"
	KeyActorRole = "actor_role"
	KeyActorID   = "actor_id"
	KeyFeedback  = "feedback"
	KeyFlag      = "flag"
	KeyValue     = "value"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeArticleCreated,
		TypeArticleTransitioned,
		TypeArticleFlagged:
		return true
	default:
		return false
	}
}
