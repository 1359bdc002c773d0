package workflow

// Action represents a named operation that can move an article between states
type Action string

const (
	ActionSubmitForReview Action = "SUBMIT_FOR_REVIEW"
	ActionBeginReview     Action = "BEGIN_REVIEW"
	ActionApprove         Action = "APPROVE"
	ActionReject          Action = "REJECT"
	ActionRequestRevision Action = "REQUEST_REVISION"
	ActionReturnToWriter  Action = "RETURN_TO_WRITER"
	ActionSchedule        Action = "SCHEDULE"
	ActionPublish         Action = "PUBLISH"
	ActionUnpublish       Action = "UNPUBLISH"
	ActionArchive         Action = "ARCHIVE"
	ActionSetFeatured     Action = "SET_FEATURED"
	ActionSetTrending     Action = "SET_TRENDING"
	ActionRoute           Action = "ROUTE"
	ActionStartWriting    Action = "START_WRITING"
	ActionRetract         Action = "RETRACT"
	ActionRestore         Action = "RESTORE"
)

// allActions keeps the canonical order used when listing permitted actions
var allActions = []Action{
	ActionSubmitForReview,
	ActionStartWriting,
	ActionBeginReview,
	ActionRoute,
	ActionApprove,
	ActionRequestRevision,
	ActionReturnToWriter,
	ActionReject,
	ActionSchedule,
	ActionPublish,
	ActionUnpublish,
	ActionRetract,
	ActionArchive,
	ActionRestore,
	ActionSetFeatured,
	ActionSetTrending,
}

var actionOrder = func() map[Action]int {
	m := make(map[Action]int, len(allActions))
	for i, a := range allActions {
		m[a] = i
	}
	return m
}()

// AllActions returns every action in canonical order
func AllActions() []Action {
	return append([]Action(nil), allActions...)
}

// ParseAction converts a raw action name into an Action
func ParseAction(raw string) (Action, error) {
	a := Action(raw)
	if !a.IsValid() {
		return "", newError(ErrInvalidInput, "unknown_action", "", "", "unknown action %q", raw)
	}
	return a, nil
}

// String returns the string representation of the action
func (a Action) String() string {
	return string(a)
}

// IsValid returns true if the action is known
func (a Action) IsValid() bool {
	_, ok := actionOrder[a]
	return ok
}

// IsFlag reports whether the action records a flag instead of changing status
func (a Action) IsFlag() bool {
	return a == ActionSetFeatured || a == ActionSetTrending
}
