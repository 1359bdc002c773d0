package workflow

// State represents an article status in the editorial lifecycle
type State string

const (
	StateDraft            State = "DRAFT"
	StateInProgress       State = "IN_PROGRESS"
	StateAssigned         State = "ASSIGNED"
	StateUnassigned       State = "UNASSIGNED"
	StateReadyForReview   State = "READY_FOR_REVIEW"
	StateUnderReview      State = "UNDER_REVIEW"
	StateFactChecking     State = "FACT_CHECKING"
	StateLegalReview      State = "LEGAL_REVIEW"
	StateCopyEdit         State = "COPY_EDIT"
	StateProofreading     State = "PROOFREADING"
	StateNeedsRevision    State = "NEEDS_REVISION"
	StateReturnedToWriter State = "RETURNED_TO_WRITER"
	StateOnHold           State = "ON_HOLD"
	StateOverdue          State = "OVERDUE"
	StateRush             State = "RUSH"
	StatePendingApproval  State = "PENDING_APPROVAL"
	StateApproved         State = "APPROVED"
	StateScheduled        State = "SCHEDULED"
	StatePublished        State = "PUBLISHED"
	StateRejected         State = "REJECTED"
	StateArchived         State = "ARCHIVED"
	StateRetracted        State = "RETRACTED"
	StateUnpublished      State = "UNPUBLISHED"
	StateExpired          State = "EXPIRED"
	StateUpdated          State = "UPDATED"
)

// allStates keeps the canonical enumeration order
var allStates = []State{
	StateDraft,
	StateInProgress,
	StateAssigned,
	StateUnassigned,
	StateReadyForReview,
	StateUnderReview,
	StateFactChecking,
	StateLegalReview,
	StateCopyEdit,
	StateProofreading,
	StateNeedsRevision,
	StateReturnedToWriter,
	StateOnHold,
	StateOverdue,
	StateRush,
	StatePendingApproval,
	StateApproved,
	StateScheduled,
	StatePublished,
	StateRejected,
	StateArchived,
	StateRetracted,
	StateUnpublished,
	StateExpired,
	StateUpdated,
}

var validStates = func() map[State]bool {
	m := make(map[State]bool, len(allStates))
	for _, s := range allStates {
		m[s] = true
	}
	return m
}()

// terminalStates need no further transition, though some can re-enter the workflow
var terminalStates = map[State]bool{
	StatePublished: true,
	StateArchived:  true,
	StateRejected:  true,
	StateRetracted: true,
	StateExpired:   true,
}

var outsideWorkflow = map[State]bool{
	StateDraft:       true,
	StatePublished:   true,
	StateRejected:    true,
	StateArchived:    true,
	StateRetracted:   true,
	StateUnpublished: true,
	StateExpired:     true,
}

var reviewableStates = map[State]bool{
	StateReadyForReview: true,
	StateUnderReview:    true,
	StateNeedsRevision:  true,
	StateFactChecking:   true,
	StateLegalReview:    true,
	StateCopyEdit:       true,
	StateProofreading:   true,
}

var publishableStates = map[State]bool{
	StateApproved:  true,
	StateScheduled: true,
}

var attentionStates = map[State]bool{
	StateNeedsRevision:    true,
	StateReturnedToWriter: true,
	StateOnHold:           true,
	StateOverdue:          true,
}

// deskStates are the specialist review desks an article can be routed between
var deskStates = map[State]bool{
	StateFactChecking: true,
	StateLegalReview:  true,
	StateCopyEdit:     true,
	StateProofreading: true,
}

// initialStates are the statuses an article may be created in
var initialStates = map[State]bool{
	StateDraft:      true,
	StateInProgress: true,
	StateAssigned:   true,
	StateUnassigned: true,
}

// AllStates returns every state in canonical order
func AllStates() []State {
	return append([]State(nil), allStates...)
}

// ParseState converts a raw status string into a State
func ParseState(raw string) (State, error) {
	s := State(raw)
	if !s.IsValid() {
		return "", newError(ErrInvalidInput, "unknown_status", "", "", "unknown status %q", raw)
	}
	return s, nil
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is part of the enumeration
func (s State) IsValid() bool {
	return validStates[s]
}

// IsTerminal returns true if no further transition is required from the state
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// IsInWorkflow reports whether the article is actively moving through the pipeline
func (s State) IsInWorkflow() bool {
	return s.IsValid() && !outsideWorkflow[s]
}

// IsReviewable reports whether APPROVE is legal from the state
func (s State) IsReviewable() bool {
	return reviewableStates[s]
}

// IsPublishable reports whether PUBLISH is legal from the state
func (s State) IsPublishable() bool {
	return publishableStates[s]
}

// IsSchedulable reports whether SCHEDULE is legal from the state
func (s State) IsSchedulable() bool {
	return s == StateApproved
}

// NeedsAttention reports whether the article is waiting on its writer or stalled
func (s State) NeedsAttention() bool {
	return attentionStates[s]
}

// IsDesk reports whether the state is a specialist review desk
func (s State) IsDesk() bool {
	return deskStates[s]
}

// IsInitial reports whether an article may be created in the state
func (s State) IsInitial() bool {
	return initialStates[s]
}

// Classification is the set of predicates dashboards filter on
type Classification struct {
	InWorkflow     bool `json:"in_workflow"`
	Reviewable     bool `json:"reviewable"`
	Publishable    bool `json:"publishable"`
	Schedulable    bool `json:"schedulable"`
	NeedsAttention bool `json:"needs_attention"`
	Terminal       bool `json:"terminal"`
}

// Classify evaluates every predicate for a state
func Classify(s State) Classification {
	return Classification{
		InWorkflow:     s.IsInWorkflow(),
		Reviewable:     s.IsReviewable(),
		Publishable:    s.IsPublishable(),
		Schedulable:    s.IsSchedulable(),
		NeedsAttention: s.NeedsAttention(),
		Terminal:       s.IsTerminal(),
	}
}
