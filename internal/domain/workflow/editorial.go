package workflow

// deskOrder is the routing order of the specialist review desks
var deskOrder = []State{
	StateFactChecking,
	StateLegalReview,
	StateCopyEdit,
	StateProofreading,
}

// BuildEditorialTable creates the transition table for the newsroom editorial workflow
func BuildEditorialTable() Table {
	builder := NewBuilder()

	// Drafting
	builder.Configure(StateDraft).
		Permit(ActionSubmitForReview, StateReadyForReview)

	builder.Configure(StateInProgress).
		Permit(ActionSubmitForReview, StateReadyForReview)

	builder.Configure(StateNeedsRevision).
		Permit(ActionSubmitForReview, StateReadyForReview)

	for _, s := range []State{StateAssigned, StateUnassigned, StateReturnedToWriter} {
		builder.Configure(s).
			Permit(ActionStartWriting, StateInProgress)
	}

	// Review
	builder.Configure(StateReadyForReview).
		Permit(ActionBeginReview, StateUnderReview)

	for _, from := range append([]State{StateUnderReview}, deskOrder...) {
		config := builder.Configure(from)
		for _, desk := range deskOrder {
			if desk != from {
				config.PermitIf(ActionRoute, desk, stageIs(desk))
			}
		}
	}

	for _, s := range allStates {
		if !s.IsReviewable() {
			continue
		}
		config := builder.Configure(s).
			Permit(ActionApprove, StateApproved)
		if s != StateNeedsRevision {
			config.Permit(ActionRequestRevision, StateNeedsRevision)
		}
	}

	// Publishing
	builder.Configure(StateApproved).
		Permit(ActionSchedule, StateScheduled).
		Permit(ActionPublish, StatePublished)

	builder.Configure(StateScheduled).
		Permit(ActionPublish, StatePublished)

	builder.Configure(StatePublished).
		Permit(ActionUnpublish, StateUnpublished).
		Permit(ActionRetract, StateRetracted)

	builder.Configure(StateArchived).
		Permit(ActionRestore, StateInProgress)

	// Send-back and exit paths shared by many states
	for _, s := range allStates {
		config := builder.Configure(s)
		if !s.IsTerminal() {
			config.Permit(ActionReject, StateRejected)
			if s != StateReturnedToWriter {
				config.Permit(ActionReturnToWriter, StateReturnedToWriter)
			}
		}
		if s != StateArchived {
			config.Permit(ActionArchive, StateArchived)
		}
	}

	// Nothing ever transitions into DRAFT

	return builder.Build()
}

func stageIs(desk State) GuardFunc {
	return func(in Inputs) bool {
		return in.Stage == desk
	}
}
