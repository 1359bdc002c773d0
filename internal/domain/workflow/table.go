package workflow

// Table is an immutable transition table keyed by (state, action)
type Table interface {
	// CanFire returns true if the action is configured out of the state
	CanFire(from State, action Action) bool

	// Resolve returns the target state for the action given the inputs
	Resolve(from State, action Action, in Inputs) (State, error)

	// PermittedActions returns all actions configured out of the state
	PermittedActions(from State) []Action

	// Targets returns every state the action can reach from the state
	Targets(from State, action Action) []State
}
