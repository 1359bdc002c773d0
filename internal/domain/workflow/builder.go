package workflow

import (
	"fmt"
	"sort"
)

// GuardFunc evaluates whether a transition applies to the given inputs
type GuardFunc func(in Inputs) bool

// TableBuilder builds an immutable transition table
type TableBuilder interface {
	// Configure returns the configuration for transitions out of the given state
	Configure(state State) StateConfiguration

	// Build freezes the configured transitions into a Table
	Build() Table
}

// StateConfiguration configures transitions for a specific state
type StateConfiguration interface {
	// Permit allows an action to move the state to the target state
	Permit(action Action, toState State) StateConfiguration

	// PermitIf allows an action to move to the target state if the guard passes
	PermitIf(action Action, toState State, guard GuardFunc) StateConfiguration
}

// transition represents a state transition with optional guard
type transition struct {
	toState State
	guard   GuardFunc
}

// stateConfig implements StateConfiguration
type stateConfig struct {
	fromState   State
	transitions map[Action][]transition
}

// tableBuilder implements TableBuilder
type tableBuilder struct {
	configurations map[State]*stateConfig
}

// transitionTable implements Table
type transitionTable struct {
	configurations map[State]*stateConfig
}

// NewBuilder creates a new transition table builder
func NewBuilder() TableBuilder {
	return &tableBuilder{
		configurations: make(map[State]*stateConfig),
	}
}

// Configure returns a state configuration for the given state
func (b *tableBuilder) Configure(state State) StateConfiguration {
	if !state.IsValid() {
		panic(fmt.Sprintf("invalid state: %s", state))
	}

	config, exists := b.configurations[state]
	if !exists {
		config = &stateConfig{
			fromState:   state,
			transitions: make(map[Action][]transition),
		}
		b.configurations[state] = config
	}

	return config
}

// Build copies the configurations so later Configure calls do not leak into the table
func (b *tableBuilder) Build() Table {
	configsCopy := make(map[State]*stateConfig, len(b.configurations))
	for state, config := range b.configurations {
		transitionsCopy := make(map[Action][]transition, len(config.transitions))
		for action, transitions := range config.transitions {
			transitionsCopy[action] = append([]transition{}, transitions...)
		}
		configsCopy[state] = &stateConfig{
			fromState:   state,
			transitions: transitionsCopy,
		}
	}

	return &transitionTable{configurations: configsCopy}
}

// Permit allows an action to move the state to the target state
func (c *stateConfig) Permit(action Action, toState State) StateConfiguration {
	return c.PermitIf(action, toState, nil)
}

// PermitIf allows an action to move to the target state if the guard condition passes
func (c *stateConfig) PermitIf(action Action, toState State, guard GuardFunc) StateConfiguration {
	if !action.IsValid() {
		panic(fmt.Sprintf("invalid action: %s", action))
	}
	if !toState.IsValid() {
		panic(fmt.Sprintf("invalid target state: %s", toState))
	}
	// a self transition would be an unauditable no-op
	if toState == c.fromState {
		panic(fmt.Sprintf("self transition %s on %s", action, toState))
	}

	c.transitions[action] = append(c.transitions[action], transition{
		toState: toState,
		guard:   guard,
	})

	return c
}

// CanFire returns true if the action has at least one transition out of the state
func (t *transitionTable) CanFire(from State, action Action) bool {
	config, exists := t.configurations[from]
	if !exists {
		return false
	}
	return len(config.transitions[action]) > 0
}

// Resolve returns the target of the first transition whose guard accepts the inputs
func (t *transitionTable) Resolve(from State, action Action, in Inputs) (State, error) {
	config, exists := t.configurations[from]
	if !exists {
		return "", fmt.Errorf("%w: cannot apply %s from state %s (no configuration)", ErrInvalidTransition, action, from)
	}

	transitions := config.transitions[action]
	if len(transitions) == 0 {
		return "", fmt.Errorf("%w: cannot apply %s from state %s", ErrInvalidTransition, action, from)
	}

	for _, tr := range transitions {
		if tr.guard == nil || tr.guard(in) {
			return tr.toState, nil
		}
	}

	return "", fmt.Errorf("%w: action %s from state %s", ErrGuardFailed, action, from)
}

// PermittedActions returns the actions configured out of a state in canonical order
func (t *transitionTable) PermittedActions(from State) []Action {
	config, exists := t.configurations[from]
	if !exists {
		return []Action{}
	}

	actions := make([]Action, 0, len(config.transitions))
	for action, transitions := range config.transitions {
		if len(transitions) > 0 {
			actions = append(actions, action)
		}
	}
	sort.Slice(actions, func(i, j int) bool {
		return actionOrder[actions[i]] < actionOrder[actions[j]]
	})

	return actions
}

// Targets returns every state an action can reach from a state, in declaration order
func (t *transitionTable) Targets(from State, action Action) []State {
	config, exists := t.configurations[from]
	if !exists {
		return nil
	}

	targets := make([]State, 0, len(config.transitions[action]))
	for _, tr := range config.transitions[action] {
		targets = append(targets, tr.toState)
	}
	return targets
}
