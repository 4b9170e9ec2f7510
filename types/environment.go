package types

import "context"

// Environment is the system under control. The engine only drives it
// through this contract; executing actions is the job of each Action.
type Environment interface {
	// InitialState puts the environment at the start of an epoch and
	// returns the state observed there
	InitialState(context.Context) (State, error)
	// CurrentState re-queries the environment without acting on it
	CurrentState(context.Context) (State, error)
	// PossibleActions lists the legal actions from the state.
	// Should be deterministic in order
	PossibleActions(context.Context, State) ([]Action, error)
	// IsIntermediateState reports a state that is still settling
	// (for instance a pending asynchronous update)
	IsIntermediateState(State) bool
	// WaitForStabilization blocks for one stabilization interval
	WaitForStabilization(context.Context) error
}

// State of the system that policies observe
type State interface {
	// Indexed by the Hash
	// Should be deterministic and independent of object identity
	Hash() string
}

// Action is one transition choice from a state
type Action interface {
	// Index of the action
	// Should be deterministic
	Hash() string
	// Human readable label
	String() string
	// Execute applies the action to the environment and returns the
	// state reached
	Execute(context.Context, Environment) (State, error)
}

// SameState compares two states by hash. Two nil states are equal.
func SameState(a, b State) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Hash() == b.Hash()
}
