package types

// Policy picks the next action to take. Returning false is the no-op action:
// nothing to execute from this state.
type Policy interface {
	NextAction(State, []Action, *QualityMatrix) (Action, bool)
}

// PolicyFunc adapts a function to the Policy interface
type PolicyFunc func(State, []Action, *QualityMatrix) (Action, bool)

func (f PolicyFunc) NextAction(s State, actions []Action, q *QualityMatrix) (Action, bool) {
	return f(s, actions, q)
}
