package types

// Trace of an epoch as triplets (state, action, nextState)
type Trace struct {
	states     []State
	actions    []Action
	nextStates []State
}

func NewTrace() *Trace {
	return &Trace{
		states:     make([]State, 0),
		actions:    make([]Action, 0),
		nextStates: make([]State, 0),
	}
}

func (t *Trace) Append(state State, action Action, nextState State) {
	t.states = append(t.states, state)
	t.actions = append(t.actions, action)
	t.nextStates = append(t.nextStates, nextState)
}

func (t *Trace) Len() int {
	return len(t.states)
}

func (t *Trace) Get(i int) (State, Action, State, bool) {
	if i < 0 || i >= len(t.states) {
		return nil, nil, nil, false
	}
	return t.states[i], t.actions[i], t.nextStates[i], true
}

func (t *Trace) Last() (State, Action, State, bool) {
	return t.Get(len(t.states) - 1)
}

// Steps converts the trace to route steps
func (t *Trace) Steps() []StateAndActionPairWithResultState {
	out := make([]StateAndActionPairWithResultState, t.Len())
	for i := range t.states {
		out[i] = NewRouteStep(t.states[i], t.actions[i], t.nextStates[i])
	}
	return out
}
