package types

import "fmt"

// PairKey is the stable identity of a (state, action) pair
type PairKey struct {
	State  string
	Action string
}

func (k PairKey) String() string {
	return fmt.Sprintf("%s -> %s", k.State, k.Action)
}

// StateAndActionPair is the quality matrix key
type StateAndActionPair struct {
	State  State
	Action Action
}

func NewStateAndActionPair(state State, action Action) StateAndActionPair {
	return StateAndActionPair{State: state, Action: action}
}

// Key derives the identity of the pair from the hashes of its members only
func (p StateAndActionPair) Key() PairKey {
	return PairKey{State: p.State.Hash(), Action: p.Action.Hash()}
}

// Equal compares structurally
func (p StateAndActionPair) Equal(other StateAndActionPair) bool {
	return p.Key() == other.Key()
}

func (p StateAndActionPair) String() string {
	return fmt.Sprintf("%s --%s-->", p.State.Hash(), p.Action.String())
}

// StateAndActionPairWithResultState is a route step: the pair and the
// state it led to. Equality ignores the result so steps and matrix keys agree.
type StateAndActionPairWithResultState struct {
	StateAndActionPair
	ResultState State
}

func NewRouteStep(state State, action Action, result State) StateAndActionPairWithResultState {
	return StateAndActionPairWithResultState{
		StateAndActionPair: NewStateAndActionPair(state, action),
		ResultState:        result,
	}
}

// TransitionKey identifies the full (state, action -> result) triple.
// Used for cycle detection on routes.
func (s StateAndActionPairWithResultState) TransitionKey() string {
	result := ""
	if s.ResultState != nil {
		result = s.ResultState.Hash()
	}
	return s.State.Hash() + "\x00" + s.Action.Hash() + "\x00" + result
}

func (s StateAndActionPairWithResultState) String() string {
	if s.ResultState == nil {
		return s.StateAndActionPair.String() + " ?"
	}
	return s.StateAndActionPair.String() + " " + s.ResultState.Hash()
}
