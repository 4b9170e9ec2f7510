package policies

import (
	"fmt"

	"github.com/zeu5/rlpath/types"
)

// Override may force the action for a state. Returning false leaves the
// choice to the next override.
type Override func(types.State, []types.Action) (types.Action, bool)

// When builds an override from a state predicate and an action picker
func When(cond types.GoalFunc, pick func([]types.Action) (types.Action, bool)) Override {
	return func(s types.State, actions []types.Action) (types.Action, bool) {
		if !cond(s) {
			return nil, false
		}
		return pick(actions)
	}
}

// ActionWithLabel picks the first legal action carrying the label
func ActionWithLabel(label string) func([]types.Action) (types.Action, bool) {
	return func(actions []types.Action) (types.Action, bool) {
		for _, a := range actions {
			if a.String() == label {
				return a, true
			}
		}
		return nil, false
	}
}

// Rule is the declarative form of an override: in the state hashed State,
// take the legal action labelled Action. An empty State matches every state.
type Rule struct {
	State  string
	Action string
}

func (r Rule) Validate() error {
	if r.Action == "" {
		return fmt.Errorf("rule for state %q has no action", r.State)
	}
	return nil
}

func (r Rule) override() Override {
	return When(func(s types.State) bool {
		return r.State == "" || s.Hash() == r.State
	}, ActionWithLabel(r.Action))
}

// StrictPolicy applies the first override that fires and falls back to the
// wrapped policy otherwise. An override naming an action that is not legal
// does not fire.
type StrictPolicy struct {
	fallback  types.Policy
	overrides []Override
}

var _ types.Policy = &StrictPolicy{}

func NewStrictPolicy(fallback types.Policy, rules ...Rule) *StrictPolicy {
	s := &StrictPolicy{
		fallback:  fallback,
		overrides: make([]Override, 0, len(rules)),
	}
	for _, r := range rules {
		s.Add(r.override())
	}
	return s
}

// Add appends an override, checked after the existing ones
func (s *StrictPolicy) Add(o Override) {
	s.overrides = append(s.overrides, o)
}

func (s *StrictPolicy) NextAction(state types.State, actions []types.Action, q *types.QualityMatrix) (types.Action, bool) {
	for _, o := range s.overrides {
		if a, ok := o(state, actions); ok {
			return a, true
		}
	}
	return s.fallback.NextAction(state, actions, q)
}
