package rl

import "github.com/zeu5/rlpath/types"

// RouteParameter disambiguates the action chosen by the path finder, for
// instance between structurally identical actions
type RouteParameter interface {
	AppliesTo(types.Action) bool
	Select(chosen types.Action, legal []types.Action) types.Action
}

// NthEquivalent selects the Nth (0 based) legal action that carries the
// same label as the chosen one, when the chosen label is Label.
// Out of range keeps the chosen action.
type NthEquivalent struct {
	Label string
	N     int
}

var _ RouteParameter = NthEquivalent{}

func (n NthEquivalent) AppliesTo(a types.Action) bool {
	return a.String() == n.Label
}

func (n NthEquivalent) Select(chosen types.Action, legal []types.Action) types.Action {
	i := 0
	for _, a := range legal {
		if a.String() != n.Label {
			continue
		}
		if i == n.N {
			return a
		}
		i++
	}
	return chosen
}

func applyParameters(chosen types.Action, legal []types.Action, params []RouteParameter) types.Action {
	for _, p := range params {
		if p.AppliesTo(chosen) {
			return p.Select(chosen, legal)
		}
	}
	return chosen
}
