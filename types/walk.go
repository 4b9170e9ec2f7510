package types

import (
	"fmt"
	"strings"
)

// RouteOutcome tags how a walk over the quality matrix ended
type RouteOutcome int

const (
	GoalReached RouteOutcome = iota
	Unreachable
	StepsExhausted
	LoopDetected
	GoalNeverReached
	DataNotIncluded
)

func (o RouteOutcome) String() string {
	switch o {
	case GoalReached:
		return "GoalReached"
	case Unreachable:
		return "Unreachable"
	case StepsExhausted:
		return "StepsExhausted"
	case LoopDetected:
		return "LoopDetected"
	case GoalNeverReached:
		return "GoalNeverReached"
	case DataNotIncluded:
		return "DataNotIncluded"
	default:
		return fmt.Sprintf("RouteOutcome(%d)", int(o))
	}
}

// MarshalText lets outcomes travel as their names
func (o RouteOutcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// WalkResult is the outcome of a route search and the steps taken
type WalkResult struct {
	Outcome RouteOutcome
	Steps   []StateAndActionPairWithResultState
}

func NewWalkResult(outcome RouteOutcome, steps []StateAndActionPairWithResultState) *WalkResult {
	if steps == nil {
		steps = make([]StateAndActionPairWithResultState, 0)
	}
	return &WalkResult{Outcome: outcome, Steps: steps}
}

// Reached is true when the walk ended at the goal
func (w *WalkResult) Reached() bool {
	return w.Outcome == GoalReached
}

// Last returns the final step of the walk
func (w *WalkResult) Last() (StateAndActionPairWithResultState, bool) {
	if len(w.Steps) == 0 {
		return StateAndActionPairWithResultState{}, false
	}
	return w.Steps[len(w.Steps)-1], true
}

// States lists the visited state hashes: the first state and every result
func (w *WalkResult) States() []string {
	if len(w.Steps) == 0 {
		return []string{}
	}
	out := make([]string, 0, len(w.Steps)+1)
	out = append(out, w.Steps[0].State.Hash())
	for _, s := range w.Steps {
		if s.ResultState == nil {
			break
		}
		out = append(out, s.ResultState.Hash())
	}
	return out
}

// Continuous checks that every step starts where the previous one ended
func (w *WalkResult) Continuous() bool {
	for i := 0; i+1 < len(w.Steps); i++ {
		if !SameState(w.Steps[i].ResultState, w.Steps[i+1].State) {
			return false
		}
	}
	return true
}

func (w *WalkResult) String() string {
	return fmt.Sprintf("%s [%s]", w.Outcome, strings.Join(w.States(), " -> "))
}
