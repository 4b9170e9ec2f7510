package rl

import (
	"errors"
	"fmt"

	"github.com/zeu5/rlpath/types"
)

var (
	// ErrDependencyFailed marks a prerequisite experiment that did not
	// reach its goal. The dependent run cannot start from a known state.
	ErrDependencyFailed = errors.New("dependency experiment did not reach its goal")
	// ErrActionFailed marks an action (and its fallback) that could not execute
	ErrActionFailed = errors.New("action execution failed")
)

// DependencyError reports which dependency failed and how its walk ended
type DependencyError struct {
	Index   int
	Name    string
	Outcome types.RouteOutcome
	Steps   int
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("dependency %d (%s) ended with %s after %d steps", e.Index, e.Name, e.Outcome, e.Steps)
}

func (e *DependencyError) Unwrap() error {
	return ErrDependencyFailed
}
