package rl

import (
	"context"
	"fmt"

	"github.com/zeu5/rlpath/types"
	"go.uber.org/zap"
)

// PathFinder replays a learned quality matrix to reach a goal. It never
// writes to the matrix.
type PathFinder struct {
	env    types.Environment
	state  *types.ExperimentState
	logger *zap.Logger
}

// NewPathFinder creates a path finder over the environment and learned state
func NewPathFinder(env types.Environment, state *types.ExperimentState, logger *zap.Logger) *PathFinder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if state == nil {
		state = types.NewExperimentState()
	}
	return &PathFinder{
		env:    env,
		state:  state,
		logger: logger.Named("pathfinder"),
	}
}

// FindRoute walks from start executing the best known action at every step.
// maxSteps bounds executed actions and stabilization waits together.
// Parameters can redirect the chosen action among equivalent ones.
func (p *PathFinder) FindRoute(ctx context.Context, start types.State, goal types.TrainGoal, maxSteps int, params ...RouteParameter) (*types.WalkResult, error) {
	steps := make([]types.StateAndActionPairWithResultState, 0)
	if goal.HasReachedGoal(start) {
		return types.NewWalkResult(types.GoalReached, steps), nil
	}

	qm := p.state.QualityMatrix
	seen := make(map[string]bool)
	state := start
	used := 0

	for used < maxSteps {
		legal, err := p.env.PossibleActions(ctx, state)
		if err != nil {
			return nil, fmt.Errorf("possible actions: %w", err)
		}
		chosen, _, ok := qm.MaxAmong(state, legal)
		if !ok {
			return p.done(types.Unreachable, steps), nil
		}
		chosen = applyParameters(chosen, legal, params)

		executed, next, err := ExecuteWithFallback(ctx, p.env, greedyFallback, qm, state, chosen)
		if err != nil {
			return nil, err
		}
		used += 1
		for p.env.IsIntermediateState(next) && !goal.HasReachedGoal(next) && used < maxSteps {
			if err := p.env.WaitForStabilization(ctx); err != nil {
				return nil, fmt.Errorf("stabilization wait: %w", err)
			}
			if next, err = p.env.CurrentState(ctx); err != nil {
				return nil, fmt.Errorf("current state: %w", err)
			}
			used += 1
		}

		step := types.NewRouteStep(state, executed, next)
		if seen[step.TransitionKey()] {
			return p.done(types.LoopDetected, steps), nil
		}
		seen[step.TransitionKey()] = true
		steps = append(steps, step)

		if goal.HasReachedGoal(next) {
			return p.done(types.GoalReached, steps), nil
		}
		state = next
	}
	return p.done(types.StepsExhausted, steps), nil
}

// FindRouteWithoutApplyingActions replays the route using only the result
// states recorded during training. Actions are chosen among the legal ones
// exactly as FindRoute does; the environment is only queried, nothing is
// executed.
func (p *PathFinder) FindRouteWithoutApplyingActions(ctx context.Context, start types.State, goal types.TrainGoal, maxSteps int) (*types.WalkResult, error) {
	steps := make([]types.StateAndActionPairWithResultState, 0)
	if goal.HasReachedGoal(start) {
		return types.NewWalkResult(types.GoalReached, steps), nil
	}

	qm := p.state.QualityMatrix
	seen := make(map[string]bool)
	state := start

	for i := 0; i < maxSteps; i++ {
		legal, err := p.env.PossibleActions(ctx, state)
		if err != nil {
			return nil, fmt.Errorf("possible actions: %w", err)
		}
		if len(legal) == 0 {
			return p.done(types.Unreachable, steps), nil
		}
		if len(qm.ActionsFrom(state)) == 0 {
			return p.done(types.GoalNeverReached, steps), nil
		}
		chosen, _, _ := qm.MaxAmong(state, legal)
		entry, ok := qm.Lookup(state, chosen)
		if !ok || entry.Result == nil {
			return p.done(types.DataNotIncluded, steps), nil
		}

		step := types.NewRouteStep(state, chosen, entry.Result)
		if seen[step.TransitionKey()] {
			return p.done(types.LoopDetected, steps), nil
		}
		seen[step.TransitionKey()] = true
		steps = append(steps, step)

		if goal.HasReachedGoal(entry.Result) {
			return p.done(types.GoalReached, steps), nil
		}
		state = entry.Result
	}
	return p.done(types.StepsExhausted, steps), nil
}

// ExecuteTrainedExperiments walks every dependency in order, each from its
// environment's initial state with its own learned state. All of them have
// to reach their goal; the first one that does not stops the chain with a
// *DependencyError.
func (p *PathFinder) ExecuteTrainedExperiments(ctx context.Context, deps []types.ExperimentDependency) error {
	for i, dep := range deps {
		start, err := dep.Environment.InitialState(ctx)
		if err != nil {
			return fmt.Errorf("dependency %d (%s): initial state: %w", i, dep.Name, err)
		}
		walker := NewPathFinder(dep.Environment, dep.State, p.logger)
		result, err := walker.FindRoute(ctx, start, dep.Goal, dep.MaxSteps)
		if err != nil {
			return fmt.Errorf("dependency %d (%s): %w", i, dep.Name, err)
		}
		if !result.Reached() {
			return &DependencyError{Index: i, Name: dep.Name, Outcome: result.Outcome, Steps: len(result.Steps)}
		}
		p.logger.Debug("dependency reached its goal", zap.Int("index", i), zap.String("name", dep.Name), zap.Int("steps", len(result.Steps)))
	}
	return nil
}

func (p *PathFinder) done(outcome types.RouteOutcome, steps []types.StateAndActionPairWithResultState) *types.WalkResult {
	result := types.NewWalkResult(outcome, steps)
	p.logger.Debug("route finished", zap.Stringer("outcome", outcome), zap.Int("steps", len(steps)))
	return result
}
