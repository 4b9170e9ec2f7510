// Package rl holds the learning engine: the trainer that fills a quality
// matrix with Q-learning and the path finder that replays it.
package rl

import (
	"context"
	"fmt"

	"github.com/zeu5/rlpath/types"
	"go.uber.org/zap"
)

const (
	DefaultLearningRate = 0.8
	DefaultDiscount     = 0.8
)

// EpochSummary is handed to observers at the end of every epoch
type EpochSummary struct {
	Epoch   int
	Report  types.TrainerReport
	Reached bool
	Trace   *types.Trace
}

// EpochObserver is notified after each epoch
type EpochObserver interface {
	ObserveEpoch(EpochSummary)
}

// StepResult is the outcome of executing one action
type StepResult struct {
	// Action that actually ran, may differ from the requested one after a fallback
	Action types.Action
	State  types.State
	// StabilizationSteps is the number of waits spent on intermediate states
	StabilizationSteps int
	// Stabilized is false when the wait budget ran out on an intermediate state
	Stabilized bool
}

// Trainer runs epochs of Q-learning on one experiment
type Trainer struct {
	env          types.Environment
	goal         types.TrainGoal
	state        *types.ExperimentState
	policy       types.Policy
	alpha        float64
	gamma        float64
	dependencies []types.ExperimentDependency
	observers    []EpochObserver
	logger       *zap.Logger
}

type TrainerOption func(*Trainer)

// WithLearningRate sets alpha
func WithLearningRate(alpha float64) TrainerOption {
	return func(t *Trainer) { t.alpha = alpha }
}

// WithDiscount sets gamma
func WithDiscount(gamma float64) TrainerOption {
	return func(t *Trainer) { t.gamma = gamma }
}

// WithDependencies sets the experiments walked to their goal before each epoch
func WithDependencies(deps ...types.ExperimentDependency) TrainerOption {
	return func(t *Trainer) { t.dependencies = append(t.dependencies, deps...) }
}

func WithEpochObserver(o EpochObserver) TrainerOption {
	return func(t *Trainer) { t.observers = append(t.observers, o) }
}

func WithLogger(logger *zap.Logger) TrainerOption {
	return func(t *Trainer) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// NewTrainer creates a trainer that writes into the experiment's state
func NewTrainer(experiment *types.Experiment, policy types.Policy, opts ...TrainerOption) *Trainer {
	if experiment.State == nil {
		experiment.State = types.NewExperimentState()
	}
	t := &Trainer{
		env:          experiment.Environment,
		goal:         experiment.Goal,
		state:        experiment.State,
		policy:       policy,
		alpha:        DefaultLearningRate,
		gamma:        DefaultDiscount,
		dependencies: make([]types.ExperimentDependency, 0),
		observers:    make([]EpochObserver, 0),
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = t.logger.Named("trainer")
	return t
}

// ExperimentState returns the state the trainer writes to
func (t *Trainer) ExperimentState() *types.ExperimentState {
	return t.state
}

// Run trains for the given number of epochs, each bounded by maximumActions
// (actions plus stabilization waits). The report is returned even when
// an error aborts the run.
func (t *Trainer) Run(ctx context.Context, epochs, maximumActions int) (types.TrainerReport, error) {
	total := types.TrainerReport{}
	for epoch := 0; epoch < epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		report, err := t.runEpoch(ctx, epoch, maximumActions)
		total = total.Add(report)
		if err != nil {
			t.logger.Error("epoch aborted", zap.Int("epoch", epoch), zap.Error(err))
			return total, err
		}
	}
	t.logger.Info("training finished",
		zap.Int("epochs", total.Epochs),
		zap.Int("goals", total.TimesReachedGoal),
		zap.Int("actions", total.TotalActionsRun),
		zap.Int("waits", total.StabilizationWaitCount),
		zap.Int("entries", t.state.QualityMatrix.Len()),
	)
	return total, nil
}

func (t *Trainer) runEpoch(ctx context.Context, epoch, maximumActions int) (types.TrainerReport, error) {
	report := types.TrainerReport{Epochs: 1}

	if len(t.dependencies) > 0 {
		pf := NewPathFinder(t.env, t.state, t.logger)
		if err := pf.ExecuteTrainedExperiments(ctx, t.dependencies); err != nil {
			return report, fmt.Errorf("epoch %d: %w", epoch, err)
		}
	}

	state, err := t.env.InitialState(ctx)
	if err != nil {
		return report, fmt.Errorf("epoch %d: initial state: %w", epoch, err)
	}

	actions := 0
	for t.env.IsIntermediateState(state) && actions < maximumActions {
		if state, err = t.waitAndRequery(ctx); err != nil {
			return report, fmt.Errorf("epoch %d: %w", epoch, err)
		}
		actions += 1
		report.StabilizationWaitCount += 1
	}

	trace := types.NewTrace()
	reached := false
	qm := t.state.QualityMatrix

	for actions < maximumActions {
		legal, err := t.env.PossibleActions(ctx, state)
		if err != nil {
			report.TotalActionsRun = actions
			return report, fmt.Errorf("epoch %d: possible actions: %w", epoch, err)
		}
		action, ok := t.policy.NextAction(state, legal, qm)
		if !ok {
			// nothing left to execute, counts only if we already stand on the goal
			reached = t.goal.HasReachedGoal(state)
			break
		}

		step, err := t.Step(ctx, state, action, maximumActions-actions-1)
		if err != nil {
			report.TotalActionsRun = actions
			return report, fmt.Errorf("epoch %d: %w", epoch, err)
		}
		actions += 1 + step.StabilizationSteps
		report.StabilizationWaitCount += step.StabilizationSteps

		if step.Stabilized {
			if err := t.update(ctx, state, step.Action, step.State); err != nil {
				report.TotalActionsRun = actions
				return report, fmt.Errorf("epoch %d: %w", epoch, err)
			}
			trace.Append(state, step.Action, step.State)
		} else {
			t.logger.Debug("stabilization budget exhausted, no update",
				zap.Int("epoch", epoch), zap.String("action", step.Action.String()))
		}

		state = step.State
		if t.goal.HasReachedGoal(state) {
			reached = true
			break
		}
	}

	report.TotalActionsRun = actions
	if reached {
		report.TimesReachedGoal = 1
	}
	t.logger.Debug("epoch finished",
		zap.Int("epoch", epoch),
		zap.Bool("reached", reached),
		zap.Int("actions", actions),
		zap.Int("waits", report.StabilizationWaitCount),
	)
	for _, o := range t.observers {
		o.ObserveEpoch(EpochSummary{Epoch: epoch, Report: report, Reached: reached, Trace: trace})
	}
	return report, nil
}

// Step executes the action from the current state, then waits while the
// result is intermediate, at most maxWait times. Waiting stops early once
// the goal holds.
func (t *Trainer) Step(ctx context.Context, current types.State, action types.Action, maxWait int) (StepResult, error) {
	executed, next, err := ExecuteWithFallback(ctx, t.env, t.policy, t.state.QualityMatrix, current, action)
	if err != nil {
		return StepResult{}, err
	}
	result := StepResult{Action: executed, State: next, Stabilized: true}
	for t.env.IsIntermediateState(result.State) && !t.goal.HasReachedGoal(result.State) {
		if result.StabilizationSteps >= maxWait {
			result.Stabilized = false
			break
		}
		if result.State, err = t.waitAndRequery(ctx); err != nil {
			return result, err
		}
		result.StabilizationSteps += 1
	}
	return result, nil
}

func (t *Trainer) waitAndRequery(ctx context.Context) (types.State, error) {
	if err := t.env.WaitForStabilization(ctx); err != nil {
		return nil, fmt.Errorf("stabilization wait: %w", err)
	}
	state, err := t.env.CurrentState(ctx)
	if err != nil {
		return nil, fmt.Errorf("current state: %w", err)
	}
	return state, nil
}

// update applies the Q-learning rule. The maximum over the next state uses
// the actions legal right now, not a cached set.
func (t *Trainer) update(ctx context.Context, state types.State, action types.Action, next types.State) error {
	legal, err := t.env.PossibleActions(ctx, next)
	if err != nil {
		return fmt.Errorf("possible actions of next state: %w", err)
	}
	qm := t.state.QualityMatrix
	reward := types.RewardFor(t.goal, state, action, next)
	val := UpdatedValue(qm.Value(state, action), reward, qm.MaxValue(next, legal), t.alpha, t.gamma)
	qm.Set(state, action, next, val)
	return nil
}

// UpdatedValue is Q(s,a) <- (1-alpha)*Q(s,a) + alpha*(reward + gamma*maxNext)
func UpdatedValue(cur, reward, maxNext, alpha, gamma float64) float64 {
	return (1-alpha)*cur + alpha*(reward+gamma*maxNext)
}
