package types

import (
	"github.com/google/uuid"
)

// ExperimentState owns the quality matrix of one learning run.
// There is a single writer at a time: the trainer holding it.
type ExperimentState struct {
	ID            string
	QualityMatrix *QualityMatrix
}

// NewExperimentState creates an empty experiment state with a fresh ID
func NewExperimentState() *ExperimentState {
	return &ExperimentState{
		ID:            uuid.NewString(),
		QualityMatrix: NewQualityMatrix(),
	}
}

// Merge restores the entries of a persisted state into this one
func (e *ExperimentState) Merge(other *ExperimentState) {
	if other == nil || other.QualityMatrix == nil {
		return
	}
	if e.QualityMatrix == nil {
		e.QualityMatrix = NewQualityMatrix()
	}
	e.QualityMatrix.Merge(other.QualityMatrix)
}

// Experiment bundles everything needed to resume training or to find routes.
// It is the unit of persistence.
type Experiment struct {
	Name        string
	Environment Environment
	Goal        TrainGoal
	State       *ExperimentState
}

// NewExperiment creates a new experiment instance
func NewExperiment(name string, environment Environment, goal TrainGoal, state *ExperimentState) *Experiment {
	if state == nil {
		state = NewExperimentState()
	}
	return &Experiment{
		Name:        name,
		Environment: environment,
		Goal:        goal,
		State:       state,
	}
}

// AsDependency turns a trained experiment into a prerequisite of another one
func (e *Experiment) AsDependency(maxSteps int) ExperimentDependency {
	return ExperimentDependency{
		Name:        e.Name,
		State:       e.State,
		Environment: e.Environment,
		Goal:        e.Goal,
		MaxSteps:    maxSteps,
	}
}

// ExperimentDependency is a trained experiment that has to be walked to its
// goal before a dependent experiment starts, leaving the environment in the
// expected precondition.
type ExperimentDependency struct {
	Name        string
	State       *ExperimentState
	Environment Environment
	Goal        TrainGoal
	MaxSteps    int
}
