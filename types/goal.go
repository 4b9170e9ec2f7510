package types

const (
	// DefaultGoalReward is given for a transition that satisfies the goal
	DefaultGoalReward float64 = 100
	// DefaultStepReward is given for every other transition
	DefaultStepReward float64 = -1
)

// TrainGoal decides whether the objective of an experiment is met
type TrainGoal interface {
	HasReachedGoal(State) bool
}

// Rewarder can be implemented by a TrainGoal to override the default reward
type Rewarder interface {
	Reward(from State, action Action, to State) float64
}

// RewardFor returns the reward of the transition under the goal
func RewardFor(goal TrainGoal, from State, action Action, to State) float64 {
	if r, ok := goal.(Rewarder); ok {
		return r.Reward(from, action, to)
	}
	if goal.HasReachedGoal(to) {
		return DefaultGoalReward
	}
	return DefaultStepReward
}

// GoalFunc adapts a predicate to the TrainGoal interface
type GoalFunc func(State) bool

func (g GoalFunc) HasReachedGoal(s State) bool {
	return g(s)
}

// And, Or, Not compose goal predicates
func (g GoalFunc) And(other GoalFunc) GoalFunc {
	return func(s State) bool {
		return g(s) && other(s)
	}
}

func (g GoalFunc) Or(other GoalFunc) GoalFunc {
	return func(s State) bool {
		return g(s) || other(s)
	}
}

func (g GoalFunc) Not() GoalFunc {
	return func(s State) bool {
		return !g(s)
	}
}
