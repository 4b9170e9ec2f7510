package policies

import (
	"github.com/zeu5/rlpath/types"
	"golang.org/x/exp/rand"
)

// EpsilonGreedyPolicy explores with probability epsilon and otherwise
// follows the quality matrix greedily
type EpsilonGreedyPolicy struct {
	epsilon float64
	rand    *rand.Rand
	random  *RandomPolicy
	greedy  *QualityMatrixPolicy
}

var _ types.Policy = &EpsilonGreedyPolicy{}

func NewEpsilonGreedyPolicy(epsilon float64, seed uint64) *EpsilonGreedyPolicy {
	return &EpsilonGreedyPolicy{
		epsilon: epsilon,
		rand:    rand.New(rand.NewSource(seed)),
		random:  NewRandomPolicy(seed + 1),
		greedy:  NewQualityMatrixPolicy(seed + 2),
	}
}

func (e *EpsilonGreedyPolicy) NextAction(state types.State, actions []types.Action, q *types.QualityMatrix) (types.Action, bool) {
	if e.rand.Float64() < e.epsilon {
		return e.random.NextAction(state, actions, q)
	}
	return e.greedy.NextAction(state, actions, q)
}
