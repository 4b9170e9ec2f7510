// Package policies implements the action selection strategies used while
// training: pure exploration, greedy exploitation of the quality matrix and
// mixtures of both.
package policies

import (
	"time"

	"github.com/zeu5/rlpath/types"
	"golang.org/x/exp/rand"
)

// RandomPolicy picks uniformly among the legal actions and ignores the matrix
type RandomPolicy struct {
	rand *rand.Rand
}

var _ types.Policy = &RandomPolicy{}

// NewRandomPolicy creates a random policy with a fixed seed
func NewRandomPolicy(seed uint64) *RandomPolicy {
	return &RandomPolicy{
		rand: rand.New(rand.NewSource(seed)),
	}
}

// NewTimeSeededRandomPolicy creates a random policy seeded from the clock
func NewTimeSeededRandomPolicy() *RandomPolicy {
	return NewRandomPolicy(uint64(time.Now().UnixNano()))
}

func (r *RandomPolicy) NextAction(_ types.State, actions []types.Action, _ *types.QualityMatrix) (types.Action, bool) {
	if len(actions) == 0 {
		return nil, false
	}
	i := r.rand.Intn(len(actions))
	return actions[i], true
}
