package policies

import (
	"github.com/zeu5/rlpath/types"
	"golang.org/x/exp/rand"
)

// QualityMatrixPolicy is greedy over the quality matrix. Ties for the
// maximum are broken uniformly at random.
type QualityMatrixPolicy struct {
	rand *rand.Rand
}

var _ types.Policy = &QualityMatrixPolicy{}

func NewQualityMatrixPolicy(seed uint64) *QualityMatrixPolicy {
	return &QualityMatrixPolicy{
		rand: rand.New(rand.NewSource(seed)),
	}
}

func (p *QualityMatrixPolicy) NextAction(state types.State, actions []types.Action, q *types.QualityMatrix) (types.Action, bool) {
	best := bestActions(state, actions, q)
	if len(best) == 0 {
		return nil, false
	}
	if len(best) == 1 {
		return best[0], true
	}
	return best[p.rand.Intn(len(best))], true
}

// bestActions returns every action sharing the maximum value, in input order
func bestActions(state types.State, actions []types.Action, q *types.QualityMatrix) []types.Action {
	if len(actions) == 0 {
		return nil
	}
	best := make([]types.Action, 0, 1)
	var bestVal float64
	for i, a := range actions {
		val := 0.0
		if q != nil {
			val = q.Value(state, a)
		}
		switch {
		case i == 0 || val > bestVal:
			best = append(best[:0], a)
			bestVal = val
		case val == bestVal:
			best = append(best, a)
		}
	}
	return best
}
