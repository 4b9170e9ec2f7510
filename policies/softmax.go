package policies

import (
	"math"

	"github.com/zeu5/rlpath/types"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// SoftMaxPolicy samples actions with probability proportional to
// exp(Q/temperature)
type SoftMaxPolicy struct {
	temperature float64
	rand        rand.Source
}

var _ types.Policy = &SoftMaxPolicy{}

func NewSoftMaxPolicy(temperature float64, seed uint64) *SoftMaxPolicy {
	if temperature <= 0 {
		temperature = 1
	}
	return &SoftMaxPolicy{
		temperature: temperature,
		rand:        rand.NewSource(seed),
	}
}

func (s *SoftMaxPolicy) NextAction(state types.State, actions []types.Action, q *types.QualityMatrix) (types.Action, bool) {
	if len(actions) == 0 {
		return nil, false
	}
	vals := make([]float64, len(actions))
	maxVal := math.Inf(-1)
	for i, action := range actions {
		val := 0.0
		if q != nil {
			val = q.Value(state, action)
		}
		vals[i] = val / s.temperature
		if vals[i] > maxVal {
			maxVal = vals[i]
		}
	}
	// shift by the max so exp never overflows
	weights := make([]float64, len(actions))
	for i, val := range vals {
		weights[i] = math.Exp(val - maxVal)
	}
	i, ok := sampleuv.NewWeighted(weights, s.rand).Take()
	if !ok {
		return nil, false
	}
	return actions[i], true
}
