package policies

import (
	"errors"
	"fmt"

	"github.com/zeu5/rlpath/types"
)

// Options configures New
type Options struct {
	Seed        uint64
	Temperature float64
	Epsilon     float64
	// Fallback names the policy a strict policy defers to, greedy by default
	Fallback string
	Rules    []Rule
}

// New builds a policy by name: random, greedy, softmax, egreedy or strict
func New(name string, opts Options) (types.Policy, error) {
	switch name {
	case "random":
		return NewRandomPolicy(opts.Seed), nil
	case "greedy":
		return NewQualityMatrixPolicy(opts.Seed), nil
	case "softmax":
		return NewSoftMaxPolicy(opts.Temperature, opts.Seed), nil
	case "egreedy":
		return NewEpsilonGreedyPolicy(opts.Epsilon, opts.Seed), nil
	case "strict":
		return newStrict(opts)
	default:
		return nil, fmt.Errorf("unknown policy %q", name)
	}
}

func newStrict(opts Options) (types.Policy, error) {
	if len(opts.Rules) == 0 {
		return nil, fmt.Errorf("strict policy needs at least one rule")
	}
	errs := make([]error, 0)
	for _, r := range opts.Rules {
		errs = append(errs, r.Validate())
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	fallback := opts.Fallback
	if fallback == "" {
		fallback = "greedy"
	}
	if fallback == "strict" {
		return nil, fmt.Errorf("strict policy cannot fall back to itself")
	}
	def, err := New(fallback, opts)
	if err != nil {
		return nil, fmt.Errorf("strict fallback: %w", err)
	}
	return NewStrictPolicy(def, opts.Rules...), nil
}
