package rl

import (
	"context"
	"fmt"

	"github.com/zeu5/rlpath/types"
)

// ExecuteWithFallback executes the action. When it fails the policy is asked
// once for an alternative among the other legal actions; if that one fails
// too the joined error is returned. There is no further retry.
// The returned action is the one that actually ran.
func ExecuteWithFallback(ctx context.Context, env types.Environment, policy types.Policy, q *types.QualityMatrix, state types.State, action types.Action) (types.Action, types.State, error) {
	next, err := action.Execute(ctx, env)
	if err == nil {
		return action, next, nil
	}
	if policy == nil || ctx.Err() != nil {
		return nil, nil, fmt.Errorf("%w: %s: %w", ErrActionFailed, action, err)
	}

	legal, lErr := env.PossibleActions(ctx, state)
	if lErr != nil {
		return nil, nil, fmt.Errorf("%w: %s: %w (listing alternatives: %w)", ErrActionFailed, action, err, lErr)
	}
	remaining := make([]types.Action, 0, len(legal))
	for _, a := range legal {
		if a.Hash() != action.Hash() {
			remaining = append(remaining, a)
		}
	}
	alt, ok := policy.NextAction(state, remaining, q)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s, no alternative: %w", ErrActionFailed, action, err)
	}

	next, altErr := alt.Execute(ctx, env)
	if altErr != nil {
		return nil, nil, fmt.Errorf("%w: %s: %w; fallback %s: %w", ErrActionFailed, action, err, alt, altErr)
	}
	return alt, next, nil
}

// greedyFallback picks the best remaining action, first seen on ties
var greedyFallback = types.PolicyFunc(func(s types.State, actions []types.Action, q *types.QualityMatrix) (types.Action, bool) {
	a, _, ok := q.MaxAmong(s, actions)
	return a, ok
})
