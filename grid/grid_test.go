package grid

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeu5/rlpath/codec"
	"github.com/zeu5/rlpath/policies"
	"github.com/zeu5/rlpath/rl"
	"github.com/zeu5/rlpath/types"
)

func hashes(actions []types.Action) []string {
	out := make([]string, len(actions))
	for i, a := range actions {
		out[i] = a.Hash()
	}
	return out
}

func TestPossibleActionsAtEdges(t *testing.T) {
	ctx := context.Background()
	g := NewGridEnvironment(3, 3, 1, Door{From: Position{I: 1, J: 1}, To: Position{I: 2, J: 2}})

	actions, err := g.PossibleActions(ctx, &Position{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Up", "Right"}, hashes(actions))

	actions, err = g.PossibleActions(ctx, &Position{I: 1, J: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"Up", "Down", "Left", "Right", "Next"}, hashes(actions))

	actions, err = g.PossibleActions(ctx, &Position{I: 2, J: 2, Transit: true})
	require.NoError(t, err)
	assert.Empty(t, actions)
}

func TestDoorSettlesAfterWaits(t *testing.T) {
	ctx := context.Background()
	g := NewGridEnvironment(3, 3, 1, Door{From: Position{}, To: Position{I: 2, J: 2}}).WithSettle(2)
	_, err := g.InitialState(ctx)
	require.NoError(t, err)

	s, err := NextGridMovement.Execute(ctx, g)
	require.NoError(t, err)
	assert.True(t, g.IsIntermediateState(s))
	assert.False(t, InPosition(2, 2).HasReachedGoal(s), "transit positions never satisfy a goal")

	_, err = MovementUp.Execute(ctx, g)
	assert.ErrorIs(t, err, ErrIllegalMovement)

	require.NoError(t, g.WaitForStabilization(ctx))
	s, _ = g.CurrentState(ctx)
	assert.True(t, g.IsIntermediateState(s))

	require.NoError(t, g.WaitForStabilization(ctx))
	s, _ = g.CurrentState(ctx)
	assert.False(t, g.IsIntermediateState(s))
	assert.Equal(t, "(2, 2, 0)", s.Hash())
}

func TestNextGridAtExitCorner(t *testing.T) {
	ctx := context.Background()
	g := NewGridEnvironment(2, 2, 2)
	g.InitialState(ctx)
	MovementUp.Execute(ctx, g)
	MovementRight.Execute(ctx, g)
	s, err := NextGridMovement.Execute(ctx, g)
	require.NoError(t, err)
	assert.Equal(t, "(0, 0, 1)", s.Hash())
	assert.True(t, InGridPosition(0, 0, 1).HasReachedGoal(s))
	assert.False(t, InGridPosition(0, 0, 0).HasReachedGoal(s))
}

func TestTrainAndRouteThroughDoor(t *testing.T) {
	ctx := context.Background()
	g := NewGridEnvironment(4, 4, 1, Door{From: Position{I: 0, J: 1}, To: Position{I: 3, J: 3}}).WithSettle(1)
	exp := types.NewExperiment("door", g, InPosition(3, 3), nil)
	visits := NewVisitMap(4, 4, 0)

	trainer := rl.NewTrainer(exp, policies.NewRandomPolicy(11),
		rl.WithLearningRate(1), rl.WithEpochObserver(visits))
	report, err := trainer.Run(ctx, 60, 200)
	require.NoError(t, err)
	assert.Equal(t, 60, report.Epochs)
	assert.Positive(t, report.StabilizationWaitCount)
	assert.Positive(t, visits.Count(0, 0))

	start, _ := g.InitialState(ctx)
	route, err := rl.NewPathFinder(g, exp.State, nil).FindRoute(ctx, start, exp.Goal, 10)
	require.NoError(t, err)
	require.Equal(t, types.GoalReached, route.Outcome, route.String())
	assert.Equal(t, []string{"(0, 0, 0)", "(0, 1, 0)", "(3, 3, 0)"}, route.States())

	require.NoError(t, visits.Save(filepath.Join(t.TempDir(), "visits.png")))
}

func TestCodecRoundTrip(t *testing.T) {
	reg := codec.NewRegistry()
	require.NoError(t, Register(reg))

	g := NewGridEnvironment(3, 5, 2, Door{From: Position{I: 1}, To: Position{J: 4, K: 1}}).WithSettle(3)
	exp := types.NewExperiment("grid", g, InGridPosition(2, 4, 1), nil)
	exp.State.QualityMatrix.Set(&Position{}, MovementUp, &Position{I: 1}, -1)
	exp.State.QualityMatrix.Set(&Position{I: 1}, NextGridMovement, &Position{J: 4, K: 1, Transit: true}, 2.5)

	buf := &bytes.Buffer{}
	require.NoError(t, reg.EncodeExperiment(buf, exp))
	back, err := reg.DecodeExperiment(buf)
	require.NoError(t, err)

	env, ok := back.Environment.(*GridEnvironment)
	require.True(t, ok)
	assert.Equal(t, 3, env.Settle)
	assert.Equal(t, g.Doors, env.Doors)
	assert.Equal(t, exp.Goal, back.Goal)
	assert.Equal(t, 2.5, back.State.QualityMatrix.Value(&Position{I: 1}, NextGridMovement))
	e, ok := back.State.QualityMatrix.Lookup(&Position{I: 1}, NextGridMovement)
	require.True(t, ok)
	assert.Equal(t, "(0, 4, 1)~", e.Result.Hash())
}
