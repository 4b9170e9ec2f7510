package maze

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeu5/rlpath/codec"
	"github.com/zeu5/rlpath/types"
)

func TestMovesFollowDoors(t *testing.T) {
	ctx := context.Background()
	m, _ := Classic12()

	s, err := m.InitialState(ctx)
	require.NoError(t, err)
	assert.Equal(t, Room(8), s)

	actions, err := m.PossibleActions(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, []types.Action{Move{From: 8, To: 4}, Move{From: 8, To: 9}}, actions)

	_, err = Move{From: 8, To: 7}.Execute(ctx, m)
	assert.ErrorIs(t, err, ErrIllegalMove)
	_, err = Move{From: 3, To: 7}.Execute(ctx, m)
	assert.ErrorIs(t, err, ErrIllegalMove, "agent is not in 3")

	s, err = Move{From: 8, To: 9}.Execute(ctx, m)
	require.NoError(t, err)
	assert.Equal(t, Room(9), s)
	cur, _ := m.CurrentState(ctx)
	assert.Equal(t, Room(9), cur)
}

func TestNewMazeRejectsOutOfRange(t *testing.T) {
	_, err := NewMaze(3, 5, nil)
	assert.Error(t, err)
	_, err = NewMaze(3, 0, [][2]int{{0, 3}})
	assert.Error(t, err)
}

func TestGoalRewardTable(t *testing.T) {
	_, g := Classic12()
	assert.True(t, g.HasReachedGoal(Room(11)))
	assert.False(t, g.HasReachedGoal(Room(7)))
	assert.Equal(t, 10.0, g.Reward(Room(7), Move{From: 7, To: 11}, Room(11)))
	assert.Equal(t, StepPenalty, g.Reward(Room(8), Move{From: 8, To: 9}, Room(9)))
	assert.Equal(t, 10.0, types.RewardFor(g, Room(7), Move{From: 7, To: 11}, Room(11)))
}

func TestCodecRoundTrip(t *testing.T) {
	reg := codec.NewRegistry()
	require.NoError(t, Register(reg))

	m, g := Classic12()
	exp := types.NewExperiment("classic", m, g, nil)
	exp.State.QualityMatrix.Set(Room(7), Move{From: 7, To: 11}, Room(11), 10)
	exp.State.QualityMatrix.Set(Room(6), Move{From: 6, To: 7}, nil, 7.9)

	buf := &bytes.Buffer{}
	require.NoError(t, reg.EncodeExperiment(buf, exp))
	back, err := reg.DecodeExperiment(buf)
	require.NoError(t, err)

	assert.Equal(t, "classic", back.Name)
	assert.Equal(t, exp.State.ID, back.State.ID)
	assert.Equal(t, g, back.Goal)

	bm, ok := back.Environment.(*Maze)
	require.True(t, ok)
	actions, err := bm.PossibleActions(context.Background(), Room(7))
	require.NoError(t, err)
	assert.Len(t, actions, 3)

	entries := back.State.QualityMatrix.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, Room(11), entries[0].Result)
	assert.Nil(t, entries[1].Result)
	assert.InDelta(t, 7.9, entries[1].Value, 1e-12)
}
