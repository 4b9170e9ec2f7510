package codec

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeu5/rlpath/types"
)

type cell string

func (c cell) Hash() string { return string(c) }
func (c cell) Kind() string { return "test.cell" }

type hop struct {
	To string `json:"to"`
}

func (h hop) Hash() string   { return "hop:" + h.To }
func (h hop) String() string { return "hop to " + h.To }
func (h hop) Kind() string   { return "test.hop" }
func (h hop) Execute(context.Context, types.Environment) (types.State, error) {
	return cell(h.To), nil
}

type target struct {
	Cell string `json:"cell"`
}

func (t *target) Kind() string                      { return "test.target" }
func (t *target) HasReachedGoal(s types.State) bool { return s.Hash() == t.Cell }

type board struct {
	Size int `json:"size"`
}

func (b *board) Kind() string { return "test.board" }
func (b *board) InitialState(context.Context) (types.State, error) {
	return cell("0"), nil
}
func (b *board) CurrentState(context.Context) (types.State, error) {
	return cell("0"), nil
}
func (b *board) PossibleActions(context.Context, types.State) ([]types.Action, error) {
	return nil, nil
}
func (b *board) IsIntermediateState(types.State) bool         { return false }
func (b *board) WaitForStabilization(context.Context) error { return nil }

func testRegistry(t *testing.T) *Registry {
	r := NewRegistry()
	require.NoError(t, r.RegisterState("test.cell", func(raw []byte) (types.State, error) {
		s, err := Decode[string](raw)
		if err != nil {
			return nil, err
		}
		return cell(s), nil
	}))
	require.NoError(t, r.RegisterAction("test.hop", func(raw []byte) (types.Action, error) {
		h, err := Decode[hop](raw)
		if err != nil {
			return nil, err
		}
		return h, nil
	}))
	require.NoError(t, r.RegisterGoal("test.target", func(raw []byte) (types.TrainGoal, error) {
		g, err := Decode[target](raw)
		if err != nil {
			return nil, err
		}
		return &g, nil
	}))
	require.NoError(t, r.RegisterEnvironment("test.board", func(raw []byte) (types.Environment, error) {
		b, err := Decode[board](raw)
		if err != nil {
			return nil, err
		}
		return &b, nil
	}))
	return r
}

func sampleExperiment() *types.Experiment {
	exp := types.NewExperiment("sample", &board{Size: 3}, &target{Cell: "c"}, nil)
	q := exp.State.QualityMatrix
	q.Set(cell("a"), hop{To: "b"}, cell("b"), -0.1)
	q.Set(cell("a"), hop{To: "c"}, nil, 1.0/3.0)
	q.Set(cell("b"), hop{To: "c"}, cell("c"), 100)
	return exp
}

func TestExperimentRoundTrip(t *testing.T) {
	r := testRegistry(t)
	exp := sampleExperiment()

	buf := &bytes.Buffer{}
	require.NoError(t, r.EncodeExperiment(buf, exp))
	back, err := r.DecodeExperiment(buf)
	require.NoError(t, err)

	assert.Equal(t, exp.Name, back.Name)
	assert.Equal(t, exp.Environment, back.Environment)
	assert.Equal(t, exp.Goal, back.Goal)
	assert.Equal(t, exp.State.ID, back.State.ID)

	want := exp.State.QualityMatrix.Entries()
	got := back.State.QualityMatrix.Entries()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].Pair.Key(), got[i].Pair.Key())
		assert.Equal(t, want[i].Value, got[i].Value)
		assert.Equal(t, want[i].Result, got[i].Result)
	}
}

func TestStateRoundTrip(t *testing.T) {
	r := testRegistry(t)
	exp := sampleExperiment()

	buf := &bytes.Buffer{}
	require.NoError(t, r.EncodeState(buf, exp.State))
	back, err := r.DecodeState(buf)
	require.NoError(t, err)
	assert.Equal(t, exp.State.QualityMatrix.Len(), back.QualityMatrix.Len())
	assert.Equal(t, 1.0/3.0, back.QualityMatrix.Value(cell("a"), hop{To: "c"}))
}

func TestDecodeFailures(t *testing.T) {
	r := testRegistry(t)
	cases := map[string]struct {
		input string
		err   error
	}{
		"not json":       {`{"version":`, ErrMalformed},
		"wrong version":  {`{"version":9}`, ErrMalformed},
		"no environment": {`{"version":1,"goal":{"kind":"test.target","data":{}}}`, ErrMalformed},
		"unknown kind": {
			`{"version":1,"environment":{"kind":"test.maze","data":{}},"goal":{"kind":"test.target","data":{}},"state":{"entries":[]}}`,
			ErrUnknownKind,
		},
		"state in goal slot": {
			`{"version":1,"environment":{"kind":"test.board","data":{}},"goal":{"kind":"test.cell","data":"a"},"state":{"entries":[]}}`,
			ErrKindMismatch,
		},
		"bad payload": {
			`{"version":1,"environment":{"kind":"test.board","data":{"size":"big"}},"goal":{"kind":"test.target","data":{}},"state":{"entries":[]}}`,
			ErrMalformed,
		},
		"entry without action": {
			`{"version":1,"environment":{"kind":"test.board","data":{}},"goal":{"kind":"test.target","data":{}},"state":{"entries":[{"state":{"kind":"test.cell","data":"a"},"value":1}]}}`,
			ErrMalformed,
		},
		"missing state": {
			`{"version":1,"environment":{"kind":"test.board","data":{}},"goal":{"kind":"test.target","data":{}}}`,
			ErrMalformed,
		},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := r.DecodeExperiment(strings.NewReader(c.input))
			assert.ErrorIs(t, err, c.err)
		})
	}
}

func TestEncodeRequiresKinds(t *testing.T) {
	r := testRegistry(t)
	exp := types.NewExperiment("plain", &board{}, types.GoalFunc(func(types.State) bool { return true }), nil)
	err := r.EncodeExperiment(&bytes.Buffer{}, exp)
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestRegistryCategories(t *testing.T) {
	r := testRegistry(t)
	err := r.RegisterAction("test.cell", func([]byte) (types.Action, error) { return nil, nil })
	assert.ErrorIs(t, err, ErrKindMismatch)
	assert.ErrorIs(t, r.RegisterState("", nil), ErrMalformed)
	assert.Equal(t, []string{"test.cell"}, r.Kinds(CategoryState))
	assert.Equal(t, []string{"test.hop"}, r.Kinds(CategoryAction))
}
