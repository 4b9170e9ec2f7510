package rl_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/zeu5/rlpath/rl"
	"github.com/zeu5/rlpath/types"
)

var errBroken = errors.New("broken edge")

type node string

func (n node) Hash() string { return string(n) }

// edge of a graphEnv. Several edges may share a label.
type edge struct {
	ID    string
	Label string
	To    string
	Fail  bool
}

func (e edge) Hash() string   { return e.ID }
func (e edge) String() string { return e.Label }

func (e edge) Execute(_ context.Context, env types.Environment) (types.State, error) {
	w := env.(*graphEnv).w
	w.executed = append(w.executed, e.ID)
	if e.Fail {
		return nil, fmt.Errorf("%w: %s", errBroken, e.ID)
	}
	w.cur = e.To
	return node(e.To), nil
}

type graphWorld struct {
	cur      string
	executed []string
}

// graphEnv is a directed graph walked one edge at a time. Views of the same
// graph share the world they move in.
type graphEnv struct {
	start string
	edges map[string][]edge
	w     *graphWorld
	// keep makes InitialState report the current node instead of resetting
	keep bool
}

func newGraph(start string) *graphEnv {
	return &graphEnv{start: start, edges: make(map[string][]edge), w: &graphWorld{cur: start}}
}

func (g *graphEnv) add(from string, edges ...edge) *graphEnv {
	g.edges[from] = append(g.edges[from], edges...)
	return g
}

// kept is a view of the same world that does not reset
func (g *graphEnv) kept() *graphEnv {
	return &graphEnv{start: g.start, edges: g.edges, w: g.w, keep: true}
}

func (g *graphEnv) InitialState(context.Context) (types.State, error) {
	if !g.keep {
		g.w.cur = g.start
	}
	return node(g.w.cur), nil
}

func (g *graphEnv) CurrentState(context.Context) (types.State, error) {
	return node(g.w.cur), nil
}

func (g *graphEnv) PossibleActions(_ context.Context, s types.State) ([]types.Action, error) {
	out := make([]types.Action, 0)
	for _, e := range g.edges[s.Hash()] {
		out = append(out, e)
	}
	return out, nil
}

func (g *graphEnv) IsIntermediateState(types.State) bool { return false }

func (g *graphEnv) WaitForStabilization(context.Context) error { return nil }

type linePos struct {
	pos     int
	transit bool
}

func (p linePos) Hash() string {
	if p.transit {
		return fmt.Sprintf("p%d~", p.pos)
	}
	return fmt.Sprintf("p%d", p.pos)
}

type forward struct{}

func (forward) Hash() string   { return "fwd" }
func (forward) String() string { return "fwd" }

func (forward) Execute(_ context.Context, env types.Environment) (types.State, error) {
	l := env.(*lineEnv)
	l.pos += 1
	l.pending = l.settle
	return l.state(), nil
}

// lineEnv moves forward only; every move needs settle waits before the new
// position is stable
type lineEnv struct {
	length  int
	settle  int
	pos     int
	pending int
	// initialPending makes the initial state intermediate
	initialPending int
	waits          int
}

func (l *lineEnv) state() linePos {
	return linePos{pos: l.pos, transit: l.pending > 0}
}

func (l *lineEnv) InitialState(context.Context) (types.State, error) {
	l.pos = 0
	l.pending = l.initialPending
	return l.state(), nil
}

func (l *lineEnv) CurrentState(context.Context) (types.State, error) {
	return l.state(), nil
}

func (l *lineEnv) PossibleActions(_ context.Context, s types.State) ([]types.Action, error) {
	p := s.(linePos)
	if p.transit || p.pos >= l.length {
		return []types.Action{}, nil
	}
	return []types.Action{forward{}}, nil
}

func (l *lineEnv) IsIntermediateState(s types.State) bool {
	return s.(linePos).transit
}

func (l *lineEnv) WaitForStabilization(context.Context) error {
	l.waits += 1
	if l.pending > 0 {
		l.pending -= 1
	}
	return nil
}

func atNode(name string) types.GoalFunc {
	return func(s types.State) bool { return s.Hash() == name }
}

func atPos(pos int) types.GoalFunc {
	return func(s types.State) bool {
		p, ok := s.(linePos)
		return ok && p.pos == pos
	}
}

// countingPolicy records how often it is asked
type countingPolicy struct {
	inner types.Policy
	calls int
}

func (c *countingPolicy) NextAction(s types.State, actions []types.Action, q *types.QualityMatrix) (types.Action, bool) {
	c.calls += 1
	return c.inner.NextAction(s, actions, q)
}

type recorder struct {
	epochs []types.TrainerReport
	first  []string
}

func (r *recorder) ObserveEpoch(e rl.EpochSummary) {
	r.epochs = append(r.epochs, e.Report)
	if s, _, _, ok := e.Trace.Get(0); ok {
		r.first = append(r.first, s.Hash())
	}
}
