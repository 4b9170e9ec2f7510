// Package grid is a stack of rectangular grids the agent walks on. Doors
// teleport the agent and can take a few waits to settle, which makes the
// environment report intermediate states.
package grid

import (
	"context"
	"errors"
	"fmt"

	"github.com/zeu5/rlpath/types"
)

var ErrIllegalMovement = errors.New("illegal movement")

type GridEnvironment struct {
	Height int    `json:"height"`
	Width  int    `json:"width"`
	Grids  int    `json:"grids"`
	Doors  []Door `json:"doors"`
	// Settle is the number of waits a door transition needs
	Settle int `json:"settle"`

	curPos  *Position
	pending int
}

type Door struct {
	From Position `json:"from"`
	To   Position `json:"to"`
}

var _ types.Environment = &GridEnvironment{}

func NewGridEnvironment(height, width, grids int, doors ...Door) *GridEnvironment {
	return &GridEnvironment{
		Height: height,
		Width:  width,
		Grids:  grids,
		Doors:  doors,
		curPos: &Position{0, 0, 0, false},
	}
}

// WithSettle makes door transitions intermediate for n waits
func (g *GridEnvironment) WithSettle(n int) *GridEnvironment {
	g.Settle = n
	return g
}

func (g *GridEnvironment) Kind() string { return EnvironmentKind }

func (g *GridEnvironment) InitialState(ctx context.Context) (types.State, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.curPos = &Position{0, 0, 0, false}
	g.pending = 0
	return g.curPos, nil
}

func (g *GridEnvironment) CurrentState(ctx context.Context) (types.State, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if g.curPos == nil {
		g.curPos = &Position{0, 0, 0, false}
	}
	return g.curPos.copy(), nil
}

// PossibleActions lists the movements that change the position. A position
// in transit has none.
func (g *GridEnvironment) PossibleActions(_ context.Context, s types.State) ([]types.Action, error) {
	p, ok := s.(*Position)
	if !ok {
		return nil, fmt.Errorf("not a grid position: %s", s.Hash())
	}
	if p.Transit {
		return []types.Action{}, nil
	}
	actions := make([]types.Action, 0, len(AllMovements))
	if p.I < g.Height-1 {
		actions = append(actions, MovementUp)
	}
	if p.I > 0 {
		actions = append(actions, MovementDown)
	}
	if p.J > 0 {
		actions = append(actions, MovementLeft)
	}
	if p.J < g.Width-1 {
		actions = append(actions, MovementRight)
	}
	if g.door(*p) != nil || g.atExit(*p) {
		actions = append(actions, NextGridMovement)
	}
	return actions, nil
}

func (g *GridEnvironment) IsIntermediateState(s types.State) bool {
	p, ok := s.(*Position)
	return ok && p.Transit
}

func (g *GridEnvironment) WaitForStabilization(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if g.pending > 0 {
		g.pending -= 1
		if g.pending == 0 {
			g.curPos = &Position{I: g.curPos.I, J: g.curPos.J, K: g.curPos.K}
		}
	}
	return nil
}

func (g *GridEnvironment) door(p Position) *Door {
	for i := range g.Doors {
		if g.Doors[i].From.Eq(p) {
			return &g.Doors[i]
		}
	}
	return nil
}

// atExit is true on the corner leading to the next grid
func (g *GridEnvironment) atExit(p Position) bool {
	return p.I == min(10, g.Height-1) && p.J == min(10, g.Width-1) && p.K < g.Grids-1
}

func (g *GridEnvironment) step(m *Movement) (types.State, error) {
	cur := g.curPos
	if cur.Transit {
		return nil, fmt.Errorf("%w: %s while in transit", ErrIllegalMovement, m.Direction)
	}
	newPos := &Position{I: cur.I, J: cur.J, K: cur.K}

	switch m.Direction {
	case "Up":
		newPos.I = min(g.Height-1, cur.I+1)
	case "Down":
		newPos.I = max(0, cur.I-1)
	case "Left":
		newPos.J = max(0, cur.J-1)
	case "Right":
		newPos.J = min(g.Width-1, cur.J+1)
	case "Next":
		if d := g.door(*cur); d != nil {
			newPos = &Position{I: d.To.I, J: d.To.J, K: d.To.K}
			if g.Settle > 0 {
				newPos.Transit = true
				g.pending = g.Settle
			}
		} else if g.atExit(*cur) {
			newPos = &Position{0, 0, cur.K + 1, false}
		} else {
			return nil, fmt.Errorf("%w: no door at %s", ErrIllegalMovement, cur.Hash())
		}
	default:
		return nil, fmt.Errorf("%w: unknown direction %q", ErrIllegalMovement, m.Direction)
	}
	g.curPos = newPos
	return newPos.copy(), nil
}

type Position struct {
	I       int  `json:"i"`
	J       int  `json:"j"`
	K       int  `json:"k"`
	Transit bool `json:"transit,omitempty"`
}

var _ types.State = &Position{}

func (p *Position) Hash() string {
	if p.Transit {
		return fmt.Sprintf("(%d, %d, %d)~", p.I, p.J, p.K)
	}
	return fmt.Sprintf("(%d, %d, %d)", p.I, p.J, p.K)
}

func (p *Position) Kind() string { return PositionKind }

func (p *Position) Eq(other Position) bool {
	return p.I == other.I && p.J == other.J && p.K == other.K
}

func (p *Position) copy() *Position {
	c := *p
	return &c
}

type Movement struct {
	Direction string `json:"direction"`
}

var _ types.Action = &Movement{}

func (m *Movement) Hash() string {
	return m.Direction
}

func (m *Movement) String() string {
	return m.Direction
}

func (m *Movement) Kind() string { return MovementKind }

func (m *Movement) Execute(ctx context.Context, env types.Environment) (types.State, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g, ok := env.(*GridEnvironment)
	if !ok {
		return nil, fmt.Errorf("%w: not a grid environment", ErrIllegalMovement)
	}
	return g.step(m)
}

var (
	MovementUp                      = &Movement{"Up"}
	MovementDown                    = &Movement{"Down"}
	MovementLeft                    = &Movement{"Left"}
	MovementRight                   = &Movement{"Right"}
	NextGridMovement                = &Movement{"Next"}
	AllMovements     []types.Action = []types.Action{
		MovementUp,
		MovementDown,
		MovementLeft,
		MovementRight,
		NextGridMovement,
	}
)
