// Package maze is a room graph environment with a reward table, the classic
// setting for tabular Q-learning.
package maze

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/zeu5/rlpath/codec"
	"github.com/zeu5/rlpath/types"
)

const (
	RoomKind = "maze.room"
	MoveKind = "maze.move"
	GoalKind = "maze.goal"
	MazeKind = "maze"

	StepPenalty = -0.1
)

var ErrIllegalMove = errors.New("illegal move")

// Room is the state of the maze: the room the agent stands in
type Room int

var _ types.State = Room(0)

func (r Room) Hash() string { return strconv.Itoa(int(r)) }
func (r Room) Kind() string { return RoomKind }

// Move goes from one room to an adjacent one
type Move struct {
	From int `json:"from"`
	To   int `json:"to"`
}

var _ types.Action = Move{}

func (m Move) Hash() string   { return fmt.Sprintf("%d>%d", m.From, m.To) }
func (m Move) String() string { return fmt.Sprintf("move to %d", m.To) }
func (m Move) Kind() string   { return MoveKind }

func (m Move) Execute(_ context.Context, env types.Environment) (types.State, error) {
	mz, ok := env.(*Maze)
	if !ok {
		return nil, fmt.Errorf("%w: not a maze environment", ErrIllegalMove)
	}
	return mz.move(m)
}

// Maze is an undirected graph of rooms. Every epoch starts in Start.
type Maze struct {
	Rooms int      `json:"rooms"`
	Start int      `json:"start"`
	Doors [][2]int `json:"doors"`

	adjacent map[int][]int
	current  int
}

var _ types.Environment = &Maze{}

// NewMaze builds a maze from its doors. Doors are two way.
func NewMaze(rooms, start int, doors [][2]int) (*Maze, error) {
	m := &Maze{Rooms: rooms, Start: start, Doors: doors}
	if err := m.init(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Maze) init() error {
	if m.Start < 0 || m.Start >= m.Rooms {
		return fmt.Errorf("start room %d out of range", m.Start)
	}
	m.adjacent = make(map[int][]int, m.Rooms)
	for _, d := range m.Doors {
		if d[0] < 0 || d[0] >= m.Rooms || d[1] < 0 || d[1] >= m.Rooms {
			return fmt.Errorf("door %v out of range", d)
		}
		m.adjacent[d[0]] = append(m.adjacent[d[0]], d[1])
		m.adjacent[d[1]] = append(m.adjacent[d[1]], d[0])
	}
	m.current = m.Start
	return nil
}

func (m *Maze) Kind() string { return MazeKind }

// InitialState puts the agent back in the start room
func (m *Maze) InitialState(context.Context) (types.State, error) {
	m.current = m.Start
	return Room(m.current), nil
}

func (m *Maze) CurrentState(context.Context) (types.State, error) {
	return Room(m.current), nil
}

func (m *Maze) PossibleActions(_ context.Context, s types.State) ([]types.Action, error) {
	r, ok := s.(Room)
	if !ok {
		return nil, fmt.Errorf("not a room: %s", s.Hash())
	}
	out := make([]types.Action, 0, len(m.adjacent[int(r)]))
	for _, to := range m.adjacent[int(r)] {
		out = append(out, Move{From: int(r), To: to})
	}
	return out, nil
}

func (m *Maze) IsIntermediateState(types.State) bool { return false }

func (m *Maze) WaitForStabilization(context.Context) error { return nil }

func (m *Maze) move(mv Move) (types.State, error) {
	if mv.From != m.current {
		return nil, fmt.Errorf("%w: agent is in %d, not %d", ErrIllegalMove, m.current, mv.From)
	}
	for _, to := range m.adjacent[m.current] {
		if to == mv.To {
			m.current = to
			return Room(to), nil
		}
	}
	return nil, fmt.Errorf("%w: no door %d-%d", ErrIllegalMove, mv.From, mv.To)
}

// Reward of one move, keyed by the rooms it connects
type Reward struct {
	From  int     `json:"from"`
	To    int     `json:"to"`
	Value float64 `json:"value"`
}

// Goal is reached in Room. Its reward table overrides the default rewards;
// moves missing from the table get the default step penalty.
type Goal struct {
	Room    int      `json:"room"`
	Rewards []Reward `json:"rewards"`
	Default float64  `json:"default"`
}

var _ types.TrainGoal = &Goal{}
var _ types.Rewarder = &Goal{}

func (g *Goal) Kind() string { return GoalKind }

func (g *Goal) HasReachedGoal(s types.State) bool {
	r, ok := s.(Room)
	return ok && int(r) == g.Room
}

func (g *Goal) Reward(from types.State, _ types.Action, to types.State) float64 {
	f, fok := from.(Room)
	t, tok := to.(Room)
	if fok && tok {
		for _, r := range g.Rewards {
			if r.From == int(f) && r.To == int(t) {
				return r.Value
			}
		}
	}
	return g.Default
}

// Classic12 is the twelve room maze laid out as a 3x4 grid
//
//	0  1  2  3
//	4  5  6  7
//	8  9 10 11
//
// starting in 8 with the goal in 11, reachable only through 7.
func Classic12() (*Maze, *Goal) {
	m, _ := NewMaze(12, 8, [][2]int{
		{0, 1}, {1, 2}, {2, 3},
		{0, 4}, {4, 8}, {8, 9}, {9, 5},
		{5, 6}, {6, 7}, {7, 11},
		{6, 10}, {2, 6}, {3, 7},
	})
	g := &Goal{
		Room:    11,
		Rewards: []Reward{{From: 7, To: 11, Value: 10}},
		Default: StepPenalty,
	}
	return m, g
}

// Register adds the maze kinds to the registry
func Register(r *codec.Registry) error {
	return errors.Join(
		r.RegisterState(RoomKind, func(raw []byte) (types.State, error) {
			n, err := codec.Decode[int](raw)
			if err != nil {
				return nil, err
			}
			return Room(n), nil
		}),
		r.RegisterAction(MoveKind, func(raw []byte) (types.Action, error) {
			m, err := codec.Decode[Move](raw)
			if err != nil {
				return nil, err
			}
			return m, nil
		}),
		r.RegisterGoal(GoalKind, func(raw []byte) (types.TrainGoal, error) {
			g, err := codec.Decode[Goal](raw)
			if err != nil {
				return nil, err
			}
			return &g, nil
		}),
		r.RegisterEnvironment(MazeKind, func(raw []byte) (types.Environment, error) {
			m, err := codec.Decode[Maze](raw)
			if err != nil {
				return nil, err
			}
			if err := m.init(); err != nil {
				return nil, fmt.Errorf("%w: %w", codec.ErrMalformed, err)
			}
			return &m, nil
		}),
	)
}
