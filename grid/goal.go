package grid

import (
	"errors"

	"github.com/zeu5/rlpath/codec"
	"github.com/zeu5/rlpath/types"
)

const (
	PositionKind    = "grid.position"
	MovementKind    = "grid.movement"
	GoalKind        = "grid.goal"
	EnvironmentKind = "grid"
)

// PositionGoal is reached on a settled position. K < 0 matches any grid.
type PositionGoal struct {
	I int `json:"i"`
	J int `json:"j"`
	K int `json:"k"`
}

var _ types.TrainGoal = &PositionGoal{}

func InPosition(i, j int) *PositionGoal {
	return &PositionGoal{I: i, J: j, K: -1}
}

func InGridPosition(i, j, k int) *PositionGoal {
	return &PositionGoal{I: i, J: j, K: k}
}

func (g *PositionGoal) Kind() string { return GoalKind }

func (g *PositionGoal) HasReachedGoal(s types.State) bool {
	pos, ok := s.(*Position)
	if !ok || pos.Transit {
		return false
	}
	return pos.I == g.I && pos.J == g.J && (g.K < 0 || pos.K == g.K)
}

// Register adds the grid kinds to the registry
func Register(r *codec.Registry) error {
	return errors.Join(
		r.RegisterState(PositionKind, func(raw []byte) (types.State, error) {
			p, err := codec.Decode[Position](raw)
			if err != nil {
				return nil, err
			}
			return &p, nil
		}),
		r.RegisterAction(MovementKind, func(raw []byte) (types.Action, error) {
			m, err := codec.Decode[Movement](raw)
			if err != nil {
				return nil, err
			}
			return &m, nil
		}),
		r.RegisterGoal(GoalKind, func(raw []byte) (types.TrainGoal, error) {
			g, err := codec.Decode[PositionGoal](raw)
			if err != nil {
				return nil, err
			}
			return &g, nil
		}),
		r.RegisterEnvironment(EnvironmentKind, func(raw []byte) (types.Environment, error) {
			g, err := codec.Decode[GridEnvironment](raw)
			if err != nil {
				return nil, err
			}
			g.curPos = &Position{}
			return &g, nil
		}),
	)
}
