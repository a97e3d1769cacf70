package envs

import (
	"fmt"

	"github.com/zeu5/gymkit/core"
	"github.com/zeu5/gymkit/gymerr"
	"github.com/zeu5/gymkit/spaces"
	"github.com/zeu5/gymkit/specs"
	"gonum.org/v1/gonum/mat"
)

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Position is a cell (I, J) of grid K
type Position struct {
	I int
	J int
	K int
}

func (p Position) String() string {
	return fmt.Sprintf("(%d, %d, %d)", p.I, p.J, p.K)
}

func (p Position) Eq(other Position) bool {
	return p.I == other.I && p.J == other.J && p.K == other.K
}

// Door teleports the walker from From to To on a Next movement
type Door struct {
	From Position
	To   Position
}

type Movement int

const (
	MovementUp Movement = iota
	MovementDown
	MovementLeft
	MovementRight
	NoMovement
	NextGridMovement
)

var movementNames = []string{"Up", "Down", "Left", "Right", "Nothing", "Next"}

func (m Movement) String() string {
	return movementNames[m]
}

// GridWorld is a walker over Grids stacked grids of Height x Width cells.
// Next moves through a door from the current cell, or to the following grid
// from the top right corner. The episode terminates with reward 1 when the
// top right corner of the last grid is reached.
type GridWorld struct {
	*core.Base
	Height int
	Width  int
	Grids  int
	Doors  []Door
	CurPos *Position
}

var _ core.Env = &GridWorld{}

func NewGridWorld(height, width, grids int, doors ...Door) (*GridWorld, error) {
	if height <= 0 || width <= 0 || grids <= 0 {
		return nil, gymerr.Argument("GridWorld", "", "dimensions must be positive, actual: %dx%dx%d", height, width, grids)
	}
	for _, d := range doors {
		for _, p := range []Position{d.From, d.To} {
			if p.I < 0 || p.I >= height || p.J < 0 || p.J >= width || p.K < 0 || p.K >= grids {
				return nil, gymerr.Argument("GridWorld", "doors", "door position %s outside the grid", p)
			}
		}
	}
	obs, err := spaces.NewBox(
		[]float64{0, 0, 0},
		[]float64{float64(height - 1), float64(width - 1), float64(grids - 1)},
		[]int{3}, spaces.Int64,
	)
	if err != nil {
		return nil, err
	}
	act, _ := spaces.NewDiscrete(len(movementNames))
	return &GridWorld{
		Base:   core.NewBase(obs, act),
		Height: height,
		Width:  width,
		Grids:  grids,
		Doors:  doors,
	}, nil
}

func newGridWorldFromKwargs(kwargs specs.Kwargs) (core.Env, error) {
	height, err := kwargs.Int("height", 5)
	if err != nil {
		return nil, err
	}
	width, err := kwargs.Int("width", 5)
	if err != nil {
		return nil, err
	}
	grids, err := kwargs.Int("grids", 2)
	if err != nil {
		return nil, err
	}
	doors, err := parseDoors(kwargs)
	if err != nil {
		return nil, err
	}
	return NewGridWorld(height, width, grids, doors...)
}

// parseDoors reads doors given as lists of six ints [i, j, k, i', j', k']
func parseDoors(kwargs specs.Kwargs) ([]Door, error) {
	v, ok := kwargs["doors"]
	if !ok || v.Kind() == specs.KindNull {
		return nil, nil
	}
	list, ok := v.AsList()
	if !ok {
		return nil, gymerr.Argument("GridWorld", "doors", "expected a list, actual type: %s", v.Kind())
	}
	doors := make([]Door, 0, len(list))
	for _, d := range list {
		coords, ok := d.AsList()
		if !ok || len(coords) != 6 {
			return nil, gymerr.Argument("GridWorld", "doors", "expected a door of six ints, actual: %s", d)
		}
		c := make([]int, 6)
		for i, e := range coords {
			n, ok := e.AsInt()
			if !ok {
				return nil, gymerr.Argument("GridWorld", "doors", "expected a door of six ints, actual: %s", d)
			}
			c[i] = int(n)
		}
		doors = append(doors, Door{From: Position{c[0], c[1], c[2]}, To: Position{c[3], c[4], c[5]}})
	}
	return doors, nil
}

func (g *GridWorld) Reset(opts core.ResetOptions) (any, core.Info, error) {
	g.ResetSeed(opts)
	g.CurPos = &Position{0, 0, 0}
	return g.observation(), core.Info{"position": g.CurPos.String()}, nil
}

func (g *GridWorld) Step(action any) (core.Transition, error) {
	if g.CurPos == nil {
		return core.Transition{}, fmt.Errorf("%w: cannot step GridWorld before reset", gymerr.ErrResetNeeded)
	}
	if !g.ActionSpace().Contains(action) {
		return core.Transition{}, gymerr.Argument("GridWorld", "action", "%v (%T) invalid", action, action)
	}
	a, _ := spaces.Index(action)
	g.CurPos = g.move(Movement(a))

	terminated := g.CurPos.Eq(g.goal())
	reward := 0.0
	if terminated {
		reward = 1
	}
	return core.Transition{
		Observation: g.observation(),
		Reward:      reward,
		Terminated:  terminated,
		Info:        core.Info{"position": g.CurPos.String(), "movement": Movement(a).String()},
	}, nil
}

func (g *GridWorld) move(movement Movement) *Position {
	newPos := &Position{I: g.CurPos.I, J: g.CurPos.J, K: g.CurPos.K}
	if movement == NextGridMovement {
		for _, d := range g.Doors {
			if d.From.Eq(*g.CurPos) {
				to := d.To
				return &to
			}
		}
	}

	switch movement {
	case NoMovement:
	case MovementUp:
		newPos.I = min(g.Height-1, g.CurPos.I+1)
	case MovementDown:
		newPos.I = max(0, g.CurPos.I-1)
	case MovementLeft:
		newPos.J = max(0, g.CurPos.J-1)
	case MovementRight:
		newPos.J = min(g.Width-1, g.CurPos.J+1)
	case NextGridMovement:
		if g.CurPos.I == g.Height-1 && g.CurPos.J == g.Width-1 && g.CurPos.K < g.Grids-1 {
			newPos.I = 0
			newPos.J = 0
			newPos.K = g.CurPos.K + 1
		}
	}
	return newPos
}

func (g *GridWorld) goal() Position {
	return Position{g.Height - 1, g.Width - 1, g.Grids - 1}
}

func (g *GridWorld) observation() *mat.VecDense {
	return mat.NewVecDense(3, []float64{float64(g.CurPos.I), float64(g.CurPos.J), float64(g.CurPos.K)})
}

// Actions lists the movements that change the position from the current cell
func (g *GridWorld) Actions() []Movement {
	p := g.CurPos
	if p == nil {
		return nil
	}
	out := []Movement{NoMovement, NextGridMovement}
	if p.I < g.Height-1 {
		out = append(out, MovementUp)
	}
	if p.I > 0 {
		out = append(out, MovementDown)
	}
	if p.J > 0 {
		out = append(out, MovementLeft)
	}
	if p.J < g.Width-1 {
		out = append(out, MovementRight)
	}
	return out
}

// ActionMask marks the movements of Actions, usable with Discrete.SampleMask
func (g *GridWorld) ActionMask() []int8 {
	mask := make([]int8, len(movementNames))
	for _, m := range g.Actions() {
		mask[m] = 1
	}
	return mask
}

func (g *GridWorld) Unwrapped() core.Env {
	return g
}
