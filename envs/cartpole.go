// Package envs holds the built in base environments.
package envs

import (
	"fmt"
	"log"
	"math"

	"github.com/zeu5/gymkit/core"
	"github.com/zeu5/gymkit/gymerr"
	"github.com/zeu5/gymkit/spaces"
	"github.com/zeu5/gymkit/specs"
	"gonum.org/v1/gonum/mat"
)

const (
	Gravity    = 9.8
	MassCart   = 1.0
	MassPole   = 0.1
	PoleLength = 0.5 // half the pole's length
	ForceMag   = 10.0
	Tau        = 0.02

	// Episodes terminate past these bounds
	ThetaThreshold = 12 * 2 * math.Pi / 360
	XThreshold     = 2.4
)

// CartPole is the classic pole balancing task. A pole is attached to a cart
// moving along a frictionless track and the agent pushes the cart left (0)
// or right (1).
//
// Observations are [x, x_dot, theta, theta_dot]. The reward is 1 for every
// step, or with sutton_barto_reward 0 for every step and -1 on termination.
type CartPole struct {
	*core.Base
	state           []float64
	suttonBarto     bool
	stepsBeyondDone int
	totalMass       float64
	poleMassLength  float64
}

var _ core.Env = &CartPole{}

func NewCartPole(suttonBarto bool) *CartPole {
	high := []float64{XThreshold * 2, math.Inf(1), ThetaThreshold * 2, math.Inf(1)}
	low := make([]float64, len(high))
	for i, h := range high {
		low[i] = -h
	}
	obs, _ := spaces.NewBox(low, high, []int{4}, spaces.Float64)
	act, _ := spaces.NewDiscrete(2)
	return &CartPole{
		Base:            core.NewBase(obs, act),
		suttonBarto:     suttonBarto,
		stepsBeyondDone: -1,
		totalMass:       MassCart + MassPole,
		poleMassLength:  MassPole * PoleLength,
	}
}

func newCartPoleFromKwargs(kwargs specs.Kwargs) (core.Env, error) {
	suttonBarto, err := kwargs.Bool("sutton_barto_reward", false)
	if err != nil {
		return nil, err
	}
	return NewCartPole(suttonBarto), nil
}

func (c *CartPole) Reset(opts core.ResetOptions) (any, core.Info, error) {
	c.ResetSeed(opts)
	r := c.Rand()
	c.state = make([]float64, 4)
	for i := range c.state {
		c.state[i] = -0.05 + 0.1*r.Float64()
	}
	c.stepsBeyondDone = -1
	return c.observation(), core.Info{}, nil
}

func (c *CartPole) Step(action any) (core.Transition, error) {
	if c.state == nil {
		return core.Transition{}, fmt.Errorf("%w: cannot step CartPole before reset", gymerr.ErrResetNeeded)
	}
	if !c.ActionSpace().Contains(action) {
		return core.Transition{}, gymerr.Argument("CartPole", "action", "%v (%T) invalid", action, action)
	}
	a, _ := spaces.Index(action)

	x, xDot, theta, thetaDot := c.state[0], c.state[1], c.state[2], c.state[3]
	force := ForceMag
	if a == 0 {
		force = -ForceMag
	}
	cosTheta, sinTheta := math.Cos(theta), math.Sin(theta)
	temp := (force + c.poleMassLength*thetaDot*thetaDot*sinTheta) / c.totalMass
	thetaAcc := (Gravity*sinTheta - cosTheta*temp) /
		(PoleLength * (4.0/3.0 - MassPole*cosTheta*cosTheta/c.totalMass))
	xAcc := temp - c.poleMassLength*thetaAcc*cosTheta/c.totalMass

	x += Tau * xDot
	xDot += Tau * xAcc
	theta += Tau * thetaDot
	thetaDot += Tau * thetaAcc
	c.state = []float64{x, xDot, theta, thetaDot}

	terminated := x < -XThreshold || x > XThreshold ||
		theta < -ThetaThreshold || theta > ThetaThreshold

	var reward float64
	switch {
	case !terminated:
		reward = 1
		if c.suttonBarto {
			reward = 0
		}
	case c.stepsBeyondDone < 0:
		c.stepsBeyondDone = 0
		reward = 1
		if c.suttonBarto {
			reward = -1
		}
	default:
		if c.stepsBeyondDone == 0 {
			log.Printf("envs: CartPole stepped after the episode terminated, call reset first")
		}
		c.stepsBeyondDone++
		reward = 0
		if c.suttonBarto {
			reward = -1
		}
	}
	return core.Transition{
		Observation: c.observation(),
		Reward:      reward,
		Terminated:  terminated,
		Info:        core.Info{},
	}, nil
}

func (c *CartPole) observation() *mat.VecDense {
	data := make([]float64, len(c.state))
	copy(data, c.state)
	return mat.NewVecDense(len(data), data)
}

func (c *CartPole) Unwrapped() core.Env {
	return c
}
