package rl

import (
	"fmt"
	"math"
	"time"

	"github.com/zeu5/gymkit/core"
	"github.com/zeu5/gymkit/spaces"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/sampleuv"
)

type Policy interface {
	UpdateIteration(int, *Trace)
	NextAction(step int, obs any, actionSpace spaces.Space) (any, bool)
	Update(step int, obs, action any, tr core.Transition)
	Reset()
}

// RandomPolicy picks uniformly random actions
type RandomPolicy struct {
	rand *rand.Rand
}

var _ Policy = &RandomPolicy{}

func NewRandomPolicy() *RandomPolicy {
	return NewSeededRandomPolicy(uint64(time.Now().UnixNano()))
}

func NewSeededRandomPolicy(seed uint64) *RandomPolicy {
	return &RandomPolicy{
		rand: rand.New(rand.NewSource(seed)),
	}
}

func (r *RandomPolicy) Reset() {}

func (r *RandomPolicy) UpdateIteration(_ int, _ *Trace) {}

func (r *RandomPolicy) NextAction(_ int, _ any, actionSpace spaces.Space) (any, bool) {
	switch s := actionSpace.(type) {
	case *spaces.Discrete:
		return s.Start + r.rand.Intn(s.N), true
	case *spaces.Box:
		if !s.IsBounded() {
			return s.Sample(), true
		}
		data := make([]float64, s.Dim())
		for i := range data {
			data[i] = s.Dtype.Cast(s.Low[i] + r.rand.Float64()*(s.High[i]-s.Low[i]))
		}
		return data, true
	case *spaces.MultiBinary:
		out := make([]int8, s.N)
		for i := range out {
			out[i] = int8(r.rand.Intn(2))
		}
		return out, true
	}
	return actionSpace.Sample(), true
}

func (r *RandomPolicy) Update(_ int, _, _ any, _ core.Transition) {}

// SoftMaxPolicy is tabular Q-learning over hashed observations with
// softmax exploration. Only discrete action spaces are supported.
type SoftMaxPolicy struct {
	QTable map[string]map[int]float64
	alpha  float64
	gamma  float64
	rand   *rand.Rand
}

var _ Policy = &SoftMaxPolicy{}

func NewSoftMaxPolicy(alpha, gamma float64, seed uint64) *SoftMaxPolicy {
	return &SoftMaxPolicy{
		QTable: make(map[string]map[int]float64),
		alpha:  alpha,
		gamma:  gamma,
		rand:   rand.New(rand.NewSource(seed)),
	}
}

func (s *SoftMaxPolicy) Reset() {
	s.QTable = make(map[string]map[int]float64)
}

func (s *SoftMaxPolicy) UpdateIteration(_ int, _ *Trace) {}

func (s *SoftMaxPolicy) NextAction(_ int, obs any, actionSpace spaces.Space) (any, bool) {
	d, ok := actionSpace.(*spaces.Discrete)
	if !ok {
		return nil, false
	}
	stateHash := hash(obs)
	if _, ok := s.QTable[stateHash]; !ok {
		s.QTable[stateHash] = make(map[int]float64)
	}

	weights := make([]float64, d.N)
	sum := 0.0
	for i := range weights {
		weights[i] = math.Exp(s.QTable[stateHash][d.Start+i])
		sum += weights[i]
	}
	for i := range weights {
		weights[i] /= sum
	}
	i, ok := sampleuv.NewWeighted(weights, s.rand).Take()
	if !ok {
		return nil, false
	}
	return d.Start + i, true
}

func (s *SoftMaxPolicy) Update(_ int, obs, action any, tr core.Transition) {
	a, ok := spaces.Index(action)
	if !ok {
		return
	}
	stateHash := hash(obs)
	if _, ok := s.QTable[stateHash]; !ok {
		return
	}
	max := 0.0
	if next, ok := s.QTable[hash(tr.Observation)]; ok && !tr.Terminated {
		for _, val := range next {
			if val > max {
				max = val
			}
		}
	}
	curVal := s.QTable[stateHash][a]
	s.QTable[stateHash][a] = (1-s.alpha)*curVal + s.alpha*(tr.Reward+s.gamma*max)
}

func hash(obs any) string {
	if data, ok := spaces.Floats(obs); ok {
		return fmt.Sprint(data)
	}
	return fmt.Sprint(obs)
}
