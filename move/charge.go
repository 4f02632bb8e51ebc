package move

import (
	"github.com/pthm-cable/ionsim/environment"
	"github.com/pthm-cable/ionsim/rng"
	"github.com/pthm-cable/ionsim/state"
	"gonum.org/v1/gonum/spatial/r3"
)

// ChargeTrans nudges a particle's charge displacement by a small step
// along a uniformly drawn direction, clipped back into [0, r] (spec.md
// §4.5 "ChargeTrans"). Its acceptance factor is always 1.
type ChargeTrans struct {
	base
	Step float64
}

// NewChargeTrans builds a ChargeTrans move of the given weight and
// step size.
func NewChargeTrans(weight, step float64, s *state.State, env *environment.Environment, src rng.Source) *ChargeTrans {
	return &ChargeTrans{base: base{name: "charge_trans", weight: weight, state: s, env: env, src: src}, Step: step}
}

// Call implements Move.
func (m *ChargeTrans) Call(chosenIndex int) {
	p := m.state.Particles.Get(chosenIndex)
	disp := r3.Scale(m.Step, m.src.UniformDirection())
	p.SetQDisp(r3.Add(p.QDisp, disp))
	p.ClampDispMagnitude(0, p.R)
	m.state.ProposeMoveTouching([]int{chosenIndex})
}

// Accept implements Move with factor 1.
func (m *ChargeTrans) Accept(dE float64) bool {
	return m.acceptWithFactor(dE, 1)
}

// ChargeTransRand replaces a particle's charge displacement outright
// with a random direction scaled by a magnitude drawn uniformly from
// [b_min, b_max] (spec.md §4.5 "ChargeTransRand"). Its acceptance
// factor is always 1.
type ChargeTransRand struct {
	base
}

// NewChargeTransRand builds a ChargeTransRand move of the given
// weight.
func NewChargeTransRand(weight float64, s *state.State, env *environment.Environment, src rng.Source) *ChargeTransRand {
	return &ChargeTransRand{base: base{name: "charge_trans_rand", weight: weight, state: s, env: env, src: src}}
}

// Call implements Move.
func (m *ChargeTransRand) Call(chosenIndex int) {
	p := m.state.Particles.Get(chosenIndex)
	mag := p.BMin + m.src.Uniform01()*(p.BMax-p.BMin)
	p.SetQDisp(r3.Scale(mag, m.src.UniformDirection()))
	m.state.ProposeMoveTouching([]int{chosenIndex})
}

// Accept implements Move with factor 1.
func (m *ChargeTransRand) Accept(dE float64) bool {
	return m.acceptWithFactor(dE, 1)
}
