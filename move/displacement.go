package move

import (
	"github.com/pthm-cable/ionsim/environment"
	"github.com/pthm-cable/ionsim/rng"
	"github.com/pthm-cable/ionsim/state"
	"gonum.org/v1/gonum/spatial/r3"
)

// Translate displaces one particle's center of mass by step along a
// uniformly drawn direction (spec.md §4.5 "Translate"). Its
// acceptance factor is always 1.
type Translate struct {
	base
	Step float64
}

// NewTranslate builds a Translate move of the given weight and step
// size.
func NewTranslate(weight, step float64, s *state.State, env *environment.Environment, src rng.Source) *Translate {
	return &Translate{base: base{name: "translate", weight: weight, state: s, env: env, src: src}, Step: step}
}

// Call implements Move: moves the particle at chosenIndex.
func (m *Translate) Call(chosenIndex int) {
	p := m.state.Particles.Get(chosenIndex)
	disp := r3.Scale(m.Step, m.src.UniformDirection())
	p.SetCom(r3.Add(p.Com, disp))
	m.state.ProposeMoveTouching([]int{chosenIndex})
}

// Accept implements Move with factor 1.
func (m *Translate) Accept(dE float64) bool {
	return m.acceptWithFactor(dE, 1)
}

// Rotate reorients a particle's charge displacement vector to a new
// uniformly drawn direction, preserving its magnitude (spec.md §4.5
// "Rotate"). Its acceptance factor is always 1.
type Rotate struct {
	base
}

// NewRotate builds a Rotate move of the given weight.
func NewRotate(weight float64, s *state.State, env *environment.Environment, src rng.Source) *Rotate {
	return &Rotate{base: base{name: "rotate", weight: weight, state: s, env: env, src: src}}
}

// Call implements Move: reorients the particle at chosenIndex.
func (m *Rotate) Call(chosenIndex int) {
	p := m.state.Particles.Get(chosenIndex)
	dir := m.src.UniformDirection()
	p.SetQDisp(r3.Scale(p.B, dir))
	m.state.ProposeMoveTouching([]int{chosenIndex})
}

// Accept implements Move with factor 1.
func (m *Rotate) Accept(dE float64) bool {
	return m.acceptWithFactor(dE, 1)
}
