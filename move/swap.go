package move

import (
	"github.com/pthm-cable/ionsim/environment"
	"github.com/pthm-cable/ionsim/particle"
	"github.com/pthm-cable/ionsim/rng"
	"github.com/pthm-cable/ionsim/state"
)

// maxKindDraws bounds the rejection-sampling search for a particle of
// a given sign before giving up (e.g. an all-cation system has no
// anion to draw).
const maxKindDraws = 64

func randomOfKind(s *state.State, src rng.Source, isKind func(*particle.Particle) bool) (int, bool) {
	n := s.Particles.Len()
	if n == 0 {
		return 0, false
	}
	for i := 0; i < maxKindDraws; i++ {
		idx := s.Particles.Random(src)
		if isKind(s.Particles.Get(idx)) {
			return idx, true
		}
	}
	return 0, false
}

// Swap exchanges the centers of mass of one cation and one anion,
// picking both itself rather than using the dispatcher's chosen index
// (spec.md §4.5 "particular moves may pick their own instead of using
// the passed index"). Its acceptance factor is always 1. If no
// opposite-sign pair can be found within the draw budget, Call
// touches nothing and the move is a no-op for this micro-step.
type Swap struct {
	base
}

// NewSwap builds a Swap move of the given weight.
func NewSwap(weight float64, s *state.State, env *environment.Environment, src rng.Source) *Swap {
	return &Swap{base: base{name: "swap", weight: weight, state: s, env: env, src: src}}
}

// Call implements Move.
func (m *Swap) Call(chosenIndex int) {
	ci, ok1 := randomOfKind(m.state, m.src, (*particle.Particle).IsCation)
	ai, ok2 := randomOfKind(m.state, m.src, (*particle.Particle).IsAnion)
	if !ok1 || !ok2 {
		m.state.ProposeMoveTouching(nil)
		return
	}
	c, a := m.state.Particles.Get(ci), m.state.Particles.Get(ai)
	cCom, aCom := c.Com, a.Com
	c.SetCom(aCom)
	a.SetCom(cCom)
	m.state.ProposeMoveTouching([]int{ci, ai})
}

// Accept implements Move with factor 1.
func (m *Swap) Accept(dE float64) bool {
	return m.acceptWithFactor(dE, 1)
}

// SingleSwap exchanges every field but Index and Name between two
// particles of the same sign (spec.md §4.5 "SingleSwap"), used to mix
// non-identical same-species particles (different radii or b-ranges).
// Its acceptance factor is always 1.
type SingleSwap struct {
	base
}

// NewSingleSwap builds a SingleSwap move of the given weight.
func NewSingleSwap(weight float64, s *state.State, env *environment.Environment, src rng.Source) *SingleSwap {
	return &SingleSwap{base: base{name: "single_swap", weight: weight, state: s, env: env, src: src}}
}

// Call implements Move.
func (m *SingleSwap) Call(chosenIndex int) {
	p := m.state.Particles.Get(chosenIndex)
	isSameKind := func(q *particle.Particle) bool { return q.IsCation() == p.IsCation() && q.IsAnion() == p.IsAnion() }
	other, ok := randomOfKind(m.state, m.src, isSameKind)
	if !ok || other == chosenIndex {
		m.state.ProposeMoveTouching(nil)
		return
	}
	a, b := m.state.Particles.Get(chosenIndex), m.state.Particles.Get(other)
	aIdx, aName := a.Index, a.Name
	bIdx, bName := b.Index, b.Name
	*a, *b = *b, *a
	a.Index, a.Name = aIdx, aName
	b.Index, b.Name = bIdx, bName
	m.state.ProposeMoveTouching([]int{chosenIndex, other})
}

// Accept implements Move with factor 1.
func (m *SingleSwap) Accept(dE float64) bool {
	return m.acceptWithFactor(dE, 1)
}
