package move

import (
	"math"

	"github.com/pthm-cable/ionsim/environment"
	"github.com/pthm-cable/ionsim/rng"
	"github.com/pthm-cable/ionsim/state"
)

// GrandCanonicalInsert adds a random particle drawn from pModel or
// nModel (spec.md §4.5 "GrandCanonical<insert>"). Its acceptance
// factor is the standard Widom insertion factor V/(N+1)*exp(cp/T),
// generalizing systems/breeding.go's "create a new organism" shape to
// a chemical-potential-governed insertion.
type GrandCanonicalInsert struct {
	base
}

// NewGrandCanonicalInsert builds an insertion move of the given
// weight.
func NewGrandCanonicalInsert(weight float64, s *state.State, env *environment.Environment, src rng.Source) *GrandCanonicalInsert {
	return &GrandCanonicalInsert{base: base{name: "gc_insert", weight: weight, state: s, env: env, src: src}}
}

// Call implements Move: appends a new particle of randomly chosen
// sign at a random position.
func (m *GrandCanonicalInsert) Call(chosenIndex int) {
	model := m.state.Particles.PModel
	if m.src.Uniform01() < 0.5 {
		model = m.state.Particles.NModel
	}
	p := model
	p.SetCom(m.state.Geo.RandomPos(m.src))

	idx := m.state.Particles.Append(p)
	m.state.ProposeMoveTouching([]int{idx})
}

// Accept implements Move with the insertion factor
// V/(N+1) * exp(cp/T), so the overall acceptance probability is
// min(1, V/(N+1) * exp((cp - dE)/T)) (spec.md §4.5 "μ-dependent").
func (m *GrandCanonicalInsert) Accept(dE float64) bool {
	n := float64(m.state.Old.Particles.Len() + 1)
	factor := m.state.Geo.Volume() / n * math.Exp(m.env.CP/m.env.T)
	return m.acceptWithFactor(dE, factor)
}

// GrandCanonicalDelete removes a random particle (spec.md §4.5
// "GrandCanonical<delete>"). Its acceptance factor is the detailed-
// balance counterpart of GrandCanonicalInsert's.
type GrandCanonicalDelete struct {
	base
}

// NewGrandCanonicalDelete builds a deletion move of the given weight.
func NewGrandCanonicalDelete(weight float64, s *state.State, env *environment.Environment, src rng.Source) *GrandCanonicalDelete {
	return &GrandCanonicalDelete{base: base{name: "gc_delete", weight: weight, state: s, env: env, src: src}}
}

// Call implements Move: removes a uniformly chosen existing particle.
func (m *GrandCanonicalDelete) Call(chosenIndex int) {
	if m.state.Particles.Len() == 0 {
		m.state.ProposeMoveTouching(nil)
		return
	}
	idx := m.state.Particles.Random(m.src)
	m.state.Particles.Remove(idx)
	m.state.ProposeMoveTouching([]int{idx})
}

// Accept implements Move with the deletion factor
// N/V * exp(-cp/T), the inverse of GrandCanonicalInsert's.
func (m *GrandCanonicalDelete) Accept(dE float64) bool {
	n := float64(m.state.Old.Particles.Len())
	factor := n / m.state.Geo.Volume() * math.Exp(-m.env.CP/m.env.T)
	return m.acceptWithFactor(dE, factor)
}
