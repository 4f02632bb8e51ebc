// Package state implements the State manager of spec.md §4.1: an
// explicit propose/save/revert pair over a current ParticleSet and a
// shadow ("old") ParticleSet, built directly from spec.md §4.1's
// pseudocode rather than any teacher commit/rollback pattern — the
// teacher repo has no evaluate-then-keep-or-discard tick anywhere
// (game.go's simulationStep is an unconditional straight-line sequence
// of mutation passes).
package state

import (
	"fmt"
	"math"
	"sort"

	"github.com/pthm-cable/ionsim/energy"
	"github.com/pthm-cable/ionsim/geometry"
	"github.com/pthm-cable/ionsim/particle"
	"github.com/pthm-cable/ionsim/rng"
	"gonum.org/v1/gonum/floats"
)

// driftFloor bounds the denominator of the drift ratio so a
// near-zero total energy cannot produce a spurious drift alarm
// (spec.md §9 Open Question 4).
const driftFloor = 1e-12

// driftTolerance and energyCeiling are the fatal thresholds of
// spec.md §4.1's control().
const (
	driftTolerance = 1e-10
	energyCeiling  = 1e30
)

// State is the State manager of spec.md §4.1/§3. It owns exactly one
// ParticleSet, one Geometry, and an ordered EnergyTerm list, plus a
// shadow State (Old) that mirrors it outside in-flight windows.
type State struct {
	Particles *particle.Set
	Geo       geometry.Geometry
	Terms     []energy.Term
	Old       *State

	Energy           float64 // last fully recomputed total energy
	CumulativeEnergy float64 // running total updated by accepted dE's
	DE               float64 // dE of the last proposed move
	Error            float64 // last measured drift

	MovedCurrent []int // indices touched in Particles by the pending proposal
	MovedOld     []int // indices touched in Old.Particles by the pending proposal
}

// New builds an empty State over the given particle templates. Call
// SetGeometry, SetTerms, populate Particles, then Finalize before
// running any moves.
func New(pModel, nModel particle.Particle) *State {
	return &State{Particles: particle.NewSet(pModel, nModel)}
}

// SetGeometry installs geo on the state and every EnergyTerm.
func (s *State) SetGeometry(geo geometry.Geometry) {
	s.Geo = geo
	for _, t := range s.Terms {
		t.SetGeo(geo)
	}
}

// SetTerms installs the ordered EnergyTerm list, wiring the current
// Geometry into each.
func (s *State) SetTerms(terms []energy.Term) {
	s.Terms = terms
	if s.Geo != nil {
		for _, t := range terms {
			t.SetGeo(s.Geo)
		}
	}
}

// Finalize allocates the shadow State as a deep snapshot, seeds every
// EnergyTerm's internal caches, and computes the initial total energy
// (spec.md §3 "Lifecycle").
func (s *State) Finalize() {
	s.Old = &State{
		Particles: s.Particles.Clone(),
		Geo:       s.Geo,
		Terms:     s.Terms,
	}
	for _, t := range s.Terms {
		t.Initialize(s.Particles.All())
	}
	total := 0.0
	for _, t := range s.Terms {
		total += t.All2All(s.Particles.All())
	}
	s.Energy = total
	s.CumulativeEnergy = total
}

// Random draws a uniformly distributed index among current particles.
func (s *State) Random(src rng.Source) int {
	return s.Particles.Random(src)
}

// ProposeMoveTouching records indices as touched by the pending
// proposal (spec.md §4.1). Insertions (current grew) only append to
// MovedCurrent; removals (current shrank) only append to MovedOld;
// equal-size moves append to both, mirroring the symmetric motion.
func (s *State) ProposeMoveTouching(indices []int) {
	cur, old := s.Particles.Len(), s.Old.Particles.Len()
	switch {
	case cur > old:
		s.MovedCurrent = append(s.MovedCurrent, indices...)
	case cur < old:
		s.MovedOld = append(s.MovedOld, indices...)
	default:
		s.MovedCurrent = append(s.MovedCurrent, indices...)
		s.MovedOld = append(s.MovedOld, indices...)
	}
}

// EnergyChange implements spec.md §4.1's energy-change policy: the
// overlap/out-of-box early return rolls every EnergyTerm's cache
// forward to the current subset before returning +Inf, so a later
// Revert still sees the documented forward-then-back round trip
// (Open Question 2).
func (s *State) EnergyChange() float64 {
	for _, p := range s.MovedCurrent {
		part := s.Particles.Get(p)
		if !s.Geo.IsInside(part.Pos) || s.overlaps(p) {
			s.rollCachesForward()
			s.DE = math.Inf(1)
			return s.DE
		}
	}

	e1 := make([]float64, len(s.Terms))
	e2 := make([]float64, len(s.Terms))
	for i, t := range s.Terms {
		e1[i] = t.Call(s.MovedOld, s.Old.Particles.All())
		t.Update(s.Old.Particles.Subset(s.MovedOld), s.Particles.Subset(s.MovedCurrent))
		e2[i] = t.Call(s.MovedCurrent, s.Particles.All())
	}
	s.DE = floats.Sum(e2) - floats.Sum(e1)
	return s.DE
}

func (s *State) rollCachesForward() {
	before := s.Old.Particles.Subset(s.MovedOld)
	after := s.Particles.Subset(s.MovedCurrent)
	for _, t := range s.Terms {
		t.Update(before, after)
	}
}

func (s *State) overlaps(idx int) bool {
	p := s.Particles.Get(idx)
	for i := 0; i < s.Particles.Len(); i++ {
		if i == idx {
			continue
		}
		q := s.Particles.Get(i)
		d := s.Geo.Distance(p.Pos, q.Pos)
		if particle.Overlaps(p, q, d) {
			return true
		}
	}
	return false
}

// Save commits the pending proposal: propagates current's changes
// into Old and folds DE into CumulativeEnergy (spec.md §4.1).
func (s *State) Save() {
	cur, old := s.Particles.Len(), s.Old.Particles.Len()
	switch {
	case cur > old:
		for _, idx := range s.MovedCurrent {
			s.Old.Particles.Add(*s.Particles.Get(idx), idx)
		}
	case cur < old:
		for _, idx := range descending(s.MovedOld) {
			s.Old.Particles.Remove(idx)
		}
	default:
		for _, idx := range s.MovedCurrent {
			*s.Old.Particles.Get(idx) = *s.Particles.Get(idx)
		}
	}
	s.clearMoved()
	s.CumulativeEnergy += s.DE
}

// Revert rolls the pending proposal back: EnergyTerm caches first
// (the symmetric inverse of the swap performed in EnergyChange), then
// particle data, mirroring Save's three cases (spec.md §4.1).
func (s *State) Revert() {
	currentSubset := s.Particles.Subset(s.MovedCurrent)
	oldSubset := s.Old.Particles.Subset(s.MovedOld)
	for _, t := range s.Terms {
		t.Update(currentSubset, oldSubset)
	}

	cur, old := s.Particles.Len(), s.Old.Particles.Len()
	switch {
	case cur > old:
		for _, idx := range descending(s.MovedCurrent) {
			s.Particles.Remove(idx)
		}
	case cur < old:
		for _, idx := range s.MovedOld {
			s.Particles.Add(*s.Old.Particles.Get(idx), idx)
		}
	default:
		for _, idx := range s.MovedCurrent {
			*s.Particles.Get(idx) = *s.Old.Particles.Get(idx)
		}
	}
	s.clearMoved()
}

func (s *State) clearMoved() {
	s.MovedCurrent = s.MovedCurrent[:0]
	s.MovedOld = s.MovedOld[:0]
}

func descending(indices []int) []int {
	out := append([]int(nil), indices...)
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out
}

// Advance gives EnergyTerms a chance to run a term-internal tick (e.g.
// running averages) between macro-steps (spec.md §4.6). None of this
// module's terms currently implement one; it is an extension point.
func (s *State) Advance() {
	for _, t := range s.Terms {
		if a, ok := t.(interface{ Advance() }); ok {
			a.Advance()
		}
	}
}

// Control recomputes total energy exactly, updates Error, and
// fatally panics on any invariant violation (spec.md §4.1's control(),
// the only place structural invariants are checked — spec.md §7 kind
// 1). Position comparison is exact `==`, per spec.md §9 Open
// Question 3: the shadow is a deep copy by construction, so any
// divergence is itself the bug under test.
func (s *State) Control() {
	total := 0.0
	for _, t := range s.Terms {
		total += t.All2All(s.Particles.All())
	}
	s.Energy = total
	denom := math.Max(math.Abs(s.Energy), driftFloor)
	s.Error = math.Abs(s.Energy-s.CumulativeEnergy) / denom

	if s.Error > driftTolerance || math.Abs(s.Energy) > energyCeiling {
		panic(fmt.Sprintf("state: drift violation: error=%g energy=%g cumulative=%g", s.Error, s.Energy, s.CumulativeEnergy))
	}
	if s.Particles.Len() != s.Old.Particles.Len() {
		panic(fmt.Sprintf("state: size mismatch: current=%d old=%d", s.Particles.Len(), s.Old.Particles.Len()))
	}
	for i := 0; i < s.Particles.Len(); i++ {
		cur, old := s.Particles.Get(i), s.Old.Particles.Get(i)
		if *cur != *old {
			panic(fmt.Sprintf("state: mirror desync at index %d: current=%+v old=%+v", i, *cur, *old))
		}
	}
	if err := s.Particles.CheckIdentity(); err != nil {
		panic(fmt.Sprintf("state: %v", err))
	}
	if err := s.Old.Particles.CheckIdentity(); err != nil {
		panic(fmt.Sprintf("state: old: %v", err))
	}
}
