package particle

import "github.com/pthm-cable/ionsim/rng"

// Set is the ordered collection of spec.md §3 ("ParticleSet"). It
// never reorders particles on its own — Add/Remove always shift the
// tail rather than swap-and-pop, so particles keep their relative
// order and Index always equals position, which the checkpoint reader/writer in this package
// and State's position-by-position comparisons in control() both rely
// on.
type Set struct {
	particles []Particle

	cTot int // cations, Q > 0
	aTot int // anions, Q < 0
	pTot int // "real" particles; mirrors Tot since this engine has no
	// ghost/virtual particle concept

	// PModel and NModel carry default radii/charges for grand-canonical
	// insertions of cations and anions respectively.
	PModel Particle
	NModel Particle
}

// NewSet builds an empty Set with the given insertion templates.
func NewSet(pModel, nModel Particle) *Set {
	return &Set{PModel: pModel, NModel: nModel}
}

// Len returns the total particle count (spec.md's "tot").
func (s *Set) Len() int { return len(s.particles) }

// CTot returns the cation count.
func (s *Set) CTot() int { return s.cTot }

// ATot returns the anion count.
func (s *Set) ATot() int { return s.aTot }

// PTot returns the "real" particle count.
func (s *Set) PTot() int { return s.pTot }

// Get returns a pointer to the particle at index i for in-place
// mutation by a Move. Panics on an out-of-range index, matching the
// teacher's fail-fast style for programmer errors (config.MustInit).
func (s *Set) Get(i int) *Particle {
	return &s.particles[i]
}

// All returns the backing slice directly; callers must not retain a
// reference across an Add/Remove, which may reallocate it.
func (s *Set) All() []Particle { return s.particles }

// Subset copies out the particles at the given indices, the "view"
// of spec.md §4.2 used to feed EnergyTerm.Call/Update.
func (s *Set) Subset(indices []int) []Particle {
	out := make([]Particle, len(indices))
	for i, idx := range indices {
		out[i] = s.particles[idx]
	}
	return out
}

// Add inserts p at position at, shifting every subsequent particle's
// Index up by one. Pass Len() to append.
func (s *Set) Add(p Particle, at int) int {
	p.Index = at
	s.particles = append(s.particles, Particle{})
	copy(s.particles[at+1:], s.particles[at:len(s.particles)-1])
	s.particles[at] = p
	for i := at + 1; i < len(s.particles); i++ {
		s.particles[i].Index = i
	}
	s.bumpCounts(p, +1)
	return at
}

// Append inserts p at the end of the set.
func (s *Set) Append(p Particle) int {
	return s.Add(p, len(s.particles))
}

// Remove deletes the particle at index i, shifting every subsequent
// particle's Index down by one, and returns the removed particle.
func (s *Set) Remove(i int) Particle {
	removed := s.particles[i]
	s.particles = append(s.particles[:i], s.particles[i+1:]...)
	for j := i; j < len(s.particles); j++ {
		s.particles[j].Index = j
	}
	s.bumpCounts(removed, -1)
	return removed
}

func (s *Set) bumpCounts(p Particle, delta int) {
	s.pTot += delta
	if p.IsCation() {
		s.cTot += delta
	} else if p.IsAnion() {
		s.aTot += delta
	}
}

// Random draws a uniformly distributed index among current particles.
// Panics on an empty set — callers (Moves) must check Len() first.
func (s *Set) Random(src rng.Source) int {
	n := len(s.particles)
	if n == 0 {
		panic("particle: Random called on an empty set")
	}
	idx := int(src.Uniform01() * float64(n))
	if idx >= n {
		idx = n - 1
	}
	return idx
}

// CheckIdentity reports whether every particle's Index field equals
// its position and the cation/anion counts close over Len(), the
// invariant asserted by State.control() (spec.md §8).
func (s *Set) CheckIdentity() error {
	for i, p := range s.particles {
		if p.Index != i {
			return indexMismatchError(i, p.Index, p.Name)
		}
	}
	if s.cTot+s.aTot != s.pTot {
		return countClosureError(s.cTot, s.aTot, s.pTot)
	}
	return nil
}

// Clone deep-copies the set, used to build and refresh State's shadow.
func (s *Set) Clone() *Set {
	cp := &Set{
		particles: make([]Particle, len(s.particles)),
		cTot:      s.cTot,
		aTot:      s.aTot,
		pTot:      s.pTot,
		PModel:    s.PModel,
		NModel:    s.NModel,
	}
	copy(cp.particles, s.particles)
	return cp
}
