package energy

import (
	"github.com/pthm-cable/ionsim/geometry"
	"github.com/pthm-cable/ionsim/particle"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
)

// Coulomb is the plain pairwise 1/r electrostatic term of spec.md
// §4.4 ("pairwise Coulomb with image-charge support" — the image
// part is added by ImageWrap, see image.go). It holds no cache: the
// energy of a pair depends only on the two particles' current state,
// so Update is a no-op and is trivially its own inverse.
type Coulomb struct {
	geo     geometry.Geometry
	lb, t   float64
	diel    float64
}

// NewCoulomb builds a Coulomb term scaled by the Bjerrum length lb,
// temperature t, and relative dielectric constant diel (spec.md §9
// "Global constants").
func NewCoulomb(lb, t, diel float64) *Coulomb {
	return &Coulomb{lb: lb, t: t, diel: diel}
}

// SetGeo implements Term.
func (c *Coulomb) SetGeo(geo geometry.Geometry) { c.geo = geo }

// Initialize implements Term; Coulomb has nothing to seed.
func (c *Coulomb) Initialize(particles []particle.Particle) {}

func (c *Coulomb) pairEnergy(a, b particle.Particle) float64 {
	d := c.geo.Distance(a.Pos, b.Pos)
	r := r3.Norm(d)
	if r == 0 {
		return 0
	}
	return coulombConstant(c.lb, c.t) / c.diel * a.Q * b.Q / r
}

// All2All implements Term: the authoritative sum over distinct pairs.
func (c *Coulomb) All2All(particles []particle.Particle) float64 {
	terms := make([]float64, 0, len(particles)*len(particles)/2)
	for i := 0; i < len(particles); i++ {
		for j := i + 1; j < len(particles); j++ {
			terms = append(terms, c.pairEnergy(particles[i], particles[j]))
		}
	}
	return floats.Sum(terms)
}

// Call implements Term: the partial sum of interactions between the
// indexed subset and every particle, with pairs internal to the
// subset halved so each is counted once overall.
func (c *Coulomb) Call(indices []int, particles []particle.Particle) float64 {
	inSet := make(map[int]bool, len(indices))
	for _, idx := range indices {
		inSet[idx] = true
	}

	terms := make([]float64, 0, len(indices)*len(particles))
	for _, i := range indices {
		for j := range particles {
			if j == i {
				continue
			}
			e := c.pairEnergy(particles[i], particles[j])
			if inSet[j] {
				e /= 2
			}
			terms = append(terms, e)
		}
	}
	return floats.Sum(terms)
}

// Update implements Term; Coulomb caches nothing.
func (c *Coulomb) Update(before, after []particle.Particle) {}
