package energy

import (
	"math"

	"github.com/pthm-cable/ionsim/geometry"
	"github.com/pthm-cable/ionsim/particle"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
)

// EwaldReal is the short-range, damped real-space half of the Ewald
// split (spec.md §4.4, GLOSSARY "Ewald"): q_i*q_j*erfc(kappa*r)/r,
// truncated beyond Cutoff. Like Coulomb it caches nothing per pair,
// so Update is a no-op.
type EwaldReal struct {
	geo    geometry.Geometry
	kappa  float64
	cutoff float64
	lb, t  float64
	diel   float64
}

// NewEwaldReal builds the real-space term with splitting parameter
// kappa and pair cutoff distance.
func NewEwaldReal(kappa, cutoff, lb, t, diel float64) *EwaldReal {
	return &EwaldReal{kappa: kappa, cutoff: cutoff, lb: lb, t: t, diel: diel}
}

// SetGeo implements Term.
func (e *EwaldReal) SetGeo(geo geometry.Geometry) { e.geo = geo }

// Initialize implements Term; nothing to seed.
func (e *EwaldReal) Initialize(particles []particle.Particle) {}

func (e *EwaldReal) pairEnergy(a, b particle.Particle) float64 {
	d := e.geo.Distance(a.Pos, b.Pos)
	r := r3.Norm(d)
	if r == 0 || r > e.cutoff {
		return 0
	}
	return coulombConstant(e.lb, e.t) / e.diel * a.Q * b.Q * math.Erfc(e.kappa*r) / r
}

// All2All implements Term.
func (e *EwaldReal) All2All(particles []particle.Particle) float64 {
	terms := make([]float64, 0, len(particles))
	for i := 0; i < len(particles); i++ {
		for j := i + 1; j < len(particles); j++ {
			terms = append(terms, e.pairEnergy(particles[i], particles[j]))
		}
	}
	return floats.Sum(terms)
}

// Call implements Term, mirroring Coulomb.Call's halved-internal-pair
// bookkeeping.
func (e *EwaldReal) Call(indices []int, particles []particle.Particle) float64 {
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
			v := e.pairEnergy(particles[i], particles[j])
			if inSet[j] {
				v /= 2
			}
			terms = append(terms, v)
		}
	}
	return floats.Sum(terms)
}

// Update implements Term; EwaldReal caches nothing.
func (e *EwaldReal) Update(before, after []particle.Particle) {}
