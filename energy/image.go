package energy

import (
	"github.com/pthm-cable/ionsim/geometry"
	"github.com/pthm-cable/ionsim/particle"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
)

// ImageWrap adds a charged-wall image-charge contribution on top of
// another Term (spec.md §4.4's "image-charge wrapper"). It is itself
// stateless — every pair's image energy is symmetrized across both
// mirror directions so Update, like Coulomb's, is a no-op.
type ImageWrap struct {
	inner       Term
	geo         geometry.Geometry
	lb, t, diel float64
	factor      float64 // wall reflection coefficient, e.g. (eps_out-eps_in)/(eps_out+eps_in)
}

// NewImageWrap wraps inner with a wall-image contribution of the
// given reflection factor.
func NewImageWrap(inner Term, factor, lb, t, diel float64) *ImageWrap {
	return &ImageWrap{inner: inner, factor: factor, lb: lb, t: t, diel: diel}
}

// SetGeo implements Term, propagating to the wrapped term too.
func (w *ImageWrap) SetGeo(geo geometry.Geometry) {
	w.geo = geo
	w.inner.SetGeo(geo)
}

// Initialize implements Term.
func (w *ImageWrap) Initialize(particles []particle.Particle) {
	w.inner.Initialize(particles)
}

func (w *ImageWrap) selfEnergy(p particle.Particle) float64 {
	d := r3.Norm(w.geo.Distance(p.Pos, w.geo.Mirror(p.Pos)))
	if d == 0 {
		return 0
	}
	return 0.5 * w.factor * coulombConstant(w.lb, w.t) / w.diel * p.Q * p.Q / d
}

// crossEnergy is symmetrized across both mirror directions so the
// subset/non-subset bookkeeping in Call can reuse Coulomb's halving
// trick even though the raw "charge vs. the other's image" quantity
// is not symmetric in (a, b).
func (w *ImageWrap) crossEnergy(a, b particle.Particle) float64 {
	d1 := r3.Norm(w.geo.Distance(a.Pos, w.geo.Mirror(b.Pos)))
	d2 := r3.Norm(w.geo.Distance(b.Pos, w.geo.Mirror(a.Pos)))
	if d1 == 0 || d2 == 0 {
		return 0
	}
	base := w.factor * coulombConstant(w.lb, w.t) / w.diel * a.Q * b.Q
	return 0.5 * base * (1/d1 + 1/d2)
}

func (w *ImageWrap) imageAll2All(particles []particle.Particle) float64 {
	terms := make([]float64, 0, len(particles)*len(particles)/2)
	for i := range particles {
		terms = append(terms, w.selfEnergy(particles[i]))
		for j := i + 1; j < len(particles); j++ {
			terms = append(terms, w.crossEnergy(particles[i], particles[j]))
		}
	}
	return floats.Sum(terms)
}

func (w *ImageWrap) imageCall(indices []int, particles []particle.Particle) float64 {
	inSet := make(map[int]bool, len(indices))
	for _, idx := range indices {
		inSet[idx] = true
	}

	terms := make([]float64, 0, len(indices)*len(particles))
	for _, i := range indices {
		terms = append(terms, w.selfEnergy(particles[i]))
		for j := range particles {
			if j == i {
				continue
			}
			v := w.crossEnergy(particles[i], particles[j])
			if inSet[j] {
				v /= 2
			}
			terms = append(terms, v)
		}
	}
	return floats.Sum(terms)
}

// All2All implements Term: the wrapped term's full sum plus the
// image-charge contribution.
func (w *ImageWrap) All2All(particles []particle.Particle) float64 {
	return w.inner.All2All(particles) + w.imageAll2All(particles)
}

// Call implements Term, combining the wrapped term's partial sum with
// the image-charge partial sum.
func (w *ImageWrap) Call(indices []int, particles []particle.Particle) float64 {
	return w.inner.Call(indices, particles) + w.imageCall(indices, particles)
}

// Update implements Term: delegates to the wrapped term; the image
// contribution itself caches nothing.
func (w *ImageWrap) Update(before, after []particle.Particle) {
	w.inner.Update(before, after)
}
