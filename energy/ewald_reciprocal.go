package energy

import (
	"math"
	"math/cmplx"
	"runtime"
	"sync"

	"github.com/pthm-cable/ionsim/geometry"
	"github.com/pthm-cable/ionsim/particle"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
)

// EwaldReciprocal is the long-range, periodic-image half of the Ewald
// split (spec.md §4.4): a sum over reciprocal-lattice vectors of a
// damped structure-factor magnitude. It maintains a running structure
// factor cache per k-vector and is the term whose Update is a genuine
// incremental swap rather than a no-op, per spec.md §9's discussion
// of the forward/backward round trip.
//
// It only contributes inside a fully periodic Cuboid: there is no
// reciprocal lattice to sum over in a bounded, non-periodic container
// (Sphere, or a Cuboid with any non-periodic axis), so SetGeo leaves
// it with an empty k-vector set and it contributes zero — not an
// error, since the geometry choice is valid, just not periodic.
type EwaldReciprocal struct {
	geo    geometry.Geometry
	kappa  float64
	kMax   int
	lb, t  float64
	diel   float64

	kVecs  []r3.Vec
	kCoeff []float64
	sk     []complex128 // cached full-system structure factor per k-vector
}

// NewEwaldReciprocal builds the reciprocal-space term. kappa is the
// Ewald splitting parameter shared with EwaldReal; kMax bounds the
// reciprocal lattice search in each direction.
func NewEwaldReciprocal(kappa float64, kMax int, lb, t, diel float64) *EwaldReciprocal {
	return &EwaldReciprocal{kappa: kappa, kMax: kMax, lb: lb, t: t, diel: diel}
}

// SetGeo implements Term and rebuilds the k-vector lattice for the
// new geometry — required after any volume move (spec.md §4.3).
func (e *EwaldReciprocal) SetGeo(geo geometry.Geometry) {
	e.geo = geo
	e.rebuildLattice()
}

func (e *EwaldReciprocal) rebuildLattice() {
	cuboid, ok := e.geo.(*geometry.Cuboid)
	if !ok || !cuboid.Xp || !cuboid.Yp || !cuboid.Zp {
		e.kVecs = nil
		e.kCoeff = nil
		e.sk = nil
		return
	}

	volume := cuboid.Volume()
	prefactor := coulombConstant(e.lb, e.t) / e.diel * 2 * math.Pi / volume

	var kVecs []r3.Vec
	var kCoeff []float64
	for nx := -e.kMax; nx <= e.kMax; nx++ {
		for ny := -e.kMax; ny <= e.kMax; ny++ {
			for nz := -e.kMax; nz <= e.kMax; nz++ {
				if nx == 0 && ny == 0 && nz == 0 {
					continue
				}
				k := r3.Vec{
					X: 2 * math.Pi * float64(nx) / cuboid.D.X,
					Y: 2 * math.Pi * float64(ny) / cuboid.D.Y,
					Z: 2 * math.Pi * float64(nz) / cuboid.D.Z,
				}
				k2 := r3.Dot(k, k)
				kVecs = append(kVecs, k)
				kCoeff = append(kCoeff, prefactor*math.Exp(-k2/(4*e.kappa*e.kappa))/k2)
			}
		}
	}
	e.kVecs = kVecs
	e.kCoeff = kCoeff
	e.sk = make([]complex128, len(kVecs))
}

// Initialize implements Term: seeds the structure-factor cache from
// scratch.
func (e *EwaldReciprocal) Initialize(particles []particle.Particle) {
	for ki := range e.kVecs {
		e.sk[ki] = structureFactorAt(e.kVecs[ki], particles)
	}
}

func structureFactorAt(k r3.Vec, particles []particle.Particle) complex128 {
	var s complex128
	for _, p := range particles {
		kr := r3.Dot(k, p.Pos)
		s += complex(p.Q*math.Cos(kr), p.Q*math.Sin(kr))
	}
	return s
}

// All2All implements Term: the authoritative reciprocal-space sum,
// recomputed from scratch (never touches the cache), parallelized
// across k-vectors with a deterministic, k-ordered reduction per
// spec.md §5.
func (e *EwaldReciprocal) All2All(particles []particle.Particle) float64 {
	if len(e.kVecs) == 0 {
		return 0
	}
	terms := make([]float64, len(e.kVecs))
	e.parallelOverK(func(ki int) {
		s := structureFactorAt(e.kVecs[ki], particles)
		terms[ki] = e.kCoeff[ki] * real(s*cmplx.Conj(s))
	})
	return floats.Sum(terms)
}

// Call implements Term. The subset's own structure factor is computed
// fresh from the passed particles; the cached total e.sk supplies the
// "rest of the system" contribution, giving
//
//	coeff(k) * (2*Re(conj(Ssub)*Stotal) - |Ssub|^2)
//
// which decomposes All2All exactly into per-subset contributions:
// summing this over indices==every particle reduces to All2All, and
// summing it over a subset plus its complement reduces to All2All
// plus the cross term counted once, matching "double-counting within
// the subset handled by the term" (spec.md §4.4).
func (e *EwaldReciprocal) Call(indices []int, particles []particle.Particle) float64 {
	if len(e.kVecs) == 0 {
		return 0
	}
	terms := make([]float64, len(e.kVecs))
	e.parallelOverK(func(ki int) {
		var ssub complex128
		for _, idx := range indices {
			p := particles[idx]
			kr := r3.Dot(e.kVecs[ki], p.Pos)
			ssub += complex(p.Q*math.Cos(kr), p.Q*math.Sin(kr))
		}
		cross := 2 * real(cmplx.Conj(ssub)*e.sk[ki])
		self := real(ssub * cmplx.Conj(ssub))
		terms[ki] = e.kCoeff[ki] * (cross - self)
	})
	return floats.Sum(terms)
}

// Update implements Term: swaps the cached structure factor from
// before to after, k-vector by k-vector. Calling Update(after,
// before) undoes this exactly, since each step is a plain
// subtract-then-add of the same quantities in reverse.
func (e *EwaldReciprocal) Update(before, after []particle.Particle) {
	for ki, k := range e.kVecs {
		for _, p := range before {
			kr := r3.Dot(k, p.Pos)
			e.sk[ki] -= complex(p.Q*math.Cos(kr), p.Q*math.Sin(kr))
		}
		for _, p := range after {
			kr := r3.Dot(k, p.Pos)
			e.sk[ki] += complex(p.Q*math.Cos(kr), p.Q*math.Sin(kr))
		}
	}
}

// parallelOverK runs fn(ki) for every k-vector index across a bounded
// worker pool, one disjoint range per worker so results land in
// k-order with no reduction race (spec.md §5: "reduced... with
// deterministic ordering").
func (e *EwaldReciprocal) parallelOverK(fn func(ki int)) {
	n := len(e.kVecs)
	workers := runtime.GOMAXPROCS(0)
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		for ki := 0; ki < n; ki++ {
			fn(ki)
		}
		return
	}

	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if start >= n {
			break
		}
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for ki := start; ki < end; ki++ {
				fn(ki)
			}
		}(start, end)
	}
	wg.Wait()
}
