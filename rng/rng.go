// Package rng defines the two random sources the engine needs and a
// default gonum-backed implementation. Seeding/reseeding policy is an
// external collaborator's concern (see spec.md §1); this package only
// fixes the interface boundary and gives tests something concrete to
// inject.
package rng

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat/distuv"
)

// Source is the uniform-U(0,1) and uniform-direction source the core
// requires. Anything satisfying this can drive the simulator; the
// core never seeds or reseeds one itself.
type Source interface {
	// Uniform01 returns a sample from U(0,1).
	Uniform01() float64
	// UniformDirection returns a unit vector uniformly distributed
	// over the surface of the unit sphere.
	UniformDirection() r3.Vec
}

// Default is a Source backed by gonum/stat/distuv, wrapping a single
// golang.org/x/exp/rand.Rand so every draw comes from one stream.
type Default struct {
	uniform distuv.Uniform
	src     *rand.Rand
}

// NewDefault builds a Default source from an already-seeded
// golang.org/x/exp/rand.Rand. The caller owns seeding policy.
func NewDefault(src *rand.Rand) *Default {
	return &Default{
		uniform: distuv.Uniform{Min: 0, Max: 1, Src: src},
		src:     src,
	}
}

// Uniform01 implements Source.
func (d *Default) Uniform01() float64 {
	return d.uniform.Rand()
}

// UniformDirection implements Source, using Marsaglia's method: two
// U(-1,1) samples rejected until inside the unit disk, then mapped to
// the sphere. This avoids the polar-angle bias of naive spherical
// coordinate sampling.
func (d *Default) UniformDirection() r3.Vec {
	for {
		x1 := 2*d.uniform.Rand() - 1
		x2 := 2*d.uniform.Rand() - 1
		s := x1*x1 + x2*x2
		if s >= 1 {
			continue
		}
		root := math.Sqrt(1 - s)
		return r3.Vec{
			X: 2 * x1 * root,
			Y: 2 * x2 * root,
			Z: 1 - 2*s,
		}
	}
}
