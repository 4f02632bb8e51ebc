// Package geometry provides the simulation container contract plus
// the Cuboid and Sphere variants, generalizing the toroidal delta and
// cell math of the teacher's 2-D spatial grid to 3-D and to bounded
// (non-periodic) containers.
package geometry

import (
	"math"

	"github.com/pthm-cable/ionsim/rng"
	"gonum.org/v1/gonum/spatial/r3"
)

// Geometry is the polymorphic container contract of spec.md §4.3.
// EnergyTerms keep a reference to it installed through SetGeo;
// State.SetGeometry re-installs the new Geometry on every term, so a
// volume move never leaves a term looking at a stale box.
type Geometry interface {
	// Distance returns the minimum-image vector from a to b.
	Distance(a, b r3.Vec) r3.Vec
	// IsInside reports whether pos lies within the container.
	IsInside(pos r3.Vec) bool
	// RandomPos draws a position uniformly distributed within the
	// container using the given source.
	RandomPos(src rng.Source) r3.Vec
	// Mirror returns the image of pos used to build charged-wall
	// mirror particles (image-charge energy terms).
	Mirror(pos r3.Vec) r3.Vec
	// Volume returns the container's volume.
	Volume() float64
}

// Cuboid is an axis-aligned box with independently periodic axes.
type Cuboid struct {
	// D is the full side length per axis; D2 is the cached half-side.
	D  r3.Vec
	D2 r3.Vec
	// Xp, Yp, Zp select periodicity per axis.
	Xp, Yp, Zp bool
}

// NewCuboid builds a Cuboid from full side lengths and per-axis
// periodicity flags.
func NewCuboid(d r3.Vec, xp, yp, zp bool) *Cuboid {
	return &Cuboid{
		D:  d,
		D2: r3.Scale(0.5, d),
		Xp: xp, Yp: yp, Zp: zp,
	}
}

// SetSides rescales the box, used by volume moves. Callers must
// notify every EnergyTerm afterward (spec.md §4.3).
func (c *Cuboid) SetSides(d r3.Vec) {
	c.D = d
	c.D2 = r3.Scale(0.5, d)
}

// Distance returns the minimum-image vector b-a under the cuboid's
// periodicity, generalizing systems/spatial.go's ToroidalDelta to 3
// independently-periodic axes.
func (c *Cuboid) Distance(a, b r3.Vec) r3.Vec {
	d := r3.Sub(b, a)
	if c.Xp {
		d.X = wrap(d.X, c.D.X, c.D2.X)
	}
	if c.Yp {
		d.Y = wrap(d.Y, c.D.Y, c.D2.Y)
	}
	if c.Zp {
		d.Z = wrap(d.Z, c.D.Z, c.D2.Z)
	}
	return d
}

func wrap(d, full, half float64) float64 {
	if d > half {
		return d - full
	}
	if d < -half {
		return d + full
	}
	return d
}

// IsInside reports whether pos lies within [-D2, D2] on every axis;
// periodic axes are always inside since a particle there is wrapped
// rather than rejected.
func (c *Cuboid) IsInside(pos r3.Vec) bool {
	if !c.Xp && math.Abs(pos.X) > c.D2.X {
		return false
	}
	if !c.Yp && math.Abs(pos.Y) > c.D2.Y {
		return false
	}
	if !c.Zp && math.Abs(pos.Z) > c.D2.Z {
		return false
	}
	return true
}

// RandomPos draws a position uniformly within the box.
func (c *Cuboid) RandomPos(src rng.Source) r3.Vec {
	return r3.Vec{
		X: (src.Uniform01() - 0.5) * c.D.X,
		Y: (src.Uniform01() - 0.5) * c.D.Y,
		Z: (src.Uniform01() - 0.5) * c.D.Z,
	}
}

// Mirror reflects pos across the wall it is closest to on each
// non-periodic axis, the image used by image-charge terms. Periodic
// axes are left unchanged.
func (c *Cuboid) Mirror(pos r3.Vec) r3.Vec {
	m := pos
	if !c.Xp {
		m.X = mirrorAxis(pos.X, c.D2.X)
	}
	if !c.Yp {
		m.Y = mirrorAxis(pos.Y, c.D2.Y)
	}
	if !c.Zp {
		m.Z = mirrorAxis(pos.Z, c.D2.Z)
	}
	return m
}

func mirrorAxis(x, half float64) float64 {
	if x >= 0 {
		return 2*half - x
	}
	return -2*half - x
}

// Volume returns D.X*D.Y*D.Z.
func (c *Cuboid) Volume() float64 {
	return c.D.X * c.D.Y * c.D.Z
}

// Sphere is a spherical container, always non-periodic (a particle
// that leaves the radius is out of bounds, never wrapped).
type Sphere struct {
	Radius float64
}

// NewSphere builds a Sphere container of the given radius.
func NewSphere(radius float64) *Sphere {
	return &Sphere{Radius: radius}
}

// Distance returns the plain Euclidean vector b-a; a sphere has no
// periodic image to minimize against.
func (s *Sphere) Distance(a, b r3.Vec) r3.Vec {
	return r3.Sub(b, a)
}

// IsInside reports whether pos lies within the sphere's radius.
func (s *Sphere) IsInside(pos r3.Vec) bool {
	return r3.Norm(pos) <= s.Radius
}

// RandomPos draws a position uniformly distributed within the ball by
// rejection sampling a cube and discarding draws outside the sphere.
func (s *Sphere) RandomPos(src rng.Source) r3.Vec {
	for {
		p := r3.Vec{
			X: (2*src.Uniform01() - 1) * s.Radius,
			Y: (2*src.Uniform01() - 1) * s.Radius,
			Z: (2*src.Uniform01() - 1) * s.Radius,
		}
		if r3.Norm(p) <= s.Radius {
			return p
		}
	}
}

// Mirror reflects pos radially outward across the sphere's surface,
// the image-charge wall for a spherical cavity.
func (s *Sphere) Mirror(pos r3.Vec) r3.Vec {
	n := r3.Norm(pos)
	if n == 0 {
		return r3.Vec{X: 2 * s.Radius}
	}
	return r3.Scale(2*s.Radius/n-1, pos)
}

// Volume returns (4/3)*pi*r^3.
func (s *Sphere) Volume() float64 {
	return 4.0 / 3.0 * math.Pi * s.Radius * s.Radius * s.Radius
}
