// Package energy implements the EnergyTerm contract of spec.md §4.4
// and its concrete electrostatic instantiations. The Call/All2All
// subset-vs-full-sum bookkeeping (sum interactions touching a changed
// subset, halving pairs internal to the subset) is original, derived
// directly from spec.md §4.1/§4.4's description — no file in the
// teacher repo implements a pairwise or subset-partial-sum pattern to
// generalize from.
package energy

import (
	"github.com/pthm-cable/ionsim/geometry"
	"github.com/pthm-cable/ionsim/particle"
)

// Term is the polymorphic energy contribution contract of spec.md
// §4.4. Implementations must make Update exactly invertible when
// called with before/after swapped (spec.md §8 "Revert is inverse").
type Term interface {
	// Initialize seeds any internal state (k-space vectors, neighbor
	// tables) from the full particle list.
	Initialize(particles []particle.Particle)
	// All2All computes the full authoritative pairwise sum.
	All2All(particles []particle.Particle) float64
	// Call computes the partial sum of interactions between the
	// particles at indices and every particle in particles, without
	// double-counting pairs internal to indices.
	Call(indices []int, particles []particle.Particle) float64
	// Update swaps any cached contribution of before for after. Must
	// be its own exact inverse when called as Update(after, before).
	Update(before, after []particle.Particle)
	// SetGeo installs the Geometry this term queries for distances.
	// Called again whenever the Geometry mutates (volume moves).
	SetGeo(geo geometry.Geometry)
}

// coulombConstant computes e^2/(4*pi*eps0) in the reduced units this
// engine works in: lb*T, the Bjerrum length scaled by the thermal
// energy, which is the standard reduction for primitive-model
// electrolyte simulations (see GLOSSARY).
func coulombConstant(lb, t float64) float64 {
	return lb * t
}
