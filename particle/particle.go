// Package particle implements the Particle and ParticleSet data model
// of spec.md §3, generalizing the teacher's per-entity component
// structs (components/body.go, components/organism.go) into a single
// plain-slice record and its owning collection.
package particle

import "gonum.org/v1/gonum/spatial/r3"

// Particle is the atomic data record of spec.md §3. Com and QDisp are
// the independent state; Pos and B are derived and kept consistent by
// SetCom/SetQDisp — callers must never assign Pos or B directly.
type Particle struct {
	Com   r3.Vec // center of mass
	QDisp r3.Vec // displacement of point charge from Com, |QDisp| == B
	Pos   r3.Vec // Com + QDisp, derived

	R  float64 // hard-core radius
	Rf float64 // effective interaction radius

	Q float64 // signed charge

	B    float64 // current |QDisp|
	BMin float64 // minimum allowed displacement magnitude
	BMax float64 // maximum allowed displacement magnitude

	Name  string
	Index int // must equal this particle's position in its ParticleSet
}

// SetCom assigns a new center of mass and recomputes Pos.
func (p *Particle) SetCom(com r3.Vec) {
	p.Com = com
	p.sync()
}

// SetQDisp assigns a new charge displacement and recomputes Pos and B.
// It does not clamp the magnitude — clamping is move-kind-specific
// (spec.md §3: "[0, r] or [b_min, b_max] for random-charge moves") and
// is the caller's responsibility via ClampDispMagnitude.
func (p *Particle) SetQDisp(q r3.Vec) {
	p.QDisp = q
	p.sync()
}

func (p *Particle) sync() {
	p.Pos = r3.Add(p.Com, p.QDisp)
	p.B = r3.Norm(p.QDisp)
}

// ClampDispMagnitude rescales QDisp so |QDisp| lies within [min, max],
// a no-op if it already does. A zero QDisp has no direction to scale
// and is left unchanged. Used by ChargeTrans to enforce the
// [0, r] invariant of spec.md §3.
func (p *Particle) ClampDispMagnitude(min, max float64) {
	if p.B == 0 {
		return
	}
	target := p.B
	if target < min {
		target = min
	} else if target > max {
		target = max
	}
	if target == p.B {
		return
	}
	p.QDisp = r3.Scale(target/p.B, p.QDisp)
	p.sync()
}

// IsCation reports whether the particle carries positive charge.
func (p *Particle) IsCation() bool { return p.Q > 0 }

// IsAnion reports whether the particle carries negative charge.
func (p *Particle) IsAnion() bool { return p.Q < 0 }

// Overlaps reports whether p and q's hard cores intersect under the
// given minimum-image distance vector d = Distance(p.Pos, q.Pos).
func Overlaps(p, q *Particle, d r3.Vec) bool {
	rsum := p.R + q.R
	return r3.Norm(d) <= rsum
}
