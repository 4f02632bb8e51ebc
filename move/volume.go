package move

import (
	"math"

	"github.com/pthm-cable/ionsim/environment"
	"github.com/pthm-cable/ionsim/geometry"
	"github.com/pthm-cable/ionsim/rng"
	"github.com/pthm-cable/ionsim/state"
	"gonum.org/v1/gonum/spatial/r3"
)

// VolumeMove rescales the Cuboid by an isotropic random factor and
// rescales every particle's center of mass proportionally (spec.md
// §4.5 "VolumeMove"), touching every particle. Only Cuboid geometries
// support volume moves; Call panics when the State's geometry is not a
// Cuboid,
// mirroring the teacher's fail-fast config.MustInit style for a
// programmer-configuration error rather than a runtime one.
//
// State.Revert only knows how to undo particle data, not Geometry, so
// VolumeMove keeps the pre-move Cuboid and restores it itself via
// OnReject.
type VolumeMove struct {
	base
	Step float64 // maximum fractional change per axis

	savedGeo   *geometry.Cuboid
	lastVolume float64
}

// NewVolumeMove builds a VolumeMove of the given weight and maximum
// fractional step.
func NewVolumeMove(weight, step float64, s *state.State, env *environment.Environment, src rng.Source) *VolumeMove {
	return &VolumeMove{base: base{name: "volume", weight: weight, state: s, env: env, src: src}, Step: step}
}

// Call implements Move: builds a rescaled Cuboid, installs it, and
// rescales every particle's com proportionally. The prior Cuboid is
// kept untouched so OnReject can restore it exactly.
func (m *VolumeMove) Call(chosenIndex int) {
	cuboid, ok := m.state.Geo.(*geometry.Cuboid)
	if !ok {
		panic("move: VolumeMove requires a Cuboid geometry")
	}
	m.savedGeo = cuboid
	m.lastVolume = cuboid.Volume()

	factor := 1 + m.Step*(2*m.src.Uniform01()-1)
	newCuboid := geometry.NewCuboid(r3.Scale(factor, cuboid.D), cuboid.Xp, cuboid.Yp, cuboid.Zp)

	n := m.state.Particles.Len()
	indices := make([]int, n)
	for i := 0; i < n; i++ {
		p := m.state.Particles.Get(i)
		p.SetCom(r3.Scale(factor, p.Com))
		indices[i] = i
	}
	m.state.SetGeometry(newCuboid)
	m.state.ProposeMoveTouching(indices)
}

// Accept implements Move with factor (Vnew/Vold)^N * exp(P*(Vnew-Vold)/T)
// per spec.md §4.5's literal "(V'/V)^N with pressure term".
func (m *VolumeMove) Accept(dE float64) bool {
	vOld := m.lastVolume
	vNew := m.state.Geo.Volume()
	n := float64(m.state.Particles.Len())
	factor := math.Pow(vNew/vOld, n) * math.Exp(m.env.P*(vNew-vOld)/m.env.T)
	return m.acceptWithFactor(dE, factor)
}

// OnReject restores the pre-move Cuboid, undoing what State.Revert
// cannot see.
func (m *VolumeMove) OnReject() {
	m.state.SetGeometry(m.savedGeo)
}
