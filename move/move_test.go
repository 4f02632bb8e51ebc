package move

import (
	"math"
	"testing"

	"github.com/pthm-cable/ionsim/energy"
	"github.com/pthm-cable/ionsim/environment"
	"github.com/pthm-cable/ionsim/geometry"
	"github.com/pthm-cable/ionsim/particle"
	"github.com/pthm-cable/ionsim/state"
	"gonum.org/v1/gonum/spatial/r3"
)

// sequenceSource returns Uniform01 draws from a fixed sequence
// (wrapping once exhausted) and a fixed direction, enough to make
// move outcomes deterministic for assertions.
type sequenceSource struct {
	draws []float64
	i     int
	dir   r3.Vec
}

func (s *sequenceSource) Uniform01() float64 {
	v := s.draws[s.i%len(s.draws)]
	s.i++
	return v
}

func (s *sequenceSource) UniformDirection() r3.Vec { return s.dir }

func testEnv() *environment.Environment {
	return &environment.Environment{T: 1, D: 1, LB: 1, CP: -16, P: 0}
}

func testModels() (particle.Particle, particle.Particle) {
	p := particle.Particle{Q: 1, R: 0.5, Rf: 0.5, BMax: 0.5}
	n := particle.Particle{Q: -1, R: 0.5, Rf: 0.5, BMax: 0.5}
	return p, n
}

func testState(t *testing.T, particles ...particle.Particle) *state.State {
	t.Helper()
	pModel, nModel := testModels()
	s := state.New(pModel, nModel)
	geo := geometry.NewCuboid(r3.Vec{X: 50, Y: 50, Z: 50}, true, true, true)
	s.SetGeometry(geo)
	s.SetTerms([]energy.Term{energy.NewCoulomb(1, 1, 1)})
	for i, p := range particles {
		s.Particles.Add(p, i)
	}
	s.Finalize()
	return s
}

func particleAt(q float64, pos r3.Vec) particle.Particle {
	p := particle.Particle{Q: q, R: 0.5, Rf: 0.5, BMax: 0.5}
	p.SetCom(pos)
	return p
}

func TestTranslateMovesChosenParticle(t *testing.T) {
	s := testState(t, particleAt(1, r3.Vec{X: 0}), particleAt(-1, r3.Vec{X: 5}))
	src := &sequenceSource{draws: []float64{0.5}, dir: r3.Vec{X: 1}}
	m := NewTranslate(1.0, 0.2, s, testEnv(), src)

	before := *s.Particles.Get(0)
	m.Call(0)
	after := *s.Particles.Get(0)

	if after.Com == before.Com {
		t.Fatalf("Translate did not move the particle")
	}
	if len(s.MovedCurrent) != 1 || s.MovedCurrent[0] != 0 {
		t.Fatalf("MovedCurrent = %v, want [0]", s.MovedCurrent)
	}
}

func TestRotatePreservesMagnitude(t *testing.T) {
	s := testState(t, particleAt(1, r3.Vec{X: 0}))
	s.Particles.Get(0).SetQDisp(r3.Vec{X: 0.3})
	src := &sequenceSource{draws: []float64{0.1}, dir: r3.Vec{Y: 1}}
	m := NewRotate(1.0, s, testEnv(), src)

	m.Call(0)
	got := s.Particles.Get(0).B
	if math.Abs(got-0.3) > 1e-12 {
		t.Fatalf("B after Rotate = %v, want 0.3", got)
	}
}

func TestChargeTransRandStaysWithinBRange(t *testing.T) {
	s := testState(t, particleAt(1, r3.Vec{X: 0}))
	p := s.Particles.Get(0)
	p.BMin, p.BMax = 0.1, 0.4
	src := &sequenceSource{draws: []float64{0.5}, dir: r3.Vec{Z: 1}}
	m := NewChargeTransRand(1.0, s, testEnv(), src)

	m.Call(0)
	b := s.Particles.Get(0).B
	if b < p.BMin-1e-12 || b > p.BMax+1e-12 {
		t.Fatalf("B = %v, want within [%v, %v]", b, p.BMin, p.BMax)
	}
}

func TestChargeTransClipsToRadius(t *testing.T) {
	s := testState(t, particleAt(1, r3.Vec{X: 0}))
	p := s.Particles.Get(0)
	p.R = 0.2
	src := &sequenceSource{draws: []float64{0.5}, dir: r3.Vec{X: 1}}
	m := NewChargeTrans(1.0, 5.0, s, testEnv(), src) // oversized step forces a clip

	m.Call(0)
	b := s.Particles.Get(0).B
	if b > p.R+1e-12 {
		t.Fatalf("B = %v after ChargeTrans, want <= R = %v", b, p.R)
	}
}

func TestSwapExchangesComs(t *testing.T) {
	s := testState(t, particleAt(1, r3.Vec{X: 0}), particleAt(-1, r3.Vec{X: 5}))
	cationCom := s.Particles.Get(0).Com
	anionCom := s.Particles.Get(1).Com

	src := &sequenceSource{draws: []float64{0, 0.999}, dir: r3.Vec{X: 1}}
	m := NewSwap(1.0, s, testEnv(), src)
	m.Call(0)

	if s.Particles.Get(0).Com != anionCom || s.Particles.Get(1).Com != cationCom {
		t.Fatalf("Swap did not exchange coms: cation=%v anion=%v", s.Particles.Get(0).Com, s.Particles.Get(1).Com)
	}
}

func TestGrandCanonicalInsertAppendsParticle(t *testing.T) {
	s := testState(t, particleAt(1, r3.Vec{X: 0}))
	src := &sequenceSource{draws: []float64{0.9, 0.1, 0.1, 0.1}, dir: r3.Vec{X: 1}}
	m := NewGrandCanonicalInsert(1.0, s, testEnv(), src)

	before := s.Particles.Len()
	m.Call(0)
	if s.Particles.Len() != before+1 {
		t.Fatalf("Particles.Len() = %d, want %d", s.Particles.Len(), before+1)
	}
	if len(s.MovedCurrent) != 1 {
		t.Fatalf("MovedCurrent = %v, want one new index", s.MovedCurrent)
	}
}

func TestGrandCanonicalDeleteRemovesParticle(t *testing.T) {
	s := testState(t, particleAt(1, r3.Vec{X: 0}), particleAt(-1, r3.Vec{X: 5}))
	src := &sequenceSource{draws: []float64{0.1}, dir: r3.Vec{X: 1}}
	m := NewGrandCanonicalDelete(1.0, s, testEnv(), src)

	before := s.Particles.Len()
	m.Call(0)
	if s.Particles.Len() != before-1 {
		t.Fatalf("Particles.Len() = %d, want %d", s.Particles.Len(), before-1)
	}
	if len(s.MovedOld) != 1 {
		t.Fatalf("MovedOld = %v, want one removed index", s.MovedOld)
	}
}

func TestVolumeMoveRescalesBoxAndParticlesThenOnRejectRestores(t *testing.T) {
	s := testState(t, particleAt(1, r3.Vec{X: 5}), particleAt(-1, r3.Vec{X: -5}))
	geoBefore := s.Geo.(*geometry.Cuboid)
	dBefore := geoBefore.D
	comBefore := s.Particles.Get(0).Com

	src := &sequenceSource{draws: []float64{0.9}, dir: r3.Vec{X: 1}}
	m := NewVolumeMove(1.0, 0.1, s, testEnv(), src)
	m.Call(0)

	if s.Geo.(*geometry.Cuboid).D == dBefore {
		t.Fatalf("VolumeMove did not rescale the box")
	}
	if s.Particles.Get(0).Com == comBefore {
		t.Fatalf("particle com unchanged, want scaled")
	}
	if len(s.MovedCurrent) != 2 {
		t.Fatalf("MovedCurrent = %v, want all 2 particles touched", s.MovedCurrent)
	}

	m.OnReject()
	if s.Geo.(*geometry.Cuboid).D != dBefore {
		t.Fatalf("OnReject did not restore the box: got %v, want %v", s.Geo.(*geometry.Cuboid).D, dBefore)
	}
}

func TestAcceptRejectsInfiniteEnergyChange(t *testing.T) {
	s := testState(t, particleAt(1, r3.Vec{X: 0}))
	src := &sequenceSource{draws: []float64{0.999}, dir: r3.Vec{X: 1}}
	m := NewTranslate(1.0, 0.1, s, testEnv(), src)

	if m.Accept(math.Inf(1)) {
		t.Fatalf("Accept(+Inf) = true, want false")
	}
	if m.Attempted() != 1 || m.Accepted() != 0 {
		t.Fatalf("Attempted=%d Accepted=%d, want 1,0", m.Attempted(), m.Accepted())
	}
}

func TestDispatcherFinalizeRejectsBadWeights(t *testing.T) {
	s := testState(t, particleAt(1, r3.Vec{X: 0}))
	src := &sequenceSource{draws: []float64{0.1}, dir: r3.Vec{X: 1}}
	moves := []Move{
		NewTranslate(0.5, 0.1, s, testEnv(), src),
		NewRotate(0.2, s, testEnv(), src),
	}
	d := NewDispatcher(moves, src)
	if err := d.Finalize(); err == nil {
		t.Fatalf("Finalize did not reject weights summing to %v", 0.7)
	}
}

func TestVolumeMoveShrinkThenExpandRestoresCumulativeEnergy(t *testing.T) {
	s := testState(t, particleAt(1, r3.Vec{X: 2}), particleAt(-1, r3.Vec{X: -2}))
	original := s.CumulativeEnergy

	// factor = 1 + Step*(2u-1): Step=1, u=0.25 -> 0.5 (shrink by half);
	// Step=1, u=1.0 -> 2.0 (expand back). The second draw of each pair
	// is the accept-check u=0, which always accepts since p > 0 always.
	src := &sequenceSource{draws: []float64{0.25, 0, 1.0, 0}, dir: r3.Vec{X: 1}}
	m := NewVolumeMove(1.0, 1.0, s, testEnv(), src)

	m.Call(0)
	dE := s.EnergyChange()
	if !m.Accept(dE) {
		t.Fatalf("expected shrink to be accepted (accept-check u=0)")
	}
	s.Save()

	m.Call(0)
	dE = s.EnergyChange()
	if !m.Accept(dE) {
		t.Fatalf("expected expansion to be accepted (accept-check u=0)")
	}
	s.Save()

	if math.Abs(s.CumulativeEnergy-original) > 1e-9 {
		t.Fatalf("CumulativeEnergy = %v after shrink+expand, want back to %v", s.CumulativeEnergy, original)
	}
}

func TestDispatcherSelectRespectsWeights(t *testing.T) {
	s := testState(t, particleAt(1, r3.Vec{X: 0}))
	src := &sequenceSource{draws: []float64{0.05}, dir: r3.Vec{X: 1}}
	moves := []Move{
		NewTranslate(0.9, 0.1, s, testEnv(), src),
		NewRotate(0.1, s, testEnv(), src),
	}
	d := NewDispatcher(moves, src)
	if err := d.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	selected := d.Select()
	if selected.Name() != "rotate" {
		t.Fatalf("Select() at u=0.05 = %v, want rotate (weight-ascending sort puts the smallest-weight move first)", selected.Name())
	}
}
