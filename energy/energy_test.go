package energy

import (
	"math"
	"testing"

	"github.com/pthm-cable/ionsim/geometry"
	"github.com/pthm-cable/ionsim/particle"
	"gonum.org/v1/gonum/spatial/r3"
)

func mkParticle(idx int, q float64, pos r3.Vec) particle.Particle {
	p := particle.Particle{Q: q, R: 0.5, Index: idx}
	p.SetCom(pos)
	return p
}

func TestCoulombAll2AllTwoOppositeCharges(t *testing.T) {
	geo := geometry.NewCuboid(r3.Vec{X: 100, Y: 100, Z: 100}, false, false, false)
	c := NewCoulomb(1.0, 1.0, 1.0)
	c.SetGeo(geo)

	ps := []particle.Particle{
		mkParticle(0, 1, r3.Vec{X: 0}),
		mkParticle(1, -1, r3.Vec{X: 2}),
	}
	got := c.All2All(ps)
	want := -1.0 / 2.0
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("All2All = %v, want %v", got, want)
	}
}

func TestCoulombCallMatchesAll2AllOverFullSet(t *testing.T) {
	geo := geometry.NewCuboid(r3.Vec{X: 100, Y: 100, Z: 100}, false, false, false)
	c := NewCoulomb(1.5, 2.0, 1.0)
	c.SetGeo(geo)

	ps := []particle.Particle{
		mkParticle(0, 1, r3.Vec{X: 0}),
		mkParticle(1, -1, r3.Vec{X: 2}),
		mkParticle(2, 2, r3.Vec{X: -3}),
	}
	all := c.All2All(ps)
	full := c.Call([]int{0, 1, 2}, ps)
	if math.Abs(all-full) > 1e-9 {
		t.Fatalf("Call(full) = %v, All2All = %v, want equal", full, all)
	}
}

func TestCoulombCallSingleParticleMatchesManualPairSum(t *testing.T) {
	geo := geometry.NewCuboid(r3.Vec{X: 100, Y: 100, Z: 100}, false, false, false)
	c := NewCoulomb(1.0, 1.0, 1.0)
	c.SetGeo(geo)

	ps := []particle.Particle{
		mkParticle(0, 1, r3.Vec{X: 0}),
		mkParticle(1, -1, r3.Vec{X: 2}),
		mkParticle(2, 2, r3.Vec{X: -3}),
	}
	got := c.Call([]int{0}, ps)
	want := c.pairEnergy(ps[0], ps[1]) + c.pairEnergy(ps[0], ps[2])
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("Call(single) = %v, want %v", got, want)
	}
}

func TestEwaldRealCutoffZeroesBeyondRange(t *testing.T) {
	geo := geometry.NewCuboid(r3.Vec{X: 100, Y: 100, Z: 100}, false, false, false)
	e := NewEwaldReal(1.0, 5.0, 1.0, 1.0, 1.0)
	e.SetGeo(geo)

	ps := []particle.Particle{
		mkParticle(0, 1, r3.Vec{X: 0}),
		mkParticle(1, -1, r3.Vec{X: 10}),
	}
	if got := e.All2All(ps); got != 0 {
		t.Fatalf("All2All beyond cutoff = %v, want 0", got)
	}
}

func TestEwaldRealDampsWithKappa(t *testing.T) {
	geo := geometry.NewCuboid(r3.Vec{X: 100, Y: 100, Z: 100}, false, false, false)
	low := NewEwaldReal(0.1, 10, 1.0, 1.0, 1.0)
	high := NewEwaldReal(2.0, 10, 1.0, 1.0, 1.0)
	low.SetGeo(geo)
	high.SetGeo(geo)

	ps := []particle.Particle{
		mkParticle(0, 1, r3.Vec{X: 0}),
		mkParticle(1, -1, r3.Vec{X: 2}),
	}
	lowE := math.Abs(low.All2All(ps))
	highE := math.Abs(high.All2All(ps))
	if highE >= lowE {
		t.Fatalf("expected stronger damping (smaller magnitude) at higher kappa: low=%v high=%v", lowE, highE)
	}
}

func periodicCuboid() *geometry.Cuboid {
	return geometry.NewCuboid(r3.Vec{X: 20, Y: 20, Z: 20}, true, true, true)
}

func TestEwaldReciprocalNonPeriodicContributesZero(t *testing.T) {
	geo := geometry.NewCuboid(r3.Vec{X: 20, Y: 20, Z: 20}, false, true, true)
	e := NewEwaldReciprocal(0.3, 4, 1.0, 1.0, 1.0)
	e.SetGeo(geo)

	ps := []particle.Particle{
		mkParticle(0, 1, r3.Vec{X: 0}),
		mkParticle(1, -1, r3.Vec{X: 2}),
	}
	if got := e.All2All(ps); got != 0 {
		t.Fatalf("All2All on non-fully-periodic geometry = %v, want 0", got)
	}
}

func TestEwaldReciprocalCallMatchesAll2AllOverFullSet(t *testing.T) {
	geo := periodicCuboid()
	e := NewEwaldReciprocal(0.3, 3, 1.0, 1.0, 1.0)
	e.SetGeo(geo)

	ps := []particle.Particle{
		mkParticle(0, 1, r3.Vec{X: 1}),
		mkParticle(1, -1, r3.Vec{X: -2}),
		mkParticle(2, 2, r3.Vec{X: 4, Y: 1}),
	}
	e.Initialize(ps)

	all := e.All2All(ps)
	full := e.Call([]int{0, 1, 2}, ps)
	if math.Abs(all-full) > 1e-9 {
		t.Fatalf("Call(full) = %v, All2All = %v, want equal", full, all)
	}
}

func TestEwaldReciprocalUpdateRoundTripRestoresCache(t *testing.T) {
	geo := periodicCuboid()
	e := NewEwaldReciprocal(0.3, 3, 1.0, 1.0, 1.0)
	e.SetGeo(geo)

	ps := []particle.Particle{
		mkParticle(0, 1, r3.Vec{X: 1}),
		mkParticle(1, -1, r3.Vec{X: -2}),
	}
	e.Initialize(ps)

	before := make([]complex128, len(e.sk))
	copy(before, e.sk)

	moved := mkParticle(0, 1, r3.Vec{X: 5, Y: 3, Z: -1})
	e.Update([]particle.Particle{ps[0]}, []particle.Particle{moved})
	e.Update([]particle.Particle{moved}, []particle.Particle{ps[0]})

	for ki := range e.sk {
		if diff := cAbs(e.sk[ki] - before[ki]); diff > 1e-9 {
			t.Fatalf("sk[%d] after round trip = %v, want %v (diff %v)", ki, e.sk[ki], before[ki], diff)
		}
	}
}

func cAbs(c complex128) float64 {
	return math.Hypot(real(c), imag(c))
}

func TestEwaldReciprocalUpdateMatchesFreshInitialize(t *testing.T) {
	geo := periodicCuboid()
	e := NewEwaldReciprocal(0.3, 3, 1.0, 1.0, 1.0)
	e.SetGeo(geo)

	ps := []particle.Particle{
		mkParticle(0, 1, r3.Vec{X: 1}),
		mkParticle(1, -1, r3.Vec{X: -2}),
		mkParticle(2, 2, r3.Vec{X: 0, Y: 3}),
	}
	e.Initialize(ps)

	moved := mkParticle(1, -1, r3.Vec{X: 6, Y: -1, Z: 2})
	updated := []particle.Particle{ps[0], moved, ps[2]}
	e.Update([]particle.Particle{ps[1]}, []particle.Particle{moved})

	fresh := NewEwaldReciprocal(0.3, 3, 1.0, 1.0, 1.0)
	fresh.SetGeo(geo)
	fresh.Initialize(updated)

	for ki := range e.sk {
		if diff := cAbs(e.sk[ki] - fresh.sk[ki]); diff > 1e-9 {
			t.Fatalf("sk[%d] = %v after Update, want %v from fresh Initialize (diff %v)", ki, e.sk[ki], fresh.sk[ki], diff)
		}
	}
}

func TestImageWrapAll2AllIncludesInnerTerm(t *testing.T) {
	geo := geometry.NewCuboid(r3.Vec{X: 100, Y: 100, Z: 100}, false, false, false)
	inner := NewCoulomb(1.0, 1.0, 1.0)
	w := NewImageWrap(inner, 0.0, 1.0, 1.0, 1.0) // factor 0: image contributes nothing
	w.SetGeo(geo)

	ps := []particle.Particle{
		mkParticle(0, 1, r3.Vec{X: 0}),
		mkParticle(1, -1, r3.Vec{X: 2}),
	}
	got := w.All2All(ps)
	want := inner.All2All(ps)
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("All2All with zero image factor = %v, want inner-only %v", got, want)
	}
}

func TestImageWrapCallMatchesAll2AllOverFullSet(t *testing.T) {
	geo := geometry.NewCuboid(r3.Vec{X: 20, Y: 20, Z: 20}, false, false, false)
	inner := NewCoulomb(1.0, 1.0, 1.0)
	w := NewImageWrap(inner, 0.3, 1.0, 1.0, 1.0)
	w.SetGeo(geo)

	ps := []particle.Particle{
		mkParticle(0, 1, r3.Vec{X: 1}),
		mkParticle(1, -1, r3.Vec{X: -3}),
		mkParticle(2, 2, r3.Vec{X: 4, Y: 2}),
	}
	all := w.All2All(ps)
	full := w.Call([]int{0, 1, 2}, ps)
	if math.Abs(all-full) > 1e-9 {
		t.Fatalf("Call(full) = %v, All2All = %v, want equal", full, all)
	}
}

func TestImageWrapSelfEnergyNonzeroNearWall(t *testing.T) {
	geo := geometry.NewCuboid(r3.Vec{X: 20, Y: 20, Z: 20}, false, false, false)
	w := NewImageWrap(NewCoulomb(1.0, 1.0, 1.0), 0.5, 1.0, 1.0, 1.0)
	w.SetGeo(geo)

	p := mkParticle(0, 1, r3.Vec{X: 9})
	e := w.selfEnergy(p)
	if e == 0 {
		t.Fatalf("selfEnergy near wall = 0, want nonzero")
	}
}
