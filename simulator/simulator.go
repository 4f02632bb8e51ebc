// Package simulator implements the macro/micro run loop of spec.md
// §4.6, grounded on game/game.go's Update/UpdateHeadless driving a
// bounded inner loop of simulationStep calls per outer frame, plus
// game/logging.go / telemetry/stats.go's per-tick/per-window
// structured reporting.
package simulator

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/pthm-cable/ionsim/move"
	"github.com/pthm-cable/ionsim/rng"
	"github.com/pthm-cable/ionsim/sampler"
	"github.com/pthm-cable/ionsim/state"
)

// Simulator is the owner of State, the move Dispatcher, and Samplers
// (spec.md §2), running the macro/micro acceptance loop.
type Simulator struct {
	Name string

	State      *state.State
	Dispatcher *move.Dispatcher
	Samplers   []sampler.Sampler
	Src        rng.Source

	Log *slog.Logger
}

// New builds a Simulator. Call Finalize before Run.
func New(name string, s *state.State, moves []move.Move, samplers []sampler.Sampler, src rng.Source) *Simulator {
	return &Simulator{
		Name:       name,
		State:      s,
		Dispatcher: move.NewDispatcher(moves, src),
		Samplers:   samplers,
		Src:        src,
		Log:        slog.Default(),
	}
}

// Finalize builds the move-selection cumulative distribution and
// finalizes State (spec.md §4.6 "finalize()").
func (sim *Simulator) Finalize() error {
	if err := sim.Dispatcher.Finalize(); err != nil {
		return fmt.Errorf("simulator: %w", err)
	}
	sim.State.Finalize()
	return nil
}

// Run executes macroSteps outer iterations of microSteps+1 inner
// proposal attempts each, exactly per spec.md §4.6's pseudocode
// (the inclusive micro-step bound is intentional — see DESIGN.md
// Open Question 1). Equilibration macro-steps (macro < eqSteps) never
// sample.
func (sim *Simulator) Run(macroSteps, microSteps, eqSteps int) {
	for macro := 0; macro < macroSteps; macro++ {
		start := time.Now()

		for micro := 0; micro <= microSteps; micro++ {
			m := sim.Dispatcher.Select()
			chosen := 0
			if sim.State.Particles.Len() > 0 {
				chosen = sim.State.Random(sim.Src)
			}
			m.Call(chosen)
			dE := sim.State.EnergyChange()
			if m.Accept(dE) {
				sim.State.Save()
			} else {
				sim.State.Revert()
				m.OnReject()
			}

			if macro >= eqSteps {
				for _, s := range sim.Samplers {
					if s.Interval() > 0 && micro%s.Interval() == 0 {
						s.Sample(sim.State)
					}
				}
			}
		}

		sim.State.Control()
		sim.State.Advance()
		sim.report(macro, time.Since(start))

		for _, s := range sim.Samplers {
			s.Save()
		}
	}

	for _, s := range sim.Samplers {
		if err := s.Close(); err != nil {
			sim.Log.Warn("simulator: sampler close failed", "error", err)
		}
	}
}

// report emits the per-macro-step console log of spec.md §6:
// acceptance ratio per move, current energy, drift, counts, box
// volume, wall time — structured the way
// telemetry.WindowStats.LogStats does it.
func (sim *Simulator) report(macro int, elapsed time.Duration) {
	args := []any{
		"macro", macro,
		"energy", sim.State.Energy,
		"cumulative_energy", sim.State.CumulativeEnergy,
		"drift", sim.State.Error,
		"tot", sim.State.Particles.Len(),
		"c_tot", sim.State.Particles.CTot(),
		"a_tot", sim.State.Particles.ATot(),
		"volume", sim.State.Geo.Volume(),
		"wall_time", elapsed.Round(time.Microsecond).String(),
	}
	for _, m := range sim.Dispatcher.Moves() {
		ratio := 0.0
		if m.Attempted() > 0 {
			ratio = float64(m.Accepted()) / float64(m.Attempted())
		}
		args = append(args, m.Name()+"_acceptance", round4(ratio))
	}
	sim.Log.Info("macro_step", args...)
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
