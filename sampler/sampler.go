// Package sampler implements the Sampler contract of spec.md §2 and
// SPEC_FULL.md §4, plus one reference in-memory implementation,
// grounded on telemetry/collector.go's accumulate-then-flush window
// shape.
package sampler

import (
	"github.com/pthm-cable/ionsim/state"
)

// Sampler consumes State snapshots at a fixed micro-step interval
// (spec.md §2). Individual sampler implementations beyond this
// contract and EnergyTrace are out of scope (spec.md §1).
type Sampler interface {
	// Interval is the micro-step stride at which Sample is called.
	Interval() int
	// Sample records an observation from the current accepted State.
	Sample(s *state.State)
	// Save flushes the current macro-step's accumulated observations.
	Save()
	// Close releases any resources held by the sampler.
	Close() error
}

// Record is one observation of EnergyTrace, the (step, energy,
// cumulativeEnergy, error) tuple of SPEC_FULL.md §4.
type Record struct {
	Step             int
	Energy           float64
	CumulativeEnergy float64
	Error            float64
}

// EnergyTrace is an in-memory running trace of Records, accumulated
// within a macro-step window and flushed into Windows on Save,
// mirroring telemetry.Collector's counters-then-Flush shape. It
// exists to make Simulator runnable end-to-end in tests without a
// real trajectory/checkpoint writer (still out of scope).
type EnergyTrace struct {
	interval int
	step     int
	current  []Record
	Windows  [][]Record
	closed   bool
}

// NewEnergyTrace builds an EnergyTrace sampled every interval
// micro-steps.
func NewEnergyTrace(interval int) *EnergyTrace {
	return &EnergyTrace{interval: interval}
}

// Interval implements Sampler.
func (e *EnergyTrace) Interval() int { return e.interval }

// Sample implements Sampler.
func (e *EnergyTrace) Sample(s *state.State) {
	e.current = append(e.current, Record{
		Step:             e.step,
		Energy:           s.Energy,
		CumulativeEnergy: s.CumulativeEnergy,
		Error:            s.Error,
	})
	e.step++
}

// Save implements Sampler: flushes the current window into Windows
// and resets it for the next macro-step.
func (e *EnergyTrace) Save() {
	e.Windows = append(e.Windows, e.current)
	e.current = nil
}

// Close implements Sampler; EnergyTrace holds no external resource.
func (e *EnergyTrace) Close() error {
	e.closed = true
	return nil
}

// Closed reports whether Close has been called, used by tests to
// assert the Simulator's sampler lifecycle.
func (e *EnergyTrace) Closed() bool { return e.closed }
