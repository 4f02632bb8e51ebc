// Package move implements the Move contract and the nine move kinds
// of spec.md §4.5, plus the weighted Dispatcher of spec.md §4.5/§4.6.
// It generalizes the named, describable-behavior catalog shape of
// systems/registry.go to a set of stateful mutation operators, and
// the offspring-producing mutation of systems/breeding.go to the
// grand-canonical insert/delete pair.
package move

import (
	"fmt"
	"math"
	"sort"

	"github.com/pthm-cable/ionsim/environment"
	"github.com/pthm-cable/ionsim/rng"
	"github.com/pthm-cable/ionsim/state"
)

// Move is the proposal operator contract of spec.md §4.5.
type Move interface {
	// Name identifies the move kind for console/log reporting.
	Name() string
	// Weight is this move's contribution to the selection cumulative
	// distribution, in (0, 1].
	Weight() float64
	// Attempted is the number of times Accept has been called.
	Attempted() int
	// Accepted is the number of times Accept has returned true.
	Accepted() int
	// Call selects victims (chosenIndex or its own pick), mutates them
	// in the State, and registers the touched indices via
	// State.ProposeMoveTouching.
	Call(chosenIndex int)
	// Accept decides the Metropolis verdict for the given dE,
	// incrementing Attempted always and Accepted on a true verdict.
	Accept(dE float64) bool
	// OnReject runs after State.Revert for a rejected proposal, for
	// mutations State's particle-level revert cannot undo by itself
	// (VolumeMove's geometry swap). A no-op for every other kind.
	OnReject()
}

// base holds the bookkeeping and collaborators shared by every move
// kind: the weight/attempted/accepted triple of spec.md §4.5 plus the
// State/Environment/RNG collaborators every kind needs to mutate
// particles and evaluate its acceptance factor.
type base struct {
	name   string
	weight float64

	attempted int
	accepted  int

	state *state.State
	env   *environment.Environment
	src   rng.Source
}

func (b *base) Name() string    { return b.name }
func (b *base) Weight() float64 { return b.weight }
func (b *base) Attempted() int  { return b.attempted }
func (b *base) Accepted() int   { return b.accepted }
func (b *base) OnReject()       {}

// acceptWithFactor implements spec.md §4.5's "returns true with
// probability min(1, factor * exp(-dE/T))". A dE of +Inf drives the
// exponential to zero and rejects unconditionally without a special
// case.
func (b *base) acceptWithFactor(dE, factor float64) bool {
	b.attempted++
	p := factor * math.Exp(-dE/b.env.T)
	if p > 1 {
		p = 1
	}
	ok := b.src.Uniform01() < p
	if ok {
		b.accepted++
	}
	return ok
}

// Dispatcher selects a move kind by a weighted discrete distribution
// (spec.md §4.5/§4.6), generalizing systems/registry.go's flat named
// catalog with a cumulative-weight lookup.
type Dispatcher struct {
	moves      []Move
	cumWeights []float64
	src        rng.Source
}

// NewDispatcher builds a Dispatcher over moves, drawing selection
// draws from src. Call Finalize before Select.
func NewDispatcher(moves []Move, src rng.Source) *Dispatcher {
	return &Dispatcher{moves: append([]Move(nil), moves...), src: src}
}

// Finalize sorts moves by weight ascending, forms the cumulative
// distribution, and returns an error unless it sums to 1.0 within
// 1e-9 (spec.md §4.6).
func (d *Dispatcher) Finalize() error {
	sort.Slice(d.moves, func(i, j int) bool { return d.moves[i].Weight() < d.moves[j].Weight() })

	cum := make([]float64, len(d.moves))
	sum := 0.0
	for i, m := range d.moves {
		sum += m.Weight()
		cum[i] = sum
	}
	if len(cum) == 0 {
		return fmt.Errorf("move: dispatcher has no registered moves")
	}
	if math.Abs(cum[len(cum)-1]-1.0) > 1e-9 {
		return fmt.Errorf("move: weights sum to %g, want 1.0", cum[len(cum)-1])
	}
	d.cumWeights = cum
	return nil
}

// Select draws u ~ U(0,1) and returns moves[lower_bound(cumWeights, u)]
// (spec.md §4.6).
func (d *Dispatcher) Select() Move {
	u := d.src.Uniform01()
	idx := sort.SearchFloat64s(d.cumWeights, u)
	if idx >= len(d.moves) {
		idx = len(d.moves) - 1
	}
	return d.moves[idx]
}

// Moves returns the moves in dispatch (weight-sorted) order, used by
// the Simulator to report per-move acceptance ratios.
func (d *Dispatcher) Moves() []Move {
	return d.moves
}
