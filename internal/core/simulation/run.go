// Package simulation drives a world for a bounded number of ticks and records
// the trajectory of its bodies.
package simulation

import (
	"errors"
	"fmt"

	"github.com/zeusync/trackpilot/internal/core/systems/world"
)

// DefaultBudget is the number of ticks a run may take when no budget is given.
const DefaultBudget = 1000

var (
	ErrRunTerminated = errors.New("run already terminated")
	ErrInvalidBudget = errors.New("tick budget must be positive")
)

// State is the lifecycle state of a Run.
type State string

const (
	StateRunning    State = "running"
	StateTerminated State = "terminated"
	// StateFailed is terminal: a tick returned an error and the run has no outcome.
	StateFailed State = "failed"
)

// Outcome is the terminal result of a run. Ticks counts the ticks completed
// before the terminating one when a collision occurred, and the full budget
// otherwise.
type Outcome struct {
	Collision bool `json:"collision"`
	Ticks     int  `json:"ticks"`
}

// Option configures a Run.
type Option func(*Run)

// WithBudget sets the maximum number of ticks.
func WithBudget(ticks int) Option { return func(r *Run) { r.budget = ticks } }

// WithTerminalSnapshot controls whether the snapshot of the colliding tick is
// kept in the trajectory. Defaults to true.
func WithTerminalSnapshot(include bool) Option {
	return func(r *Run) { r.includeTerminal = include }
}

// Run owns a world and the trajectory recorded while stepping it.
type Run struct {
	world           *world.World
	budget          int
	includeTerminal bool

	state      State
	err        error
	ticks      int
	outcome    Outcome
	trajectory Trajectory
}

// New creates a run over w. The run takes ownership of the world.
func New(w *world.World, opts ...Option) (*Run, error) {
	r := &Run{
		world:           w,
		budget:          DefaultBudget,
		includeTerminal: true,
		state:           StateRunning,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.budget <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidBudget, r.budget)
	}
	r.trajectory = make(Trajectory, 0, r.budget)
	return r, nil
}

func (r *Run) World() *world.World { return r.world }
func (r *Run) State() State        { return r.state }
func (r *Run) Budget() int         { return r.budget }

// Ticks returns the number of ticks completed without collision so far.
func (r *Run) Ticks() int { return r.ticks }

// Trajectory returns the recorded snapshots. The slice must not be modified.
func (r *Run) Trajectory() Trajectory { return r.trajectory }

// Err returns the error that failed the run, or nil.
func (r *Run) Err() error { return r.err }

// Outcome returns the terminal outcome and whether the run has terminated.
// A failed run has no outcome.
func (r *Run) Outcome() (Outcome, bool) {
	return r.outcome, r.state == StateTerminated
}

// Tick advances the run by one tick. It reports whether the run terminated
// on this tick. An error from the world fails the run: the world keeps its
// pre-tick state, nothing is recorded, and later ticks return ErrRunTerminated.
func (r *Run) Tick() (bool, error) {
	switch r.state {
	case StateTerminated:
		return true, ErrRunTerminated
	case StateFailed:
		return true, fmt.Errorf("%w: %w", ErrRunTerminated, r.err)
	}

	res, err := r.world.Step()
	if err != nil {
		r.state = StateFailed
		r.err = fmt.Errorf("tick %d: %w", r.ticks+1, err)
		return true, r.err
	}

	if res.Collided {
		if r.includeTerminal {
			r.record()
		}
		r.terminate(true)
		return true, nil
	}

	r.record()
	r.ticks++
	if r.ticks >= r.budget {
		r.terminate(false)
		return true, nil
	}
	return false, nil
}

// Execute ticks until the run terminates.
func (r *Run) Execute() (Outcome, error) {
	for {
		done, err := r.Tick()
		if err != nil {
			return Outcome{}, err
		}
		if done {
			return r.outcome, nil
		}
	}
}

func (r *Run) record() {
	r.trajectory = append(r.trajectory, Snapshot(r.world.Positions()))
}

func (r *Run) terminate(collision bool) {
	r.state = StateTerminated
	r.outcome = Outcome{Collision: collision, Ticks: r.ticks}
}
