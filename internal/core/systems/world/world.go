// Package world advances a set of bodies over an optional track in fixed
// time steps.
//
// Each Step runs three passes:
//
//  1. Motion pass - every body integrates its velocity and a new position is
//     computed by explicit Euler from its previous position. New positions are
//     collected separately and committed together at the end of the step.
//
//  2. Control pass - every Controlled body runs its control hook against its
//     current, not yet replaced, position and the world.
//
//  3. Collision pass - the new positions are committed and tested against
//     the track.
package world

import (
	"errors"
	"fmt"
	"math"

	"github.com/zeusync/trackpilot/internal/core/systems/physics"
	"github.com/zeusync/trackpilot/internal/core/systems/track"
)

// DefaultTimeStep is the tick length in seconds.
const DefaultTimeStep = 0.01

var ErrInvalidTimeStep = errors.New("time step must be finite and positive")

type entry struct {
	body     *physics.Body
	position physics.Vector2D
}

// World owns its bodies and their positions. Registration order is stable
// and is the order used by every snapshot.
type World struct {
	entries []entry
	dt      float64
	track   *track.Track
}

var _ physics.Environment = (*World)(nil)

// Option configures a World at construction.
type Option func(*options) error

type options struct {
	track *track.Track
}

// WithTrack collides bodies against an already validated track.
func WithTrack(t *track.Track) Option {
	return func(o *options) error {
		o.track = t
		return nil
	}
}

// WithGrid validates a raw occupancy grid and uses it as the track.
func WithGrid(cells [][]uint8, granularity float64) Option {
	return func(o *options) error {
		t, err := track.New(cells, granularity)
		if err != nil {
			return err
		}
		o.track = t
		return nil
	}
}

// New creates an empty world with the given time step.
func New(dt float64, opts ...Option) (*World, error) {
	if !(dt > 0) || math.IsInf(dt, 1) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidTimeStep, dt)
	}
	var o options
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, fmt.Errorf("building world: %w", err)
		}
	}
	return &World{dt: dt, track: o.track}, nil
}

// Add registers a body at a position and returns its index.
func (w *World) Add(body *physics.Body, position physics.Vector2D) int {
	w.entries = append(w.entries, entry{body: body, position: position})
	return len(w.entries) - 1
}

func (w *World) TimeStep() float64   { return w.dt }
func (w *World) Track() *track.Track { return w.track }
func (w *World) Len() int            { return len(w.entries) }

// Body returns the body and position at index i.
func (w *World) Body(i int) (*physics.Body, physics.Vector2D) {
	e := w.entries[i]
	return e.body, e.position
}

// Positions returns the current position of every body in registration order.
func (w *World) Positions() []physics.Vector2D {
	out := make([]physics.Vector2D, len(w.entries))
	for i, e := range w.entries {
		out[i] = e.position
	}
	return out
}

// Occupied implements physics.Environment. A world without a track is open space.
func (w *World) Occupied(p physics.Vector2D) bool {
	if w.track == nil {
		return false
	}
	return w.track.Occupied(p)
}

// StepResult reports the collision pass of one Step.
type StepResult struct {
	Collided bool
	// Colliding holds the indices of colliding bodies in registration order.
	Colliding []int
}

// Step advances the world by one tick. If a control hook fails, every body
// is restored to its pre-step state and no position is committed.
func (w *World) Step() (StepResult, error) {
	saved := make([]physics.State, len(w.entries))
	for i, e := range w.entries {
		saved[i] = e.body.State
	}

	next := w.move()
	if err := w.control(); err != nil {
		for i, e := range w.entries {
			e.body.State = saved[i]
		}
		return StepResult{}, err
	}
	w.entries = next
	return w.DetectCollisions(), nil
}

// move runs the motion pass and returns the new entries without committing them.
func (w *World) move() []entry {
	next := make([]entry, len(w.entries))
	for i, e := range w.entries {
		e.body.Integrate(w.dt)
		next[i] = entry{
			body:     e.body,
			position: e.position.Add(e.body.Velocity.Scale(w.dt)),
		}
	}
	return next
}

// control runs the control pass against the positions held before the step.
func (w *World) control() error {
	for i, e := range w.entries {
		c, ok := e.body.Control.Controller()
		if !ok {
			continue
		}
		if err := c.Act(e.body, e.position, w); err != nil {
			return fmt.Errorf("body %d control: %w", i, err)
		}
	}
	return nil
}

// DetectCollisions tests every current position against the track.
func (w *World) DetectCollisions() StepResult {
	var res StepResult
	if w.track == nil {
		return res
	}
	for i, e := range w.entries {
		if w.track.Occupied(e.position) {
			res.Collided = true
			res.Colliding = append(res.Colliding, i)
		}
	}
	return res
}
