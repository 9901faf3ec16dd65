package training

import (
	"fmt"

	"github.com/zeusync/trackpilot/internal/core/simulation"
	"github.com/zeusync/trackpilot/internal/core/systems/physics"
	"github.com/zeusync/trackpilot/internal/core/systems/track"
	"github.com/zeusync/trackpilot/internal/core/systems/world"
)

// CarSpec describes the car every candidate drives.
type CarSpec struct {
	Mass     float64
	XLength  float64
	YLength  float64
	MaxAccel float64
	MaxTurn  float64
	Start    physics.Vector2D
}

// Scenario is the fixed setting a policy is evaluated in. The track is
// shared read-only between concurrent evaluations.
type Scenario struct {
	Track            *track.Track
	TimeStep         float64
	Ticks            int
	TerminalSnapshot bool
	Car              CarSpec
	Goal             physics.Vector2D
}

// Simulate runs one car driven by policy to completion. Every call builds a
// fresh world, so concurrent calls with distinct policies do not interact.
func (s Scenario) Simulate(policy physics.Policy) (*simulation.Run, error) {
	w, err := world.New(s.TimeStep, world.WithTrack(s.Track))
	if err != nil {
		return nil, err
	}
	car := physics.NewCar(s.Car.MaxAccel, s.Car.MaxTurn, policy)
	w.Add(physics.NewCarBody(s.Car.Mass, s.Car.XLength, s.Car.YLength, car), s.Car.Start)

	run, err := simulation.New(w,
		simulation.WithBudget(s.Ticks),
		simulation.WithTerminalSnapshot(s.TerminalSnapshot),
	)
	if err != nil {
		return nil, err
	}
	if _, err := run.Execute(); err != nil {
		return nil, fmt.Errorf("simulate: %w", err)
	}
	return run, nil
}

// Measure scores a finished run. The final position is the car's position in
// the world, which includes a colliding tick even when the trajectory leaves
// that snapshot out.
func (s Scenario) Measure(run *simulation.Run) Result {
	out, _ := run.Outcome()
	tr := run.Trajectory()
	final := run.World().Positions()[0]
	return Result{
		Score:       Score(s.Goal, final),
		Outcome:     out,
		Final:       final,
		Fingerprint: tr.Fingerprint(),
		Trajectory:  tr,
	}
}

// Score is the remaining Manhattan-style distance to the goal; lower is
// better. It goes negative once the car overshoots the goal on an axis.
func Score(goal, final physics.Vector2D) float64 {
	return (goal.X - final.X) + (goal.Y - final.Y)
}
