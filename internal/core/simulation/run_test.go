package simulation

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/trackpilot/internal/core/npc"
	"github.com/zeusync/trackpilot/internal/core/systems/physics"
	"github.com/zeusync/trackpilot/internal/core/systems/world"
)

func newWorld(t *testing.T, opts ...world.Option) *world.World {
	t.Helper()
	w, err := world.New(world.DefaultTimeStep, opts...)
	require.NoError(t, err)
	return w
}

func TestRunWithoutTrackExhaustsBudget(t *testing.T) {
	w := newWorld(t)
	car := physics.NewCar(20, 200, npc.NewRandomPolicy(rand.New(rand.NewSource(1))))
	w.Add(physics.NewCarBody(10, 20, 20, car, physics.WithForce(physics.Polar(1, 1))), physics.Vec(0, 0))

	run, err := New(w, WithBudget(250))
	require.NoError(t, err)

	out, err := run.Execute()
	require.NoError(t, err)
	assert.Equal(t, Outcome{Collision: false, Ticks: 250}, out)
	assert.Len(t, run.Trajectory(), 250)
	assert.Equal(t, StateTerminated, run.State())

	got, done := run.Outcome()
	assert.True(t, done)
	assert.Equal(t, out, got)
}

func TestRunDefaultBudget(t *testing.T) {
	w := newWorld(t)
	w.Add(physics.NewBody(1), physics.Vec(0, 0))
	run, err := New(w)
	require.NoError(t, err)
	assert.Equal(t, DefaultBudget, run.Budget())

	out, err := run.Execute()
	require.NoError(t, err)
	assert.Equal(t, Outcome{Ticks: 1000}, out)
}

func TestRunRejectsBadBudget(t *testing.T) {
	_, err := New(newWorld(t), WithBudget(0))
	assert.ErrorIs(t, err, ErrInvalidBudget)
}

// wallWorld puts a body moving +X at one cell per tick into a corridor whose
// fourth column is a wall, so the third tick collides.
func wallWorld(t *testing.T) *world.World {
	t.Helper()
	w, err := world.New(1, world.WithGrid([][]uint8{{0, 0, 0, 1}}, 1))
	require.NoError(t, err)
	w.Add(physics.NewBody(1, physics.WithVelocity(physics.Vec(1, 0))), physics.Vec(0.5, 0.5))
	return w
}

func TestRunCollisionIncludesTerminalSnapshot(t *testing.T) {
	run, err := New(wallWorld(t), WithBudget(100))
	require.NoError(t, err)

	out, err := run.Execute()
	require.NoError(t, err)
	assert.Equal(t, Outcome{Collision: true, Ticks: 2}, out)
	require.Len(t, run.Trajectory(), 3)
	assert.Equal(t, Snapshot{physics.Vec(3.5, 0.5)}, run.Trajectory().Final())
}

func TestRunCollisionExcludesTerminalSnapshot(t *testing.T) {
	run, err := New(wallWorld(t), WithBudget(100), WithTerminalSnapshot(false))
	require.NoError(t, err)

	out, err := run.Execute()
	require.NoError(t, err)
	assert.Equal(t, Outcome{Collision: true, Ticks: 2}, out)
	require.Len(t, run.Trajectory(), 2)
	assert.Equal(t, Snapshot{physics.Vec(2.5, 0.5)}, run.Trajectory().Final())
}

func TestRunImmediateCollision(t *testing.T) {
	w, err := world.New(1, world.WithGrid([][]uint8{{0}}, 1))
	require.NoError(t, err)
	w.Add(physics.NewBody(1), physics.Vec(-3, 0))

	run, err := New(w)
	require.NoError(t, err)
	out, err := run.Execute()
	require.NoError(t, err)
	assert.Equal(t, Outcome{Collision: true, Ticks: 0}, out)
}

func TestTickAfterTermination(t *testing.T) {
	run, err := New(wallWorld(t), WithBudget(1))
	require.NoError(t, err)

	done, err := run.Tick()
	require.NoError(t, err)
	assert.True(t, done)

	before := run.Trajectory().Fingerprint()
	done, err = run.Tick()
	assert.True(t, done)
	assert.ErrorIs(t, err, ErrRunTerminated)
	assert.Equal(t, before, run.Trajectory().Fingerprint())
	assert.Len(t, run.Trajectory(), 1)
}

func TestRunSurfacesInvalidCommand(t *testing.T) {
	w := newWorld(t)
	bad := physics.PolicyFunc(func(physics.Readings) physics.Command { return physics.Command{Acceleration: -1.5} })
	w.Add(physics.NewCarBody(10, 1, 1, physics.NewCar(20, 200, bad)), physics.Vec(0, 0))

	run, err := New(w)
	require.NoError(t, err)
	_, err = run.Execute()
	assert.ErrorIs(t, err, physics.ErrInvalidControlCommand)
}

func TestRunFailsOnInvalidCommand(t *testing.T) {
	calls := 0
	flaky := physics.PolicyFunc(func(physics.Readings) physics.Command {
		calls++
		if calls == 2 {
			return physics.Command{Turn: 5}
		}
		return physics.Command{Acceleration: 1}
	})
	w, err := world.New(1)
	require.NoError(t, err)
	w.Add(physics.NewCarBody(10, 1, 1, physics.NewCar(10, 0, flaky), physics.WithVelocity(physics.Vec(1, 0))), physics.Vec(0, 0))

	run, err := New(w, WithBudget(10))
	require.NoError(t, err)

	done, err := run.Tick()
	require.NoError(t, err)
	require.False(t, done)
	afterFirst, _ := w.Body(0)
	force := afterFirst.Force
	positions := w.Positions()

	done, err = run.Tick()
	assert.True(t, done)
	assert.ErrorIs(t, err, physics.ErrInvalidControlCommand)
	assert.Equal(t, StateFailed, run.State())
	assert.ErrorIs(t, run.Err(), physics.ErrInvalidControlCommand)
	assert.Equal(t, positions, w.Positions())
	assert.Equal(t, force, afterFirst.Force)

	_, err = run.Tick()
	assert.ErrorIs(t, err, ErrRunTerminated)
	assert.ErrorIs(t, err, physics.ErrInvalidControlCommand)
	assert.Len(t, run.Trajectory(), 1)
	assert.Equal(t, 1, run.Ticks())
	assert.Equal(t, positions, w.Positions())

	_, ok := run.Outcome()
	assert.False(t, ok)
}

func TestDeterminism(t *testing.T) {
	runOnce := func(seed int64) (Outcome, Trajectory) {
		cells := make([][]uint8, 60)
		for i := range cells {
			cells[i] = make([]uint8, 60)
		}
		w, err := world.New(world.DefaultTimeStep, world.WithGrid(cells, 1))
		require.NoError(t, err)
		for i := 0; i < 3; i++ {
			car := physics.NewCar(20, 200, npc.NewRandomPolicy(rand.New(rand.NewSource(seed+int64(i)))))
			w.Add(physics.NewCarBody(10, 2, 2, car, physics.WithForce(physics.Polar(1, 1))), physics.Vec(30, 30))
		}
		run, err := New(w, WithBudget(500))
		require.NoError(t, err)
		out, err := run.Execute()
		require.NoError(t, err)
		return out, run.Trajectory()
	}

	outA, trA := runOnce(42)
	outB, trB := runOnce(42)
	assert.Equal(t, outA, outB)
	assert.Equal(t, trA.Fingerprint(), trB.Fingerprint())
	assert.Equal(t, trA, trB)

	a, err := json.Marshal(trA)
	require.NoError(t, err)
	b, err := json.Marshal(trB)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestTrajectoryHelpers(t *testing.T) {
	tr := Trajectory{
		{physics.Vec(0, 0), physics.Vec(1, 1)},
		{physics.Vec(0, 1), physics.Vec(2, 2)},
	}
	assert.Equal(t, []physics.Vector2D{physics.Vec(1, 1), physics.Vec(2, 2)}, tr.Body(1))
	assert.Equal(t, Snapshot{physics.Vec(0, 1), physics.Vec(2, 2)}, tr.Final())
	assert.Nil(t, Trajectory(nil).Final())

	other := Trajectory{
		{physics.Vec(0, 0), physics.Vec(1, 1)},
		{physics.Vec(0, 1), physics.Vec(2, 2.0000000001)},
	}
	assert.NotEqual(t, tr.Fingerprint(), other.Fingerprint())

	data, err := json.Marshal(tr)
	require.NoError(t, err)
	assert.JSONEq(t, `[[[0,0],[1,1]],[[0,1],[2,2]]]`, string(data))

	var back Trajectory
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, tr, back)
}
