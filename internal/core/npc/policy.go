// Package npc provides the policies that drive cars: a seeded random policy
// and a threshold network that can be evolved by the training harness.
package npc

import (
	"math/rand"

	"github.com/zeusync/trackpilot/internal/core/systems/physics"
)

// RandomPolicy ignores its readings and draws turn and acceleration
// uniformly from [0, 1). The generator is borrowed, so a seeded source
// makes the decision sequence reproducible.
type RandomPolicy struct {
	rng *rand.Rand
}

var _ physics.Policy = (*RandomPolicy)(nil)

func NewRandomPolicy(rng *rand.Rand) *RandomPolicy {
	return &RandomPolicy{rng: rng}
}

func (p *RandomPolicy) Decide(physics.Readings) physics.Command {
	turn := p.rng.Float64()
	accel := p.rng.Float64()
	return physics.Command{Turn: turn, Acceleration: accel}
}

// Recorder wraps a policy and keeps every decision it makes.
type Recorder struct {
	Policy    physics.Policy
	Readings  []physics.Readings
	Decisions []physics.Command
}

func (r *Recorder) Decide(in physics.Readings) physics.Command {
	cmd := r.Policy.Decide(in)
	r.Readings = append(r.Readings, in)
	r.Decisions = append(r.Decisions, cmd)
	return cmd
}

// Replay returns recorded commands in order and then holds the last one.
type Replay struct {
	Commands []physics.Command
	next     int
}

func (r *Replay) Decide(physics.Readings) physics.Command {
	if len(r.Commands) == 0 {
		return physics.Command{}
	}
	i := r.next
	if i >= len(r.Commands) {
		i = len(r.Commands) - 1
	} else {
		r.next++
	}
	return r.Commands[i]
}
