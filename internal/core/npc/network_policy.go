package npc

import (
	"fmt"
	"math"

	"github.com/zeusync/trackpilot/internal/core/systems/physics"
)

// NetworkPolicy steers a car with a Network. Readings are scaled into [0, 1]
// and fed to the input neurons; the first two outputs become turn and
// acceleration through tanh(saturation - threshold), which always lies
// within [-1, 1].
type NetworkPolicy struct {
	net *Network
}

var _ physics.Policy = (*NetworkPolicy)(nil)

// NewNetworkPolicy checks that net has one input per sensor and at least two outputs.
func NewNetworkPolicy(net *Network) (*NetworkPolicy, error) {
	s := net.Shape()
	if s.Inputs != physics.SensorCount {
		return nil, fmt.Errorf("network has %d inputs, want %d", s.Inputs, physics.SensorCount)
	}
	if s.Outputs < 2 {
		return nil, fmt.Errorf("network has %d outputs, want at least 2", s.Outputs)
	}
	return &NetworkPolicy{net: net}, nil
}

func (p *NetworkPolicy) Network() *Network { return p.net }

func (p *NetworkPolicy) Decide(r physics.Readings) physics.Command {
	inputs := make([]float64, len(r))
	for i, v := range r {
		inputs[i] = v / physics.SensorRange
	}
	out, _ := p.net.Activate(inputs)
	return physics.Command{
		Turn:         squash(out[0] - p.net.OutputThreshold(0)),
		Acceleration: squash(out[1] - p.net.OutputThreshold(1)),
	}
}

// squash maps any value into [-1, 1]; NaN maps to 0.
func squash(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Tanh(v)
}
