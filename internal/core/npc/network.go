package npc

import (
	"fmt"
	"math/rand"
)

const (
	// DefaultThreshold is the saturation at which a neuron fires.
	DefaultThreshold = 0.5
	// DefaultMaxFirings bounds the work of a single activation pass.
	DefaultMaxFirings = 10_000
)

// Shape describes a layered network. HiddenNeurons is split evenly across
// HiddenLayers, rounding down.
type Shape struct {
	Inputs        int `json:"inputs" yaml:"inputs" mapstructure:"inputs"`
	HiddenLayers  int `json:"hidden_layers" yaml:"hidden_layers" mapstructure:"hidden_layers"`
	HiddenNeurons int `json:"hidden_neurons" yaml:"hidden_neurons" mapstructure:"hidden_neurons"`
	Outputs       int `json:"outputs" yaml:"outputs" mapstructure:"outputs"`
}

// Validate checks that the shape produces a connected network.
func (s Shape) Validate() error {
	if s.Inputs <= 0 {
		return fmt.Errorf("network needs at least one input, got %d", s.Inputs)
	}
	if s.Outputs <= 0 {
		return fmt.Errorf("network needs at least one output, got %d", s.Outputs)
	}
	if s.HiddenLayers < 0 {
		return fmt.Errorf("hidden layer count cannot be negative, got %d", s.HiddenLayers)
	}
	if s.HiddenLayers > 0 && s.HiddenNeurons/s.HiddenLayers == 0 {
		return fmt.Errorf("%d hidden neurons cannot fill %d layers", s.HiddenNeurons, s.HiddenLayers)
	}
	return nil
}

// Connection carries Strength from neuron From to neuron To.
type Connection struct {
	From     int     `json:"from" yaml:"from"`
	To       int     `json:"to" yaml:"to"`
	Strength float64 `json:"strength" yaml:"strength"`
}

// Network is a layered threshold network. Neurons accumulate the strength of
// every connection that fires into them and fire themselves each time a
// delivery leaves them at or above their threshold.
//
// Activation runs breadth-first over an explicit queue, so cyclic wiring
// cannot recurse; MaxFirings caps the total number of firings per pass.
//
// A Network keeps per-pass saturation and is not safe for concurrent use.
type Network struct {
	shape      Shape
	thresholds []float64
	conns      []Connection
	fanout     [][]int
	saturation []float64
	outputs    int

	MaxFirings int
}

// NewNetwork builds a fully connected feed-forward network with strengths
// drawn from rng in [0, 1).
func NewNetwork(rng *rand.Rand, shape Shape) (*Network, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}

	layers := [][]int{}
	next := 0
	layer := func(size int) []int {
		ids := make([]int, size)
		for i := range ids {
			ids[i] = next
			next++
		}
		layers = append(layers, ids)
		return ids
	}

	layer(shape.Inputs)
	for i := 0; i < shape.HiddenLayers; i++ {
		layer(shape.HiddenNeurons / shape.HiddenLayers)
	}
	layer(shape.Outputs)

	var conns []Connection
	for l := 1; l < len(layers); l++ {
		for _, from := range layers[l-1] {
			for _, to := range layers[l] {
				conns = append(conns, Connection{From: from, To: to, Strength: rng.Float64()})
			}
		}
	}

	thresholds := make([]float64, next)
	for i := range thresholds {
		thresholds[i] = DefaultThreshold
	}
	return assemble(shape, thresholds, conns)
}

func assemble(shape Shape, thresholds []float64, conns []Connection) (*Network, error) {
	n := len(thresholds)
	fanout := make([][]int, n)
	for i, c := range conns {
		if c.From < 0 || c.From >= n || c.To < 0 || c.To >= n {
			return nil, fmt.Errorf("connection %d (%d -> %d) references a missing neuron", i, c.From, c.To)
		}
		fanout[c.From] = append(fanout[c.From], i)
	}
	if shape.Inputs+shape.Outputs > n {
		return nil, fmt.Errorf("%d neurons cannot hold %d inputs and %d outputs", n, shape.Inputs, shape.Outputs)
	}
	return &Network{
		shape:      shape,
		thresholds: thresholds,
		conns:      conns,
		fanout:     fanout,
		saturation: make([]float64, n),
		outputs:    shape.Outputs,
		MaxFirings: DefaultMaxFirings,
	}, nil
}

func (n *Network) Shape() Shape { return n.shape }
func (n *Network) Size() int    { return len(n.thresholds) }

// Connections returns a copy of the wiring.
func (n *Network) Connections() []Connection { return append([]Connection(nil), n.conns...) }

// Threshold returns the firing threshold of neuron i.
func (n *Network) Threshold(i int) float64 { return n.thresholds[i] }

// OutputThreshold returns the threshold of output neuron i.
func (n *Network) OutputThreshold(i int) float64 {
	return n.thresholds[len(n.thresholds)-n.outputs+i]
}

// Reset clears all accumulated saturation.
func (n *Network) Reset() {
	for i := range n.saturation {
		n.saturation[i] = 0
	}
}

// Activate runs one pass. Each input value is added to the saturation of the
// matching input neuron; missing inputs count as zero and extra ones are
// ignored. It returns the saturation of every output neuron and the number of
// firings the pass used.
func (n *Network) Activate(inputs []float64) ([]float64, int) {
	n.Reset()

	queue := make([]int, 0, len(n.thresholds))
	for i := 0; i < n.shape.Inputs && i < len(inputs); i++ {
		n.saturation[i] += inputs[i]
		if n.saturation[i] >= n.thresholds[i] {
			queue = append(queue, i)
		}
	}

	firings := 0
	for len(queue) > 0 && firings < n.MaxFirings {
		id := queue[0]
		queue = queue[1:]
		firings++
		for _, ci := range n.fanout[id] {
			c := n.conns[ci]
			n.saturation[c.To] += c.Strength
			if n.saturation[c.To] >= n.thresholds[c.To] {
				queue = append(queue, c.To)
			}
		}
	}

	out := make([]float64, n.outputs)
	copy(out, n.saturation[len(n.saturation)-n.outputs:])
	return out, firings
}

// Mutate shifts every connection strength by a uniform draw from
// [-amount, amount).
func (n *Network) Mutate(rng *rand.Rand, amount float64) {
	for i := range n.conns {
		n.conns[i].Strength += (rng.Float64()*2 - 1) * amount
	}
}

// Clone returns an independent deep copy.
func (n *Network) Clone() *Network {
	c, err := assemble(n.shape, append([]float64(nil), n.thresholds...), n.Connections())
	if err != nil {
		// n was assembled from the same data.
		panic(err)
	}
	c.MaxFirings = n.MaxFirings
	return c
}
