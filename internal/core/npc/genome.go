package npc

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Genome is the serializable form of a Network. Neurons are numbered with
// inputs first and outputs last.
type Genome struct {
	Shape       Shape        `json:"shape" yaml:"shape"`
	Thresholds  []float64    `json:"thresholds" yaml:"thresholds"`
	Connections []Connection `json:"connections" yaml:"connections"`
	MaxFirings  int          `json:"max_firings,omitempty" yaml:"max_firings,omitempty"`
}

// Genome captures the network's wiring.
func (n *Network) Genome() Genome {
	return Genome{
		Shape:       n.shape,
		Thresholds:  append([]float64(nil), n.thresholds...),
		Connections: n.Connections(),
		MaxFirings:  n.MaxFirings,
	}
}

// Build reconstructs a Network from the genome.
func (g Genome) Build() (*Network, error) {
	if g.Shape.Inputs <= 0 || g.Shape.Outputs <= 0 {
		return nil, fmt.Errorf("genome shape needs inputs and outputs, got %+v", g.Shape)
	}
	n, err := assemble(g.Shape, append([]float64(nil), g.Thresholds...), append([]Connection(nil), g.Connections...))
	if err != nil {
		return nil, fmt.Errorf("invalid genome: %w", err)
	}
	if g.MaxFirings > 0 {
		n.MaxFirings = g.MaxFirings
	}
	return n, nil
}

// LoadYAML reads a genome from YAML and builds its network.
func LoadYAML(r io.Reader) (*Network, error) {
	var g Genome
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&g); err != nil {
		return nil, err
	}
	return g.Build()
}

// SaveYAML writes the network's genome as YAML.
func SaveYAML(w io.Writer, n *Network) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(n.Genome()); err != nil {
		return err
	}
	return enc.Close()
}

// LoadJSON reads a genome from JSON and builds its network.
func LoadJSON(r io.Reader) (*Network, error) {
	var g Genome
	dec := json.NewDecoder(r)
	if err := dec.Decode(&g); err != nil {
		return nil, err
	}
	return g.Build()
}
