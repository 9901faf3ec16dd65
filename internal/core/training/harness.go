// Package training evolves network policies by repeated evaluation on a
// track, keeping the best performers and mutating copies of them.
package training

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"github.com/zeusync/trackpilot/internal/core/npc"
	"github.com/zeusync/trackpilot/internal/core/observability/log"
	"github.com/zeusync/trackpilot/internal/core/simulation"
	"github.com/zeusync/trackpilot/internal/core/systems/physics"
	"github.com/zeusync/trackpilot/pkg/concurrent"
	"github.com/zeusync/trackpilot/pkg/sequence"
)

var ErrInvalidSettings = errors.New("invalid training settings")

// Settings controls population size and selection.
type Settings struct {
	Seed       int64
	Population int
	// TopK candidates survive each generation.
	TopK int
	// Copies mutated clones are made of every survivor.
	Copies int
	// Elites of the best survivors are carried over unmodified.
	Elites   int
	Mutation float64
	// Workers bounds concurrent evaluations; zero means GOMAXPROCS.
	Workers int
	Shape   npc.Shape
}

func (s Settings) validate() error {
	switch {
	case s.Population <= 0:
		return fmt.Errorf("%w: population %d", ErrInvalidSettings, s.Population)
	case s.TopK <= 0 || s.TopK > s.Population:
		return fmt.Errorf("%w: top %d of %d", ErrInvalidSettings, s.TopK, s.Population)
	case s.Copies < 0 || s.Elites < 0 || s.Elites > s.TopK:
		return fmt.Errorf("%w: %d copies, %d elites", ErrInvalidSettings, s.Copies, s.Elites)
	case s.TopK*s.Copies+s.Elites == 0:
		return fmt.Errorf("%w: next generation would be empty", ErrInvalidSettings)
	case s.Mutation < 0:
		return fmt.Errorf("%w: mutation %v", ErrInvalidSettings, s.Mutation)
	}
	return s.Shape.Validate()
}

// Candidate is one member of the population.
type Candidate struct {
	ID      uuid.UUID
	Network *npc.Network
}

// Result is the evaluation of one candidate. Index is the candidate's
// position in the evaluated population.
type Result struct {
	ID          uuid.UUID
	Index       int
	Score       float64
	Outcome     simulation.Outcome
	Final       physics.Vector2D
	Fingerprint uint64
	Trajectory  simulation.Trajectory
	Network     *npc.Network
}

// GenerationReport summarizes one generation. Results are ranked best first.
type GenerationReport struct {
	Generation int
	Best       Result
	Results    []Result
}

// Harness owns the population and the random stream used to create and
// mutate it. Given the same seed, settings and scenario, a harness produces
// the same sequence of reports however evaluations are scheduled.
type Harness struct {
	scenario Scenario
	settings Settings
	rng      *rand.Rand
	log      log.Log
	metrics  *metrics

	generation int
	population []Candidate
}

func New(scenario Scenario, settings Settings, logger log.Log) (*Harness, error) {
	if err := settings.validate(); err != nil {
		return nil, err
	}
	if scenario.Ticks <= 0 {
		return nil, fmt.Errorf("%w: %d ticks", ErrInvalidSettings, scenario.Ticks)
	}
	if logger == nil {
		logger = log.NewNop()
	}
	m, err := newMetrics()
	if err != nil {
		return nil, err
	}

	h := &Harness{
		scenario: scenario,
		settings: settings,
		rng:      rand.New(rand.NewSource(settings.Seed)),
		log:      logger.With(log.Int64("seed", settings.Seed)),
		metrics:  m,
	}

	h.population = make([]Candidate, settings.Population)
	for i := range h.population {
		net, err := npc.NewNetwork(h.rng, settings.Shape)
		if err != nil {
			return nil, err
		}
		h.population[i] = Candidate{ID: h.newID(), Network: net}
	}
	return h, nil
}

// newID draws identifiers from the harness stream so they repeat with the seed.
func (h *Harness) newID() uuid.UUID {
	id, err := uuid.NewRandomFromReader(h.rng)
	if err != nil {
		// math/rand readers never fail.
		panic(err)
	}
	return id
}

func (h *Harness) Generation() int { return h.generation }

// Population returns the current candidates. The networks are shared.
func (h *Harness) Population() []Candidate {
	return append([]Candidate(nil), h.population...)
}

// Evaluate simulates every candidate concurrently. Results are returned in
// population order.
func (h *Harness) Evaluate(ctx context.Context) ([]Result, error) {
	return concurrent.ParallelMap(ctx, sequence.From(h.population), h.settings.Workers,
		func(ctx context.Context, idx int, c Candidate) (Result, error) {
			policy, err := npc.NewNetworkPolicy(c.Network)
			if err != nil {
				return Result{}, fmt.Errorf("candidate %s: %w", c.ID, err)
			}
			run, err := h.scenario.Simulate(policy)
			if err != nil {
				return Result{}, fmt.Errorf("candidate %s: %w", c.ID, err)
			}

			r := h.scenario.Measure(run)
			r.ID = c.ID
			r.Index = idx
			r.Network = c.Network

			h.metrics.evaluations.Add(ctx, 1)
			if r.Outcome.Collision {
				h.metrics.collisions.Add(ctx, 1)
			}
			h.metrics.scores.Record(ctx, r.Score)
			return r, nil
		})
}

// Rank orders results by ascending score. Ties keep population order.
func Rank(results []Result) []Result {
	return sequence.From(results).
		Sort(func(a, b Result) bool { return a.Score < b.Score }).
		Collect()
}

// Breed builds the next population from ranked results: Copies mutated
// clones of each of the TopK best, followed by the Elites best unmodified.
func (h *Harness) Breed(ranked []Result) []Candidate {
	top := sequence.From(ranked).Take(h.settings.TopK).Collect()

	next := make([]Candidate, 0, len(top)*h.settings.Copies+h.settings.Elites)
	for _, r := range top {
		for i := 0; i < h.settings.Copies; i++ {
			child := r.Network.Clone()
			child.Mutate(h.rng, h.settings.Mutation)
			next = append(next, Candidate{ID: h.newID(), Network: child})
		}
	}
	elites := sequence.Map(sequence.From(top).Take(h.settings.Elites), func(r Result) Candidate {
		return Candidate{ID: r.ID, Network: r.Network.Clone()}
	})
	return append(next, elites.Collect()...)
}

// Step evaluates the current population, reports on it and replaces it with
// the next generation.
func (h *Harness) Step(ctx context.Context) (GenerationReport, error) {
	results, err := h.Evaluate(ctx)
	if err != nil {
		return GenerationReport{}, fmt.Errorf("generation %d: %w", h.generation, err)
	}
	ranked := Rank(results)
	report := GenerationReport{
		Generation: h.generation,
		Best:       ranked[0],
		Results:    ranked,
	}

	collisions := sequence.From(ranked).Filter(func(r Result) bool { return r.Outcome.Collision }).Count()
	h.log.Info("generation evaluated",
		log.Int("generation", h.generation),
		log.Int("population", len(ranked)),
		log.Int("collisions", collisions),
		log.Float64("best_score", report.Best.Score),
		log.String("best_id", report.Best.ID.String()),
		log.Int("best_ticks", report.Best.Outcome.Ticks),
	)
	h.metrics.generations.Add(ctx, 1)

	h.population = h.Breed(ranked)
	h.generation++
	return report, nil
}

// Run steps n generations, handing each report to onReport. It stops at the
// first error from either.
func (h *Harness) Run(ctx context.Context, n int, onReport func(GenerationReport) error) error {
	for i := 0; i < n; i++ {
		report, err := h.Step(ctx)
		if err != nil {
			return err
		}
		if onReport != nil {
			if err := onReport(report); err != nil {
				return err
			}
		}
	}
	return nil
}
