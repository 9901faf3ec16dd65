package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/zeusync/trackpilot/internal/core/npc"
	"github.com/zeusync/trackpilot/internal/core/observability/log"
	"github.com/zeusync/trackpilot/internal/core/storage"
	"github.com/zeusync/trackpilot/internal/core/training"
	"github.com/zeusync/trackpilot/internal/injector"
)

var errReplayMismatch = errors.New("replayed trajectory differs from the stored one")

// train runs the configured generations and stores the best run of each.
// It returns the IDs of the stored runs.
func train(ctx context.Context, app *injector.App, genomeOut string) ([]uuid.UUID, error) {
	var (
		saved []uuid.UUID
		best  *training.Result
	)
	err := app.Harness.Run(ctx, app.Config.Training.Generations, func(r training.GenerationReport) error {
		g := r.Best.Network.Genome()
		run := &storage.Run{
			ID:          uuid.New(),
			CandidateID: r.Best.ID,
			Generation:  r.Generation,
			Score:       r.Best.Score,
			Outcome:     r.Best.Outcome,
			Fingerprint: r.Best.Fingerprint,
			Genome:      &g,
			Trajectory:  r.Best.Trajectory,
		}
		if err := app.Store.SaveRun(ctx, run); err != nil {
			return err
		}
		saved = append(saved, run.ID)
		if best == nil || r.Best.Score < best.Score {
			b := r.Best
			best = &b
		}
		app.Log.Info("best run stored",
			log.Int("generation", r.Generation),
			log.String("run_id", run.ID.String()),
			log.Float64("score", r.Best.Score),
		)
		return nil
	})
	if err != nil {
		return saved, err
	}

	if genomeOut != "" && best != nil {
		if err := writeGenome(genomeOut, best.Network); err != nil {
			return saved, err
		}
	}
	return saved, nil
}

func writeGenome(path string, net *npc.Network) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := npc.SaveYAML(f, net); err != nil {
		_ = f.Close()
		return fmt.Errorf("write genome %s: %w", path, err)
	}
	return f.Close()
}

// replay re-simulates a stored run from its genome and checks that it
// reproduces the stored trajectory bit for bit.
func replay(ctx context.Context, app *injector.App, id uuid.UUID) (training.Result, error) {
	stored, err := app.Store.LoadRun(ctx, id)
	if err != nil {
		return training.Result{}, err
	}
	net, err := stored.Network()
	if err != nil {
		return training.Result{}, err
	}
	policy, err := npc.NewNetworkPolicy(net)
	if err != nil {
		return training.Result{}, err
	}
	sim, err := app.Scenario.Simulate(policy)
	if err != nil {
		return training.Result{}, err
	}

	res := app.Scenario.Measure(sim)
	res.ID = stored.CandidateID
	res.Network = net
	if res.Fingerprint != stored.Fingerprint || res.Outcome != stored.Outcome {
		return res, fmt.Errorf("%w: run %s stored %x, replayed %x", errReplayMismatch, id, stored.Fingerprint, res.Fingerprint)
	}
	return res, nil
}
