package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/trackpilot/internal/config"
	"github.com/zeusync/trackpilot/internal/core/npc"
	"github.com/zeusync/trackpilot/internal/injector"
)

func testApp(t *testing.T) *injector.App {
	t.Helper()
	cfg := config.Default()
	cfg.Storage.DSN = "file::memory:"
	cfg.Log.Level = "error"
	cfg.Simulation.Ticks = 150
	cfg.Training.Generations = 2
	cfg.Training.Population = 6
	cfg.Training.TopK = 2
	cfg.Training.Copies = 2
	cfg.Training.Elites = 1
	require.NoError(t, cfg.Validate())

	app, cleanup, err := injector.InitializeApp(cfg)
	require.NoError(t, err)
	t.Cleanup(cleanup)
	return app
}

func TestTrainThenReplay(t *testing.T) {
	app := testApp(t)
	ctx := context.Background()
	out := filepath.Join(t.TempDir(), "best.yaml")

	ids, err := train(ctx, app, out)
	require.NoError(t, err)
	require.Len(t, ids, 2)

	for _, id := range ids {
		res, err := replay(ctx, app, id)
		require.NoError(t, err)

		stored, err := app.Store.LoadRun(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, stored.Score, res.Score)
		assert.Equal(t, stored.Trajectory, res.Trajectory)
	}

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	net, err := npc.LoadYAML(f)
	require.NoError(t, err)
	assert.Equal(t, app.Config.Training.Network, net.Shape())

	best, err := app.Store.BestRuns(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, best, 2)
}
