package storage

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/trackpilot/internal/core/npc"
	"github.com/zeusync/trackpilot/internal/core/simulation"
	"github.com/zeusync/trackpilot/internal/core/systems/physics"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("sqlite", "file::memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func testRun(t *testing.T, score float64) *Run {
	t.Helper()
	net, err := npc.NewNetwork(rand.New(rand.NewSource(4)), npc.Shape{Inputs: 5, HiddenLayers: 1, HiddenNeurons: 3, Outputs: 2})
	require.NoError(t, err)
	g := net.Genome()

	tr := simulation.Trajectory{
		{physics.Vec(2, 4)},
		{physics.Vec(2.0001, 4.5)},
		{physics.Vec(0.1+0.2, 1e-300)},
	}
	return &Run{
		CandidateID: uuid.New(),
		Generation:  7,
		Score:       score,
		Outcome:     simulation.Outcome{Collision: true, Ticks: 2},
		Fingerprint: tr.Fingerprint(),
		Genome:      &g,
		Trajectory:  tr,
		CreatedAt:   time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open("mysql", "", nil)
	assert.ErrorIs(t, err, ErrUnknownDriver)
}

func TestSaveAndLoadRun(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run := testRun(t, 12.5)
	require.NoError(t, s.SaveRun(ctx, run))
	require.NotEqual(t, uuid.Nil, run.ID)

	got, err := s.LoadRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, run.CandidateID, got.CandidateID)
	assert.Equal(t, 7, got.Generation)
	assert.Equal(t, 12.5, got.Score)
	assert.Equal(t, run.Outcome, got.Outcome)
	assert.Equal(t, run.Fingerprint, got.Fingerprint)
	assert.Equal(t, run.Trajectory, got.Trajectory)
	assert.Equal(t, *run.Genome, *got.Genome)
	assert.True(t, run.CreatedAt.Equal(got.CreatedAt))

	net, err := got.Network()
	require.NoError(t, err)
	assert.Equal(t, run.Genome.Connections, net.Connections())
}

func TestLoadRunNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.LoadRun(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestLoadRunDetectsTampering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	run := testRun(t, 1)
	require.NoError(t, s.SaveRun(ctx, run))

	require.NoError(t, s.db.Model(&SnapshotRecord{}).
		Where("run_id = ? AND tick = ?", run.ID.String(), 1).
		Update("positions", `[[9,9]]`).Error)

	_, err := s.LoadRun(ctx, run.ID)
	assert.ErrorIs(t, err, ErrCorruptRun)
}

func TestBestRunsAndDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, score := range []float64{30, -4, 12} {
		require.NoError(t, s.SaveRun(ctx, testRun(t, score)))
	}

	best, err := s.BestRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, best, 2)
	assert.Equal(t, -4.0, best[0].Score)
	assert.Equal(t, 12.0, best[1].Score)
	assert.Nil(t, best[0].Trajectory)

	require.NoError(t, s.DeleteRun(ctx, best[0].ID))
	_, err = s.LoadRun(ctx, best[0].ID)
	assert.ErrorIs(t, err, ErrRunNotFound)
	assert.ErrorIs(t, s.DeleteRun(ctx, best[0].ID), ErrRunNotFound)

	var count int64
	require.NoError(t, s.db.Model(&SnapshotRecord{}).Where("run_id = ?", best[0].ID.String()).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRunWithoutGenome(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	run := testRun(t, 3)
	run.Genome = nil
	require.NoError(t, s.SaveRun(ctx, run))

	got, err := s.LoadRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Genome)
	_, err = got.Network()
	assert.ErrorIs(t, err, ErrMissingGenome)
}
