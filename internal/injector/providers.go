package injector

import (
	"context"
	"fmt"

	"github.com/google/wire"

	"github.com/zeusync/trackpilot/internal/config"
	"github.com/zeusync/trackpilot/internal/core/observability/log"
	"github.com/zeusync/trackpilot/internal/core/storage"
	"github.com/zeusync/trackpilot/internal/core/systems/physics"
	"github.com/zeusync/trackpilot/internal/core/systems/track"
	"github.com/zeusync/trackpilot/internal/core/training"
)

// App bundles everything the trainer binary works with.
type App struct {
	Config   *config.Config
	Log      log.Log
	Store    *storage.Store
	Scenario training.Scenario
	Harness  *training.Harness
}

var ProviderSet = wire.NewSet(
	ProvideLogger,
	wire.Bind(new(log.Log), new(*log.Logger)),
	ProvideStore,
	ProvideTrack,
	ProvideScenario,
	ProvideSettings,
	training.New,
	wire.Struct(new(App), "*"),
)

func ProvideLogger(cfg *config.Config) (*log.Logger, func(), error) {
	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	l, err := log.NewWithOptions(level, log.Options{Encoding: cfg.Log.Encoding})
	if err != nil {
		return nil, nil, err
	}
	return l, func() { _ = l.Sync() }, nil
}

// ProvideStore opens and migrates the configured database.
func ProvideStore(cfg *config.Config, logger log.Log) (*storage.Store, func(), error) {
	s, err := storage.Open(cfg.Storage.Driver, cfg.Storage.DSN, logger)
	if err != nil {
		return nil, nil, err
	}
	if err := s.Migrate(context.Background()); err != nil {
		_ = s.Close()
		return nil, nil, err
	}
	cleanup := func() {
		if err := s.Close(); err != nil {
			logger.Warn("closing store", log.Error(err))
		}
	}
	return s, cleanup, nil
}

// ProvideTrack loads the configured track image. No image means open space.
func ProvideTrack(cfg *config.Config) (*track.Track, error) {
	if cfg.Track.Image == "" {
		return nil, nil
	}
	t, err := track.Load(cfg.Track.Image, cfg.Track.Granularity)
	if err != nil {
		return nil, fmt.Errorf("track %s: %w", cfg.Track.Image, err)
	}
	return t, nil
}

func ProvideScenario(cfg *config.Config, t *track.Track) training.Scenario {
	return training.Scenario{
		Track:            t,
		TimeStep:         cfg.Simulation.TimeStep,
		Ticks:            cfg.Simulation.Ticks,
		TerminalSnapshot: cfg.Simulation.TerminalSnapshot,
		Car: training.CarSpec{
			Mass:     cfg.Car.Mass,
			XLength:  cfg.Car.XLength,
			YLength:  cfg.Car.YLength,
			MaxAccel: cfg.Car.MaxAccel,
			MaxTurn:  cfg.Car.MaxTurn,
			Start:    physics.Vec(cfg.Car.Start.X, cfg.Car.Start.Y),
		},
		Goal: physics.Vec(cfg.Training.Goal.X, cfg.Training.Goal.Y),
	}
}

func ProvideSettings(cfg *config.Config) training.Settings {
	t := cfg.Training
	return training.Settings{
		Seed:       t.Seed,
		Population: t.Population,
		TopK:       t.TopK,
		Copies:     t.Copies,
		Elites:     t.Elites,
		Mutation:   t.Mutation,
		Workers:    t.Workers,
		Shape:      t.Network,
	}
}
