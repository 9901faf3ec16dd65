// Package config loads trainer settings from defaults, an optional YAML file
// and TRACKPILOT_ environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/spf13/viper"

	"github.com/zeusync/trackpilot/internal/core/npc"
	"github.com/zeusync/trackpilot/internal/core/observability/log"
)

// EnvPrefix prefixes every environment override, e.g. TRACKPILOT_TRAINING_SEED.
const EnvPrefix = "TRACKPILOT"

type Point struct {
	X float64 `mapstructure:"x"`
	Y float64 `mapstructure:"y"`
}

type SimulationConfig struct {
	TimeStep         float64 `mapstructure:"time_step"`
	Ticks            int     `mapstructure:"ticks"`
	TerminalSnapshot bool    `mapstructure:"terminal_snapshot"`
}

type CarConfig struct {
	Mass     float64 `mapstructure:"mass"`
	XLength  float64 `mapstructure:"x_length"`
	YLength  float64 `mapstructure:"y_length"`
	MaxAccel float64 `mapstructure:"max_accel"`
	MaxTurn  float64 `mapstructure:"max_turn"`
	Start    Point   `mapstructure:"start"`
}

type TrackConfig struct {
	// Image is a PNG, GIF, JPEG or BMP file; non-white pixels are walls.
	Image       string  `mapstructure:"image"`
	Granularity float64 `mapstructure:"granularity"`
}

type TrainingConfig struct {
	Seed        int64     `mapstructure:"seed"`
	Generations int       `mapstructure:"generations"`
	Population  int       `mapstructure:"population"`
	TopK        int       `mapstructure:"top_k"`
	Copies      int       `mapstructure:"copies"`
	Elites      int       `mapstructure:"elites"`
	Mutation    float64   `mapstructure:"mutation"`
	Workers     int       `mapstructure:"workers"`
	Goal        Point     `mapstructure:"goal"`
	Network     npc.Shape `mapstructure:"network"`
}

type StorageConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type LogConfig struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

type Config struct {
	Simulation SimulationConfig `mapstructure:"simulation"`
	Car        CarConfig        `mapstructure:"car"`
	Track      TrackConfig      `mapstructure:"track"`
	Training   TrainingConfig   `mapstructure:"training"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Log        LogConfig        `mapstructure:"log"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("simulation.time_step", 0.01)
	v.SetDefault("simulation.ticks", 1000)
	v.SetDefault("simulation.terminal_snapshot", true)

	v.SetDefault("car.mass", 10.0)
	v.SetDefault("car.x_length", 20.0)
	v.SetDefault("car.y_length", 20.0)
	v.SetDefault("car.max_accel", 20.0)
	v.SetDefault("car.max_turn", 200.0)
	v.SetDefault("car.start.x", 2.0)
	v.SetDefault("car.start.y", 4.0)

	v.SetDefault("track.image", "")
	v.SetDefault("track.granularity", 1.0)

	v.SetDefault("training.seed", 1)
	v.SetDefault("training.generations", 10)
	v.SetDefault("training.population", 16)
	v.SetDefault("training.top_k", 5)
	v.SetDefault("training.copies", 3)
	v.SetDefault("training.elites", 3)
	v.SetDefault("training.mutation", 0.1)
	v.SetDefault("training.workers", 0)
	v.SetDefault("training.goal.x", 500.0)
	v.SetDefault("training.goal.y", 500.0)
	v.SetDefault("training.network.inputs", 5)
	v.SetDefault("training.network.hidden_layers", 3)
	v.SetDefault("training.network.hidden_neurons", 15)
	v.SetDefault("training.network.outputs", 2)

	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.dsn", "trackpilot.db")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "json")
}

// Default returns the configuration with no file and no environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Defaults always decode.
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Load reads path, which may be empty, and applies environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Simulation.TimeStep > 0 && !math.IsInf(c.Simulation.TimeStep, 1),
		"simulation.time_step must be positive, got %v", c.Simulation.TimeStep)
	check(c.Simulation.Ticks > 0, "simulation.ticks must be positive, got %d", c.Simulation.Ticks)

	check(c.Car.Mass > 0, "car.mass must be positive, got %v", c.Car.Mass)
	check(c.Car.XLength >= 0 && c.Car.YLength >= 0, "car extents cannot be negative")

	check(c.Track.Granularity > 0, "track.granularity must be positive, got %v", c.Track.Granularity)

	t := c.Training
	check(t.Generations > 0, "training.generations must be positive, got %d", t.Generations)
	check(t.Population > 0, "training.population must be positive, got %d", t.Population)
	check(t.TopK > 0 && t.TopK <= t.Population,
		"training.top_k must be in [1, %d], got %d", t.Population, t.TopK)
	check(t.Copies >= 0, "training.copies cannot be negative, got %d", t.Copies)
	check(t.Elites >= 0 && t.Elites <= t.TopK,
		"training.elites must be in [0, %d], got %d", t.TopK, t.Elites)
	check(t.TopK*t.Copies+t.Elites > 0, "training would produce an empty generation")
	check(t.Mutation >= 0, "training.mutation cannot be negative, got %v", t.Mutation)
	check(t.Workers >= 0, "training.workers cannot be negative, got %d", t.Workers)
	if err := t.Network.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("training.network: %w", err))
	}

	switch c.Storage.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("storage.driver must be sqlite or postgres, got %q", c.Storage.Driver))
	}

	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}

	return errors.Join(errs...)
}
