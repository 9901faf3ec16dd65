package training

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/zeusync/trackpilot/internal/core/training"

type metrics struct {
	evaluations metric.Int64Counter
	collisions  metric.Int64Counter
	generations metric.Int64Counter
	scores      metric.Float64Histogram
}

// newMetrics registers instruments on the global meter provider, which is a
// no-op unless the binary installs one.
func newMetrics() (*metrics, error) {
	m := otel.Meter(instrumentationName)
	var (
		out metrics
		err error
	)

	out.evaluations, err = m.Int64Counter(
		"training.evaluations",
		metric.WithDescription("Candidate simulations completed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating evaluations counter: %w", err)
	}

	out.collisions, err = m.Int64Counter(
		"training.collisions",
		metric.WithDescription("Candidate simulations that ended against a wall"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating collisions counter: %w", err)
	}

	out.generations, err = m.Int64Counter(
		"training.generations",
		metric.WithDescription("Generations completed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating generations counter: %w", err)
	}

	out.scores, err = m.Float64Histogram(
		"training.score",
		metric.WithDescription("Distance left to the goal at the end of a run"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating score histogram: %w", err)
	}

	return &out, nil
}
