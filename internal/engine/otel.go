package engine

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/gridcab/engine/internal/engine"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// metrics holds the engine's OTel counters. They come from the global
// meter provider and are no-ops unless the host installs an SDK.
type metrics struct {
	ticks        metric.Int64Counter
	pickups      metric.Int64Counter
	dropoffs     metric.Int64Counter
	outOfBattery metric.Int64Counter
	invalid      metric.Int64Counter
}

func newMetrics() (*metrics, error) {
	m := meter()
	var (
		out metrics
		err error
	)

	if out.ticks, err = m.Int64Counter("engine.ticks",
		metric.WithDescription("Simulation ticks executed")); err != nil {
		return nil, fmt.Errorf("creating ticks counter: %w", err)
	}
	if out.pickups, err = m.Int64Counter("engine.passenger.pickups",
		metric.WithDescription("Passengers picked up")); err != nil {
		return nil, fmt.Errorf("creating pickups counter: %w", err)
	}
	if out.dropoffs, err = m.Int64Counter("engine.passenger.dropoffs",
		metric.WithDescription("Passengers dropped off")); err != nil {
		return nil, fmt.Errorf("creating dropoffs counter: %w", err)
	}
	if out.outOfBattery, err = m.Int64Counter("engine.car.out_of_battery",
		metric.WithDescription("Cars that ran out of battery")); err != nil {
		return nil, fmt.Errorf("creating out-of-battery counter: %w", err)
	}
	if out.invalid, err = m.Int64Counter("engine.actions.invalid",
		metric.WithDescription("Agent actions rejected as invalid")); err != nil {
		return nil, fmt.Errorf("creating invalid-actions counter: %w", err)
	}

	return &out, nil
}

func (m *metrics) record(events *tickOutcome) {
	ctx := context.Background()
	m.ticks.Add(ctx, 1)
	m.pickups.Add(ctx, int64(events.pickups))
	m.dropoffs.Add(ctx, int64(events.dropoffs))
	m.outOfBattery.Add(ctx, int64(events.outOfBattery))
	m.invalid.Add(ctx, int64(events.invalid))
}

// tickOutcome is the per-tick delta fed into the counters.
type tickOutcome struct {
	pickups      int
	dropoffs     int
	outOfBattery int
	invalid      int
}
