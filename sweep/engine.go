// Package sweep drives the slew×load characterization grid: one concurrent
// task per grid point, a two-pass oracle protocol per task, and a strict
// join before raw measurements are aggregated into derived metrics.
package sweep

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/cellchar/cellchar/harness"
	"github.com/cellchar/cellchar/metrics"
	"github.com/cellchar/cellchar/sim"
	"github.com/cellchar/cellchar/types"
)

// DefaultConcurrency is the grid worker count when none is configured.
const DefaultConcurrency = 4

// Config configures an Engine.
type Config struct {
	// Settings supplies thresholds, rails and units for every sweep.
	Settings types.Settings
	// Concurrency is the number of grid workers per sweep; zero or negative
	// selects DefaultConcurrency.
	Concurrency int
	Logger      log.Logger
	Progress    ProgressIndicator
	// Artifacts receives every completed arc result; nil discards them.
	Artifacts ArtifactSink
}

// Engine runs characterization sweeps against a simulation oracle.
type Engine struct {
	oracle      sim.Oracle
	settings    types.Settings
	concurrency int
	log         log.Logger
	tracer      trace.Tracer
	progress    ProgressIndicator
	artifacts   ArtifactSink
}

// NewEngine validates the settings (the logic-threshold window in particular,
// which every slew computation divides by) and builds an engine.
func NewEngine(oracle sim.Oracle, cfg Config) (*Engine, error) {
	if oracle == nil {
		return nil, fmt.Errorf("oracle cannot be nil")
	}
	if err := cfg.Settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New("component", "sweep")
	}
	progress := cfg.Progress
	if progress == nil {
		progress = NewNoOpProgressIndicator()
	}
	artifacts := cfg.Artifacts
	if artifacts == nil {
		artifacts = NewNoOpArtifactSink()
	}

	return &Engine{
		oracle:      oracle,
		settings:    cfg.Settings,
		concurrency: concurrency,
		log:         logger,
		tracer:      otel.Tracer("cellchar/sweep"),
		progress:    progress,
		artifacts:   artifacts,
	}, nil
}

// Run sweeps one harness's full grid and aggregates the derived metrics.
// On any grid-point failure the error propagates before aggregation runs;
// the table is never aggregated from partial results.
func (e *Engine) Run(ctx context.Context, cell *types.Cell, h harness.Harness) error {
	arc := h.Arc()
	ctx, span := e.tracer.Start(ctx, "sweep.run", trace.WithAttributes(
		attribute.String("cell", h.CellName()),
		attribute.String("arc", arc),
		attribute.Int("grid_points", h.Table().Size()),
	))
	defer span.End()

	e.progress.StartArc(h.CellName(), arc, h.Table().Size())
	defer e.progress.CompleteArc(h.CellName(), arc)

	if err := e.runGrid(ctx, cell, h); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "sweep failed")
		return err
	}
	if err := aggregate(h.Table(), e.settings); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "aggregation failed")
		return fmt.Errorf("aggregating %s: %w", arc, err)
	}
	return nil
}

// gridItems pairs every declared grid point with its physical stimulus
// parameters. The declared slew is normalized by the logic-threshold window
// and scaled into seconds; the declared load is scaled into farads.
func (e *Engine) gridItems(h harness.Harness) []gridWork {
	slewMagnitude := 1 / (e.settings.LogicThresholds.High - e.settings.LogicThresholds.Low)
	pairs := h.Table().Pairs()
	items := make([]gridWork, 0, len(pairs))
	for _, p := range pairs {
		items = append(items, gridWork{
			Point:       p,
			SlewSeconds: p.Slew * slewMagnitude * e.settings.TimeUnit,
			LoadFarads:  p.Load * e.settings.CapacitanceUnit,
		})
	}
	return items
}

// runPoint executes the two-pass protocol for one grid point and merges the
// raw measurements: the windowing pass contributes the window boundaries,
// the measurement pass everything else.
func (e *Engine) runPoint(ctx context.Context, cell *types.Cell, h harness.Harness, work gridWork) (sim.Result, error) {
	req := e.request(cell, h, work)

	window, err := e.measure(ctx, req)
	if err != nil {
		return nil, e.simulationError(h, work, req.Pass(), err)
	}

	req.Window = &sim.Window{
		Start: window[types.MetricEnergyStart],
		End:   window[types.MetricEnergyEnd],
	}
	measured, err := e.measure(ctx, req)
	if err != nil {
		return nil, e.simulationError(h, work, req.Pass(), err)
	}

	raw := make(sim.Result, len(types.RawMetrics()))
	raw[types.MetricEnergyStart] = window[types.MetricEnergyStart]
	raw[types.MetricEnergyEnd] = window[types.MetricEnergyEnd]
	for m, v := range measured {
		raw[m] = v
	}
	return raw, nil
}

// measure wraps one oracle invocation in a span and an invocation metric.
func (e *Engine) measure(ctx context.Context, req sim.Request) (sim.Result, error) {
	ctx, span := e.tracer.Start(ctx, "oracle.measure", trace.WithAttributes(
		attribute.String("cell", req.Cell),
		attribute.String("arc", req.Arc),
		attribute.Int("pass", req.Pass()),
		attribute.Float64("slew_seconds", req.SlewSeconds),
		attribute.Float64("load_farads", req.LoadFarads),
	))
	defer span.End()

	result, err := e.oracle.Measure(ctx, req)
	metrics.RecordSimulation(req.Cell, req.Pass(), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "measure failed")
		return nil, err
	}
	return result, nil
}

func (e *Engine) request(cell *types.Cell, h harness.Harness, work gridWork) sim.Request {
	return sim.Request{
		Cell:         h.CellName(),
		Arc:          h.Arc(),
		Netlist:      cell.Netlist,
		Models:       append([]string(nil), cell.Models...),
		Pins:         h.PinStates(),
		InPin:        h.TargetIn().Pin,
		OutPin:       h.TargetOut().Pin,
		InDirection:  h.InDirection(),
		OutDirection: h.OutDirection(),
		SlewSeconds:  work.SlewSeconds,
		LoadFarads:   work.LoadFarads,
		Temperature:  e.settings.Temperature,
		VDD:          e.settings.VDD,
		VSS:          e.settings.VSS,
	}
}

func (e *Engine) simulationError(h harness.Harness, work gridWork, pass int, err error) error {
	return &sim.SimulationError{
		Cell: h.CellName(),
		Arc:  h.Arc(),
		Slew: work.Point.Slew,
		Load: work.Point.Load,
		Pass: pass,
		Err:  err,
	}
}
