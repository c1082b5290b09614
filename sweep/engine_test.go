package sweep

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cellchar/cellchar/harness"
	"github.com/cellchar/cellchar/sim"
	"github.com/cellchar/cellchar/types"
)

// fakeOracle answers measurement requests with values that are a pure
// function of the request, so interleaving never changes the outcome.
// Optional jitter randomizes completion order; failOn injects failures.
type fakeOracle struct {
	mu     sync.Mutex
	calls  []sim.Request
	jitter time.Duration
	failOn func(req sim.Request) error
}

func (f *fakeOracle) Measure(ctx context.Context, req sim.Request) (sim.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()

	if f.failOn != nil {
		if err := f.failOn(req); err != nil {
			return nil, err
		}
	}
	if f.jitter > 0 {
		time.Sleep(time.Duration(rand.Int63n(int64(f.jitter))))
	}

	prop := req.SlewSeconds*0.25 + req.LoadFarads*1e3
	tran := req.SlewSeconds*0.1 + req.LoadFarads*2e3
	if req.Window == nil {
		return sim.Result{
			types.MetricPropInOut:   prop,
			types.MetricTransOut:    tran,
			types.MetricEnergyStart: 1e-9 + req.SlewSeconds,
			types.MetricEnergyEnd:   3e-9 + req.SlewSeconds,
		}, nil
	}
	return sim.Result{
		types.MetricPropInOut: prop,
		types.MetricTransOut:  tran,
		types.MetricQInDyn:    -prop * 1e-5,
		types.MetricQOutDyn:   prop * 3e-5,
		types.MetricQVddDyn:   -prop * 2e-5,
		types.MetricQVssDyn:   prop * 1.5e-5,
		types.MetricIInLeak:   tran * 1e-4,
		types.MetricIVddLeak:  tran * 1e-3,
		types.MetricIVssLeak:  tran * 2e-3,
	}, nil
}

func (f *fakeOracle) passCalls(pass int) []sim.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sim.Request
	for _, req := range f.calls {
		if req.Pass() == pass {
			out = append(out, req)
		}
	}
	return out
}

func (f *fakeOracle) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func testSettings() types.Settings {
	s := types.Settings{
		Simulator: "ngspice",
		VDD:       types.Rail{Name: "VDD", Voltage: 3.3},
		VSS:       types.Rail{Name: "VSS", Voltage: 0},
	}
	s.SetDefaults()
	return s
}

func inverterCell() *types.Cell {
	return &types.Cell{
		Name:    "INV_X1",
		Netlist: "cells/INV_X1.sp",
		Models:  []string{"models/tech.sp"},
		Inputs:  []string{"A"},
		Outputs: []string{"Y"},
		Slews:   []float64{0.5},
		Loads:   []float64{1.0},
		Vectors: [][]string{{"01", "10"}},
	}
}

func andCell() *types.Cell {
	return &types.Cell{
		Name:    "AND2_X1",
		Netlist: "cells/AND2_X1.sp",
		Models:  []string{"models/tech.sp"},
		Inputs:  []string{"A", "B"},
		Outputs: []string{"Y"},
		Slews:   []float64{0.1, 0.2},
		Loads:   []float64{1.0, 2.0, 3.0},
		Vectors: [][]string{{"01", "1", "01"}},
	}
}

func newTestEngine(t *testing.T, oracle sim.Oracle, concurrency int) *Engine {
	t.Helper()
	engine, err := NewEngine(oracle, Config{
		Settings:    testSettings(),
		Concurrency: concurrency,
	})
	require.NoError(t, err)
	return engine
}

func TestNewEngineValidation(t *testing.T) {
	t.Run("nil oracle is rejected", func(t *testing.T) {
		_, err := NewEngine(nil, Config{Settings: testSettings()})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "oracle cannot be nil")
	})

	t.Run("broken threshold window is rejected", func(t *testing.T) {
		settings := testSettings()
		settings.LogicThresholds = types.Thresholds{Low: 0.8, High: 0.8}
		_, err := NewEngine(&fakeOracle{}, Config{Settings: settings})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid settings")
	})
}

func TestRunTwoPassProtocol(t *testing.T) {
	oracle := &fakeOracle{}
	engine := newTestEngine(t, oracle, 1)

	cell := inverterCell()
	h, err := harness.NewCombinational(cell, cell.Vectors[0])
	require.NoError(t, err)

	require.NoError(t, engine.Run(context.Background(), cell, h))

	// One grid point, two invocations: windowing first, then measurement.
	require.Equal(t, 2, oracle.callCount())
	windowing := oracle.passCalls(1)
	measuring := oracle.passCalls(2)
	require.Len(t, windowing, 1)
	require.Len(t, measuring, 1)

	// Declared slew 0.5 scaled by 1/(0.8-0.2) and the 1ns time unit.
	assert.InDelta(t, 0.5/0.6*1e-9, windowing[0].SlewSeconds, 1e-24)
	assert.InDelta(t, 1e-12, windowing[0].LoadFarads, 1e-27)
	assert.Nil(t, windowing[0].Window)

	// The measurement pass carries the window the first pass located.
	require.NotNil(t, measuring[0].Window)
	assert.Equal(t, 1e-9+measuring[0].SlewSeconds, measuring[0].Window.Start)
	assert.Equal(t, 3e-9+measuring[0].SlewSeconds, measuring[0].Window.End)

	// The request describes the harness, not just the grid point.
	req := windowing[0]
	assert.Equal(t, "INV_X1", req.Cell)
	assert.Equal(t, "A (rise) -> Y (fall)", req.Arc)
	assert.Equal(t, "A", req.InPin)
	assert.Equal(t, "Y", req.OutPin)
	assert.Equal(t, types.DirRise, req.InDirection)
	assert.Equal(t, types.DirFall, req.OutDirection)
	assert.Equal(t, h.PinStates(), req.Pins)
	assert.Equal(t, 25.0, req.Temperature)
	assert.Equal(t, 3.3, req.VDD.Voltage)
}

func TestRunPopulatesFullGrid(t *testing.T) {
	oracle := &fakeOracle{}
	engine := newTestEngine(t, oracle, 4)

	cell := andCell()
	h, err := harness.NewCombinational(cell, cell.Vectors[0])
	require.NoError(t, err)

	require.NoError(t, engine.Run(context.Background(), cell, h))

	table := h.Table()
	pairs := table.Pairs()
	require.Len(t, pairs, 6)

	expected := make(map[types.Metric]struct{})
	for _, m := range types.RawMetrics() {
		expected[m] = struct{}{}
	}
	for _, m := range types.DerivedMetrics() {
		expected[m] = struct{}{}
	}

	for _, p := range pairs {
		got, err := table.Metrics(p)
		require.NoError(t, err)
		require.Len(t, got, len(expected), "unexpected metric count at %s", p)
		for m := range got {
			_, ok := expected[m]
			assert.True(t, ok, "unexpected metric %s at %s", m, p)
		}
	}

	// Two oracle invocations per grid point, no retries, no extras.
	assert.Equal(t, 12, oracle.callCount())
}

func TestRunFailurePropagatesBeforeAggregation(t *testing.T) {
	oracle := &fakeOracle{
		failOn: func(req sim.Request) error {
			if req.Pass() == 2 && req.LoadFarads == 2e-12 {
				return fmt.Errorf("output never settled")
			}
			return nil
		},
	}
	engine := newTestEngine(t, oracle, 4)

	cell := andCell()
	h, err := harness.NewCombinational(cell, cell.Vectors[0])
	require.NoError(t, err)

	err = engine.Run(context.Background(), cell, h)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 of 6 grid points failed")
	assert.Contains(t, err.Error(), "pass 2")
	assert.Contains(t, err.Error(), "load=2")
	assert.Contains(t, err.Error(), "output never settled")

	// No derived metric may exist anywhere: aggregation never ran.
	for _, p := range h.Table().Pairs() {
		for _, m := range types.DerivedMetrics() {
			_, verr := h.Table().Value(p, m)
			require.Error(t, verr, "derived metric %s must be absent at %s", m, p)
		}
	}
}

func TestRunRecordsFailingPairForRedrive(t *testing.T) {
	oracle := &fakeOracle{
		failOn: func(req sim.Request) error {
			if req.Pass() == 1 && req.SlewSeconds > 0.29e-9 {
				return fmt.Errorf("ramp too slow")
			}
			return nil
		},
	}
	engine := newTestEngine(t, oracle, 2)

	cell := andCell()
	h, err := harness.NewCombinational(cell, cell.Vectors[0])
	require.NoError(t, err)

	err = engine.Run(context.Background(), cell, h)
	require.Error(t, err)
	// Declared slew 0.2 -> 0.2/0.6 ns > 0.29ns; the error names the declared
	// pair, not task-local identifiers.
	assert.Contains(t, err.Error(), "slew=0.2")
	assert.Contains(t, err.Error(), "pass 1")
}
