package harness

import (
	"fmt"
	"sync"

	"github.com/cellchar/cellchar/types"
)

// GridPoint is one (slew, load) combination from a cell's declared sweep
// ranges. The declared values themselves are the key; results are never
// keyed by anything task-local.
type GridPoint struct {
	Slew float64
	Load float64
}

func (p GridPoint) String() string {
	return fmt.Sprintf("slew=%v load=%v", p.Slew, p.Load)
}

// Table holds per-grid-point metric values for one harness. It is
// pre-populated with a cell for every declared (slew, load) pair, so grid
// coverage is checkable independent of simulation outcome. Each
// (pair, metric) cell is write-once.
type Table struct {
	mu    sync.RWMutex
	pairs []GridPoint
	cells map[GridPoint]map[types.Metric]float64
}

func newTable(slews, loads []float64) *Table {
	t := &Table{
		cells: make(map[GridPoint]map[types.Metric]float64, len(slews)*len(loads)),
	}
	for _, s := range slews {
		for _, l := range loads {
			p := GridPoint{Slew: s, Load: l}
			t.pairs = append(t.pairs, p)
			t.cells[p] = make(map[types.Metric]float64)
		}
	}
	return t
}

// Pairs returns every declared grid point in declaration order.
func (t *Table) Pairs() []GridPoint {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]GridPoint, len(t.pairs))
	copy(out, t.pairs)
	return out
}

// Size returns the number of declared grid points.
func (t *Table) Size() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.pairs)
}

// Put records a metric value for a declared grid point. Writing to an
// undeclared point fails with a GridLookupError; writing the same metric
// twice fails with ErrDuplicateMetric.
func (t *Table) Put(p GridPoint, m types.Metric, v float64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	cell, ok := t.cells[p]
	if !ok {
		return &GridLookupError{Query: fmt.Sprintf("grid point %s", p)}
	}
	if _, exists := cell[m]; exists {
		return fmt.Errorf("%w: %s at %s", ErrDuplicateMetric, m, p)
	}
	cell[m] = v
	return nil
}

// Value returns one metric at one grid point.
func (t *Table) Value(p GridPoint, m types.Metric) (float64, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	cell, ok := t.cells[p]
	if !ok {
		return 0, &GridLookupError{Query: fmt.Sprintf("grid point %s", p)}
	}
	v, ok := cell[m]
	if !ok {
		return 0, &GridLookupError{Query: fmt.Sprintf("metric %s at %s", m, p)}
	}
	return v, nil
}

// Metrics returns a copy of every metric recorded at one grid point.
func (t *Table) Metrics(p GridPoint) (map[types.Metric]float64, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	cell, ok := t.cells[p]
	if !ok {
		return nil, &GridLookupError{Query: fmt.Sprintf("grid point %s", p)}
	}
	out := make(map[types.Metric]float64, len(cell))
	for m, v := range cell {
		out[m] = v
	}
	return out, nil
}

// MeanOf averages a metric over the full grid. Every declared point must
// have the metric recorded.
func (t *Table) MeanOf(m types.Metric) (float64, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.pairs) == 0 {
		return 0, &GridLookupError{Query: fmt.Sprintf("metric %s in empty table", m)}
	}
	var sum float64
	for _, p := range t.pairs {
		v, ok := t.cells[p][m]
		if !ok {
			return 0, &GridLookupError{Query: fmt.Sprintf("metric %s at %s", m, p)}
		}
		sum += v
	}
	return sum / float64(len(t.pairs)), nil
}

// MaxOf returns the largest value of a metric over the full grid. Every
// declared point must have the metric recorded.
func (t *Table) MaxOf(m types.Metric) (float64, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.pairs) == 0 {
		return 0, &GridLookupError{Query: fmt.Sprintf("metric %s in empty table", m)}
	}
	var max float64
	for i, p := range t.pairs {
		v, ok := t.cells[p][m]
		if !ok {
			return 0, &GridLookupError{Query: fmt.Sprintf("metric %s at %s", m, p)}
		}
		if i == 0 || v > max {
			max = v
		}
	}
	return max, nil
}
