package sweep

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/cellchar/cellchar/harness"
	"github.com/cellchar/cellchar/types"
)

// ArcResult is the outcome of sweeping one test vector. A nil Err means the
// harness table is fully populated and Summary is valid.
type ArcResult struct {
	Harness harness.Harness
	Vector  []string
	Summary Summary
	Err     error
}

// CellResult collects every arc outcome for one cell.
type CellResult struct {
	Cell string
	Arcs []ArcResult
}

// FailedArcs counts the arcs whose sweep failed.
func (r *CellResult) FailedArcs() int {
	n := 0
	for _, a := range r.Arcs {
		if a.Err != nil {
			n++
		}
	}
	return n
}

// LibraryResult collects every cell outcome of a characterization run.
type LibraryResult struct {
	Cells []*CellResult
}

// TotalArcs counts every arc across all cells.
func (r *LibraryResult) TotalArcs() int {
	n := 0
	for _, c := range r.Cells {
		n += len(c.Arcs)
	}
	return n
}

// FailedArcs counts every failed arc across all cells.
func (r *LibraryResult) FailedArcs() int {
	n := 0
	for _, c := range r.Cells {
		n += c.FailedArcs()
	}
	return n
}

// String summarizes the run in one line.
func (r *LibraryResult) String() string {
	return fmt.Sprintf("characterized %d cells, %d arcs (%d failed)",
		len(r.Cells), r.TotalArcs(), r.FailedArcs())
}

// RunCell characterizes every declared test vector of one cell. A malformed
// vector fails the cell outright; a simulation failure is recorded on its
// arc and the remaining arcs still run.
func (e *Engine) RunCell(ctx context.Context, cell *types.Cell) (*CellResult, error) {
	e.progress.StartCell(cell.Name, len(cell.Vectors))
	defer e.progress.CompleteCell(cell.Name)

	result := &CellResult{Cell: cell.Name}
	for _, vector := range cell.Vectors {
		h, err := buildHarness(cell, vector)
		if err != nil {
			return nil, fmt.Errorf("cell %s: %w", cell.Name, err)
		}

		arc := ArcResult{Harness: h, Vector: vector, Err: e.Run(ctx, cell, h)}
		if arc.Err == nil {
			arc.Summary, arc.Err = Summarize(h)
		}
		result.Arcs = append(result.Arcs, arc)

		if err := e.artifacts.RecordArc(arc); err != nil {
			return result, fmt.Errorf("recording artifact for %s %q: %w", cell.Name, h.Arc(), err)
		}
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("cell %s interrupted: %w", cell.Name, err)
		}
	}
	return result, nil
}

// RunLibrary characterizes all cells concurrently. Cells share no mutable
// state, so one cell's failure never cancels another's sweep; the first
// configuration error is returned alongside whatever results completed.
func (e *Engine) RunLibrary(ctx context.Context, cells map[string]*types.Cell) (*LibraryResult, error) {
	names := make([]string, 0, len(cells))
	for name := range cells {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make([]*CellResult, len(names))
	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			res, err := e.RunCell(ctx, cells[name])
			results[i] = res
			return err
		})
	}
	err := g.Wait()

	library := &LibraryResult{}
	for _, res := range results {
		if res != nil {
			library.Cells = append(library.Cells, res)
		}
	}
	return library, err
}

// buildHarness picks the harness variant from the cell's declarations.
func buildHarness(cell *types.Cell, vector []string) (harness.Harness, error) {
	if cell.Sequential() {
		h, err := harness.NewSequential(cell, vector)
		if err != nil {
			return nil, err
		}
		return h, nil
	}
	h, err := harness.NewCombinational(cell, vector)
	if err != nil {
		return nil, err
	}
	return h, nil
}
