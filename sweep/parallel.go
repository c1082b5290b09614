package sweep

import (
	"context"
	"fmt"
	"sync"

	"github.com/cellchar/cellchar/harness"
	"github.com/cellchar/cellchar/sim"
	"github.com/cellchar/cellchar/types"
)

// gridWork is one unit of sweep work: a declared grid point plus its
// physical stimulus parameters. The point itself is the result key; worker
// identity never is.
type gridWork struct {
	Point       harness.GridPoint
	SlewSeconds float64
	LoadFarads  float64
}

// gridResult carries one grid point's raw measurements back to the
// collector.
type gridResult struct {
	Work gridWork
	Raw  sim.Result
	Err  error
}

// runGrid evaluates every grid point through a bounded worker pool and folds
// the results into the harness table. The single collecting loop is the only
// writer; it ends when every worker has exited (close after Wait is the join
// barrier), so a nil return means the full grid is recorded.
func (e *Engine) runGrid(ctx context.Context, cell *types.Cell, h harness.Harness) error {
	items := e.gridItems(h)
	if len(items) == 0 {
		return fmt.Errorf("cell %s arc %q declares no grid points", h.CellName(), h.Arc())
	}

	e.log.Debug("Starting grid sweep",
		"cell", h.CellName(), "arc", h.Arc(),
		"gridPoints", len(items), "concurrency", e.concurrency)

	bufferSize := min(e.concurrency*2, 100)
	workChan := make(chan gridWork, bufferSize)
	resultChan := make(chan gridResult, bufferSize)

	var wg sync.WaitGroup
	for i := 0; i < e.concurrency; i++ {
		wg.Add(1)
		go e.worker(ctx, cell, h, &wg, workChan, resultChan)
	}

	go func() {
		defer close(workChan)
		for _, w := range items {
			select {
			case workChan <- w:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	var taskErrs []error
	recorded := 0
	for res := range resultChan {
		if res.Err != nil {
			e.log.Error("Grid point failed",
				"cell", h.CellName(), "arc", h.Arc(), "point", res.Work.Point, "err", res.Err)
			taskErrs = append(taskErrs, res.Err)
			e.progress.CompletePoint(h.CellName(), h.Arc(), res.Work.Point, false)
			continue
		}
		if err := recordRaw(h.Table(), res.Work.Point, res.Raw); err != nil {
			taskErrs = append(taskErrs, err)
			e.progress.CompletePoint(h.CellName(), h.Arc(), res.Work.Point, false)
			continue
		}
		recorded++
		e.progress.CompletePoint(h.CellName(), h.Arc(), res.Work.Point, true)
	}

	if len(taskErrs) > 0 {
		return gridError(h, len(items), taskErrs)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("sweep of %s interrupted: %w", h.Arc(), err)
	}
	if recorded != len(items) {
		return fmt.Errorf("sweep of %s incomplete: %d of %d grid points recorded", h.Arc(), recorded, len(items))
	}
	return nil
}

// worker evaluates grid points until the work channel drains or the context
// ends.
func (e *Engine) worker(ctx context.Context, cell *types.Cell, h harness.Harness, wg *sync.WaitGroup, workChan <-chan gridWork, resultChan chan<- gridResult) {
	defer wg.Done()

	for {
		select {
		case work, ok := <-workChan:
			if !ok {
				return
			}
			raw, err := e.runPoint(ctx, cell, h, work)
			select {
			case resultChan <- gridResult{Work: work, Raw: raw, Err: err}:
			case <-ctx.Done():
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// recordRaw writes every raw measurement for one grid point into its
// pre-assigned table slot.
func recordRaw(t *harness.Table, p harness.GridPoint, raw sim.Result) error {
	for _, m := range types.RawMetrics() {
		v, ok := raw[m]
		if !ok {
			return fmt.Errorf("grid point %s: oracle result omits %s", p, m)
		}
		if err := t.Put(p, m, v); err != nil {
			return err
		}
	}
	return nil
}

// gridError condenses per-point failures into one error, listing the first
// few causes.
func gridError(h harness.Harness, total int, taskErrs []error) error {
	msg := fmt.Sprintf("sweep of %s failed: %d of %d grid points failed", h.Arc(), len(taskErrs), total)
	show := len(taskErrs)
	if show > 3 {
		show = 3
	}
	for i := 0; i < show; i++ {
		msg += fmt.Sprintf("\n  %d. %v", i+1, taskErrs[i])
	}
	if len(taskErrs) > show {
		msg += fmt.Sprintf("\n  ... and %d more errors", len(taskErrs)-show)
	}
	return fmt.Errorf("%s", msg)
}
