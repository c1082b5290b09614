// Package logging captures per-run characterization artifacts: one JSON
// record per swept arc, holding the raw and derived measurements for every
// grid point, plus a run-level summary.
package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/cellchar/cellchar/harness"
	"github.com/cellchar/cellchar/sweep"
)

// RunDirectoryPrefix is the standardized prefix for run directories.
const RunDirectoryPrefix = "charrun-"

// RunDir writes arc artifacts under <baseDir>/charrun-<runID>/<cell>/.
type RunDir struct {
	baseDir string
	dir     string
	runID   string
	mu      sync.Mutex
	log     log.Logger
}

var _ sweep.ArtifactSink = (*RunDir)(nil)

// NewRunDir creates the run directory and returns a sink writing into it.
func NewRunDir(baseDir, runID string, logger log.Logger) (*RunDir, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("baseDir cannot be empty")
	}
	if runID == "" {
		return nil, fmt.Errorf("runID cannot be empty")
	}
	if logger == nil {
		logger = log.New("component", "artifacts")
	}

	dir := filepath.Join(baseDir, RunDirectoryPrefix+runID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create run directory %s: %w", dir, err)
	}

	return &RunDir{
		baseDir: baseDir,
		dir:     dir,
		runID:   runID,
		log:     logger,
	}, nil
}

// Dir returns the run directory path.
func (d *RunDir) Dir() string { return d.dir }

// RunID returns the run identifier the directory is named after.
func (d *RunDir) RunID() string { return d.runID }

// GridPointRecord is the stored form of one grid point's measurements.
type GridPointRecord struct {
	Slew    float64            `json:"slew"`
	Load    float64            `json:"load"`
	Metrics map[string]float64 `json:"metrics"`
}

// SummaryRecord is the stored form of an arc's harness-level figures.
type SummaryRecord struct {
	GridPoints         int     `json:"grid_points"`
	MeanPropDelay      float64 `json:"mean_prop_delay"`
	MaxPropDelay       float64 `json:"max_prop_delay"`
	MeanTransition     float64 `json:"mean_transition"`
	InputCapacitance   float64 `json:"input_capacitance"`
	MeanInternalEnergy float64 `json:"mean_internal_energy"`
	LeakagePower       float64 `json:"leakage_power"`
}

// ArcRecord is the stored form of one characterized arc.
type ArcRecord struct {
	RunID      string            `json:"run_id"`
	Cell       string            `json:"cell"`
	Arc        string            `json:"arc"`
	Vector     []string          `json:"vector"`
	Status     string            `json:"status"`
	Error      string            `json:"error,omitempty"`
	RecordedAt time.Time         `json:"recorded_at"`
	Summary    *SummaryRecord    `json:"summary,omitempty"`
	GridPoints []GridPointRecord `json:"grid_points"`
}

// RecordArc writes one arc's measurements as a JSON artifact. Failed arcs
// are recorded too, with whatever grid points completed before the failure.
func (d *RunDir) RecordArc(result sweep.ArcResult) error {
	h := result.Harness
	if h == nil {
		return fmt.Errorf("arc result carries no harness")
	}

	rec := ArcRecord{
		RunID:      d.runID,
		Cell:       h.CellName(),
		Arc:        h.Arc(),
		Vector:     result.Vector,
		Status:     "completed",
		RecordedAt: time.Now().UTC(),
		GridPoints: collectGridPoints(h.Table()),
	}
	if result.Err != nil {
		rec.Status = "failed"
		rec.Error = result.Err.Error()
	} else {
		rec.Summary = &SummaryRecord{
			GridPoints:         result.Summary.GridPoints,
			MeanPropDelay:      result.Summary.MeanPropDelay,
			MaxPropDelay:       result.Summary.MaxPropDelay,
			MeanTransition:     result.Summary.MeanTransition,
			InputCapacitance:   result.Summary.InputCapacitance,
			MeanInternalEnergy: result.Summary.MeanInternalEnergy,
			LeakagePower:       result.Summary.LeakagePower,
		}
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding artifact for %s %q: %w", rec.Cell, rec.Arc, err)
	}
	data = append(data, '\n')

	d.mu.Lock()
	defer d.mu.Unlock()

	cellDir := filepath.Join(d.dir, sanitizeFilename(rec.Cell))
	if err := os.MkdirAll(cellDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", cellDir, err)
	}
	path := filepath.Join(cellDir, sanitizeFilename(rec.Arc)+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write artifact %s: %w", path, err)
	}

	d.log.Debug("Recorded arc artifact", "cell", rec.Cell, "arc", rec.Arc, "path", path)
	return nil
}

// CellSummaryRecord is one cell's line in the run summary.
type CellSummaryRecord struct {
	Cell       string `json:"cell"`
	Arcs       int    `json:"arcs"`
	FailedArcs int    `json:"failed_arcs"`
}

// RunSummaryRecord is the run-level rollup stored as summary.json.
type RunSummaryRecord struct {
	RunID           string              `json:"run_id"`
	RecordedAt      time.Time           `json:"recorded_at"`
	DurationSeconds float64             `json:"duration_seconds"`
	TotalArcs       int                 `json:"total_arcs"`
	FailedArcs      int                 `json:"failed_arcs"`
	Cells           []CellSummaryRecord `json:"cells"`
}

// WriteRunSummary stores the run-level rollup once a characterization run
// completes.
func (d *RunDir) WriteRunSummary(result *sweep.LibraryResult, duration time.Duration) error {
	rec := RunSummaryRecord{
		RunID:           d.runID,
		RecordedAt:      time.Now().UTC(),
		DurationSeconds: duration.Seconds(),
		TotalArcs:       result.TotalArcs(),
		FailedArcs:      result.FailedArcs(),
	}
	for _, cell := range result.Cells {
		rec.Cells = append(rec.Cells, CellSummaryRecord{
			Cell:       cell.Cell,
			Arcs:       len(cell.Arcs),
			FailedArcs: cell.FailedArcs(),
		})
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding run summary: %w", err)
	}
	data = append(data, '\n')

	d.mu.Lock()
	defer d.mu.Unlock()

	path := filepath.Join(d.dir, "summary.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write run summary %s: %w", path, err)
	}

	d.log.Info("Wrote run summary", "path", path, "totalArcs", rec.TotalArcs, "failedArcs", rec.FailedArcs)
	return nil
}

// collectGridPoints snapshots the table, declared order preserved. Points a
// failed sweep never reached carry an empty metrics map.
func collectGridPoints(t *harness.Table) []GridPointRecord {
	points := make([]GridPointRecord, 0, t.Size())
	for _, p := range t.Pairs() {
		metrics, err := t.Metrics(p)
		if err != nil {
			continue
		}
		rec := GridPointRecord{
			Slew:    p.Slew,
			Load:    p.Load,
			Metrics: make(map[string]float64, len(metrics)),
		}
		for m, v := range metrics {
			rec.Metrics[string(m)] = v
		}
		points = append(points, rec)
	}
	return points
}

// sanitizeFilename makes a cell or arc name safe to use as a file name.
func sanitizeFilename(s string) string {
	s = strings.ReplaceAll(s, "->", "to")
	for _, c := range []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|"} {
		s = strings.ReplaceAll(s, c, "_")
	}
	return strings.ReplaceAll(s, " ", "_")
}
