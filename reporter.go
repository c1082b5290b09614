package cellchar

import (
	"time"

	"github.com/cellchar/cellchar/metrics"
	"github.com/cellchar/cellchar/sweep"
)

// MetricsReporter is responsible for reporting metrics from characterization
// results.
type MetricsReporter interface {
	ReportResults(runID string, result *sweep.LibraryResult, duration time.Duration)
}

// DefaultMetricsReporter implements the MetricsReporter interface.
type DefaultMetricsReporter struct{}

// NewDefaultMetricsReporter creates a new DefaultMetricsReporter.
func NewDefaultMetricsReporter() *DefaultMetricsReporter {
	return &DefaultMetricsReporter{}
}

// ReportResults reports the characterization results to metrics systems.
func (r *DefaultMetricsReporter) ReportResults(runID string, result *sweep.LibraryResult, duration time.Duration) {
	for _, cell := range result.Cells {
		for _, arc := range cell.Arcs {
			arcResult := metrics.ResultPass
			if arc.Err != nil {
				arcResult = metrics.ResultFail
			}
			metrics.RecordArc(runID, cell.Cell, arcResult)
		}
	}

	overall := metrics.ResultPass
	failed := result.FailedArcs()
	if failed > 0 {
		overall = metrics.ResultFail
	}
	metrics.RecordCharacterization(
		runID,
		overall,
		result.TotalArcs(),
		result.TotalArcs()-failed,
		failed,
		duration,
	)
}
