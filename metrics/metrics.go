package metrics

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	MetricsNamespace = "cellchar"

	ResultPass = "pass"
	ResultFail = "fail"
)

var (
	Debug                bool = true
	validResults              = []string{ResultPass, ResultFail}
	nonAlphanumericRegex      = regexp.MustCompile(`[^a-zA-Z ]+`)

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "errors_total",
		Help:      "Count of errors",
	}, []string{
		"error",
	})

	simulationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "simulations_total",
		Help:      "Count of simulation oracle invocations",
	}, []string{
		"cell",
		"pass",
		"result",
	})

	arcsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "arcs_total",
		Help:      "Count of characterized timing arcs",
	}, []string{
		"run_id",
		"cell",
		"result",
	})

	characterizationResults = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "characterization_results",
		Help:      "Result of characterization runs",
	}, []string{
		"run_id",
		"result",
	})

	characterizationArcTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "characterization_arc_total",
		Help:      "Total number of arcs in a characterization run",
	}, []string{
		"run_id",
	})

	characterizationArcPassed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "characterization_arc_passed",
		Help:      "Number of successfully characterized arcs",
	}, []string{
		"run_id",
	})

	characterizationArcFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "characterization_arc_failed",
		Help:      "Number of failed arcs",
	}, []string{
		"run_id",
	})

	characterizationDuration = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "characterization_duration",
		Help:      "Duration of characterization runs",
	}, []string{
		"run_id",
	})
)

// errToLabel tries to make the error string a more valid Prometheus label
func errToLabel(err error) string {
	if err == nil {
		return "nil"
	}
	errClean := nonAlphanumericRegex.ReplaceAllString(err.Error(), "")
	errClean = strings.ReplaceAll(errClean, " ", "_")
	errClean = strings.ReplaceAll(errClean, "__", "_")
	return errClean
}

func RecordError(error string) {
	if Debug {
		log.Debug("metric inc",
			"m", "errors_total",
			"error", error,
		)
	}
	errorsTotal.WithLabelValues(error).Inc()
}

// RecordErrorDetails concats the error message to the label
// and also tries to clean the label to be a valid Prometheus label
func RecordErrorDetails(label string, err error) {
	if err == nil {
		return
	}
	label = fmt.Sprintf("%s.%s", label, errToLabel(err))
	RecordError(label)
}

// RecordSimulation counts one oracle invocation for the given cell and
// protocol pass.
func RecordSimulation(cell string, pass int, err error) {
	result := ResultPass
	if err != nil {
		result = ResultFail
	}
	if Debug {
		log.Debug("metric inc",
			"m", "simulations_total",
			"cell", cell,
			"pass", pass,
			"result", result)
	}
	simulationsTotal.WithLabelValues(cell, fmt.Sprintf("%d", pass), result).Inc()
}

func RecordArc(runID string, cell string, result string) {
	if !isValidResult(result) {
		log.Error("RecordArc - invalid result", "result", result)
		return
	}
	if Debug {
		log.Debug("metric inc",
			"m", "arcs_total",
			"run_id", runID,
			"cell", cell,
			"result", result)
	}
	arcsTotal.WithLabelValues(runID, cell, result).Inc()
}

func RecordCharacterization(
	runID string,
	result string,
	total int,
	passed int,
	failed int,
	duration time.Duration,
) {
	characterizationResults.WithLabelValues(runID, result).Set(1)
	characterizationArcTotal.WithLabelValues(runID).Add(float64(total))
	characterizationArcPassed.WithLabelValues(runID).Add(float64(passed))
	characterizationArcFailed.WithLabelValues(runID).Add(float64(failed))
	characterizationDuration.WithLabelValues(runID).Set(duration.Seconds())
}

func isValidResult(result string) bool {
	return slices.Contains(validResults, result)
}
