package cellchar

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/cellchar/cellchar/sweep"
)

// ResultFormatter is responsible for formatting and displaying
// characterization results.
type ResultFormatter interface {
	FormatResults(result *sweep.LibraryResult, duration time.Duration) error
}

// ConsoleResultFormatter implements the ResultFormatter interface.
type ConsoleResultFormatter struct {
	logger log.Logger
}

// NewConsoleResultFormatter creates a new ConsoleResultFormatter.
func NewConsoleResultFormatter(logger log.Logger) *ConsoleResultFormatter {
	return &ConsoleResultFormatter{
		logger: logger,
	}
}

// FormatResults formats and displays the characterization results.
func (f *ConsoleResultFormatter) FormatResults(result *sweep.LibraryResult, duration time.Duration) error {
	f.logger.Info("Printing results...")
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle(fmt.Sprintf("Characterization Results (%s)", formatDuration(duration)))

	// Configure columns
	t.AppendHeader(table.Row{
		"Cell", "Arc", "Points", "Mean Delay", "Max Delay", "Mean Trans", "Input Cap", "Energy", "Leakage", "Status", "Error",
	})

	// Set column configurations for better readability
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Cell", AutoMerge: true},
		{Name: "Arc", WidthMax: 40, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Points", Align: text.AlignRight},
		{Name: "Mean Delay", Align: text.AlignRight},
		{Name: "Max Delay", Align: text.AlignRight},
		{Name: "Mean Trans", Align: text.AlignRight},
		{Name: "Input Cap", Align: text.AlignRight},
		{Name: "Energy", Align: text.AlignRight},
		{Name: "Leakage", Align: text.AlignRight},
		{Name: "Error", WidthMax: 60, WidthMaxEnforcer: text.WrapSoft},
	})

	// Print cells and their arcs
	for _, cell := range result.Cells {
		for i, arc := range cell.Arcs {
			prefix := "├─"
			if i == len(cell.Arcs)-1 {
				prefix = "└─"
			}

			if arc.Err != nil {
				t.AppendRow(table.Row{
					cell.Cell,
					fmt.Sprintf("%s %s", prefix, arc.Harness.Arc()),
					arc.Harness.Table().Size(),
					"-", "-", "-", "-", "-", "-",
					getResultString(false),
					extractKeyErrorMessage(arc.Err),
				})
				continue
			}

			s := arc.Summary
			t.AppendRow(table.Row{
				cell.Cell,
				fmt.Sprintf("%s %s", prefix, s.Arc),
				s.GridPoints,
				formatSI(s.MeanPropDelay, "s"),
				formatSI(s.MaxPropDelay, "s"),
				formatSI(s.MeanTransition, "s"),
				formatSI(s.InputCapacitance, "F"),
				formatSI(s.MeanInternalEnergy, "J"),
				formatSI(s.LeakagePower, "W"),
				getResultString(true),
				"",
			})
		}

		t.AppendSeparator()
	}

	// Update the table style setting based on result status
	failed := result.FailedArcs()
	if failed == 0 {
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	} else {
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	}

	// Add summary footer
	errSummary := ""
	if failed > 0 {
		errSummary = fmt.Sprintf("%d failed", failed)
	}
	t.AppendFooter(table.Row{
		"TOTAL",
		fmt.Sprintf("%d arcs", result.TotalArcs()),
		"", "", "", "", "", "", "",
		getResultString(failed == 0),
		errSummary,
	})

	t.Render()

	fmt.Println(result.String())

	return nil
}

// Helper function to format duration to seconds with 1 decimal place
func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// formatSI renders a measurement in scientific notation with its SI unit.
func formatSI(v float64, unit string) string {
	return fmt.Sprintf("%.4g %s", v, unit)
}

// extractKeyErrorMessage pulls the most meaningful part from a simulator error.
// Process failures carry the full captured stderr, which is far too verbose for
// the results table, so we dig out the first diagnostic line instead.
func extractKeyErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	errStr := err.Error()

	// Parser failures already carry the interesting line
	if idx := strings.Index(errStr, "simulator reported:"); idx != -1 {
		start := idx
		end := len(errStr)
		if newLine := strings.Index(errStr[start:], "\n"); newLine != -1 {
			end = start + newLine
		}
		return errStr[start:end]
	}

	// Missing measurements name exactly what the deck failed to produce
	if idx := strings.Index(errStr, "listing is missing measurements:"); idx != -1 {
		start := idx
		end := len(errStr)
		if newLine := strings.Index(errStr[start:], "\n"); newLine != -1 {
			end = start + newLine
		}
		return errStr[start:end]
	}

	// For simulator exits, try to find a diagnostic line in the attached stderr
	if strings.Contains(errStr, "exited with code") {
		// Look for common SPICE diagnostic patterns
		errorPatterns := []string{
			"convergence",
			"singular matrix",
			"timestep too small",
			"error:",
			"Error:",
			"fatal",
			"Fatal",
		}

		for _, pattern := range errorPatterns {
			if idx := strings.Index(errStr, pattern); idx != -1 {
				// Extract the full line containing the match
				start := idx
				for start > 0 && errStr[start-1] != '\n' {
					start--
				}

				end := len(errStr)
				if newLine := strings.Index(errStr[idx:], "\n"); newLine != -1 {
					end = idx + newLine
				}

				line := strings.TrimSpace(errStr[start:end])
				// The first stderr line keeps the capture prefix; drop it
				line = strings.TrimPrefix(line, "stderr: ")
				return line
			}
		}
	}

	// If we can't find a specific pattern, limit to the first line or 80 chars
	if idx := strings.Index(errStr, "\n"); idx != -1 {
		return errStr[:idx]
	} else if len(errStr) > 80 {
		return errStr[:70] + "..."
	}

	return errStr
}
