// Package sim models the external electrical simulator as an oracle that
// answers measurement requests.
//
// The main components are:
//   - Oracle: accepts a structured Request and returns named scalar measurements
//   - DeckBuilder: collaborator that renders a Request into a simulator input deck
//   - ProcessOracle: runs a simulator binary in batch mode and parses its listing
//   - CachingOracle: memoizes Measure calls keyed by a canonical request fingerprint
//
// Deck construction itself is a collaborator concern: sim only defines the
// request/response contract and the process discipline around the simulator.
package sim

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cellchar/cellchar/types"
)

// Window bounds the energy-integration interval in seconds. The windowing
// pass runs without one; the measurement pass supplies the bounds the
// windowing pass located.
type Window struct {
	Start float64
	End   float64
}

// Request describes one oracle invocation: the circuit under test, the pin
// stimulus, and the sweep conditions for a single grid point.
type Request struct {
	// Cell and Arc identify the harness for diagnostics.
	Cell string
	Arc  string

	// Netlist and Models locate the circuit description.
	Netlist string
	Models  []string

	// Pins maps every cell pin to its logical state for this arc. The
	// target pins are called out so the deck can attach the ramp stimulus
	// and the load probe.
	Pins         map[string]types.State
	InPin        string
	OutPin       string
	InDirection  types.Direction
	OutDirection types.Direction

	// Sweep conditions.
	SlewSeconds float64
	LoadFarads  float64
	Temperature float64
	VDD         types.Rail
	VSS         types.Rail

	// Window is nil on the windowing pass and set on the measurement pass.
	Window *Window
}

// Pass reports which phase of the two-pass protocol this request belongs to.
func (r Request) Pass() int {
	if r.Window == nil {
		return 1
	}
	return 2
}

// Measurements lists the names the oracle must report for this request.
// The windowing pass wants the energy-window boundaries; the measurement
// pass wants the charge integrals and leakage currents.
func (r Request) Measurements() []types.Metric {
	if r.Window == nil {
		return types.WindowPassMetrics()
	}
	return types.MeasurePassMetrics()
}

// Fingerprint returns a canonical string identifying the request. Two
// requests with identical fingerprints must produce identical measurements,
// so the fingerprint can key a measurement cache.
func (r Request) Fingerprint() string {
	var b strings.Builder
	b.WriteString(r.Cell)
	b.WriteByte('|')
	b.WriteString(r.Netlist)
	b.WriteByte('|')
	b.WriteString(strings.Join(r.Models, ","))
	b.WriteByte('|')

	pins := make([]string, 0, len(r.Pins))
	for pin, state := range r.Pins {
		pins = append(pins, pin+"="+string(state))
	}
	sort.Strings(pins)
	b.WriteString(strings.Join(pins, ","))
	b.WriteByte('|')

	b.WriteString(r.InPin)
	b.WriteByte('>')
	b.WriteString(r.OutPin)
	b.WriteByte('|')

	appendFloat := func(v float64) {
		b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		b.WriteByte('|')
	}
	appendFloat(r.SlewSeconds)
	appendFloat(r.LoadFarads)
	appendFloat(r.Temperature)
	appendFloat(r.VDD.Voltage)
	appendFloat(r.VSS.Voltage)

	if r.Window == nil {
		b.WriteString("window=none")
	} else {
		b.WriteString("window=")
		b.WriteString(strconv.FormatFloat(r.Window.Start, 'g', -1, 64))
		b.WriteByte(':')
		b.WriteString(strconv.FormatFloat(r.Window.End, 'g', -1, 64))
	}
	return b.String()
}

// Result maps measurement names to the scalar values the simulator reported.
type Result map[types.Metric]float64

// Clone returns an independent copy so cached results cannot be mutated by
// callers.
func (r Result) Clone() Result {
	out := make(Result, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Oracle answers measurement requests. Implementations must be safe for
// concurrent use: the sweep engine issues one request per in-flight grid
// point.
type Oracle interface {
	Measure(ctx context.Context, req Request) (Result, error)
}

// DeckBuilder renders a request into a complete simulator input deck,
// including the measurement statements for Request.Measurements(). Deck
// syntax is simulator-specific and lives entirely behind this interface.
type DeckBuilder interface {
	BuildDeck(req Request) ([]byte, error)
}

// SimulationError reports a failed oracle invocation with enough context to
// re-drive the exact grid point deterministically.
type SimulationError struct {
	Cell string
	Arc  string
	Slew float64
	Load float64
	Pass int
	Err  error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("simulation failed for cell %s arc %q at slew=%v load=%v (pass %d): %v",
		e.Cell, e.Arc, e.Slew, e.Load, e.Pass, e.Err)
}

func (e *SimulationError) Unwrap() error {
	return e.Err
}
