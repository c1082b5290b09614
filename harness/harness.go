// Package harness turns compact test vectors into validated descriptions of
// the arc under test: which pin is stimulated, which pins are held, which
// output is observed. A harness owns the result table its sweep fills in.
package harness

import (
	"fmt"
	"strings"

	"github.com/cellchar/cellchar/types"
)

// Harness is the read surface shared by both harness variants. The binding
// structure is immutable after construction; only the table changes, and
// only through its own write-once operations.
type Harness interface {
	CellName() string
	Vector() []string
	TargetIn() PinBinding
	TargetOut() PinBinding
	StableIns() []PinBinding
	NontargetOuts() []PinBinding
	PinStates() map[string]types.State
	InDirection() types.Direction
	OutDirection() types.Direction
	Arc() string
	ShortString() string
	Table() *Table
}

// core carries the arc description common to both variants. It is only ever
// built fully-formed by the factories below.
type core struct {
	cellName      string
	vector        []string
	targetIn      PinBinding
	stableIns     []PinBinding
	targetOut     PinBinding
	nontargetOuts []PinBinding
	table         *Table
}

// Combinational is a harness for a plain input-to-output arc.
type Combinational struct {
	core
}

// NewCombinational parses a test vector of the form [in1..inN, out1..outM]
// against the cell's declared port order. Exactly one input and exactly one
// output must carry a transition.
func NewCombinational(cell *types.Cell, vector []string) (*Combinational, error) {
	if cell.Sequential() {
		return nil, fmt.Errorf("cell %s declares a clock; use NewSequential", cell.Name)
	}
	if len(vector) != cell.VectorLen() {
		return nil, &MalformedTestVectorError{
			Vector: vector,
			Reason: fmt.Sprintf("expected %d entries for cell %s, got %d", cell.VectorLen(), cell.Name, len(vector)),
		}
	}
	states, err := parseStates(vector)
	if err != nil {
		return nil, err
	}
	c, err := bindArc(cell, vector, states, nil)
	if err != nil {
		return nil, err
	}
	return &Combinational{core: *c}, nil
}

// parseStates converts every raw code in the vector, failing on the first
// unknown one.
func parseStates(vector []string) ([]types.State, error) {
	states := make([]types.State, len(vector))
	for i, code := range vector {
		s, err := types.ParseState(code)
		if err != nil {
			return nil, &MalformedTestVectorError{Vector: vector, Reason: err.Error()}
		}
		states[i] = s
	}
	return states, nil
}

// bindArc zips the trailing input/output states against the cell's port
// order and classifies each binding. preTarget carries a set/reset target
// claimed by the sequential prefix; a data-input transition on top of it is
// a duplicate.
func bindArc(cell *types.Cell, vector []string, states []types.State, preTarget *PinBinding) (*core, error) {
	if len(states) != len(cell.Inputs)+len(cell.Outputs) {
		return nil, &MalformedTestVectorError{
			Vector: vector,
			Reason: fmt.Sprintf("expected %d port entries for cell %s, got %d", len(cell.Inputs)+len(cell.Outputs), cell.Name, len(states)),
		}
	}

	c := &core{
		cellName: cell.Name,
		vector:   append([]string(nil), vector...),
		table:    newTable(cell.Slews, cell.Loads),
	}

	targetIn := preTarget
	for i, port := range cell.Inputs {
		b := PinBinding{Pin: port, State: states[i]}
		switch {
		case b.State.IsPulse():
			return nil, &MalformedTestVectorError{
				Vector: vector,
				Reason: fmt.Sprintf("pulse state %s on non-clock pin %s", b.State, b.Pin),
			}
		case b.State.IsTransition():
			if targetIn != nil {
				return nil, &MalformedTestVectorError{
					Vector: vector,
					Reason: fmt.Sprintf("more than one target input: %s and %s", targetIn.Pin, b.Pin),
				}
			}
			tb := b
			targetIn = &tb
		default:
			c.stableIns = append(c.stableIns, b)
		}
	}

	var targetOut *PinBinding
	for i, port := range cell.Outputs {
		b := PinBinding{Pin: port, State: states[len(cell.Inputs)+i]}
		switch {
		case b.State.IsPulse():
			return nil, &MalformedTestVectorError{
				Vector: vector,
				Reason: fmt.Sprintf("pulse state %s on non-clock pin %s", b.State, b.Pin),
			}
		case b.State.IsTransition():
			if targetOut != nil {
				return nil, &MalformedTestVectorError{
					Vector: vector,
					Reason: fmt.Sprintf("more than one target output: %s and %s", targetOut.Pin, b.Pin),
				}
			}
			tb := b
			targetOut = &tb
		default:
			c.nontargetOuts = append(c.nontargetOuts, b)
		}
	}

	if targetOut == nil {
		return nil, &MalformedTestVectorError{Vector: vector, Reason: "no target output"}
	}
	if targetIn == nil {
		return nil, &MalformedTestVectorError{Vector: vector, Reason: "no target input"}
	}
	c.targetIn = *targetIn
	c.targetOut = *targetOut
	return c, nil
}

func (c *core) CellName() string { return c.cellName }

// Vector returns the original test vector notation.
func (c *core) Vector() []string {
	return append([]string(nil), c.vector...)
}

func (c *core) TargetIn() PinBinding  { return c.targetIn }
func (c *core) TargetOut() PinBinding { return c.targetOut }

func (c *core) StableIns() []PinBinding {
	return append([]PinBinding(nil), c.stableIns...)
}

func (c *core) NontargetOuts() []PinBinding {
	return append([]PinBinding(nil), c.nontargetOuts...)
}

// PinStates maps every bound data pin to its state.
func (c *core) PinStates() map[string]types.State {
	m := make(map[string]types.State, 2+len(c.stableIns)+len(c.nontargetOuts))
	m[c.targetIn.Pin] = c.targetIn.State
	m[c.targetOut.Pin] = c.targetOut.State
	for _, b := range c.stableIns {
		m[b.Pin] = b.State
	}
	for _, b := range c.nontargetOuts {
		m[b.Pin] = b.State
	}
	return m
}

func (c *core) InDirection() types.Direction  { return c.targetIn.Direction() }
func (c *core) OutDirection() types.Direction { return c.targetOut.Direction() }

// Table returns the harness's result table.
func (c *core) Table() *Table { return c.table }

// Arc names the path under test, e.g. "A (rise) -> Y (fall)".
func (c *core) Arc() string {
	return fmt.Sprintf("%s (%s) -> %s (%s)",
		c.targetIn.Pin, c.InDirection(), c.targetOut.Pin, c.OutDirection())
}

// ShortString renders the pin=state assignments in target-first order. For a
// well-formed harness this reproduces the vector's bindings exactly.
func (c *core) ShortString() string {
	parts := make([]string, 0, 2+len(c.stableIns)+len(c.nontargetOuts))
	parts = append(parts, c.targetIn.String())
	for _, b := range c.stableIns {
		parts = append(parts, b.String())
	}
	parts = append(parts, c.targetOut.String())
	for _, b := range c.nontargetOuts {
		parts = append(parts, b.String())
	}
	return strings.Join(parts, " ")
}

// String renders the full arc description.
func (c *core) String() string {
	lines := []string{fmt.Sprintf("Arc Under Test: %s", c.Arc())}
	if len(c.stableIns) > 0 {
		lines = append(lines, "    Stable Input Ports:")
		for _, b := range c.stableIns {
			lines = append(lines, fmt.Sprintf("        %s: %s", b.Pin, b.State))
		}
	}
	if len(c.nontargetOuts) > 0 {
		lines = append(lines, "    Nontarget Output Ports:")
		for _, b := range c.nontargetOuts {
			lines = append(lines, fmt.Sprintf("        %s: %s", b.Pin, b.State))
		}
	}
	return strings.Join(lines, "\n")
}

// TimingSense reports the arc's unateness: positive when input and output
// move the same way.
func (h *Combinational) TimingSense() TimingSense {
	if h.InDirection() == h.OutDirection() {
		return PositiveUnate
	}
	return NegativeUnate
}
