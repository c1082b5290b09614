package harness

import (
	"fmt"
	"strings"

	"github.com/cellchar/cellchar/types"
)

// TimingMode selects which constraint family a sequential arc is classified
// under.
type TimingMode string

const (
	ModeHold     TimingMode = "hold"
	ModeSetup    TimingMode = "setup"
	ModeRecovery TimingMode = "recovery"
	ModeRemoval  TimingMode = "removal"
	ModeClock    TimingMode = "clock"
)

// Timing-type labels produced by classification.
const (
	TimingRisingEdge  = "rising_edge"
	TimingFallingEdge = "falling_edge"
)

// Sequential is a harness for a clocked cell. On top of the base arc it
// carries the clock waveform, optional set/reset bindings and the declared
// flop states. The target transition may sit on a data input or on the
// set/reset pin; classification depends on which.
type Sequential struct {
	core
	Clock      PinBinding
	Set        *PinBinding
	Reset      *PinBinding
	Flops      []string
	FlopStates []types.State
}

// NewSequential parses a test vector of the form
// [clock, reset?, set?, flop*, in1..inN, out1..outM], consuming the prefix
// in that order before binding the remaining entries to the data ports.
// Reset and set entries exist only when the cell declares those pins; a
// transition on either claims the target-input role.
func NewSequential(cell *types.Cell, vector []string) (*Sequential, error) {
	if !cell.Sequential() {
		return nil, fmt.Errorf("cell %s declares no clock; use NewCombinational", cell.Name)
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

	h := &Sequential{}
	i := 0

	h.Clock = PinBinding{Pin: cell.Clock, State: states[i]}
	i++
	if !h.Clock.State.IsPulse() {
		return nil, &MalformedTestVectorError{
			Vector: vector,
			Reason: fmt.Sprintf("clock pin %s requires a pulse waveform, got %s", cell.Clock, h.Clock.State),
		}
	}

	var preTarget *PinBinding
	claim := func(b *PinBinding) error {
		if b.State.IsPulse() {
			return &MalformedTestVectorError{
				Vector: vector,
				Reason: fmt.Sprintf("pulse state %s on non-clock pin %s", b.State, b.Pin),
			}
		}
		if b.State.IsTransition() {
			if preTarget != nil {
				return &MalformedTestVectorError{
					Vector: vector,
					Reason: fmt.Sprintf("more than one target input: %s and %s", preTarget.Pin, b.Pin),
				}
			}
			preTarget = b
		}
		return nil
	}

	if cell.Reset != "" {
		h.Reset = &PinBinding{Pin: cell.Reset, State: states[i]}
		i++
		if err := claim(h.Reset); err != nil {
			return nil, err
		}
	}
	if cell.Set != "" {
		h.Set = &PinBinding{Pin: cell.Set, State: states[i]}
		i++
		if err := claim(h.Set); err != nil {
			return nil, err
		}
	}

	for _, flop := range cell.Flops {
		s := states[i]
		i++
		if !s.IsHeld() {
			return nil, &MalformedTestVectorError{
				Vector: vector,
				Reason: fmt.Sprintf("flop %s requires a held state, got %s", flop, s),
			}
		}
		h.Flops = append(h.Flops, flop)
		h.FlopStates = append(h.FlopStates, s)
	}

	c, err := bindArc(cell, vector, states[i:], preTarget)
	if err != nil {
		return nil, err
	}
	h.core = *c
	return h, nil
}

// SetDirection returns the set pin's stimulus edge, or none.
func (h *Sequential) SetDirection() types.Direction {
	if h.Set == nil {
		return types.DirNone
	}
	return h.Set.Direction()
}

// ResetDirection returns the reset pin's stimulus edge, or none.
func (h *Sequential) ResetDirection() types.Direction {
	if h.Reset == nil {
		return types.DirNone
	}
	return h.Reset.Direction()
}

// TimingType classifies the arc for the requested mode.
//
// Set/reset targets support only recovery/removal; the label edge follows
// the target direction for recovery and inverts for removal, the two being
// complementary conventions. Data-input targets support clock (edge from the
// clock waveform), hold and setup. Any other pairing means the harness was
// built for a mode it cannot express and fails with a ClassificationError.
func (h *Sequential) TimingType(mode TimingMode) (string, error) {
	if h.SetDirection() != types.DirNone || h.ResetDirection() != types.DirNone {
		switch mode {
		case ModeRecovery:
			if h.InDirection() == types.DirRise {
				return "recovery_rising", nil
			}
			return "recovery_falling", nil
		case ModeRemoval:
			if h.InDirection() == types.DirRise {
				return "removal_falling", nil
			}
			return "removal_rising", nil
		}
		return "", &ClassificationError{Arc: h.Arc(), Mode: mode}
	}

	if h.targetsFlop() {
		return "", &ClassificationError{Arc: h.Arc(), Mode: mode}
	}

	switch mode {
	case ModeClock:
		if h.Clock.State == types.StatePulseFall {
			return TimingFallingEdge, nil
		}
		return TimingRisingEdge, nil
	case ModeHold, ModeSetup:
		if h.InDirection() == types.DirRise {
			return string(mode) + "_rising", nil
		}
		return string(mode) + "_falling", nil
	}
	return "", &ClassificationError{Arc: h.Arc(), Mode: mode}
}

func (h *Sequential) targetsFlop() bool {
	for _, flop := range h.Flops {
		if h.targetIn.Pin == flop {
			return true
		}
	}
	return false
}

// TimingSenseConstraint names the constraint direction for the target edge.
func (h *Sequential) TimingSenseConstraint() string {
	if h.InDirection() == types.DirRise {
		return "rise_constraint"
	}
	return "fall_constraint"
}

// When returns the condition under which the arc applies: the target pin
// asserted for rising targets, negated otherwise.
func (h *Sequential) When() string {
	if h.InDirection() == types.DirRise {
		return h.targetIn.Pin
	}
	return "!" + h.targetIn.Pin
}

// PinStates adds the clock, set/reset and flop pins to the base map.
func (h *Sequential) PinStates() map[string]types.State {
	m := h.core.PinStates()
	m[h.Clock.Pin] = h.Clock.State
	if h.Set != nil {
		m[h.Set.Pin] = h.Set.State
	}
	if h.Reset != nil {
		m[h.Reset.Pin] = h.Reset.State
	}
	for i, flop := range h.Flops {
		m[flop] = h.FlopStates[i]
	}
	return m
}

// ShortString prefixes the base form with the clock binding and appends
// set/reset bindings when declared.
func (h *Sequential) ShortString() string {
	parts := []string{h.Clock.String(), h.core.ShortString()}
	if h.Set != nil {
		parts = append(parts, h.Set.String())
	}
	if h.Reset != nil {
		parts = append(parts, h.Reset.String())
	}
	return strings.Join(parts, " ")
}
