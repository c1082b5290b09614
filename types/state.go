package types

import "fmt"

// State is the parsed form of one test-vector state code. The value is the
// canonical notation itself, so converting back to the external vector format
// is a plain string conversion. All role decisions downstream switch on the
// enumerated value; nothing re-inspects the raw code.
type State string

const (
	// StateHeld0 and StateHeld1 hold a pin at a fixed logic level.
	StateHeld0 State = "0"
	StateHeld1 State = "1"
	// StateRise and StateFall mark a pin as the target of a transition.
	StateRise State = "01"
	StateFall State = "10"
	// StateTriRise and StateTriFall release a tri-stated pin to a driven level.
	StateTriRise State = "z1"
	StateTriFall State = "z0"
	// StatePulseFall and StatePulseRise are clock waveforms: a four-symbol
	// pattern whose active edge falls or rises respectively. Valid on clock
	// pins only.
	StatePulseFall State = "0101"
	StatePulseRise State = "1010"
)

// Direction classifies the stimulus edge a state implies.
type Direction string

const (
	DirRise Direction = "rise"
	DirFall Direction = "fall"
	DirNone Direction = "none"
)

// ParseState converts an external state code into its enumerated form.
func ParseState(code string) (State, error) {
	switch s := State(code); s {
	case StateHeld0, StateHeld1, StateRise, StateFall,
		StateTriRise, StateTriFall, StatePulseFall, StatePulseRise:
		return s, nil
	default:
		return "", fmt.Errorf("unknown state code %q", code)
	}
}

// Direction returns the stimulus edge implied by the state: rise for 01/z1,
// fall for 10/z0, none for held levels and clock pulses.
func (s State) Direction() Direction {
	switch s {
	case StateRise, StateTriRise:
		return DirRise
	case StateFall, StateTriFall:
		return DirFall
	default:
		return DirNone
	}
}

// InitialLevel returns the level a pin sits at before the event: "0", "1",
// or "z". The canonical code is the waveform, so this is its first symbol.
func (s State) InitialLevel() string {
	if s == "" {
		return ""
	}
	return string(s[0])
}

// FinalLevel returns the level a pin settles at after the event.
func (s State) FinalLevel() string {
	if s == "" {
		return ""
	}
	return string(s[len(s)-1])
}

// IsTransition reports whether the state targets a pin with an edge.
func (s State) IsTransition() bool {
	switch s {
	case StateRise, StateFall, StateTriRise, StateTriFall:
		return true
	default:
		return false
	}
}

// IsHeld reports whether the state pins a fixed logic level.
func (s State) IsHeld() bool {
	return s == StateHeld0 || s == StateHeld1
}

// IsPulse reports whether the state is a clock waveform.
func (s State) IsPulse() bool {
	return s == StatePulseFall || s == StatePulseRise
}

// HeldLevel returns the logic level of a held state.
func (s State) HeldLevel() (int, error) {
	switch s {
	case StateHeld0:
		return 0, nil
	case StateHeld1:
		return 1, nil
	default:
		return 0, fmt.Errorf("state %q does not hold a logic level", string(s))
	}
}

// Reverse returns the opposite-polarity state: transitions flip edge, pulses
// flip their active edge, held levels are unchanged. Used to derive the
// complementary vector for set/reset sweeps.
func (s State) Reverse() State {
	switch s {
	case StateRise:
		return StateFall
	case StateFall:
		return StateRise
	case StateTriRise:
		return StateTriFall
	case StateTriFall:
		return StateTriRise
	case StatePulseFall:
		return StatePulseRise
	case StatePulseRise:
		return StatePulseFall
	default:
		return s
	}
}
