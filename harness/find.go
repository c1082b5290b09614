package harness

import (
	"fmt"

	"github.com/cellchar/cellchar/types"
)

// TimingSense labels the unateness of a set of arcs.
type TimingSense string

const (
	PositiveUnate TimingSense = "positive_unate"
	NegativeUnate TimingSense = "negative_unate"
	NonUnate      TimingSense = "non_unate"
)

// FilterByPorts returns the harnesses targeting the given input and output
// pins, preserving order.
func FilterByPorts(harnesses []Harness, inPin, outPin string) []Harness {
	var out []Harness
	for _, h := range harnesses {
		if h.TargetIn().Pin == inPin && h.TargetOut().Pin == outPin {
			out = append(out, h)
		}
	}
	return out
}

// FindByArc locates the single harness testing the given arc. Zero or
// multiple candidates fail with a GridLookupError that distinguishes the
// two cases.
func FindByArc(harnesses []Harness, inPin, outPin string, outDir types.Direction) (Harness, error) {
	var matches []Harness
	for _, h := range FilterByPorts(harnesses, inPin, outPin) {
		if h.OutDirection() == outDir {
			matches = append(matches, h)
		}
	}
	if len(matches) != 1 {
		return nil, &GridLookupError{
			Query:   fmt.Sprintf("arc %s -> %s (%s)", inPin, outPin, outDir),
			Matches: len(matches),
		}
	}
	return matches[0], nil
}

// CheckTimingSense reports the common unateness of a group of combinational
// arcs, or NonUnate when they disagree.
func CheckTimingSense(harnesses []*Combinational) (TimingSense, error) {
	if len(harnesses) == 0 {
		return "", fmt.Errorf("no harnesses to check")
	}
	sense := harnesses[0].TimingSense()
	for _, h := range harnesses[1:] {
		if h.TimingSense() != sense {
			return NonUnate, nil
		}
	}
	return sense, nil
}
