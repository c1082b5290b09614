package harness

import (
	"errors"
	"fmt"
)

// ErrDuplicateMetric marks a second write to a (slew, load, metric) table
// cell. Table cells are write-once.
var ErrDuplicateMetric = errors.New("duplicate metric write")

// MalformedTestVectorError reports a test vector that cannot be bound to the
// target cell's ports. It always names the offending vector.
type MalformedTestVectorError struct {
	Vector []string
	Reason string
}

func (e *MalformedTestVectorError) Error() string {
	return fmt.Sprintf("malformed test vector %v: %s", e.Vector, e.Reason)
}

// ClassificationError reports a timing-type request that the harness's pin
// configuration cannot support. Fatal; the harness was built for a different
// mode.
type ClassificationError struct {
	Arc  string
	Mode TimingMode
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("cannot classify arc %q for mode %q", e.Arc, e.Mode)
}

// GridLookupError reports a lookup that expected exactly one match: a result
// table queried with an undeclared grid point or metric, or a harness search
// that found none or several candidates.
type GridLookupError struct {
	Query   string
	Matches int
}

func (e *GridLookupError) Error() string {
	if e.Matches == 0 {
		return fmt.Sprintf("no match for %s", e.Query)
	}
	return fmt.Sprintf("%d matches for %s, expected exactly one", e.Matches, e.Query)
}

// None reports whether the lookup found nothing.
func (e *GridLookupError) None() bool { return e.Matches == 0 }

// Ambiguous reports whether the lookup found more than one candidate.
func (e *GridLookupError) Ambiguous() bool { return e.Matches > 1 }
