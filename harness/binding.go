package harness

import (
	"fmt"

	"github.com/cellchar/cellchar/types"
)

// PinBinding associates one pin with its state for a trial.
type PinBinding struct {
	Pin   string
	State types.State
}

// Direction returns the stimulus edge the binding implies, if any.
func (b PinBinding) Direction() types.Direction {
	return b.State.Direction()
}

func (b PinBinding) String() string {
	return fmt.Sprintf("%s=%s", b.Pin, b.State)
}
