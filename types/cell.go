package types

import "fmt"

// Cell describes one standard cell to characterize: its port topology, the
// declared slew and load sweep ranges, and the test vectors that select the
// arcs under test. The netlist and model paths are opaque here; they are
// handed to the deck builder unmodified.
type Cell struct {
	Name    string   `yaml:"-"`
	Netlist string   `yaml:"netlist"`
	Models  []string `yaml:"models,omitempty"`

	Inputs  []string `yaml:"inputs"`
	Outputs []string `yaml:"outputs"`

	Slews []float64 `yaml:"slews"`
	Loads []float64 `yaml:"loads"`

	// Sequential-only declarations. A clock is mandatory as soon as any of
	// set/reset/flops are declared.
	Clock string   `yaml:"clock,omitempty"`
	Set   string   `yaml:"set,omitempty"`
	Reset string   `yaml:"reset,omitempty"`
	Flops []string `yaml:"flops,omitempty"`

	Vectors [][]string `yaml:"vectors"`
}

// Sequential reports whether the cell declares internal state.
func (c *Cell) Sequential() bool {
	return c.Clock != ""
}

// VectorLen returns the entry count a well-formed test vector must have.
func (c *Cell) VectorLen() int {
	n := len(c.Inputs) + len(c.Outputs)
	if !c.Sequential() {
		return n
	}
	n++ // clock
	if c.Reset != "" {
		n++
	}
	if c.Set != "" {
		n++
	}
	return n + len(c.Flops)
}

// Validate checks the structural consistency of the cell declaration. Vector
// contents are not interpreted here; the harness factories own that.
func (c *Cell) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("cell has no name")
	}
	if c.Netlist == "" {
		return fmt.Errorf("cell %s: netlist path is required", c.Name)
	}
	if len(c.Inputs) == 0 {
		return fmt.Errorf("cell %s: at least one input port is required", c.Name)
	}
	if len(c.Outputs) == 0 {
		return fmt.Errorf("cell %s: at least one output port is required", c.Name)
	}
	if len(c.Slews) == 0 {
		return fmt.Errorf("cell %s: at least one slew value is required", c.Name)
	}
	if len(c.Loads) == 0 {
		return fmt.Errorf("cell %s: at least one load value is required", c.Name)
	}
	for _, s := range c.Slews {
		if s <= 0 {
			return fmt.Errorf("cell %s: slew values must be positive, got %v", c.Name, s)
		}
	}
	for _, l := range c.Loads {
		if l <= 0 {
			return fmt.Errorf("cell %s: load values must be positive, got %v", c.Name, l)
		}
	}
	if len(c.Vectors) == 0 {
		return fmt.Errorf("cell %s: at least one test vector is required", c.Name)
	}
	if !c.Sequential() && (c.Set != "" || c.Reset != "" || len(c.Flops) > 0) {
		return fmt.Errorf("cell %s: set/reset/flops require a clock declaration", c.Name)
	}
	if c.Sequential() && len(c.Flops) == 0 {
		return fmt.Errorf("cell %s: a clocked cell must declare at least one flop", c.Name)
	}
	return c.checkPinNames()
}

func (c *Cell) checkPinNames() error {
	seen := make(map[string]string)
	add := func(role, name string) error {
		if name == "" {
			return fmt.Errorf("cell %s: empty %s pin name", c.Name, role)
		}
		if prev, ok := seen[name]; ok {
			return fmt.Errorf("cell %s: pin %s declared as both %s and %s", c.Name, name, prev, role)
		}
		seen[name] = role
		return nil
	}
	for _, p := range c.Inputs {
		if err := add("input", p); err != nil {
			return err
		}
	}
	for _, p := range c.Outputs {
		if err := add("output", p); err != nil {
			return err
		}
	}
	if c.Clock != "" {
		if err := add("clock", c.Clock); err != nil {
			return err
		}
	}
	if c.Set != "" {
		if err := add("set", c.Set); err != nil {
			return err
		}
	}
	if c.Reset != "" {
		if err := add("reset", c.Reset); err != nil {
			return err
		}
	}
	for _, p := range c.Flops {
		if err := add("flop", p); err != nil {
			return err
		}
	}
	return nil
}
