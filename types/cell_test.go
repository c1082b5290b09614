package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCombCell() *Cell {
	return &Cell{
		Name:    "INVX1",
		Netlist: "cells/invx1.sp",
		Inputs:  []string{"A"},
		Outputs: []string{"Y"},
		Slews:   []float64{0.1, 0.5},
		Loads:   []float64{0.02, 0.06},
		Vectors: [][]string{{"01", "10"}, {"10", "01"}},
	}
}

func validSeqCell() *Cell {
	return &Cell{
		Name:    "DFFSR",
		Netlist: "cells/dffsr.sp",
		Inputs:  []string{"D"},
		Outputs: []string{"Q"},
		Slews:   []float64{0.1},
		Loads:   []float64{0.02},
		Clock:   "CLK",
		Set:     "SN",
		Reset:   "RN",
		Flops:   []string{"P0002"},
		Vectors: [][]string{{"0101", "1", "1", "0", "01", "01"}},
	}
}

func TestCellValidate(t *testing.T) {
	require.NoError(t, validCombCell().Validate())
	require.NoError(t, validSeqCell().Validate())
}

func TestCellValidateRejectsBadDeclarations(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Cell)
		errPart string
	}{
		{"missing name", func(c *Cell) { c.Name = "" }, "no name"},
		{"missing netlist", func(c *Cell) { c.Netlist = "" }, "netlist"},
		{"no inputs", func(c *Cell) { c.Inputs = nil }, "input port"},
		{"no outputs", func(c *Cell) { c.Outputs = nil }, "output port"},
		{"no slews", func(c *Cell) { c.Slews = nil }, "slew"},
		{"no loads", func(c *Cell) { c.Loads = nil }, "load"},
		{"negative slew", func(c *Cell) { c.Slews = []float64{-0.1} }, "positive"},
		{"zero load", func(c *Cell) { c.Loads = []float64{0} }, "positive"},
		{"no vectors", func(c *Cell) { c.Vectors = nil }, "test vector"},
		{"reset without clock", func(c *Cell) { c.Reset = "RN" }, "clock"},
		{"duplicate pin", func(c *Cell) { c.Outputs = []string{"A"} }, "declared as both"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validCombCell()
			tt.mutate(c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errPart)
		})
	}
}

func TestCellValidateRequiresFlopsWithClock(t *testing.T) {
	c := validSeqCell()
	c.Flops = nil
	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flop")
}

func TestCellVectorLen(t *testing.T) {
	assert.Equal(t, 2, validCombCell().VectorLen())

	// clock + reset + set + one flop + one input + one output
	assert.Equal(t, 6, validSeqCell().VectorLen())

	noSet := validSeqCell()
	noSet.Set = ""
	assert.Equal(t, 5, noSet.VectorLen())
}

func TestCellSequential(t *testing.T) {
	assert.False(t, validCombCell().Sequential())
	assert.True(t, validSeqCell().Sequential())
}

func TestSettingsDefaultsAndValidation(t *testing.T) {
	s := Settings{
		Simulator: "/usr/bin/ngspice",
		VDD:       Rail{Voltage: 3.3},
		VSS:       Rail{Voltage: 0},
	}
	s.SetDefaults()

	assert.Equal(t, "VDD", s.VDD.Name)
	assert.Equal(t, "VSS", s.VSS.Name)
	assert.Equal(t, Thresholds{Low: 0.2, High: 0.8}, s.LogicThresholds)
	assert.Equal(t, Thresholds{Low: 0.1, High: 0.9}, s.EnergyThresholds)
	assert.Equal(t, 1e-9, s.TimeUnit)
	assert.Equal(t, 1e-12, s.CapacitanceUnit)
	require.NoError(t, s.Validate())
}

func TestSettingsValidateRejectsBadValues(t *testing.T) {
	base := func() Settings {
		s := Settings{
			Simulator: "/usr/bin/ngspice",
			VDD:       Rail{Name: "VDD", Voltage: 3.3},
			VSS:       Rail{Name: "VSS", Voltage: 0},
		}
		s.SetDefaults()
		return s
	}

	tests := []struct {
		name    string
		mutate  func(s *Settings)
		errPart string
	}{
		{"missing simulator", func(s *Settings) { s.Simulator = "" }, "simulator"},
		{"equal rails", func(s *Settings) { s.VSS.Voltage = 3.3 }, "must differ"},
		{"inverted logic thresholds", func(s *Settings) { s.LogicThresholds = Thresholds{Low: 0.8, High: 0.2} }, "logic thresholds"},
		{"energy threshold out of range", func(s *Settings) { s.EnergyThresholds = Thresholds{Low: 0, High: 0.9} }, "energy thresholds"},
		{"energy scale above one", func(s *Settings) { s.EnergyScale = 1.5 }, "energy_scale"},
		{"negative time unit", func(s *Settings) { s.TimeUnit = -1 }, "time_unit"},
		{"zero capacitance unit", func(s *Settings) { s.CapacitanceUnit = 0 }, "capacitance_unit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := base()
			tt.mutate(&s)
			err := s.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errPart)
		})
	}
}
