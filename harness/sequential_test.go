package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cellchar/cellchar/types"
)

func dffCell() *types.Cell {
	return &types.Cell{
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

func dffNoSetReset() *types.Cell {
	c := dffCell()
	c.Name = "DFF"
	c.Set = ""
	c.Reset = ""
	c.Vectors = [][]string{{"0101", "0", "01", "01"}}
	return c
}

func TestSequentialHarness(t *testing.T) {
	// Prefix consumption order is clock, then reset, then set, then flops.
	h, err := NewSequential(dffCell(), []string{"0101", "0", "1", "0", "01", "01"})
	require.NoError(t, err)

	assert.Equal(t, PinBinding{Pin: "CLK", State: types.StatePulseFall}, h.Clock)
	require.NotNil(t, h.Reset)
	assert.Equal(t, types.StateHeld0, h.Reset.State)
	require.NotNil(t, h.Set)
	assert.Equal(t, types.StateHeld1, h.Set.State)
	assert.Equal(t, []string{"P0002"}, h.Flops)
	assert.Equal(t, []types.State{types.StateHeld0}, h.FlopStates)

	assert.Equal(t, "D", h.TargetIn().Pin)
	assert.Equal(t, "Q", h.TargetOut().Pin)
	assert.Equal(t, types.DirNone, h.SetDirection())
	assert.Equal(t, types.DirNone, h.ResetDirection())
}

func TestSequentialWithoutSetReset(t *testing.T) {
	h, err := NewSequential(dffNoSetReset(), []string{"1010", "1", "10", "10"})
	require.NoError(t, err)

	assert.Nil(t, h.Set)
	assert.Nil(t, h.Reset)
	assert.Equal(t, types.StatePulseRise, h.Clock.State)
	assert.Equal(t, types.DirFall, h.InDirection())
}

func TestSequentialResetTarget(t *testing.T) {
	// Reset carries the transition; it substitutes for the target input.
	h, err := NewSequential(dffCell(), []string{"0101", "01", "1", "0", "0", "10"})
	require.NoError(t, err)

	assert.Equal(t, "RN", h.TargetIn().Pin)
	assert.Equal(t, types.DirRise, h.ResetDirection())
	assert.Equal(t, types.DirRise, h.InDirection())

	label, err := h.TimingType(ModeRecovery)
	require.NoError(t, err)
	assert.Equal(t, "recovery_rising", label)

	label, err = h.TimingType(ModeRemoval)
	require.NoError(t, err)
	assert.Equal(t, "removal_falling", label)
}

func TestSequentialSetTarget(t *testing.T) {
	h, err := NewSequential(dffCell(), []string{"0101", "1", "10", "1", "1", "01"})
	require.NoError(t, err)

	assert.Equal(t, "SN", h.TargetIn().Pin)
	assert.Equal(t, types.DirFall, h.SetDirection())

	label, err := h.TimingType(ModeRecovery)
	require.NoError(t, err)
	assert.Equal(t, "recovery_falling", label)

	label, err = h.TimingType(ModeRemoval)
	require.NoError(t, err)
	assert.Equal(t, "removal_rising", label)
}

func TestSetupOnResetTargetFails(t *testing.T) {
	h, err := NewSequential(dffCell(), []string{"0101", "01", "1", "0", "0", "10"})
	require.NoError(t, err)

	_, err = h.TimingType(ModeSetup)
	require.Error(t, err)

	var classification *ClassificationError
	require.ErrorAs(t, err, &classification)
	assert.Equal(t, ModeSetup, classification.Mode)

	_, err = h.TimingType(ModeClock)
	require.Error(t, err)
	require.ErrorAs(t, err, &classification)
}

func TestDataTargetClassification(t *testing.T) {
	falling, err := NewSequential(dffCell(), []string{"0101", "1", "1", "0", "01", "01"})
	require.NoError(t, err)

	label, err := falling.TimingType(ModeClock)
	require.NoError(t, err)
	assert.Equal(t, TimingFallingEdge, label)

	label, err = falling.TimingType(ModeHold)
	require.NoError(t, err)
	assert.Equal(t, "hold_rising", label)

	label, err = falling.TimingType(ModeSetup)
	require.NoError(t, err)
	assert.Equal(t, "setup_rising", label)

	rising, err := NewSequential(dffCell(), []string{"1010", "1", "1", "0", "10", "10"})
	require.NoError(t, err)

	label, err = rising.TimingType(ModeClock)
	require.NoError(t, err)
	assert.Equal(t, TimingRisingEdge, label)

	label, err = rising.TimingType(ModeHold)
	require.NoError(t, err)
	assert.Equal(t, "hold_falling", label)

	_, err = rising.TimingType(ModeRecovery)
	require.Error(t, err)
	var classification *ClassificationError
	require.ErrorAs(t, err, &classification)
}

func TestSequentialRejectsMalformedVectors(t *testing.T) {
	tests := []struct {
		name    string
		vector  []string
		errPart string
	}{
		{"arity mismatch", []string{"0101", "1", "1", "0", "01"}, "expected 6 entries"},
		{"clock not a pulse", []string{"01", "1", "1", "0", "01", "01"}, "pulse waveform"},
		{"flop transition", []string{"0101", "1", "1", "01", "0", "10"}, "held state"},
		{"set and reset both targeted", []string{"0101", "01", "10", "0", "0", "10"}, "more than one target input"},
		{"reset and data both targeted", []string{"0101", "01", "1", "0", "01", "10"}, "more than one target input"},
		{"no target input", []string{"0101", "1", "1", "0", "0", "10"}, "no target input"},
		{"no target output", []string{"0101", "01", "1", "0", "0", "1"}, "no target output"},
		{"pulse on reset pin", []string{"0101", "1010", "1", "0", "01", "01"}, "pulse state"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSequential(dffCell(), tt.vector)
			require.Error(t, err)

			var malformed *MalformedTestVectorError
			require.ErrorAs(t, err, &malformed)
			assert.Equal(t, tt.vector, malformed.Vector)
			assert.Contains(t, err.Error(), tt.errPart)
		})
	}
}

func TestSequentialRejectsCombinationalCell(t *testing.T) {
	cell := inverterCell()
	_, err := NewSequential(cell, []string{"01", "10"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "use NewCombinational")
}

func TestSequentialAccessors(t *testing.T) {
	h, err := NewSequential(dffCell(), []string{"0101", "1", "1", "0", "01", "01"})
	require.NoError(t, err)

	assert.Equal(t, "rise_constraint", h.TimingSenseConstraint())
	assert.Equal(t, "D", h.When())

	falling, err := NewSequential(dffCell(), []string{"0101", "1", "1", "0", "10", "10"})
	require.NoError(t, err)
	assert.Equal(t, "fall_constraint", falling.TimingSenseConstraint())
	assert.Equal(t, "!D", falling.When())
}

func TestSequentialShortString(t *testing.T) {
	h, err := NewSequential(dffCell(), []string{"0101", "1", "1", "0", "01", "01"})
	require.NoError(t, err)
	assert.Equal(t, "CLK=0101 D=01 Q=01 SN=1 RN=1", h.ShortString())
}

func TestComplementaryVector(t *testing.T) {
	// Reversing every entry of a set/reset vector yields the opposite
	// polarity arc.
	vector := []string{"0101", "01", "1", "0", "0", "10"}
	reversed := make([]string, len(vector))
	for i, code := range vector {
		s, err := types.ParseState(code)
		require.NoError(t, err)
		reversed[i] = string(s.Reverse())
	}
	assert.Equal(t, []string{"1010", "10", "1", "0", "0", "01"}, reversed)

	h, err := NewSequential(dffCell(), reversed)
	require.NoError(t, err)
	assert.Equal(t, "RN", h.TargetIn().Pin)
	assert.Equal(t, types.DirFall, h.ResetDirection())

	label, err := h.TimingType(ModeRecovery)
	require.NoError(t, err)
	assert.Equal(t, "recovery_falling", label)
}
