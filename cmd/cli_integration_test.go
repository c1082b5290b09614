package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cellchar/cellchar/logging"
)

// TestCLIConcurrencyFlags tests the sweep concurrency knobs through the actual CLI
func TestCLIConcurrencyFlags(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping CLI integration test in short mode")
	}

	// Create temporary characterization inputs
	workDir := t.TempDir()
	simulator := writeStubSimulator(t, workDir)
	libraryPath := writeStubLibrary(t, workDir, simulator)
	deckPath := writeStubDeckTemplate(t, workDir)

	// Build the cellchar binary
	binaryPath := buildCellchar(t)

	// Test 1: Default behavior (parallel grid workers)
	t.Run("default-parallel", func(t *testing.T) {
		start := time.Now()
		output, err := runCellcharCLI(t, binaryPath, []string{
			"--library-file", libraryPath,
			"--deck-template", deckPath,
			"--output-dir", filepath.Join(workDir, "results-parallel"),
			"--work-dir", workDir,
		})
		parallelDuration := time.Since(start)

		require.NoError(t, err)
		assert.Contains(t, output, "characterized 1 cells, 2 arcs (0 failed)")

		t.Logf("Default (parallel) execution took: %v", parallelDuration)
	})

	// Test 2: Single worker, single simulator process
	t.Run("serial-workers", func(t *testing.T) {
		start := time.Now()
		output, err := runCellcharCLI(t, binaryPath, []string{
			"--library-file", libraryPath,
			"--deck-template", deckPath,
			"--output-dir", filepath.Join(workDir, "results-serial"),
			"--work-dir", workDir,
			"--concurrency", "1",
			"--max-sim-procs", "1",
		})
		serialDuration := time.Since(start)

		require.NoError(t, err)
		assert.Contains(t, output, "characterized 1 cells, 2 arcs (0 failed)")

		t.Logf("Serial execution took: %v", serialDuration)
	})

	// Test 3: Help text includes the characterization flags
	t.Run("help-includes-characterization-flags", func(t *testing.T) {
		output, err := runCellcharCLI(t, binaryPath, []string{"--help"})

		require.NoError(t, err)
		assert.Contains(t, output, "--library-file", "Help should mention --library-file flag")
		assert.Contains(t, output, "--deck-template", "Help should mention --deck-template flag")
		assert.Contains(t, output, "--cache-size", "Help should mention --cache-size flag")
		assert.Contains(t, output, "disable caching", "Help should explain --cache-size flag")
	})
}

// TestCLIEnvironmentVariables tests the environment variable equivalents
func TestCLIEnvironmentVariables(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping CLI environment variable test in short mode")
	}

	// Create temporary characterization inputs
	workDir := t.TempDir()
	simulator := writeStubSimulator(t, workDir)
	libraryPath := writeStubLibrary(t, workDir, simulator)
	deckPath := writeStubDeckTemplate(t, workDir)

	binaryPath := buildCellchar(t)

	// Test with environment variables taking the place of optional flags
	outputDir := filepath.Join(workDir, "env-results")
	output, err := runCellcharCLIWithEnv(t, binaryPath, []string{
		"--library-file", libraryPath,
		"--deck-template", deckPath,
		"--work-dir", workDir,
	}, map[string]string{
		"CELLCHAR_OUTPUT_DIR":  outputDir,
		"CELLCHAR_CONCURRENCY": "1",
	})

	require.NoError(t, err)
	assert.Contains(t, output, "characterized 1 cells, 2 arcs (0 failed)")

	// The run directory was created where the environment pointed
	entries, err := os.ReadDir(outputDir)
	require.NoError(t, err)
	require.NotEmpty(t, entries, "Run directory should be created in CELLCHAR_OUTPUT_DIR")
	assert.True(t, strings.HasPrefix(entries[0].Name(), logging.RunDirectoryPrefix),
		"Run directory should carry the run prefix")

	t.Logf("Environment variable configuration works correctly")
}

// Helper functions

func buildCellchar(t *testing.T) string {
	t.Helper()

	binaryPath := filepath.Join(t.TempDir(), "cellchar")

	// Build the binary
	cmd := exec.Command("go", "build", "-o", binaryPath, ".")
	cmd.Dir = "." // Current directory should be cellchar/cmd

	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "Failed to build cellchar: %s", string(output))

	return binaryPath
}

func runCellcharCLI(t *testing.T, binaryPath string, args []string) (string, error) {
	return runCellcharCLIWithEnv(t, binaryPath, args, nil)
}

func runCellcharCLIWithEnv(t *testing.T, binaryPath string, args []string, env map[string]string) (string, error) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, binaryPath, args...)

	// Set environment variables
	cmd.Env = os.Environ()
	for key, value := range env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", key, value))
	}

	output, err := cmd.CombinedOutput()
	return string(output), err
}

// writeStubSimulator writes a script that reports a full measurement listing
func writeStubSimulator(t *testing.T, dir string) string {
	t.Helper()

	const script = `#!/bin/sh
cat <<'LISTING'
energy_start        =  1.0e-9
energy_end          =  4.0e-9
prop_in_out         =  1.2e-11
trans_out           =  4.0e-12
q_in_dyn            =  1.5e-15
q_out_dyn           = -2.5e-15
q_vdd_dyn           = -3.0e-15
q_vss_dyn           =  4.5e-15
i_in_leak           =  1.0e-12
i_vdd_leak          = -2.0e-12
i_vss_leak          =  2.0e-12
LISTING
`
	path := filepath.Join(dir, "stubspice")
	require.NoError(t, os.WriteFile(path, []byte(script), 0755))
	return path
}

// writeStubLibrary writes a library with one cell and two arcs
func writeStubLibrary(t *testing.T, dir, simulator string) string {
	t.Helper()

	library := fmt.Sprintf(`
settings:
  simulator: %s
  vdd: {name: VDD, voltage: 1.8}
  vss: {name: VSS, voltage: 0}
cells:
  INV_X1:
    netlist: cells/INV_X1.sp
    inputs: [A]
    outputs: [Y]
    slews: [0.5]
    loads: [1.0]
    vectors:
      - ["01", "10"]
      - ["10", "01"]
`, simulator)

	path := filepath.Join(dir, "library.yaml")
	require.NoError(t, os.WriteFile(path, []byte(library), 0644))
	return path
}

// writeStubDeckTemplate writes a deck template exercising the template funcs
func writeStubDeckTemplate(t *testing.T, dir string) string {
	t.Helper()

	const deck = `* deck for {{ .Cell }} ({{ .Arc }})
.include "{{ .Netlist }}"
V{{ .VDD.Name }} {{ .VDD.Name }} 0 {{ sci .VDD.Voltage }}
CLOAD {{ .OutPin }} 0 {{ sci .LoadFarads }}
.tran 1e-12 {{ sci .WindowEnd }}
.end
`
	path := filepath.Join(dir, "deck.sp.tmpl")
	require.NoError(t, os.WriteFile(path, []byte(deck), 0644))
	return path
}
