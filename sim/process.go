package sim

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"golang.org/x/sync/semaphore"
)

// DefaultSimulator is used when no simulator binary is configured.
const DefaultSimulator = "ngspice"

// DefaultMaxConcurrent bounds simultaneous simulator processes.
const DefaultMaxConcurrent = 4

var _ Oracle = (*ProcessOracle)(nil)

// ProcessConfig configures a ProcessOracle.
type ProcessConfig struct {
	// Simulator is the simulator binary. Binaries with "hspice" in the name
	// are driven hspice-style (listing written via -o); everything else in
	// batch style (-b, listing on stdout).
	Simulator string
	// WorkDir receives deck and listing temp files and becomes the
	// simulator's working directory; empty means the system temp directory.
	WorkDir string
	// MaxConcurrent bounds simultaneous simulator processes; zero or
	// negative selects DefaultMaxConcurrent.
	MaxConcurrent int64
	// Timeout bounds one invocation; zero means no bound beyond the caller's
	// context.
	Timeout time.Duration
	Logger  log.Logger
}

// ProcessOracle satisfies Oracle by running a simulator process per request:
// it renders the deck through its DeckBuilder, writes it to a temp file,
// invokes the simulator, and parses the listing for the requested
// measurement names.
type ProcessOracle struct {
	simulator  string
	hspice     bool
	workDir    string
	timeout    time.Duration
	decks      DeckBuilder
	sem        *semaphore.Weighted
	log        log.Logger
	cmdBuilder func(ctx context.Context, name string, arg ...string) (*exec.Cmd, func())
}

// NewProcessOracle creates a process-backed oracle.
func NewProcessOracle(cfg ProcessConfig, decks DeckBuilder) (*ProcessOracle, error) {
	if decks == nil {
		return nil, fmt.Errorf("deck builder cannot be nil")
	}
	simulator := cfg.Simulator
	if simulator == "" {
		simulator = DefaultSimulator
	}
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New("component", "sim")
	}

	return &ProcessOracle{
		simulator:  simulator,
		hspice:     strings.Contains(simulator, "hspice"),
		workDir:    cfg.WorkDir,
		timeout:    cfg.Timeout,
		decks:      decks,
		sem:        semaphore.NewWeighted(maxConcurrent),
		log:        logger,
		cmdBuilder: defaultCmdBuilder,
	}, nil
}

// Measure runs one simulation. Concurrent callers beyond the configured
// process bound block until a slot frees up.
func (o *ProcessOracle) Measure(ctx context.Context, req Request) (Result, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context cannot be nil")
	}
	if err := o.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("waiting for simulator slot: %w", err)
	}
	defer o.sem.Release(1)

	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	deck, err := o.decks.BuildDeck(req)
	if err != nil {
		return nil, fmt.Errorf("building deck: %w", err)
	}
	deckPath, err := o.writeDeck(deck)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = os.Remove(deckPath)
	}()

	listingFile, err := os.CreateTemp(o.workDir, "cellchar-listing-*.lis")
	if err != nil {
		return nil, fmt.Errorf("failed to create listing file: %w", err)
	}
	listingPath := listingFile.Name()
	defer func() {
		_ = listingFile.Close()
		_ = os.Remove(listingPath)
	}()

	args := []string{"-b", deckPath}
	if o.hspice {
		args = []string{deckPath, "-o", listingPath}
	}
	cmd, cleanup := o.cmdBuilder(ctx, o.simulator, args...)
	defer cleanup()
	if o.workDir != "" {
		cmd.Dir = o.workDir
	}

	outputTail := newTailBuffer(defaultListingTailBytes)
	var stderrBuf bytes.Buffer
	if o.hspice {
		cmd.Stdout = outputTail
	} else {
		cmd.Stdout = io.MultiWriter(listingFile, outputTail)
	}
	cmd.Stderr = &stderrBuf

	o.log.Debug("Invoking simulator",
		"cell", req.Cell, "arc", req.Arc, "pass", req.Pass(),
		"slew", req.SlewSeconds, "load", req.LoadFarads)
	startTime := time.Now()
	runErr := cmd.Run()
	duration := time.Since(startTime)

	_ = listingFile.Sync()
	_ = listingFile.Close()

	if runErr != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			runErr = fmt.Errorf("simulator timed out after %v", o.timeout)
		} else {
			exitErr := &exec.ExitError{}
			if errors.As(runErr, &exitErr) {
				runErr = fmt.Errorf("simulator exited with code %d", exitErr.ExitCode())
			} else {
				runErr = fmt.Errorf("failed to run simulator: %w", runErr)
			}
		}
		if stderrBuf.Len() > 0 {
			runErr = fmt.Errorf("%w\nstderr: %s", runErr, stderrBuf.String())
		}
		o.log.Debug("Simulation failed", "cell", req.Cell, "arc", req.Arc,
			"duration", duration, "output", outputTail.snippet())
		return nil, runErr
	}

	listing, err := os.Open(listingPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read listing: %w", err)
	}
	results, parseErr := parseListing(listing, req.Measurements())
	_ = listing.Close()
	if parseErr != nil {
		if stderrBuf.Len() > 0 {
			parseErr = fmt.Errorf("%w\nstderr: %s", parseErr, stderrBuf.String())
		}
		o.log.Debug("Listing parse failed", "cell", req.Cell, "arc", req.Arc,
			"duration", duration, "output", outputTail.snippet())
		return nil, parseErr
	}

	o.log.Debug("Simulation complete",
		"cell", req.Cell, "arc", req.Arc, "pass", req.Pass(), "duration", duration)
	return results, nil
}

func (o *ProcessOracle) writeDeck(deck []byte) (string, error) {
	deckFile, err := os.CreateTemp(o.workDir, "cellchar-deck-*.sp")
	if err != nil {
		return "", fmt.Errorf("failed to create deck file: %w", err)
	}
	deckPath := deckFile.Name()
	if _, err := deckFile.Write(deck); err != nil {
		_ = deckFile.Close()
		_ = os.Remove(deckPath)
		return "", fmt.Errorf("failed to write deck: %w", err)
	}
	if err := deckFile.Close(); err != nil {
		_ = os.Remove(deckPath)
		return "", fmt.Errorf("failed to write deck: %w", err)
	}
	return deckPath, nil
}

func defaultCmdBuilder(ctx context.Context, name string, arg ...string) (*exec.Cmd, func()) {
	cmd := exec.CommandContext(ctx, name, arg...)
	// A killed simulator can leave children holding the output pipes; don't
	// wait on them forever.
	cmd.WaitDelay = 10 * time.Second
	return cmd, func() {}
}
