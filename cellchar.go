package cellchar

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/cellchar/cellchar/exitcodes"
	"github.com/cellchar/cellchar/logging"
	"github.com/cellchar/cellchar/registry"
	"github.com/cellchar/cellchar/service"
	"github.com/cellchar/cellchar/sim"
	"github.com/cellchar/cellchar/sweep"
	"github.com/ethereum-optimism/optimism/op-service/cliapp"
)

// charService implements the cliapp.Lifecycle interface.
var _ cliapp.Lifecycle = &charService{}

// charService characterizes a standard-cell library against a simulation
// oracle, either once or periodically at a configured interval.
type charService struct {
	ctx      context.Context
	config   *Config
	version  string
	registry *registry.Registry
	oracle   sim.Oracle
	server   *service.Service

	scheduler RunScheduler
	reporter  MetricsReporter
	formatter ResultFormatter

	mu     sync.Mutex
	result *sweep.LibraryResult

	shutdownCallback func(error) // Callback to signal application shutdown
}

func New(ctx context.Context, config *Config, version string, shutdownCallback func(error)) (*charService, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}

	config.Log.Debug("Creating characterization service with config",
		"libraryFile", config.LibraryFile,
		"deckTemplate", config.DeckTemplate,
		"runInterval", config.RunInterval,
		"runOnce", config.RunOnce,
		"cacheSize", config.CacheSize)

	reg, err := registry.NewRegistry(registry.Config{
		Log:         config.Log,
		LibraryFile: config.LibraryFile,
		Simulator:   config.Simulator,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create registry: %w", err)
	}

	decks, err := sim.NewTemplateDeckBuilder(config.DeckTemplate, reg.Settings())
	if err != nil {
		return nil, fmt.Errorf("failed to create deck builder: %w", err)
	}

	// Create the oracle that actually invokes the simulator binary
	var oracle sim.Oracle
	oracle, err = sim.NewProcessOracle(sim.ProcessConfig{
		Simulator:     reg.Settings().Simulator,
		WorkDir:       config.WorkDir,
		MaxConcurrent: config.MaxSimProcs,
		Timeout:       config.SimTimeout,
		Logger:        config.Log.New("component", "sim"),
	}, decks)
	if err != nil {
		return nil, fmt.Errorf("failed to create simulation oracle: %w", err)
	}

	// Identical grid points recur across arcs, so cache unless disabled
	if config.CacheSize > 0 {
		oracle, err = sim.NewCachingOracle(oracle, config.CacheSize, config.Log.New("component", "simcache"))
		if err != nil {
			return nil, fmt.Errorf("failed to create caching oracle: %w", err)
		}
	}

	server := service.New(service.Config{
		HealthzEnabled: true,
		MetricsEnabled: config.Metrics.Enabled,
		MetricsHost:    config.Metrics.ListenAddr,
		MetricsPort:    strconv.Itoa(config.Metrics.ListenPort),
	})

	scheduler := NewDefaultRunScheduler(config.RunInterval, config.RunOnce, config.Log)

	s := &charService{
		ctx:              ctx,
		config:           config,
		version:          version,
		registry:         reg,
		oracle:           oracle,
		server:           server,
		scheduler:        scheduler,
		reporter:         NewDefaultMetricsReporter(),
		formatter:        NewConsoleResultFormatter(config.Log),
		shutdownCallback: shutdownCallback,
	}
	scheduler.RegisterCallback(s.runCharacterization)

	config.Log.Info("cellchar.New: created registry and simulation oracle",
		"cells", len(reg.Cells()),
		"simulator", reg.Settings().Simulator)
	return s, nil
}

// Start characterizes the library periodically at the configured interval.
// Start implements the cliapp.Lifecycle interface.
func (s *charService) Start(ctx context.Context) error {
	// Set up panic recovery to ensure we exit with code 2 for runtime errors
	defer func() {
		if r := recover(); r != nil {
			s.config.Log.Error("Runtime error occurred", "error", r)
			os.Exit(exitcodes.RuntimeErr)
		}
	}()

	s.ctx = ctx
	s.server.Start(ctx)

	if s.config.RunOnce {
		s.config.Log.Info("Starting cellchar in run-once mode")
	} else {
		s.config.Log.Info("Starting cellchar in continuous mode", "interval", s.config.RunInterval)
	}

	s.config.Log.Debug("Characterization inputs",
		"config.LibraryFile", s.config.LibraryFile,
		"config.DeckTemplate", s.config.DeckTemplate)

	// The scheduler runs the first characterization before returning
	if err := s.scheduler.Start(ctx); err != nil {
		// For runtime errors (like simulator or configuration issues), return exit code 2
		s.config.Log.Error("Runtime error running characterization", "error", err)
		return cli.Exit(err.Error(), exitcodes.RuntimeErr)
	}

	// If in run-once mode, trigger shutdown and return
	if s.config.RunOnce {
		s.config.Log.Info("Characterization completed, exiting (run-once mode)")

		// Check if any arcs failed and return the appropriate exit code
		if result := s.lastResult(); result != nil && result.FailedArcs() > 0 {
			s.config.Log.Warn("Run-once characterization completed with failures, returning exit code 1")
			// Exit code 1 signals arc failures (measurements missing or bad)
			return NewCharFailureError(result.String())
		}

		// Only need to call this when we're in run-once mode and every arc passed
		go func() {
			s.shutdownCallback(nil)
		}()
		return nil // Success (exit code 0)
	}

	s.config.Log.Debug("cellchar started successfully")
	return nil
}

// runCharacterization sweeps every cell in the library once and processes
// the results.
func (s *charService) runCharacterization() error {
	s.config.Log.Info("Characterizing library...")

	runID := uuid.New().String()
	runDir, err := logging.NewRunDir(s.config.OutputDir, runID, s.config.Log)
	if err != nil {
		// This is a runtime error (not an arc failure)
		s.config.Log.Error("Runtime error creating run directory", "error", err)
		return NewRuntimeError(err)
	}

	var indicator sweep.ProgressIndicator
	if s.config.ShowProgress {
		indicator = sweep.NewConsoleProgressIndicator(s.config.Log, s.config.ProgressInterval)
		if stopper, ok := indicator.(interface{ Stop() }); ok {
			defer stopper.Stop()
		}
	}

	// The engine is rebuilt per run so each run writes to its own directory
	engine, err := sweep.NewEngine(s.oracle, sweep.Config{
		Settings:    s.registry.Settings(),
		Concurrency: s.config.Concurrency,
		Logger:      s.config.Log,
		Progress:    indicator,
		Artifacts:   runDir,
	})
	if err != nil {
		s.config.Log.Error("Runtime error creating sweep engine", "error", err)
		return NewRuntimeError(err)
	}

	start := time.Now()
	result, err := engine.RunLibrary(s.ctx, s.registry.Cells())
	if err != nil {
		// This is a runtime error (not an arc failure)
		s.config.Log.Error("Runtime error characterizing library", "error", err)
		return NewRuntimeError(err)
	}
	duration := time.Since(start)
	s.setResult(result)

	if err := s.formatter.FormatResults(result, duration); err != nil {
		s.config.Log.Error("Error formatting results", "error", err)
	}
	s.reporter.ReportResults(runDir.RunID(), result, duration)
	if err := runDir.WriteRunSummary(result, duration); err != nil {
		s.config.Log.Error("Error writing run summary", "error", err)
	}

	s.config.Log.Info("Characterization run completed",
		"run_id", runDir.RunID(),
		"cells", len(result.Cells),
		"arcs", result.TotalArcs(),
		"failed", result.FailedArcs())
	return nil
}

// Stop stops the cellchar service.
// Stop implements the cliapp.Lifecycle interface.
func (s *charService) Stop(ctx context.Context) error {
	s.config.Log.Info("Stopping cellchar")

	// Check if we're already stopped
	if s.scheduler.Stopped() {
		s.config.Log.Debug("Service already stopped, nothing to do")
		return nil
	}

	if err := s.scheduler.Stop(); err != nil {
		return err
	}
	s.server.Shutdown()

	s.config.Log.Info("cellchar stopped successfully")
	return nil
}

// Stopped returns true if the cellchar service is stopped.
// Stopped implements the cliapp.Lifecycle interface.
func (s *charService) Stopped() bool {
	return s.scheduler.Stopped()
}

// WaitForShutdown blocks until all scheduler goroutines have terminated.
// This is useful in tests to ensure complete cleanup before moving to the next test.
func (s *charService) WaitForShutdown(ctx context.Context) error {
	return s.scheduler.WaitForShutdown(ctx)
}

func (s *charService) setResult(result *sweep.LibraryResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.result = result
}

// lastResult returns the most recent library result. The scheduler goroutine
// writes it, so reads go through the same mutex.
func (s *charService) lastResult() *sweep.LibraryResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}
