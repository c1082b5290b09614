package cellchar

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"

	opmetrics "github.com/ethereum-optimism/optimism/op-service/metrics"
	"github.com/ethereum/go-ethereum/log"

	"github.com/cellchar/cellchar/flags"
)

// Config holds the application configuration
type Config struct {
	LibraryFile      string        // Cell library file (settings + cells)
	DeckTemplate     string        // Simulation deck template
	OutputDir        string        // Base directory for per-run artifacts
	Simulator        string        // Simulator binary override ("" keeps the library's)
	WorkDir          string        // Simulator scratch directory ("" = system temp)
	RunInterval      time.Duration // Interval between characterization runs
	RunOnce          bool          // Indicates if the service should exit after one run
	Concurrency      int           // Concurrent grid workers per sweep (0 = auto)
	MaxSimProcs      int64         // Bound on simultaneous simulator processes (0 = auto)
	SimTimeout       time.Duration // Timeout per simulator invocation (0 = unbounded)
	CacheSize        int           // Measurement cache capacity (0 disables caching)
	ShowProgress     bool          // Whether to log periodic progress updates
	ProgressInterval time.Duration // Interval between progress updates when ShowProgress is 'true'
	Metrics          opmetrics.CLIConfig
	Log              log.Logger
}

// NewConfig creates a new Config from cli context
func NewConfig(ctx *cli.Context, log log.Logger, libraryFile string, deckTemplate string) (*Config, error) {
	// Parse flags
	if err := flags.CheckRequired(ctx); err != nil {
		return nil, fmt.Errorf("missing required flags: %w", err)
	}
	if libraryFile == "" {
		return nil, errors.New("library file is required")
	}
	if deckTemplate == "" {
		return nil, errors.New("deck template is required")
	}

	// Resolve the absolute paths
	absLibraryFile, err := filepath.Abs(libraryFile)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for library file '%s': %w", libraryFile, err)
	}
	absDeckTemplate, err := filepath.Abs(deckTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for deck template '%s': %w", deckTemplate, err)
	}

	runInterval := ctx.Duration(flags.RunInterval.Name)
	runOnce := runInterval == 0

	// Get output directory, default to "results" if not specified
	outputDir := ctx.String(flags.OutputDir.Name)
	if outputDir == "" {
		outputDir = "results"
	}
	outputDir, err = filepath.Abs(outputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for output directory '%s': %w", outputDir, err)
	}

	metricsCfg := opmetrics.ReadCLIConfig(ctx)
	if err := metricsCfg.Check(); err != nil {
		return nil, fmt.Errorf("invalid metrics config: %w", err)
	}

	return &Config{
		LibraryFile:      absLibraryFile,
		DeckTemplate:     absDeckTemplate,
		OutputDir:        outputDir,
		Simulator:        ctx.String(flags.Simulator.Name),
		WorkDir:          ctx.String(flags.WorkDir.Name),
		RunInterval:      runInterval,
		RunOnce:          runOnce,
		Concurrency:      ctx.Int(flags.Concurrency.Name),
		MaxSimProcs:      ctx.Int64(flags.MaxSimProcs.Name),
		SimTimeout:       ctx.Duration(flags.SimTimeout.Name),
		CacheSize:        ctx.Int(flags.CacheSize.Name),
		ShowProgress:     ctx.Bool(flags.ShowProgress.Name),
		ProgressInterval: ctx.Duration(flags.ProgressInterval.Name),
		Metrics:          metricsCfg,
		Log:              log,
	}, nil
}
