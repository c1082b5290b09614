package flags

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	opservice "github.com/ethereum-optimism/optimism/op-service"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"
	opmetrics "github.com/ethereum-optimism/optimism/op-service/metrics"
)

const EnvVarPrefix = "CELLCHAR"

var (
	LibraryFile = &cli.StringFlag{
		Name:     "library-file",
		Value:    "",
		Required: true,
		EnvVars:  opservice.PrefixEnvVar(EnvVarPrefix, "LIBRARY_FILE"),
		Usage:    "Path to the cell library file (eg. 'cells.yaml')",
	}
	DeckTemplate = &cli.StringFlag{
		Name:     "deck-template",
		Value:    "",
		Required: true,
		EnvVars:  opservice.PrefixEnvVar(EnvVarPrefix, "DECK_TEMPLATE"),
		Usage:    "Path to the simulation deck template (eg. 'deck.sp.tmpl')",
	}
	OutputDir = &cli.StringFlag{
		Name:    "output-dir",
		Value:   "results",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "OUTPUT_DIR"),
		Usage:   "Directory receiving per-run characterization artifacts",
	}
	Simulator = &cli.StringFlag{
		Name:    "simulator",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SIMULATOR"),
		Usage:   "Simulator binary overriding the one named by the library file",
	}
	WorkDir = &cli.StringFlag{
		Name:    "work-dir",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "WORK_DIR"),
		Usage:   "Scratch directory for simulation decks and listings (defaults to the system temp directory)",
	}
	RunInterval = &cli.DurationFlag{
		Name:    "run-interval",
		Value:   0,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "RUN_INTERVAL"),
		Usage:   "Interval between characterization runs (e.g. '1h', '30m'). Set to 0 or omit for run-once mode.",
	}
	Concurrency = &cli.IntFlag{
		Name:    "concurrency",
		Value:   0,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "CONCURRENCY"),
		Usage:   "Number of concurrent grid workers per sweep (0 = auto)",
	}
	MaxSimProcs = &cli.Int64Flag{
		Name:    "max-sim-procs",
		Value:   0,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "MAX_SIM_PROCS"),
		Usage:   "Maximum simultaneous simulator processes (0 = auto)",
	}
	SimTimeout = &cli.DurationFlag{
		Name:    "sim-timeout",
		Value:   0,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SIM_TIMEOUT"),
		Usage:   "Timeout for a single simulator invocation. Set to 0 for no bound beyond the run context.",
	}
	CacheSize = &cli.IntFlag{
		Name:    "cache-size",
		Value:   4096,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "CACHE_SIZE"),
		Usage:   "Measurement cache capacity in grid-point results. Set to 0 to disable caching.",
	}
	ShowProgress = &cli.BoolFlag{
		Name:    "show-progress",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SHOW_PROGRESS"),
		Usage:   "Log periodic progress updates during long sweeps",
	}
	ProgressInterval = &cli.DurationFlag{
		Name:    "progress-interval",
		Value:   30 * time.Second,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "PROGRESS_INTERVAL"),
		Usage:   "Interval between progress updates when --show-progress is set",
	}
)

var requiredFlags = []cli.Flag{
	LibraryFile,
	DeckTemplate,
}

var optionalFlags = []cli.Flag{
	OutputDir,
	Simulator,
	WorkDir,
	RunInterval,
	Concurrency,
	MaxSimProcs,
	SimTimeout,
	CacheSize,
	ShowProgress,
	ProgressInterval,
}
var Flags []cli.Flag

func init() {
	optionalFlags = append(optionalFlags, oplog.CLIFlags(EnvVarPrefix)...)
	optionalFlags = append(optionalFlags, opmetrics.CLIFlags(EnvVarPrefix)...)

	Flags = append(requiredFlags, optionalFlags...)
}

func CheckRequired(ctx *cli.Context) error {
	for _, f := range requiredFlags {
		if !ctx.IsSet(f.Names()[0]) {
			return fmt.Errorf("flag %s is required", f.Names()[0])
		}
	}
	return nil
}
