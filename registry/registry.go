package registry

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/log"
	"gopkg.in/yaml.v3"

	"github.com/cellchar/cellchar/types"
)

// Registry loads a characterization library file and serves its validated
// contents. Cells are read-only after loading; callers must not mutate them.
type Registry struct {
	config   Config
	settings types.Settings
	cells    map[string]*types.Cell
	mu       sync.RWMutex
}

// Config contains registry configuration
type Config struct {
	Log         log.Logger
	LibraryFile string
	// Simulator overrides the library file's simulator binary when set.
	Simulator string
}

// NewRegistry creates a new registry instance and loads the library file.
func NewRegistry(cfg Config) (*Registry, error) {
	if cfg.LibraryFile == "" {
		return nil, fmt.Errorf("library file is required")
	}
	if cfg.Log == nil {
		cfg.Log = log.New()
		cfg.Log.Error("No logger provided, using default")
	}

	r := &Registry{
		config: cfg,
	}

	if err := r.loadLibrary(cfg.LibraryFile); err != nil {
		return nil, fmt.Errorf("failed to load library: %w", err)
	}

	cfg.Log.Debug("Registry loaded", "cells", len(r.cells))

	return r, nil
}

// loadLibrary reads, defaults and validates the library file.
func (r *Registry) loadLibrary(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	lib, err := loadLibrary(path)
	if err != nil {
		return err
	}

	if r.config.Simulator != "" {
		lib.Settings.Simulator = r.config.Simulator
	}
	lib.Settings.SetDefaults()
	if err := lib.Settings.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	if len(lib.Cells) == 0 {
		return fmt.Errorf("library declares no cells")
	}
	for name, cell := range lib.Cells {
		if cell == nil {
			return fmt.Errorf("cell %s has no body", name)
		}
		// The map key is the authoritative name.
		cell.Name = name
		if err := cell.Validate(); err != nil {
			return err
		}
	}

	r.settings = lib.Settings
	r.cells = lib.Cells

	return nil
}

// Settings returns the validated, defaulted library settings.
func (r *Registry) Settings() types.Settings {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.settings
}

// Cells returns every declared cell keyed by name.
func (r *Registry) Cells() map[string]*types.Cell {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]*types.Cell, len(r.cells))
	for name, cell := range r.cells {
		out[name] = cell
	}
	return out
}

// Cell returns one cell by name.
func (r *Registry) Cell(name string) (*types.Cell, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cell, ok := r.cells[name]
	return cell, ok
}

// CellNames returns the declared cell names in sorted order.
func (r *Registry) CellNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.cells))
	for name := range r.cells {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetConfig returns the registry configuration
func (r *Registry) GetConfig() Config {
	return r.config
}

// loadLibrary loads a library definition from a file
func loadLibrary(path string) (*types.Library, error) {
	log.Debug("Reading library file", "path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading library file: %w", err)
	}

	var lib types.Library
	if err := yaml.Unmarshal(data, &lib); err != nil {
		return nil, fmt.Errorf("parsing library file: %w", err)
	}

	return &lib, nil
}
