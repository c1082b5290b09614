package sim

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"

	"github.com/cellchar/cellchar/types"
)

// DeckContext is the data a deck template renders against: the request
// itself plus the library settings and the resolved measurement window.
type DeckContext struct {
	Request
	Settings types.Settings

	// WindowStart and WindowEnd are always resolved: the windowing pass
	// integrates over the settings' default extent, the measurement pass
	// over the window the first pass located.
	WindowStart float64
	WindowEnd   float64

	// Measurements lists the names the deck must emit results for.
	Measurements []types.Metric
}

// DeckFuncs returns the functions available to deck templates.
func DeckFuncs() template.FuncMap {
	return template.FuncMap{
		"sci": func(v float64) string {
			return strconv.FormatFloat(v, 'e', -1, 64)
		},
		"join":  strings.Join,
		"upper": strings.ToUpper,
		"lower": strings.ToLower,
	}
}

// TemplateDeckBuilder renders decks from a user-supplied text template. The
// template owns every line of simulator syntax; the builder only binds
// per-invocation parameters, which keeps the tool simulator-agnostic.
type TemplateDeckBuilder struct {
	tmpl     *template.Template
	settings types.Settings
}

// NewTemplateDeckBuilder parses the template file once up front. A stale or
// broken template fails here, not mid-sweep.
func NewTemplateDeckBuilder(path string, settings types.Settings) (*TemplateDeckBuilder, error) {
	if path == "" {
		return nil, fmt.Errorf("deck template path is required")
	}
	tmpl, err := template.New(filepath.Base(path)).
		Funcs(DeckFuncs()).
		Option("missingkey=error").
		ParseFiles(path)
	if err != nil {
		return nil, fmt.Errorf("parsing deck template %s: %w", path, err)
	}
	return &TemplateDeckBuilder{tmpl: tmpl, settings: settings}, nil
}

// BuildDeck renders the template against one request.
func (b *TemplateDeckBuilder) BuildDeck(req Request) ([]byte, error) {
	data := DeckContext{
		Request:      req,
		Settings:     b.settings,
		WindowEnd:    b.settings.EnergyTimeExtent,
		Measurements: req.Measurements(),
	}
	if req.Window != nil {
		data.WindowStart = req.Window.Start
		data.WindowEnd = req.Window.End
	}

	var buf bytes.Buffer
	if err := b.tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("rendering deck template: %w", err)
	}
	return buf.Bytes(), nil
}
