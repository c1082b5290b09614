package sim

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cellchar/cellchar/types"
)

const deckTemplate = `* {{ .Cell }}: {{ .Arc }}
.include {{ .Netlist }}
{{- range .Models }}
.include {{ . }}
{{- end }}
.temp {{ .Temperature }}
V{{ .VDD.Name }} {{ .VDD.Name }} 0 {{ .VDD.Voltage }}
.param tramp={{ sci .SlewSeconds }}
.param cload={{ sci .LoadFarads }}
.param estart={{ sci .WindowStart }} eend={{ sci .WindowEnd }}
{{- range $pin, $state := .Pins }}
* pin {{ $pin }} {{ $state }} from {{ $state.InitialLevel }} to {{ $state.FinalLevel }}
{{- end }}
{{- range .Measurements }}
.measure tran {{ . }} trig v({{ $.InPin }})
{{- end }}
`

func writeDeckTemplate(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "deck.sp.tmpl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func deckSettings() types.Settings {
	s := types.Settings{
		Simulator: "ngspice",
		VDD:       types.Rail{Name: "VDD", Voltage: 3.3},
		VSS:       types.Rail{Name: "VSS", Voltage: 0},
	}
	s.SetDefaults()
	return s
}

func TestTemplateDeckBuilder(t *testing.T) {
	path := writeDeckTemplate(t, deckTemplate)
	builder, err := NewTemplateDeckBuilder(path, deckSettings())
	require.NoError(t, err)

	t.Run("windowing pass uses the default extent", func(t *testing.T) {
		deck, err := builder.BuildDeck(windowRequest())
		require.NoError(t, err)

		text := string(deck)
		assert.Contains(t, text, "* INV_X1: A (rise) -> Y (fall)")
		assert.Contains(t, text, ".include cells/INV_X1.sp")
		assert.Contains(t, text, ".include models/nmos.sp")
		assert.Contains(t, text, "VVDD VDD 0 3.3")
		assert.Contains(t, text, ".param tramp=1.667e-11")
		assert.Contains(t, text, ".param cload=1e-15")
		assert.Contains(t, text, "estart=0e+00 eend=1e-08")
		assert.Contains(t, text, "* pin A 01 from 0 to 1")
		assert.Contains(t, text, "* pin Y 10 from 1 to 0")
		assert.Contains(t, text, ".measure tran energy_start trig v(A)")
		assert.NotContains(t, text, "q_vdd_dyn")
	})

	t.Run("measurement pass uses the located window", func(t *testing.T) {
		req := windowRequest()
		req.Window = &Window{Start: 2.5e-9, End: 7.5e-9}

		deck, err := builder.BuildDeck(req)
		require.NoError(t, err)

		text := string(deck)
		assert.Contains(t, text, "estart=2.5e-09 eend=7.5e-09")
		assert.Contains(t, text, ".measure tran q_vdd_dyn")
		assert.NotContains(t, text, "energy_start")
	})
}

func TestNewTemplateDeckBuilderErrors(t *testing.T) {
	t.Run("empty path", func(t *testing.T) {
		_, err := NewTemplateDeckBuilder("", deckSettings())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "deck template path is required")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := NewTemplateDeckBuilder(filepath.Join(t.TempDir(), "absent.tmpl"), deckSettings())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parsing deck template")
	})

	t.Run("malformed template", func(t *testing.T) {
		path := writeDeckTemplate(t, "{{ .Cell")
		_, err := NewTemplateDeckBuilder(path, deckSettings())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parsing deck template")
	})
}

func TestBuildDeckReportsBadReferences(t *testing.T) {
	// A typoed pin name must fail the render, not silently emit a zero value.
	path := writeDeckTemplate(t, `{{ .Pins.CLK_TYPO }}`)
	builder, err := NewTemplateDeckBuilder(path, deckSettings())
	require.NoError(t, err)

	_, err = builder.BuildDeck(windowRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rendering deck template")
}
