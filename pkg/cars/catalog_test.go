package cars_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/bngenvs/pkg/cars"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDir(t *testing.T) {
	c, err := cars.LoadDir("testdata")
	require.NoError(t, err)

	assert.Equal(t, []string{"etk800__drift", "etk800__etk854t_A"}, c.Names())
	assert.Equal(t, []string{"etk800"}, c.Cars())
	assert.Equal(t, 2, c.Len())

	wagon, ok := c.Lookup("etk800__etk854t_A")
	require.True(t, ok)
	assert.Equal(t, 2, wagon.Format)
	assert.Equal(t, "etk800_body_wagon", wagon.Parts["etk800_body"])
	assert.Equal(t, 32.0, wagon.Vars["$tirepressure_F"])

	drift, ok := c.Lookup("etk800__drift")
	require.True(t, ok, "yaml fallback")
	assert.Equal(t, "etk800_differential_R_welded", drift.Parts["etk800_differential_R"])
	assert.Equal(t, 0.96, drift.Vars["$camber_F"])
}

func TestCatalog_LookupReturnsCopy(t *testing.T) {
	c, err := cars.LoadDir("testdata")
	require.NoError(t, err)

	first, _ := c.Lookup("etk800__etk854t_A")
	first.Parts["etk800_body"] = "changed"

	second, _ := c.Lookup("etk800__etk854t_A")
	assert.Equal(t, "etk800_body_wagon", second.Parts["etk800_body"])

	_, ok := c.Lookup("etk800__missing")
	assert.False(t, ok)
}

func TestLoad_BrokenConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.pc"), []byte("{parts: [unclosed"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, cars.SummaryFile),
		[]byte(`{"pickup": {"bad": "bad.pc"}}`), 0644))

	_, err := cars.LoadDir(dir)
	assert.ErrorContains(t, err, "pickup__bad")

	_, err = cars.LoadDir(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestParsePartConfig_FillsEmptyMaps(t *testing.T) {
	cfg, err := cars.ParsePartConfig([]byte(`{"model": "pigeon"}`))
	require.NoError(t, err)
	assert.NotNil(t, cfg.Parts)
	assert.NotNil(t, cfg.Vars)
}

func TestScintillaRally(t *testing.T) {
	a := cars.ScintillaRally()
	assert.Equal(t, "scintilla", a.Model)
	assert.Equal(t, 0.55, a.Vars["$brakebias"])
	assert.Equal(t, "scintilla_engine_5.0_v10", a.Parts["scintilla_engine"])
	assert.Len(t, a.Paints, 3)

	a.Vars["$brakebias"] = 0
	assert.Equal(t, 0.55, cars.ScintillaRally().Vars["$brakebias"], "fresh copy per call")
}
