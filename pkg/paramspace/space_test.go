package paramspace_test

import (
	"math/rand/v2"
	"testing"

	"github.com/aretw0/bngenvs/pkg/cars"
	"github.com/aretw0/bngenvs/pkg/domain"
	"github.com/aretw0/bngenvs/pkg/paradigm"
	"github.com/aretw0/bngenvs/pkg/paramspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackTest_DefaultsAreAccepted(t *testing.T) {
	s := paramspace.TrackTest()
	assert.Len(t, s.Dims, 10)

	defaults := s.Defaults()
	assert.Equal(t, 1.0, defaults["driver_aggression"])
	assert.Equal(t, 27.06, defaults["$tirepressure_R"])
	require.NoError(t, s.Validate(defaults))

	// The defaults are valid track test parameters.
	_, err := paradigm.NewTrackTest(defaults, nil)
	require.NoError(t, err)
}

func TestSample_IsDeterministicAndInRange(t *testing.T) {
	s := paramspace.TrackTest()

	a := s.Sample(rand.New(rand.NewPCG(1, 2)))
	b := s.Sample(rand.New(rand.NewPCG(1, 2)))
	assert.Equal(t, a, b)

	rng := rand.New(rand.NewPCG(3, 4))
	for i := 0; i < 100; i++ {
		require.NoError(t, s.Validate(s.Sample(rng)))
	}
}

func TestValidate(t *testing.T) {
	s := paramspace.TrackTest()

	assert.NoError(t, s.Validate(domain.Params{"$brakebias": "0.5"}))
	assert.ErrorIs(t, s.Validate(domain.Params{"$brakebias": 2}), paramspace.ErrOutOfSpace)
	assert.ErrorIs(t, s.Validate(domain.Params{"$brakebias": "soft"}), paramspace.ErrOutOfSpace)
	assert.ErrorIs(t, s.Validate(domain.Params{"unknown": 1}), paramspace.ErrOutOfSpace)
}

func TestCrashTest_UsesCatalog(t *testing.T) {
	_, err := paramspace.CrashTest(nil)
	assert.ErrorIs(t, err, domain.ErrMissingCatalog)

	catalog := cars.NewCatalog(map[string]domain.PartConfig{
		"etk800__etk854t_A": {},
		"covet__base":       {},
	})
	s, err := paramspace.CrashTest(catalog)
	require.NoError(t, err)

	d, ok := s.Dim("car_config_name")
	require.True(t, ok)
	assert.ElementsMatch(t, []any{"covet__base", "etk800__etk854t_A"}, d.Choices)

	p := s.Sample(rand.New(rand.NewPCG(5, 6)))
	require.NoError(t, s.Validate(p))
	_, err = paradigm.NewCrashTest(p)
	require.NoError(t, err)

	assert.NoError(t, s.Validate(domain.Params{"speed_kph": 50}))
	assert.Error(t, s.Validate(domain.Params{"speed_kph": 55}))
}

func TestDragStrip_SortsSlots(t *testing.T) {
	s := paramspace.DragStrip(map[string][]string{
		"sunburst_engine":       {"sunburst_engine_2.0_petrol", "sunburst_engine_2.5_petrol"},
		"sunburst_transmission": {"sunburst_transmission_6M"},
		"empty":                 nil,
	})
	assert.Equal(t, []string{"sunburst_engine", "sunburst_transmission"}, s.Keys())
	assert.Equal(t, "sunburst_engine_2.0_petrol", s.Defaults()["sunburst_engine"])

	merged := s.Merge(domain.Params{"sunburst_engine": "sunburst_engine_2.5_petrol"})
	assert.Equal(t, "sunburst_engine_2.5_petrol", merged["sunburst_engine"])
	assert.Equal(t, "sunburst_transmission_6M", merged["sunburst_transmission"])
}
