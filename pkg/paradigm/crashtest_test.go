package paradigm_test

import (
	"context"
	"testing"

	"github.com/aretw0/bngenvs/pkg/adapters/fake"
	"github.com/aretw0/bngenvs/pkg/cars"
	"github.com/aretw0/bngenvs/pkg/domain"
	"github.com/aretw0/bngenvs/pkg/paradigm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() *cars.Catalog {
	return cars.NewCatalog(map[string]domain.PartConfig{
		"etk800__etk854t_A": {
			Parts: map[string]string{"etk800_body": "etk800_body_wagon"},
			Vars:  map[string]float64{"$tirepressure_F": 32},
		},
	})
}

func crashParams() domain.Params {
	return domain.Params{
		"start_position":  "flat_mid",
		"speed_kph":       50,
		"car_config_name": "etk800__etk854t_A",
	}
}

func TestCrashTest_RunsFullBudget(t *testing.T) {
	f := fake.New()
	s := launch(t, f, domain.WithMaxTime(0.5), domain.WithFPS(20), domain.WithCarConfigs(testCatalog()))

	p, err := paradigm.NewCrashTest(crashParams())
	require.NoError(t, err)
	assert.Equal(t, "etk800", p.CarModel())

	h := runToEnd(t, p, s, 100)
	assert.Equal(t, 11, p.CurrentStep())
	assert.True(t, p.Finished(), "the step budget is the crash test's own predicate")

	st := f.Stats()
	assert.Equal(t, "crash_test", st.Scenarios[0].Name)
	assert.Equal(t, domain.Vec3{-268, 114, 101}, st.Scenarios[0].Vehicles[0].Pose.Pos)
	assert.Equal(t, 10, st.Spheres)
	assert.Equal(t, 1, st.Lines)

	res, err := p.Results(context.Background(), h)
	require.NoError(t, err)
	assert.Equal(t, "etk800__etk854t_A", res["parts_requested"].(domain.Params)["car_config_name"])
	actual := res["parts_actual"].(domain.PartConfig)
	assert.Equal(t, "etk800_body_wagon", actual.Parts["etk800_body"])
	assert.Equal(t, "etk800", actual.Model)
	assert.Equal(t, 0.0, res["max_damage"])
	for _, k := range paradigm.GForceKeys {
		assert.Contains(t, res, "max_abs_"+k)
	}
}

func TestCrashTest_Path(t *testing.T) {
	p, err := paradigm.NewCrashTest(domain.Params{
		"start_position":  "wedge",
		"speed_kph":       "36",
		"car_config_name": "etk800__etk854t_A",
	})
	require.NoError(t, err)

	path := p.Path()
	require.Len(t, path, 10)
	assert.Equal(t, domain.PathNode{X: -224, Y: 114, Z: 101, T: 0}, path[0])
	assert.InDelta(t, 234, path[9].Y, 1e-9)
	assert.InDelta(t, 120/(36*paradigm.KPHToMPS), path[9].T, 1e-9)
}

func TestCrashTest_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := paradigm.NewCrashTest(domain.Params{"start_position": "flat_mid"})
	assert.Error(t, err)

	bad := crashParams()
	bad["start_position"] = "roof"
	_, err = paradigm.NewCrashTest(bad)
	assert.ErrorIs(t, err, domain.ErrUnknownStartPosition)

	p, err := paradigm.NewCrashTest(crashParams())
	require.NoError(t, err)
	err = p.Reset(ctx, launch(t, fake.New()))
	assert.ErrorIs(t, err, domain.ErrMissingCatalog)

	unknown := crashParams()
	unknown["car_config_name"] = "pickup__d15"
	p, err = paradigm.NewCrashTest(unknown)
	require.NoError(t, err)
	err = p.Reset(ctx, launch(t, fake.New(), domain.WithCarConfigs(testCatalog())))
	assert.ErrorIs(t, err, domain.ErrUnknownPartConfig)
}

func TestStartPositionNames(t *testing.T) {
	names := paradigm.StartPositionNames()
	assert.Len(t, names, 8)
	assert.Equal(t, "bollards_left", names[0])
}
