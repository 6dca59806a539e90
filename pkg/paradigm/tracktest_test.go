package paradigm_test

import (
	"context"
	"testing"

	"github.com/aretw0/bngenvs/pkg/adapters/fake"
	"github.com/aretw0/bngenvs/pkg/domain"
	"github.com/aretw0/bngenvs/pkg/paradigm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lapTrajectory() []domain.Vec3 {
	points := []domain.Vec3{paradigm.TrackTestSpawn.Pos}
	for _, wp := range paradigm.TrackTestRoute {
		points = append(points, wp.Pos)
	}
	return points
}

func TestTrackTest_CompletesLap(t *testing.T) {
	f := fake.New(
		fake.WithWaypoints(paradigm.TrackTestRoute...),
		fake.WithTrajectory(2, lapTrajectory()...),
	)
	s := launch(t, f)

	p, err := paradigm.NewTrackTest(domain.Params{"$brakebias": "0.6", "driver_aggression": 1.1}, nil)
	require.NoError(t, err)

	h := runToEnd(t, p, s, 100)

	assert.Equal(t, 13, p.CurrentStep())
	assert.True(t, p.Finished())
	assert.Equal(t, len(paradigm.TrackTestRoute), p.CurrentWaypointIdx())
	assert.Equal(t, paradigm.TrackTestFinalWaypoint, p.CurrentWaypoint())
	assert.Equal(t, 13, h.Len())

	idx := observed(h, paradigm.KeyCurrentWaypointIdx)
	assert.Equal(t, 0, idx[0])
	assert.Equal(t, 1, idx[2])
	assert.Equal(t, 6, idx[12])

	last := observed(h, paradigm.KeyCurrentWaypoint)[12].(map[string]any)
	assert.Equal(t, "quickrace_wp1", last["name"])
}

func TestTrackTest_ScenarioSetup(t *testing.T) {
	f := fake.New(fake.WithWaypoints(paradigm.TrackTestRoute...))
	s := launch(t, f)

	p, err := paradigm.NewTrackTest(domain.Params{"$brakebias": 0.6, "$tirepressure_F": 30}, nil)
	require.NoError(t, err)
	require.NoError(t, p.Reset(context.Background(), s))

	sc := f.Stats().Scenarios[0]
	assert.Equal(t, "hirochi_raceway", sc.Level)
	assert.Equal(t, "start_line", sc.Name)
	assert.Equal(t, "scintilla", sc.Vehicles[0].Model)

	applied, err := p.Vehicle().PartConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.6, applied.Vars["$brakebias"])
	assert.Equal(t, 30.0, applied.Vars["$tirepressure_F"])
	assert.Equal(t, 4.01, applied.Vars["$finaldrive_F"], "untouched vars keep the rally baseline")

	assert.Contains(t, f.Calls(), "Vehicle.AISetAggression")
	assert.Contains(t, f.Calls(), "Vehicle.AISetWaypoint")
}

func TestTrackTest_TimeLimitIsUnfinished(t *testing.T) {
	f := fake.New(fake.WithWaypoints(paradigm.TrackTestRoute...))
	s := launch(t, f, domain.WithMaxTime(1), domain.WithFPS(20))

	p, err := paradigm.NewTrackTest(domain.Params{}, nil)
	require.NoError(t, err)
	h := runToEnd(t, p, s, 100)

	assert.Equal(t, 21, p.CurrentStep())
	assert.True(t, p.Done())
	assert.False(t, p.Finished())
	assert.Equal(t, 0, p.CurrentWaypointIdx())

	dists := observed(h, paradigm.KeyDistToNextWaypoint)
	assert.Less(t, dists[20].(float64), dists[0].(float64), "the AI drives towards the first waypoint")
}

func TestTrackTest_FinishesOnlyAtLastRoutePoint(t *testing.T) {
	// Every waypoint is reached, but the car stops 10 units short of hr_start and then
	// parks on quickrace_wp1.
	last := paradigm.TrackTestRoute[len(paradigm.TrackTestRoute)-1].Pos
	points := []domain.Vec3{paradigm.TrackTestSpawn.Pos}
	for _, wp := range paradigm.TrackTestRoute[:len(paradigm.TrackTestRoute)-1] {
		points = append(points, wp.Pos)
	}
	points = append(points, domain.Vec3{last.X() + 10, last.Y(), last.Z()}, paradigm.TrackTestFinalWaypoint.Pos)

	f := fake.New(
		fake.WithWaypoints(paradigm.TrackTestRoute...),
		fake.WithTrajectory(2, points...),
	)
	s := launch(t, f, domain.WithMaxTime(1), domain.WithFPS(20))

	p, err := paradigm.NewTrackTest(domain.Params{}, nil)
	require.NoError(t, err)
	h := runToEnd(t, p, s, 100)

	assert.Equal(t, 21, p.CurrentStep(), "only the time limit ends the run")
	assert.True(t, p.Done())
	assert.False(t, p.Finished())
	assert.Equal(t, len(paradigm.TrackTestRoute), p.CurrentWaypointIdx())

	dists := observed(h, paradigm.KeyDistToNextWaypoint)
	assert.Less(t, dists[len(dists)-1].(float64), paradigm.FinishDistance, "the car sits on quickrace_wp1")
}

func TestNewTrackTest_RejectsNonNumericVars(t *testing.T) {
	_, err := paradigm.NewTrackTest(domain.Params{"$brakebias": "soft"}, nil)
	assert.Error(t, err)
}
