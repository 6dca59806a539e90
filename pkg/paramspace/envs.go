package paramspace

import (
	"fmt"
	"slices"

	"github.com/aretw0/bngenvs/pkg/domain"
	"github.com/aretw0/bngenvs/pkg/paradigm"
)

// CrashTestSpeeds are the impact speeds sampled by the crash test space, km/h.
var CrashTestSpeeds = []any{20.0, 30.0, 40.0, 50.0, 60.0, 70.0, 80.0}

// TrackTest is the track test space: Scintilla tuning variables and the AI driver's
// aggression.
func TrackTest() Space {
	return Space{
		Env: "TrackTestEnv",
		Dims: []Dim{
			{Key: "$brakestrength", Description: "Brake force multiplier 60-100%", Min: 0.6, Max: 1, Default: 0.6},
			{Key: "$brakebias", Description: "Front/rear brake bias 0-100%", Min: 0, Max: 1, Default: 0.55},
			{Key: "$spoiler_angle_r", Description: "Rear wing angle, degrees", Min: 8, Max: 20, Default: 10.0},
			{Key: "$camber_F", Description: "Front wheel camber", Min: 0.95, Max: 1, Default: 0.975},
			{Key: "$camber_R", Description: "Rear wheel camber", Min: 0.95, Max: 1, Default: 0.965},
			{Key: "$toe_F", Description: "Front wheel toe", Min: 0.95, Max: 1, Default: 0.977},
			{Key: "$toe_R", Description: "Rear wheel toe", Min: 0.95, Max: 1, Default: 0.984},
			{Key: "$tirepressure_F", Description: "Front tire pressure, psi", Min: 0, Max: 50, Default: 28.0},
			{Key: "$tirepressure_R", Description: "Rear tire pressure, psi", Min: 0, Max: 50, Default: 27.06},
			{Key: "driver_aggression", Description: "Aggressiveness of the AI driver", Min: 0.75, Max: 1.25, Default: 1.0},
		},
	}
}

// CrashTest is the crash test space. The car configs come from catalog, so the space
// depends on what is installed.
func CrashTest(catalog domain.PartCatalog) (Space, error) {
	if catalog == nil {
		return Space{}, fmt.Errorf("failed to build crash test space: %w", domain.ErrMissingCatalog)
	}
	names := catalog.Names()
	if len(names) == 0 {
		return Space{}, fmt.Errorf("failed to build crash test space: %w: catalog is empty", domain.ErrMissingCatalog)
	}

	positions := paradigm.StartPositionNames()
	return Space{
		Env: "CrashTestEnv",
		Dims: []Dim{
			{Key: "speed_kph", Description: "Speed, km/h", Choices: CrashTestSpeeds, Default: 30.0},
			{Key: "start_position", Description: "Start position, name", Choices: toAny(positions), Default: "flat_mid"},
			{Key: "car_config_name", Description: "Part config, <car>__<config>", Choices: toAny(names), Default: names[0]},
		},
	}, nil
}

// DragStrip is the drag strip space over Sunburst part slots. options maps each slot
// to its installable parts; the first option of a slot is its default.
func DragStrip(options map[string][]string) Space {
	slots := make([]string, 0, len(options))
	for slot, parts := range options {
		if len(parts) > 0 {
			slots = append(slots, slot)
		}
	}
	slices.Sort(slots)

	s := Space{Env: "DragStripEnv", Dims: make([]Dim, 0, len(slots))}
	for _, slot := range slots {
		s.Dims = append(s.Dims, Dim{
			Key:         slot,
			Description: "A Sunburst car part.",
			Choices:     toAny(options[slot]),
			Default:     options[slot][0],
		})
	}
	return s
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
