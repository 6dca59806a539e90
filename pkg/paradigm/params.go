package paradigm

import (
	"fmt"

	"github.com/aretw0/bngenvs/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// CrashTestParams are the crash test inputs.
type CrashTestParams struct {
	StartPosition string  `mapstructure:"start_position"`
	SpeedKPH      float64 `mapstructure:"speed_kph"`
	CarConfigName string  `mapstructure:"car_config_name"`
}

// TrackTestParams are the track test inputs besides the "$" part variables.
type TrackTestParams struct {
	DriverAggression float64 `mapstructure:"driver_aggression"`
}

// decodeParams decodes the well-known keys of p into out. Unrelated keys are ignored.
func decodeParams(p domain.Params, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(map[string]any(p)); err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}
	return nil
}

func decodeWeak(in, out any) error {
	return mapstructure.WeakDecode(in, out)
}

func requireKeys(p domain.Params, keys ...string) error {
	for _, k := range keys {
		if _, ok := p[k]; !ok {
			return fmt.Errorf("invalid params: missing %q", k)
		}
	}
	return nil
}
