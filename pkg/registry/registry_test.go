package registry_test

import (
	"errors"
	"testing"

	"github.com/aretw0/bngenvs/pkg/adapters/fake"
	"github.com/aretw0/bngenvs/pkg/domain"
	"github.com/aretw0/bngenvs/pkg/ports"
	"github.com/aretw0/bngenvs/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	r := registry.NewRegistry()
	var got map[string]any
	r.Register("fake", func(opts map[string]any) (ports.Connector, error) {
		got = opts
		return fake.NewConnector(), nil
	})
	r.Register("broken", func(map[string]any) (ports.Connector, error) {
		return nil, errors.New("no client")
	})
	assert.Equal(t, []string{"broken", "fake"}, r.Names())

	connect, err := r.Connector("fake", map[string]any{"cruise": 10})
	require.NoError(t, err)
	assert.Equal(t, 10, got["cruise"])
	sim, err := connect(domain.DefaultBeamNGConfig())
	require.NoError(t, err)
	assert.NotNil(t, sim)

	_, err = r.Connector("broken", nil)
	assert.EqualError(t, err, "no client")

	_, err = r.Connector("beamngpy", nil)
	assert.ErrorContains(t, err, "simulator backend not found")
}
