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

func TestDragStrip_FinishLine(t *testing.T) {
	assert.Equal(t, 450.0, paradigm.DragStripFinishX)
	assert.Len(t, paradigm.DragStripPath, 12)
	assert.Equal(t, 90.0, paradigm.DragStripPath[0].X)
}

func TestDragStrip_CrossesFinish(t *testing.T) {
	f := fake.New()
	s := launch(t, f, domain.WithFPS(20))

	p, err := paradigm.NewDragStrip(domain.Params{"sunburst_engine": "sunburst_engine_2.0_petrol"})
	require.NoError(t, err)
	h := runToEnd(t, p, s, 400)

	assert.True(t, p.Finished())
	assert.InDelta(t, 180, p.CurrentStep(), 1)

	last := h.Observations()[h.Len()-1]
	pos := last["state"].(map[string]any)["pos"].([]float64)
	assert.GreaterOrEqual(t, pos[0], paradigm.DragStripFinishX)

	res, err := p.Results(context.Background(), h)
	require.NoError(t, err)
	actual := res["parts_actual"].(domain.PartConfig)
	assert.Equal(t, "sunburst_engine_2.0_petrol", actual.Parts["sunburst_engine"])
	assert.Empty(t, actual.Vars)
}

func TestDragStrip_TimeLimitIsUnfinished(t *testing.T) {
	s := launch(t, fake.New(), domain.WithMaxTime(1), domain.WithFPS(20))

	p, err := paradigm.NewDragStrip(nil)
	require.NoError(t, err)
	runToEnd(t, p, s, 100)

	assert.Equal(t, 21, p.CurrentStep())
	assert.False(t, p.Finished())
}
