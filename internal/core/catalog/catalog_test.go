package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/xebra/internal/core/events/bus"
	"github.com/zeusync/xebra/internal/core/graph"
	"github.com/zeusync/xebra/internal/core/observability/log"
	"github.com/zeusync/xebra/internal/core/resource"
	"github.com/zeusync/xebra/internal/core/transform"
)

func TestDefault_Kinds(t *testing.T) {
	c := Default(resource.NewController(nil, bus.New(), log.NewNop()))

	assert.Equal(t, graph.KindContainer, c.Spec("patcher").Kind)
	assert.Equal(t, graph.KindView, c.Spec("patcherview").Kind)
	assert.Equal(t, graph.KindFrame, c.Spec("mira.frame").Kind)
	assert.Equal(t, graph.KindObject, c.Spec("live.dial").Kind)
	assert.Equal(t, graph.KindObject, c.Spec("no.such.type").Kind)
	assert.Empty(t, c.Spec("patcher").Mandatory())
}

func TestDefault_MandatoryParams(t *testing.T) {
	c := Default(resource.NewController(nil, bus.New(), log.NewNop()))

	dial := c.Spec("live.dial").Mandatory()
	assert.Contains(t, dial, transform.ParamDistance)
	assert.Contains(t, dial, graph.ParamPatchingRect)
	assert.NotContains(t, dial, graph.ParamVarname)
	assert.NotContains(t, dial, "needlecolor")
	assert.NotContains(t, dial, transform.ParamUnits)

	supported := c.SupportedObjects()
	assert.Contains(t, supported["live.dial"], "needlecolor")
	assert.Contains(t, supported["fpic"], "pic")
}

func TestDefault_Decorators(t *testing.T) {
	res := resource.NewController(nil, bus.New(), log.NewNop())
	g := graph.New(Default(res), log.NewNop())
	g.AddEntity(1, "patcher", 1, graph.RootID)
	g.AddEntity(2, "live.dial", 2, 1)
	g.AddEntity(3, "fpic", 3, 1)
	g.AddEntity(4, "comment", 4, 1)

	names := func(id graph.ID) []string {
		o, ok := g.Object(id)
		require.True(t, ok)
		return o.Decorators()
	}
	assert.Equal(t, []string{transform.ScalingName, transform.DisplayName}, names(2))
	assert.Equal(t, []string{resource.OwnerName}, names(3))
	assert.Empty(t, names(4))
}
