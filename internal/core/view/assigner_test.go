package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/xebra/internal/core/events/bus"
	"github.com/zeusync/xebra/internal/core/graph"
	"github.com/zeusync/xebra/internal/core/observability/log"
)

type fixture struct {
	t      *testing.T
	g      *graph.Graph
	seq    int64
	events []string
}

func newFixture(t *testing.T) *fixture {
	f := newContainerFixture(t)
	f.g.AddEntity(2, "patcherview", f.next(), 1)
	f.param(2, 3, graph.ParamPresentation, 0.0)
	return f
}

// newContainerFixture creates the container without its view object.
func newContainerFixture(t *testing.T) *fixture {
	rectParams := []string{graph.ParamPatchingRect, graph.ParamPresentationRect, graph.ParamPresentation}
	cat := graph.Catalog{
		"patcher":     {Kind: graph.KindContainer},
		"patcherview": {Kind: graph.KindView, Params: []string{graph.ParamPresentation}},
		"mira.frame": {
			Kind:     graph.KindFrame,
			Params:   rectParams,
			Optional: rectParams[1:],
		},
		"slider": {Params: rectParams, Optional: rectParams},
	}
	f := &fixture{t: t, g: graph.New(cat, log.NewNop())}
	a := New(f.g, log.NewNop())
	require.NoError(t, a.Start())
	require.NoError(t, a.Start())
	t.Cleanup(a.Stop)

	_, err := f.g.Bus().SubscribeTopic(graph.TopicFrame, bus.Wildcard, func(e bus.Event) error {
		ch := e.Data().(graph.Change)
		switch e.Type() {
		case graph.EventMemberAdded:
			f.events = append(f.events, "+"+itoa(ch.Member))
		case graph.EventMemberRemoved:
			f.events = append(f.events, "-"+itoa(ch.Member))
		}
		return nil
	})
	require.NoError(t, err)

	f.g.AddEntity(1, "patcher", f.next(), graph.RootID)
	return f
}

func itoa(id graph.ID) string {
	return string(rune('0'+id/10)) + string(rune('0'+id%10))
}

func (f *fixture) next() int64 {
	f.seq++
	return f.seq
}

// param creates a parameter and assigns it.
func (f *fixture) param(obj, id graph.ID, name string, values ...any) {
	f.g.AddParameter(obj, id, name, f.next())
	f.set(id, values...)
}

func (f *fixture) set(id graph.ID, values ...any) {
	require.True(f.t, f.g.ModifyParameter(id, values, nil, f.next()))
}

// addObject creates an entity with its three layout params at ids id+1..id+3.
func (f *fixture) addObject(typ string, id graph.ID, rect []any) {
	f.g.AddEntity(id, typ, f.next(), 1)
	f.g.AddParameter(id, id+2, graph.ParamPresentationRect, f.next())
	f.param(id, id+3, graph.ParamPresentation, 0.0)
	f.param(id, id+1, graph.ParamPatchingRect, rect...)
}

func (f *fixture) frame(id graph.ID) *graph.Frame {
	fr, ok := f.g.Frame(id)
	require.True(f.t, ok)
	return fr
}

func TestAssigner_MembershipFollowsRect(t *testing.T) {
	f := newFixture(t)
	f.addObject("mira.frame", 10, []any{0.0, 0.0, 100.0, 100.0})
	f.addObject("slider", 20, []any{10.0, 10.0, 20.0, 20.0})

	fr := f.frame(10)
	assert.Equal(t, []graph.ID{20}, fr.Members())
	assert.Equal(t, []string{"+20"}, f.events)

	f.set(21, 50.0, 50.0, 30.0, 30.0)
	assert.Equal(t, []string{"+20"}, f.events)

	f.set(21, 100.0, 0.0, 30.0, 30.0)
	assert.Empty(t, fr.Members())
	assert.Equal(t, []string{"+20", "-20"}, f.events)
}

func TestAssigner_FrameAddedAfterObjects(t *testing.T) {
	f := newFixture(t)
	f.addObject("slider", 20, []any{10.0, 10.0, 20.0, 20.0})
	f.addObject("slider", 30, []any{300.0, 300.0, 20.0, 20.0})
	f.addObject("mira.frame", 10, []any{0.0, 0.0, 100.0, 100.0})

	assert.Equal(t, []graph.ID{20}, f.frame(10).Members())

	f.set(11, 0.0, 0.0, 400.0, 400.0)
	assert.Equal(t, []graph.ID{20, 30}, f.frame(10).Members())
}

func TestAssigner_ObjectWithoutRectNeverAdded(t *testing.T) {
	f := newFixture(t)
	f.addObject("mira.frame", 10, []any{0.0, 0.0, 100.0, 100.0})
	f.g.AddEntity(40, "slider", f.next(), 1)
	f.param(40, 41, graph.ParamPatchingRect, 1.0, 2.0)

	assert.Empty(t, f.frame(10).Members())
	assert.Empty(t, f.events)
}

func TestAssigner_PresentationMode(t *testing.T) {
	f := newFixture(t)
	f.addObject("mira.frame", 10, []any{0.0, 0.0, 100.0, 100.0})
	f.set(12, 0.0, 0.0, 100.0, 100.0)
	f.addObject("slider", 20, []any{10.0, 10.0, 20.0, 20.0})
	require.Equal(t, []graph.ID{20}, f.frame(10).Members())

	// container switches to presentation; the slider is not part of it
	f.set(3, 1.0)
	assert.Equal(t, graph.ViewModePresentation, f.frame(10).ViewMode())
	assert.Empty(t, f.frame(10).Members())

	f.set(22, 5.0, 5.0, 10.0, 10.0)
	assert.Empty(t, f.frame(10).Members())
	f.set(23, 1.0)
	assert.Equal(t, []graph.ID{20}, f.frame(10).Members())
	assert.Equal(t, []string{"+20", "-20", "+20"}, f.events)
}

func TestAssigner_ViewArrivingLastSwitchesMode(t *testing.T) {
	f := newContainerFixture(t)
	f.addObject("mira.frame", 10, []any{0.0, 0.0, 100.0, 100.0})
	f.set(12, 0.0, 0.0, 100.0, 100.0)
	f.addObject("slider", 20, []any{10.0, 10.0, 10.0, 10.0})
	f.set(22, 500.0, 500.0, 10.0, 10.0)
	f.set(23, 1.0)
	require.Equal(t, []graph.ID{20}, f.frame(10).Members())

	f.g.AddEntity(2, "patcherview", f.next(), 1)
	f.param(2, 3, graph.ParamPresentation, 1.0)

	assert.Equal(t, graph.ViewModePresentation, f.frame(10).ViewMode())
	assert.Empty(t, f.frame(10).Members())

	f.g.DeleteEntity(2)
	assert.Equal(t, graph.ViewModePatching, f.frame(10).ViewMode())
	assert.Equal(t, []graph.ID{20}, f.frame(10).Members())
	assert.Equal(t, []string{"+20", "-20", "+20"}, f.events)
}

func TestAssigner_FrameLocalMode(t *testing.T) {
	f := newFixture(t)
	f.addObject("mira.frame", 10, []any{0.0, 0.0, 100.0, 100.0})
	f.set(12, 0.0, 0.0, 100.0, 100.0)
	f.addObject("slider", 20, []any{10.0, 10.0, 20.0, 20.0})
	f.set(22, 500.0, 500.0, 10.0, 10.0)
	f.set(23, 1.0)

	fr := f.frame(10)
	fr.SetViewMode(graph.ViewModePresentation)
	assert.Equal(t, graph.ViewModePatching, func() graph.ViewMode {
		c, _ := f.g.Container(1)
		return c.ViewMode()
	}())
	assert.Empty(t, fr.Members())

	fr.SetViewMode(graph.ViewModeLinked)
	assert.Equal(t, []graph.ID{20}, fr.Members())
}

func TestAssigner_DeletedObjectLeavesFrame(t *testing.T) {
	f := newFixture(t)
	f.addObject("mira.frame", 10, []any{0.0, 0.0, 100.0, 100.0})
	f.addObject("slider", 20, []any{10.0, 10.0, 20.0, 20.0})

	f.g.DeleteEntity(20)
	assert.Empty(t, f.frame(10).Members())
	assert.Equal(t, []string{"+20", "-20"}, f.events)
}

func TestInside_TouchingEdges(t *testing.T) {
	f := newFixture(t)
	f.addObject("mira.frame", 10, []any{0.0, 0.0, 100.0, 100.0})
	f.addObject("slider", 20, []any{100.0, 0.0, 50.0, 50.0})

	o, _ := f.g.Object(20)
	assert.False(t, Inside(f.frame(10), o))
}
