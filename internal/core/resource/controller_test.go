package resource

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/xebra/internal/core/events/bus"
	"github.com/zeusync/xebra/internal/core/graph"
	"github.com/zeusync/xebra/internal/core/observability/log"
	"github.com/zeusync/xebra/internal/core/protocol"
)

type fakeRequester struct {
	info []protocol.ResourceRequest
	data []protocol.ResourceRequest
	err  error
}

func (f *fakeRequester) RequestResourceInfo(req protocol.ResourceRequest) error {
	f.info = append(f.info, req)
	return f.err
}

func (f *fakeRequester) RequestResourceData(req protocol.ResourceRequest) error {
	f.data = append(f.data, req)
	return f.err
}

func newTestController(t *testing.T) (*Controller, *fakeRequester, *[]Delivery) {
	req := &fakeRequester{}
	b := bus.New()
	var got []Delivery
	_, err := b.SubscribeTopic(TopicResource, EventData, func(e bus.Event) error {
		got = append(got, e.Data().(Delivery))
		return nil
	})
	require.NoError(t, err)
	return NewController(req, b, log.NewNop()), req, &got
}

func infoReply(req protocol.ResourceRequest, body string) protocol.ResourceInfoResult {
	return protocol.ResourceInfoResult{Request: req, Info: json.RawMessage(body)}
}

func dataReply(req protocol.ResourceRequest, body string) protocol.ResourceDataResult {
	return protocol.ResourceDataResult{Request: req, Data: json.RawMessage(body)}
}

const pngInfo = `{"path":"/media/a.png","mimetype":"image/png","width":32,"height":32}`

func TestController_InfoThenDataDelivers(t *testing.T) {
	c, req, got := newTestController(t)
	r := c.Create(graph.RootID)
	r.SetDimensions(64, 48)
	assert.Empty(t, req.info)

	r.SetFilename("a.png")
	require.Len(t, req.info, 1)
	assert.Equal(t, r.ID(), req.info[0].Context)
	assert.Equal(t, "a.png", req.info[0].Name)
	assert.Equal(t, 64, req.info[0].Width)

	c.HandleInfo(infoReply(req.info[0], pngInfo))
	require.Len(t, req.data, 1)
	assert.Equal(t, "/media/a.png", req.data[0].Path)
	info, ok := r.Info()
	require.True(t, ok)
	assert.Equal(t, "image/png", info.MimeType)

	c.HandleData(dataReply(req.data[0], `{"data":"iVBORw0K"}`))
	require.Len(t, *got, 1)
	assert.Equal(t, "data:image/png;base64,iVBORw0K", (*got)[0].DataURI)
	assert.Same(t, r, (*got)[0].Resource)

	// replies are one-shot
	c.HandleData(dataReply(req.data[0], `{"data":"iVBORw0K"}`))
	assert.Len(t, *got, 1)
}

func TestController_SupersededInfoIsNoOp(t *testing.T) {
	c, req, got := newTestController(t)
	r := c.Create(graph.RootID)

	r.SetFilename("a.png")
	r.SetFilename("b.png")
	require.Len(t, req.info, 2)
	assert.Greater(t, req.info[1].Sequence, req.info[0].Sequence)

	c.HandleInfo(infoReply(req.info[1], pngInfo))
	c.HandleInfo(infoReply(req.info[0], pngInfo))
	require.Len(t, req.data, 1)
	assert.Equal(t, "b.png", req.data[0].Name)

	c.HandleData(dataReply(req.data[0], `{"mimetype":"image/png","data":"AA=="}`))
	assert.Len(t, *got, 1)

	infoPending, dataPending := c.Pending()
	assert.Zero(t, infoPending)
	assert.Zero(t, dataPending)
}

func TestController_NewInfoCancelsPendingData(t *testing.T) {
	c, req, got := newTestController(t)
	r := c.Create(graph.RootID)
	r.SetFilename("a.png")
	c.HandleInfo(infoReply(req.info[0], pngInfo))
	require.Len(t, req.data, 1)

	r.SetDimensions(10, 10)
	c.HandleData(dataReply(req.data[0], `{"data":"AA=="}`))
	assert.Empty(t, *got)
}

func TestController_MalformedBodyDropsOnlyThatRequest(t *testing.T) {
	c, req, got := newTestController(t)
	a := c.Create(graph.RootID)
	b := c.Create(graph.RootID)
	a.SetFilename("a.png")
	b.SetFilename("b.png")

	c.HandleInfo(infoReply(req.info[0], `{"path":`))
	assert.Empty(t, req.data)

	// double-encoded body
	encoded, err := json.Marshal(pngInfo)
	require.NoError(t, err)
	c.HandleInfo(infoReply(req.info[1], string(encoded)))
	require.Len(t, req.data, 1)
	assert.Equal(t, b.ID(), req.data[0].Context)

	c.HandleData(dataReply(req.data[0], `"not json"`))
	assert.Empty(t, *got)
}

func TestController_ResetForgetsEverything(t *testing.T) {
	c, req, got := newTestController(t)
	r := c.Create(graph.RootID)
	r.SetFilename("a.png")

	c.Reset()
	assert.Zero(t, c.Len())
	c.HandleInfo(infoReply(req.info[0], pngInfo))
	assert.Empty(t, req.data)
	assert.Empty(t, *got)

	r2 := c.Create(graph.RootID)
	r2.SetFilename("a.png")
	require.Len(t, req.info, 2)
	assert.NotEqual(t, req.info[0].Sequence, req.info[1].Sequence)
}

func TestController_SendFailureCancels(t *testing.T) {
	c, req, _ := newTestController(t)
	req.err = errors.New("not connected")
	r := c.Create(graph.RootID)
	r.SetFilename("a.png")

	infoPending, _ := c.Pending()
	assert.Zero(t, infoPending)
}

func TestOwner_TracksFilenameParam(t *testing.T) {
	c, req, _ := newTestController(t)
	cat := graph.Catalog{
		"patcher": {Kind: graph.KindContainer},
		"fpic": {
			Params:     []string{graph.ParamPatchingRect, "pic"},
			Optional:   []string{"pic"},
			Decorators: []graph.DecoratorFactory{Owner(c, "pic")},
		},
	}
	g := graph.New(cat, log.NewNop())
	g.AddEntity(1, "patcher", 1, graph.RootID)
	g.AddEntity(10, "fpic", 2, 1)
	g.AddParameter(10, 11, graph.ParamPatchingRect, 3)
	g.AddParameter(10, 12, "pic", 4)
	g.ModifyParameter(11, []any{0.0, 0.0, 100.0, 50.0}, nil, 1)

	g.ModifyParameter(12, []any{"a.png"}, nil, 2)
	o, _ := g.Object(10)
	res := Resources(o)
	require.Len(t, res, 1)
	owner, ok := res[0].Owner()
	assert.True(t, ok)
	assert.Equal(t, graph.ID(10), owner)
	require.Len(t, req.info, 1)
	assert.Equal(t, 100, req.info[0].Width)
	assert.Equal(t, 50, req.info[0].Height)

	g.ModifyParameter(12, []any{"a.png", "b.png"}, nil, 3)
	require.Len(t, Resources(o), 2)
	assert.Len(t, c.ByOwner(10), 2)
	assert.Len(t, req.info, 2)

	g.ModifyParameter(11, []any{0.0, 0.0, 20.0, 20.0}, nil, 4)
	w, h := Resources(o)[1].Dimensions()
	assert.Equal(t, 20, w)
	assert.Equal(t, 20, h)

	g.ModifyParameter(12, []any{"c.png"}, nil, 5)
	assert.Len(t, Resources(o), 1)
	assert.Equal(t, "c.png", Resources(o)[0].Filename())

	g.DeleteEntity(10)
	assert.Zero(t, c.Len())
}

func TestOwner_SizeFollowsPatchingRectOnly(t *testing.T) {
	c, req, _ := newTestController(t)
	cat := graph.Catalog{
		"patcher": {Kind: graph.KindContainer},
		"fpic": {
			Params:     []string{graph.ParamPatchingRect, graph.ParamPresentationRect, "pic"},
			Optional:   []string{graph.ParamPresentationRect, "pic"},
			Decorators: []graph.DecoratorFactory{Owner(c, "pic")},
		},
	}
	g := graph.New(cat, log.NewNop())
	g.AddEntity(1, "patcher", 1, graph.RootID)
	g.AddEntity(10, "fpic", 2, 1)
	g.AddParameter(10, 11, graph.ParamPatchingRect, 3)
	g.AddParameter(10, 12, graph.ParamPresentationRect, 4)
	g.AddParameter(10, 13, "pic", 5)
	g.ModifyParameter(11, []any{0.0, 0.0, 64.0, 32.0}, nil, 1)
	g.ModifyParameter(13, []any{"a.png"}, nil, 1)
	require.Len(t, req.info, 1)

	g.ModifyParameter(12, []any{0.0, 0.0, 300.0, 300.0}, nil, 1)
	o, _ := g.Object(10)
	w, h := Resources(o)[0].Dimensions()
	assert.Equal(t, 64, w)
	assert.Equal(t, 32, h)
	assert.Len(t, req.info, 1)
}
