// Package view keeps frame membership in line with object geometry.
package view

import (
	"github.com/zeusync/xebra/internal/core/events/bus"
	"github.com/zeusync/xebra/internal/core/graph"
	"github.com/zeusync/xebra/internal/core/observability/log"
)

// Assigner recomputes which objects lie inside which frame whenever a rect,
// a visibility flag or a view mode changes.
type Assigner struct {
	g      *graph.Graph
	logger log.Log
	subs   []bus.Subscription
}

func New(g *graph.Graph, logger log.Log) *Assigner {
	return &Assigner{
		g:      g,
		logger: logger.With(log.String("component", "view")),
	}
}

// Start subscribes to graph events. It is a no-op when already started.
func (a *Assigner) Start() error {
	if len(a.subs) > 0 {
		return nil
	}
	handlers := []struct {
		topic, event string
		fn           bus.EventHandler
	}{
		{graph.TopicObject, graph.EventAdded, a.onObject},
		{graph.TopicObject, graph.EventChanged, a.onObject},
		{graph.TopicFrame, graph.EventAdded, a.onFrame},
		{graph.TopicFrame, graph.EventChanged, a.onFrame},
		{graph.TopicContainer, graph.EventChanged, a.onContainer},
	}
	b := a.g.Bus()
	for _, h := range handlers {
		sub, err := b.SubscribeTopic(h.topic, h.event, h.fn)
		if err != nil {
			a.Stop()
			return err
		}
		a.subs = append(a.subs, sub)
	}
	return nil
}

func (a *Assigner) Stop() {
	for _, sub := range a.subs {
		_ = sub.Cancel()
	}
	a.subs = nil
}

func (a *Assigner) onObject(e bus.Event) error {
	ch := e.Data().(graph.Change)
	if ch.Param != nil && !affectsLayout(ch.Param.Name()) {
		return nil
	}
	if o, ok := a.g.Object(ch.Entity.ID()); ok {
		a.RefreshObject(o)
	}
	return nil
}

func (a *Assigner) onFrame(e bus.Event) error {
	ch := e.Data().(graph.Change)
	if ch.Param != nil && !affectsLayout(ch.Param.Name()) {
		return nil
	}
	if f, ok := a.g.Frame(ch.Entity.ID()); ok {
		a.RefreshFrame(f)
	}
	return nil
}

func (a *Assigner) onContainer(e bus.Event) error {
	ch := e.Data().(graph.Change)
	if c, ok := a.g.Container(ch.Entity.ID()); ok {
		a.RefreshContainer(c)
	}
	return nil
}

// RefreshContainer recomputes every frame of c.
func (a *Assigner) RefreshContainer(c *graph.Container) {
	for _, f := range c.Frames() {
		a.RefreshFrame(f)
	}
}

// RefreshFrame tests every object of the frame's container against it.
func (a *Assigner) RefreshFrame(f *graph.Frame) {
	c, ok := a.g.Container(f.ParentID())
	if !ok {
		return
	}
	for _, o := range c.Objects() {
		a.assign(f, o)
	}
}

// RefreshObject tests o against every frame of its container.
func (a *Assigner) RefreshObject(o *graph.Object) {
	c, ok := a.g.Container(o.ContainerID())
	if !ok {
		return
	}
	for _, f := range c.Frames() {
		a.assign(f, o)
	}
}

func (a *Assigner) assign(f *graph.Frame, o *graph.Object) {
	inside := Inside(f, o)
	if f.SetMember(o.ID(), inside) {
		a.logger.Debug("Frame membership changed",
			log.Int64("frame", int64(f.ID())),
			log.Int64("object", int64(o.ID())),
			log.Bool("inside", inside))
	}
}

// Inside reports whether o is shown inside f in the frame's effective mode.
// Objects without a valid rect are never inside.
func Inside(f *graph.Frame, o *graph.Object) bool {
	mode := f.ViewMode()
	if !o.VisibleIn(mode) {
		return false
	}
	fr, ok := f.Rect(mode)
	if !ok {
		return false
	}
	or, ok := o.Rect(mode)
	if !ok {
		return false
	}
	return fr.Overlaps(or)
}

func affectsLayout(name string) bool {
	switch name {
	case graph.ParamPatchingRect, graph.ParamPresentationRect, graph.ParamPresentation:
		return true
	}
	return false
}
