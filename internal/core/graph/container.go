package graph

import "slices"

// Container is a top-level patcher. It tracks its frames, its member objects,
// a scripting-name index and the optional view object carrying display mode
// and lock state.
type Container struct {
	Object

	frames    []ID
	objects   []ID
	scripting map[string]ID
	viewID    ID
}

func newContainer(g *Graph, id ID, typ string, seq int64, parentID ID, spec TypeSpec) *Container {
	return &Container{
		Object:    newObject(g, id, typ, KindContainer, seq, parentID, spec),
		scripting: make(map[string]ID),
	}
}

// Frames returns the container's frames in creation order.
func (c *Container) Frames() []*Frame {
	out := make([]*Frame, 0, len(c.frames))
	for _, id := range c.frames {
		if f, ok := c.g.entities[id].(*Frame); ok {
			out = append(out, f)
		}
	}
	return out
}

// Objects returns the member objects in creation order. Frames and the view
// object are not members.
func (c *Container) Objects() []*Object {
	out := make([]*Object, 0, len(c.objects))
	for _, id := range c.objects {
		if o, ok := c.g.Object(id); ok {
			out = append(out, o)
		}
	}
	return out
}

// View returns the view object, if the host has sent one.
func (c *Container) View() (*Object, bool) {
	if c.viewID == RootID {
		return nil, false
	}
	return c.g.Object(c.viewID)
}

// ViewMode is the container's current display mode as published by its view
// object. Without one, patching mode is assumed.
func (c *Container) ViewMode() ViewMode {
	if v, ok := c.View(); ok {
		if p, ok := v.Param(ParamPresentation); ok {
			if f, ok := p.Float(); ok && f != 0 {
				return ViewModePresentation
			}
		}
	}
	return ViewModePatching
}

// IsLocked reports the lock state published by the view object.
func (c *Container) IsLocked() bool {
	if v, ok := c.View(); ok {
		if p, ok := v.Param(ParamLocked); ok {
			f, ok := p.Float()
			return ok && f != 0
		}
	}
	return false
}

// ObjectByScriptingName resolves an object by its varname.
func (c *Container) ObjectByScriptingName(name string) (*Object, bool) {
	id, ok := c.scripting[name]
	if !ok {
		return nil, false
	}
	return c.g.Object(id)
}

func (c *Container) attach(e Entity) {
	switch e.Kind() {
	case KindFrame:
		c.frames = c.g.insertOrdered(c.frames, e.ID())
	case KindView:
		c.viewID = e.ID()
	default:
		c.objects = c.g.insertOrdered(c.objects, e.ID())
	}
}

func (c *Container) detach(id ID) {
	c.frames = slices.DeleteFunc(c.frames, func(x ID) bool { return x == id })
	c.objects = slices.DeleteFunc(c.objects, func(x ID) bool { return x == id })
	if c.viewID == id {
		c.viewID = RootID
	}
	c.unindex(id)
}

// reindex points name at id, dropping any previous name of id.
func (c *Container) reindex(id ID, name string) {
	c.unindex(id)
	if name != "" {
		c.scripting[name] = id
	}
}

func (c *Container) unindex(id ID) {
	for name, other := range c.scripting {
		if other == id {
			delete(c.scripting, name)
		}
	}
}
