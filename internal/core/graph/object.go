package graph

import (
	"fmt"
	"slices"

	"github.com/zeusync/xebra/internal/core/protocol"
)

// Object is an entity that owns parameters and becomes ready once every
// mandatory parameter holds a value.
type Object struct {
	Node

	spec       TypeSpec
	ready      bool
	decorators []Decorator

	// snapshot caches name → value for batch reads; nil means stale.
	snapshot map[string]any
}

func newObject(g *Graph, id ID, typ string, kind Kind, seq int64, parentID ID, spec TypeSpec) Object {
	return Object{
		Node: newNode(g, id, typ, kind, seq, parentID),
		spec: spec,
	}
}

// IsReady reports whether the one-shot ready transition has happened.
func (o *Object) IsReady() bool { return o.ready }

// ContainerID is the id of the container holding this object, or RootID.
func (o *Object) ContainerID() ID { return o.parentID }

// Param returns the named parameter child.
func (o *Object) Param(name string) (*Param, bool) {
	id, ok := o.paramIDs[name]
	if !ok {
		return nil, false
	}
	p, ok := o.g.entities[id].(*Param)
	return p, ok
}

// ParamValue returns the current value of a stored or virtual parameter.
func (o *Object) ParamValue(name string) any {
	for _, d := range o.decorators {
		if vp, ok := d.(VirtualParams); ok {
			if v, ok := vp.VirtualParam(o, name); ok {
				return v
			}
		}
	}
	if p, ok := o.Param(name); ok {
		return p.Value()
	}
	return nil
}

// ParamValues returns every stored and virtual parameter value in one map.
// The map is cached until the next change and must not be modified.
func (o *Object) ParamValues() map[string]any {
	if o.snapshot != nil {
		return o.snapshot
	}
	snap := make(map[string]any, len(o.paramIDs))
	for name := range o.paramIDs {
		if p, ok := o.Param(name); ok {
			snap[name] = p.Value()
		}
	}
	for _, d := range o.decorators {
		if vp, ok := d.(VirtualParams); ok {
			for _, name := range vp.VirtualParamNames() {
				if v, ok := vp.VirtualParam(o, name); ok {
					snap[name] = v
				}
			}
		}
	}
	o.snapshot = snap
	return snap
}

// Decorators returns the names of the behaviors attached to this object.
func (o *Object) Decorators() []string {
	names := make([]string, len(o.decorators))
	for i, d := range o.decorators {
		names[i] = d.Name()
	}
	return names
}

// Decorator looks up an attached behavior by name.
func (o *Object) Decorator(name string) (Decorator, bool) {
	for _, d := range o.decorators {
		if d.Name() == name {
			return d, true
		}
	}
	return nil, false
}

// SetParamValue is the single write entry point for collaborators. Decorators
// may take over the write; otherwise the value goes through WriteParam.
func (o *Object) SetParamValue(name string, value any) error {
	if o.isVirtual(name) {
		return fmt.Errorf("%s.%s: %w", o.typ, name, ErrReadOnly)
	}
	for _, d := range o.decorators {
		if wi, ok := d.(WriteInterceptor); ok {
			handled, err := wi.InterceptWrite(o, name, value)
			if err != nil {
				return err
			}
			if handled {
				return nil
			}
		}
	}
	return o.WriteParam(name, value)
}

// WriteParam stores a local value, bumps the write sequence and hands the
// parameter to the graph's writer. Decorators use it to write without being
// intercepted again.
func (o *Object) WriteParam(name string, value any) error {
	p, err := o.writable(name)
	if err != nil {
		return err
	}
	values, types, err := protocol.EncodeValues(value, p.types)
	if err != nil {
		return fmt.Errorf("%s.%s: %w", o.typ, name, err)
	}
	p.applyLocal(values, types)
	o.g.paramChanged(o, p, true)
	return nil
}

// WriteDerived stores a computed value locally without bumping the write
// sequence and without sending it to the host.
func (o *Object) WriteDerived(name string, value any) error {
	p, err := o.writable(name)
	if err != nil {
		return err
	}
	values, types, err := protocol.EncodeValues(value, p.types)
	if err != nil {
		return fmt.Errorf("%s.%s: %w", o.typ, name, err)
	}
	p.store(values, types)
	o.g.paramChanged(o, p, false)
	return nil
}

func (o *Object) writable(name string) (*Param, error) {
	p, ok := o.Param(name)
	if !ok {
		return nil, fmt.Errorf("%s.%s: %w", o.typ, name, ErrNotParam)
	}
	return p, nil
}

func (o *Object) isVirtual(name string) bool {
	for _, d := range o.decorators {
		if vp, ok := d.(VirtualParams); ok && slices.Contains(vp.VirtualParamNames(), name) {
			return true
		}
	}
	return false
}

// checkReady flips ready when every mandatory parameter has a value. It
// returns true only on the transition.
func (o *Object) checkReady() bool {
	if o.ready {
		return false
	}
	for _, name := range o.spec.Mandatory() {
		p, ok := o.Param(name)
		if !ok || !p.HasValue() {
			return false
		}
	}
	o.ready = true
	return true
}

// Rect returns the object's rectangle in the given mode. It fails until the
// rect parameter holds four numbers.
func (o *Object) Rect(mode ViewMode) (Rect, bool) {
	name := ParamPatchingRect
	if mode == ViewModePresentation {
		name = ParamPresentationRect
	}
	p, ok := o.Param(name)
	if !ok {
		return Rect{}, false
	}
	f, ok := p.Floats()
	if !ok || len(f) != 4 {
		return Rect{}, false
	}
	return Rect{X: f[0], Y: f[1], W: f[2], H: f[3]}, true
}

// VisibleIn reports whether the object is shown in mode. Objects are always
// part of the patching layout and opt into presentation.
func (o *Object) VisibleIn(mode ViewMode) bool {
	if mode != ViewModePresentation {
		return true
	}
	p, ok := o.Param(ParamPresentation)
	if !ok {
		return false
	}
	f, ok := p.Float()
	return ok && f != 0
}
