package graph

import "slices"

// TypeSpec describes how entities of one type string are built.
type TypeSpec struct {
	Kind Kind
	// Params lists the parameters the client asks the host to synchronize.
	Params []string
	// Optional names the members of Params that do not gate readiness.
	Optional []string
	// Decorators build the per-object behaviors layered on the base Object.
	Decorators []DecoratorFactory
}

// Mandatory returns Params minus Optional.
func (s TypeSpec) Mandatory() []string {
	out := make([]string, 0, len(s.Params))
	for _, p := range s.Params {
		if !slices.Contains(s.Optional, p) {
			out = append(out, p)
		}
	}
	return out
}

// Catalog maps a host type string to its spec.
type Catalog map[string]TypeSpec

// Spec returns the spec for typ. Unknown types become plain objects with no
// mandatory parameters.
func (c Catalog) Spec(typ string) TypeSpec {
	if spec, ok := c[typ]; ok {
		return spec
	}
	return TypeSpec{Kind: KindObject}
}

// SupportedObjects is the type → parameter list sent at registration.
func (c Catalog) SupportedObjects() map[string][]string {
	out := make(map[string][]string, len(c))
	for typ, spec := range c {
		out[typ] = slices.Clone(spec.Params)
	}
	return out
}

// A Decorator adds behavior to one object. Besides Name it implements any
// of WriteInterceptor, VirtualParams, ChangeObserver and Destroyer.
type Decorator interface {
	Name() string
}

// DecoratorFactory builds a decorator for a freshly created object.
type DecoratorFactory func(o *Object) Decorator

// WriteInterceptor sees local writes before the normal write path. When it
// returns handled, the normal path is skipped.
type WriteInterceptor interface {
	InterceptWrite(o *Object, name string, value any) (handled bool, err error)
}

// VirtualParams exposes read-only parameters computed from stored ones.
type VirtualParams interface {
	VirtualParamNames() []string
	VirtualParam(o *Object, name string) (any, bool)
}

// ChangeObserver is told about every accepted parameter change, local or remote.
type ChangeObserver interface {
	ParamChanged(o *Object, p *Param)
}

// Destroyer releases decorator state when its object leaves the graph.
type Destroyer interface {
	Destroy(o *Object)
}
