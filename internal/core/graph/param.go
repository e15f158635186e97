package graph

import (
	"slices"

	"github.com/zeusync/xebra/internal/core/protocol"
)

// Param is a leaf entity holding one value. Its name is its type string.
type Param struct {
	Node

	values []any
	types  []protocol.WireType

	// writeSeq counts local writes; remoteSeq is the sequence of the last
	// accepted remote write.
	writeSeq  int64
	remoteSeq int64
}

func newParam(g *Graph, id ID, typ string, seq int64, parentID ID) *Param {
	return &Param{Node: newNode(g, id, typ, KindParam, seq, parentID)}
}

func (p *Param) Name() string { return p.typ }

// HasValue reports whether the parameter has ever received a value.
func (p *Param) HasValue() bool { return p.values != nil }

// Value returns nil before the first value arrives, the scalar for
// one-element values and a copy of the list otherwise.
func (p *Param) Value() any {
	switch len(p.values) {
	case 0:
		if p.values == nil {
			return nil
		}
		return []any{}
	case 1:
		return p.values[0]
	default:
		return slices.Clone(p.values)
	}
}

func (p *Param) Values() []any {
	return slices.Clone(p.values)
}

func (p *Param) Types() []protocol.WireType {
	return slices.Clone(p.types)
}

func (p *Param) WriteSequence() int64 {
	return p.writeSeq
}

func (p *Param) RemoteSequence() int64 {
	return p.remoteSeq
}

func (p *Param) Float() (float64, bool) {
	return toFloat(p.Value())
}

// Text returns the value when it is a single string.
func (p *Param) Text() (string, bool) {
	s, ok := p.Value().(string)
	return s, ok
}

func (p *Param) IsInteger() bool {
	return len(p.types) == 1 && p.types[0] == protocol.WireInt
}

func (p *Param) Floats() ([]float64, bool) {
	return toFloats(p.values)
}

// applyRemote stores a host write. Writes that are not newer than the last
// accepted one are dropped.
func (p *Param) applyRemote(values []any, types []protocol.WireType, seq int64) bool {
	if seq <= p.remoteSeq {
		return false
	}
	p.remoteSeq = seq
	p.store(values, types)
	return true
}

func (p *Param) applyLocal(values []any, types []protocol.WireType) {
	p.writeSeq++
	p.store(values, types)
}

func (p *Param) store(values []any, types []protocol.WireType) {
	if values == nil {
		p.values = nil
	} else {
		p.values = slices.Clone(values)
	}
	p.types = slices.Clone(types)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

func toFloats(values []any) ([]float64, bool) {
	out := make([]float64, len(values))
	for i, v := range values {
		f, ok := toFloat(v)
		if !ok {
			return nil, false
		}
		out[i] = f
	}
	return out, true
}
