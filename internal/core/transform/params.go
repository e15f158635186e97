// Package transform holds the decorators that derive values from raw
// parameter state: distance scaling and the display value.
package transform

import (
	"math"

	"github.com/zeusync/xebra/internal/core/graph"
)

// Parameter names read by the decorators.
const (
	ParamDistance     = "distance"
	ParamValue        = "value"
	ParamDisplayValue = "displayvalue"
	ParamRange        = "_parameter_range"
	ParamExponent     = "_parameter_exponent"
	ParamSteps        = "_parameter_steps"
	ParamType         = "_parameter_type"
	ParamUnitStyle    = "_parameter_unitstyle"
	ParamUnits        = "_parameter_units"
)

// ValueType is the host's _parameter_type.
type ValueType int

const (
	ValueFloat ValueType = iota
	ValueInt
	ValueEnum
)

func valueType(o *graph.Object) ValueType {
	if p, ok := o.Param(ParamType); ok {
		if f, ok := p.Float(); ok {
			return ValueType(int(f))
		}
	}
	return ValueFloat
}

// numericRange returns the [min,max] pair, defaulting to [0,1].
func numericRange(o *graph.Object) (lo, hi float64) {
	if p, ok := o.Param(ParamRange); ok {
		if f, ok := p.Floats(); ok && len(f) >= 2 {
			return f[0], f[1]
		}
	}
	return 0, 1
}

// enumEntries returns the entries of an enum range as text.
func enumEntries(o *graph.Object) []string {
	p, ok := o.Param(ParamRange)
	if !ok {
		return nil
	}
	values := p.Values()
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = formatNative(v)
	}
	return out
}

func floatParam(o *graph.Object, name string, def float64) float64 {
	if p, ok := o.Param(name); ok {
		if f, ok := p.Float(); ok && !math.IsNaN(f) {
			return f
		}
	}
	return def
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
