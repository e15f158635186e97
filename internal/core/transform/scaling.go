package transform

import (
	"math"

	"github.com/pkg/errors"

	"github.com/zeusync/xebra/internal/core/graph"
	"github.com/zeusync/xebra/internal/core/protocol"
)

const ScalingName = "scaling"

// Scaling maps writes of the normalized distance parameter into the
// configured value range.
func Scaling() graph.DecoratorFactory {
	return func(*graph.Object) graph.Decorator { return scaling{} }
}

type scaling struct{}

func (scaling) Name() string { return ScalingName }

// InterceptWrite takes over distance writes. The distance itself goes out
// through the normal write path; the derived value is stored directly so it
// is never scaled twice.
func (scaling) InterceptWrite(o *graph.Object, name string, value any) (bool, error) {
	if name != ParamDistance {
		return false, nil
	}
	d, ok := toFloat(value)
	if !ok || math.IsNaN(d) {
		return true, errors.Wrapf(protocol.ErrInvalidValue, "distance %v", value)
	}

	d, scaled := Scale(o, d)
	if err := o.WriteParam(ParamDistance, d); err != nil {
		return true, err
	}
	if _, ok := o.Param(ParamValue); !ok {
		return true, nil
	}
	return true, o.WriteDerived(ParamValue, scaled)
}

// Scale clamps and snaps distance d and maps it into the object's range. It
// returns the snapped distance and the resulting value.
func Scale(o *graph.Object, d float64) (float64, float64) {
	d = math.Max(0, math.Min(1, d))
	typ := valueType(o)
	lo, hi := numericRange(o)

	steps := stepCount(o, typ, lo, hi)
	if steps > 1 {
		d = math.Round(d*float64(steps-1)) / float64(steps-1)
	}

	curved := d
	if exp := floatParam(o, ParamExponent, 1); exp > 0 && exp != 1 {
		curved = math.Pow(d, exp)
	}

	switch typ {
	case ValueEnum:
		if steps <= 1 {
			return d, 0
		}
		return d, math.Round(curved * float64(steps-1))
	case ValueInt:
		return d, math.Round(lo + curved*(hi-lo))
	default:
		return d, lo + curved*(hi-lo)
	}
}

// stepCount is the number of discrete positions, or 0 for a continuous value.
func stepCount(o *graph.Object, typ ValueType, lo, hi float64) int {
	if typ == ValueEnum {
		return len(enumEntries(o))
	}
	if s := int(floatParam(o, ParamSteps, 0)); s > 1 {
		return s
	}
	if typ == ValueInt {
		return int(math.Abs(hi-lo)) + 1
	}
	return 0
}
