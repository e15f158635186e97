package protocol

import (
	"math"
	"reflect"

	"github.com/pkg/errors"
)

// WireType tags one scalar of a parameter value. The host distinguishes
// integers from floats; a decoded JSON number does not.
type WireType string

const (
	WireInt    WireType = "i"
	WireFloat  WireType = "f"
	WireString WireType = "s"
)

// EncodeValues flattens a local write into wire values plus type tags.
// Numbers become float64. previous holds the tags the parameter currently
// carries; when the shape matches they are kept so an integer parameter stays
// an integer parameter.
func EncodeValues(v any, previous []WireType) ([]any, []WireType, error) {
	if v == nil {
		return nil, nil, errors.Wrap(ErrInvalidValue, "nil value")
	}

	var elems []reflect.Value
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
			return nil, nil, errors.Wrap(ErrUnsupportedValue, "byte slice")
		}
		for i := 0; i < rv.Len(); i++ {
			elems = append(elems, rv.Index(i))
		}
	default:
		elems = []reflect.Value{rv}
	}

	keep := len(previous) == len(elems)
	values := make([]any, 0, len(elems))
	types := make([]WireType, 0, len(elems))
	for i, e := range elems {
		for e.Kind() == reflect.Interface && !e.IsNil() {
			e = e.Elem()
		}
		var prev WireType
		if keep {
			prev = previous[i]
		}
		val, tag, err := encodeScalar(e, prev)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "element %d", i)
		}
		values = append(values, val)
		types = append(types, tag)
	}
	return values, types, nil
}

func encodeScalar(e reflect.Value, prev WireType) (any, WireType, error) {
	switch e.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(e.Int()), numericTag(WireInt, prev), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(e.Uint()), numericTag(WireInt, prev), nil
	case reflect.Float32, reflect.Float64:
		f := e.Float()
		if math.IsNaN(f) {
			return nil, "", errors.Wrap(ErrInvalidValue, "NaN")
		}
		if prev == WireInt {
			return math.Round(f), WireInt, nil
		}
		return f, WireFloat, nil
	case reflect.Bool:
		if e.Bool() {
			return float64(1), WireInt, nil
		}
		return float64(0), WireInt, nil
	case reflect.String:
		return e.String(), WireString, nil
	case reflect.Invalid:
		return nil, "", errors.Wrap(ErrInvalidValue, "nil element")
	default:
		return nil, "", errors.Wrapf(ErrUnsupportedValue, "%s", e.Kind())
	}
}

func numericTag(def, prev WireType) WireType {
	if prev == WireFloat || prev == WireInt {
		return prev
	}
	return def
}

// CoerceChannelValue converts a value for an outbound channel message.
// Numbers pass through, booleans become 0/1 and non-empty strings pass
// through. Empty strings, NaN and nil are rejected. Slices and arrays recurse
// element-wise; with flat set, their elements must be scalars. String-keyed
// maps recurse per value.
func CoerceChannelValue(v any, flat bool) (any, error) {
	if v == nil {
		return nil, errors.Wrap(ErrInvalidValue, "nil")
	}
	return coerce(reflect.ValueOf(v), flat, 0)
}

func coerce(rv reflect.Value, flat bool, depth int) (any, error) {
	for rv.Kind() == reflect.Interface || rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, errors.Wrap(ErrInvalidValue, "nil")
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint(), nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) {
			return nil, errors.Wrap(ErrInvalidValue, "NaN")
		}
		return f, nil
	case reflect.Bool:
		if rv.Bool() {
			return 1, nil
		}
		return 0, nil
	case reflect.String:
		if rv.Len() == 0 {
			return nil, errors.Wrap(ErrInvalidValue, "empty string")
		}
		return rv.String(), nil
	case reflect.Slice, reflect.Array:
		if flat && depth > 0 {
			return nil, ErrNestedValue
		}
		out := make([]any, rv.Len())
		for i := range out {
			elem, err := coerce(rv.Index(i), flat, depth+1)
			if err != nil {
				return nil, err
			}
			out[i] = elem
		}
		return out, nil
	case reflect.Map:
		if flat && depth > 0 {
			return nil, ErrNestedValue
		}
		if rv.Type().Key().Kind() != reflect.String {
			return nil, errors.Wrapf(ErrUnsupportedValue, "map key %s", rv.Type().Key())
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			elem, err := coerce(iter.Value(), flat, depth+1)
			if err != nil {
				return nil, errors.Wrapf(err, "key %q", iter.Key().String())
			}
			out[iter.Key().String()] = elem
		}
		return out, nil
	case reflect.Invalid:
		return nil, errors.Wrap(ErrInvalidValue, "nil")
	default:
		return nil, errors.Wrapf(ErrUnsupportedValue, "%s", rv.Kind())
	}
}
