package transform

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/zeusync/xebra/internal/core/graph"
)

const DisplayName = "display"

// UnitStyle is the host's _parameter_unitstyle, in host order.
type UnitStyle int

const (
	UnitInt UnitStyle = iota
	UnitFloat
	UnitTime
	UnitHertz
	UnitDecibel
	UnitPercent
	UnitPan
	UnitSemitones
	UnitMIDI
	UnitCustom
	UnitNative
)

var unitStyleNames = map[string]UnitStyle{
	"Int":       UnitInt,
	"Float":     UnitFloat,
	"Time":      UnitTime,
	"Hertz":     UnitHertz,
	"deciBel":   UnitDecibel,
	"%":         UnitPercent,
	"Pan":       UnitPan,
	"Semitones": UnitSemitones,
	"MIDI":      UnitMIDI,
	"Custom":    UnitCustom,
	"Native":    UnitNative,
}

// ParseUnitStyle accepts a style index or its host name.
func ParseUnitStyle(v any) UnitStyle {
	if s, ok := v.(string); ok {
		if style, ok := unitStyleNames[s]; ok {
			return style
		}
		return UnitNative
	}
	if f, ok := toFloat(v); ok && f >= 0 && int(f) <= int(UnitNative) {
		return UnitStyle(int(f))
	}
	return UnitNative
}

// Display exposes a read-only displayvalue parameter computed from value
// and the unit style.
func Display() graph.DecoratorFactory {
	return func(*graph.Object) graph.Decorator { return display{} }
}

type display struct{}

func (display) Name() string                { return DisplayName }
func (display) VirtualParamNames() []string { return []string{ParamDisplayValue} }

func (display) VirtualParam(o *graph.Object, name string) (any, bool) {
	if name != ParamDisplayValue {
		return nil, false
	}
	p, ok := o.Param(ParamValue)
	if !ok || !p.HasValue() {
		return nil, false
	}
	return DisplayValue(o, p.Value()), true
}

// DisplayValue renders v the way the object's unit style prescribes.
func DisplayValue(o *graph.Object, v any) string {
	if valueType(o) == ValueEnum {
		entries := enumEntries(o)
		if f, ok := toFloat(v); ok {
			if i := int(math.Round(f)); i >= 0 && i < len(entries) {
				return entries[i]
			}
		}
		return formatNative(v)
	}

	style := UnitFloat
	if p, ok := o.Param(ParamUnitStyle); ok && p.HasValue() {
		style = ParseUnitStyle(p.Value())
	}
	var units string
	if p, ok := o.Param(ParamUnits); ok {
		units, _ = p.Text()
	}
	return FormatUnit(style, v, units)
}

// FormatUnit formats one value in a unit style. custom is the format string
// used by UnitCustom.
func FormatUnit(style UnitStyle, v any, custom string) string {
	f, ok := toFloat(v)
	if !ok {
		return formatNative(v)
	}

	switch style {
	case UnitInt:
		return strconv.Itoa(int(math.Round(f)))
	case UnitFloat:
		return formatFloat(f)
	case UnitTime:
		if math.Abs(f) >= 1000 {
			return formatFloat(f/1000) + " s"
		}
		return formatFloat(f) + " ms"
	case UnitHertz:
		if math.Abs(f) >= 1000 {
			return formatFloat(f/1000) + " kHz"
		}
		return formatFloat(f) + " Hz"
	case UnitDecibel:
		if f <= -70 {
			return "-inf dB"
		}
		return formatFloat(f) + " dB"
	case UnitPercent:
		return formatFloat(f) + " %"
	case UnitPan:
		return formatPan(f)
	case UnitSemitones:
		n := int(math.Round(f))
		if n > 0 {
			return fmt.Sprintf("+%d st", n)
		}
		return fmt.Sprintf("%d st", n)
	case UnitMIDI:
		return noteName(f)
	case UnitCustom:
		return formatCustom(custom, f)
	default:
		return formatNative(v)
	}
}

// formatFloat shows two decimals below 10, one below 100 and none above.
func formatFloat(f float64) string {
	a := math.Abs(f)
	prec := 2
	switch {
	case a >= 100:
		prec = 0
	case a >= 10:
		prec = 1
	}
	s := strconv.FormatFloat(f, 'f', prec, 64)
	if strings.Trim(s, "-0.") == "" {
		return strings.TrimPrefix(s, "-")
	}
	return s
}

func formatPan(f float64) string {
	n := int(math.Round(f))
	switch {
	case n == 0:
		return "C"
	case n < 0:
		return fmt.Sprintf("%dL", -n)
	default:
		return fmt.Sprintf("%dR", n)
	}
}

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// noteName names a MIDI note with middle C (60) as C3.
func noteName(f float64) string {
	n := int(math.Round(f))
	if n < 0 || n > 127 {
		return "--"
	}
	return noteNames[n%12] + strconv.Itoa(n/12-2)
}

var customVerb = regexp.MustCompile(`%[-+ 0#]*\d*(?:\.\d+)?[difs]`)

// formatCustom substitutes f into the first printf verb of format. A format
// without a verb is shown as is.
func formatCustom(format string, f float64) string {
	loc := customVerb.FindStringIndex(format)
	if loc == nil {
		if format == "" {
			return formatFloat(f)
		}
		return format
	}
	verb := format[loc[0]:loc[1]]
	var rendered string
	switch verb[len(verb)-1] {
	case 'd', 'i':
		rendered = fmt.Sprintf(verb[:len(verb)-1]+"d", int(math.Round(f)))
	case 's':
		rendered = fmt.Sprintf(verb, formatFloat(f))
	default:
		rendered = fmt.Sprintf(verb, f)
	}
	return format[:loc[0]] + rendered + format[loc[1]:]
}

func formatNative(v any) string {
	switch n := v.(type) {
	case nil:
		return ""
	case string:
		return n
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	default:
		return fmt.Sprint(n)
	}
}
