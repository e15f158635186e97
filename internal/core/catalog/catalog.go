// Package catalog is the table of host object types the client mirrors.
package catalog

import (
	"slices"

	"github.com/zeusync/xebra/internal/core/graph"
	"github.com/zeusync/xebra/internal/core/resource"
	"github.com/zeusync/xebra/internal/core/transform"
)

// Parameters every visible object carries.
var layout = []string{
	graph.ParamPatchingRect,
	graph.ParamPresentationRect,
	graph.ParamPresentation,
	graph.ParamVarname,
	"zorder",
}

var layoutOptional = []string{graph.ParamVarname, "zorder"}

var liveParameter = []string{
	transform.ParamDistance,
	transform.ParamValue,
	transform.ParamRange,
	transform.ParamExponent,
	transform.ParamSteps,
	transform.ParamType,
	transform.ParamUnitStyle,
	transform.ParamUnits,
	"_parameter_shortname",
}

var liveOptional = []string{
	transform.ParamExponent,
	transform.ParamSteps,
	transform.ParamUnits,
	"_parameter_shortname",
}

// Default returns the catalog of supported types. Picture-bearing types own
// resources created through resources.
func Default(resources *resource.Controller) graph.Catalog {
	scaled := []graph.DecoratorFactory{transform.Scaling(), transform.Display()}

	c := graph.Catalog{
		"patcher": {
			Kind:     graph.KindContainer,
			Params:   []string{"name", "bgcolor", "locked_bgcolor"},
			Optional: []string{"name", "bgcolor", "locked_bgcolor"},
		},
		"patcherview": {
			Kind:   graph.KindView,
			Params: []string{graph.ParamPresentation, graph.ParamLocked},
		},
		"mira.frame": {
			Kind:     graph.KindFrame,
			Params:   append(slices.Clone(layout), "color", "tabname", "taborder"),
			Optional: append(slices.Clone(layoutOptional), "tabname", "taborder"),
		},

		"live.dial":   object(liveParameter, liveOptional, scaled, "activedialcolor", "dialcolor", "needlecolor"),
		"live.slider": object(liveParameter, liveOptional, scaled, "slidercolor", "orientation"),
		"live.numbox": object(liveParameter, liveOptional, scaled, "activebgcolor", "textcolor"),
		"live.toggle": object([]string{"value"}, nil, nil, "activebgoncolor", "bgoncolor"),
		"live.button": object([]string{"value"}, nil, nil, "activebgoncolor", "bgoncolor"),
		"live.grid":   object([]string{"distance", "columns", "rows"}, nil, nil, "stepcolor"),

		"live.tab":  object([]string{"value", "_parameter_range", "pictures"}, []string{"pictures"}, []graph.DecoratorFactory{resource.Owner(resources, "pictures")}, "mode", "spacing_x", "spacing_y"),
		"live.text": object([]string{"value", "text", "texton", "pictures"}, []string{"pictures"}, []graph.DecoratorFactory{resource.Owner(resources, "pictures")}, "mode", "usepicture"),
		"fpic":      object([]string{"pic", "alpha", "autofit"}, []string{"pic"}, []graph.DecoratorFactory{resource.Owner(resources, "pic")}),

		"button":      object([]string{"bgcolor", "blinkcolor"}, nil, nil),
		"toggle":      object([]string{"value", "checkedcolor"}, nil, nil),
		"slider":      object([]string{"distance", "value", "size", "min", "mult"}, nil, nil, "knobcolor"),
		"dial":        object([]string{"distance", "value", "size", "min", "mult"}, nil, nil, "needlecolor"),
		"number":      object([]string{"value", "minimum", "maximum"}, []string{"minimum", "maximum"}, nil, "textcolor"),
		"flonum":      object([]string{"value", "minimum", "maximum"}, []string{"minimum", "maximum"}, nil, "textcolor"),
		"comment":     object([]string{"text", "textcolor", "fontsize"}, nil, nil),
		"message":     object([]string{"text", "textcolor", "fontsize"}, nil, nil),
		"umenu":       object([]string{"value", "items"}, nil, nil, "textcolor"),
		"kslider":     object([]string{"value", "blackkeycolor", "whitekeycolor"}, nil, nil),
		"multislider": object([]string{"distance", "size", "setminmax"}, nil, nil, "slidercolor"),
		"rslider":     object([]string{"distance", "min", "size"}, nil, nil, "fgcolor"),
		"panel":       object([]string{"bgfillcolor", "border", "rounded"}, nil, nil),
		"swatch":      object([]string{"value"}, nil, nil),
		"gain~":       object([]string{"distance", "value", "size"}, nil, nil),
		"meter~":      object([]string{"level", "interval"}, nil, nil),
		"ezdac~":      object([]string{"value"}, nil, nil),
		"ezadc~":      object([]string{"value"}, nil, nil),
		"mira.channel": {
			Params:   []string{"channel"},
			Optional: []string{"channel"},
		},
	}
	return c
}

// object builds the spec of a visible object type: layout params, the given
// params and color params. optional lists params that do not gate readiness;
// color params never do.
func object(params, optional []string, decorators []graph.DecoratorFactory, colors ...string) graph.TypeSpec {
	all := slices.Concat(layout, params, colors)
	opt := slices.Concat(layoutOptional, optional, colors)
	return graph.TypeSpec{
		Kind:       graph.KindObject,
		Params:     all,
		Optional:   opt,
		Decorators: decorators,
	}
}
