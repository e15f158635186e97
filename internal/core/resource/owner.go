package resource

import (
	"math"

	"github.com/zeusync/xebra/internal/core/graph"
)

const OwnerName = "resource_owner"

// Owner makes an object own one resource per filename held in param. The
// resources take their size from the patching rectangle and go away with the
// object.
func Owner(c *Controller, param string) graph.DecoratorFactory {
	return func(*graph.Object) graph.Decorator {
		return &owner{c: c, param: param}
	}
}

// Resources returns the resources owned by o, in filename order.
func Resources(o *graph.Object) []*Resource {
	d, ok := o.Decorator(OwnerName)
	if !ok {
		return nil
	}
	return d.(*owner).resources
}

type owner struct {
	c         *Controller
	param     string
	resources []*Resource
}

func (d *owner) Name() string { return OwnerName }

func (d *owner) ParamChanged(o *graph.Object, p *graph.Param) {
	switch p.Name() {
	case d.param:
		d.sync(o, filenames(p))
	case graph.ParamPatchingRect:
		f, ok := p.Floats()
		if !ok || len(f) != 4 {
			return
		}
		w, h := int(math.Round(f[2])), int(math.Round(f[3]))
		for _, r := range d.resources {
			r.SetDimensions(w, h)
		}
	}
}

func (d *owner) Destroy(*graph.Object) {
	for _, r := range d.resources {
		d.c.Remove(r.id)
	}
	d.resources = nil
}

// sync resizes the resource list to names and points each entry at its file.
func (d *owner) sync(o *graph.Object, names []string) {
	for len(d.resources) > len(names) {
		last := d.resources[len(d.resources)-1]
		d.c.Remove(last.id)
		d.resources = d.resources[:len(d.resources)-1]
	}
	for len(d.resources) < len(names) {
		r := d.c.Create(o.ID())
		if rect, ok := o.Rect(graph.ViewModePatching); ok {
			r.width, r.height = int(math.Round(rect.W)), int(math.Round(rect.H))
		}
		d.resources = append(d.resources, r)
	}
	for i, name := range names {
		d.resources[i].SetFilename(name)
	}
}

func filenames(p *graph.Param) []string {
	var out []string
	for _, v := range p.Values() {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}
