package resource

import (
	"github.com/oklog/ulid/v2"

	"github.com/zeusync/xebra/internal/core/graph"
	"github.com/zeusync/xebra/internal/core/protocol"
)

// Resource is one asset: a filename and the size it should be rendered at.
// Fetched bytes are handed to listeners and never kept here.
type Resource struct {
	c *Controller

	id       string
	owner    graph.ID
	filename string
	width    int
	height   int
	info     *protocol.ResourceInfo
}

func newResource(c *Controller, owner graph.ID) *Resource {
	return &Resource{
		c:     c,
		id:    ulid.Make().String(),
		owner: owner,
	}
}

func (r *Resource) ID() string { return r.id }

// Owner returns the owning object, if any.
func (r *Resource) Owner() (graph.ID, bool) {
	return r.owner, r.owner != graph.RootID
}

func (r *Resource) Filename() string { return r.filename }

func (r *Resource) Dimensions() (width, height int) { return r.width, r.height }

// Info returns the metadata of the last info reply.
func (r *Resource) Info() (protocol.ResourceInfo, bool) {
	if r.info == nil {
		return protocol.ResourceInfo{}, false
	}
	return *r.info, true
}

// SetFilename points the resource at a new file and fetches it.
func (r *Resource) SetFilename(name string) {
	if name == r.filename {
		return
	}
	r.filename = name
	r.info = nil
	r.c.requestInfo(r)
}

// SetDimensions changes the target size and fetches the file again.
func (r *Resource) SetDimensions(width, height int) {
	if width == r.width && height == r.height {
		return
	}
	r.width, r.height = width, height
	r.c.requestInfo(r)
}
