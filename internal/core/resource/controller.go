// Package resource multiplexes binary asset requests over the session.
package resource

import (
	"sort"

	"github.com/zeusync/xebra/internal/core/events/bus"
	"github.com/zeusync/xebra/internal/core/graph"
	"github.com/zeusync/xebra/internal/core/observability/log"
	"github.com/zeusync/xebra/internal/core/protocol"
)

// Bus topic and event of a resource delivery.
const (
	TopicResource = "resource"
	EventData     = "data"
)

// Requester sends resource requests to the host.
type Requester interface {
	RequestResourceInfo(req protocol.ResourceRequest) error
	RequestResourceData(req protocol.ResourceRequest) error
}

// Delivery is the data of an EventData event. The controller keeps no copy.
type Delivery struct {
	Resource *Resource
	MimeType string
	DataURI  string
}

// Controller owns every resource and correlates the host's asynchronous
// replies with the most recent request per resource.
type Controller struct {
	requester Requester
	bus       bus.EventBus
	logger    log.Log

	resources map[string]*Resource
	info      domain
	data      domain
}

func NewController(requester Requester, b bus.EventBus, logger log.Log) *Controller {
	return &Controller{
		requester: requester,
		bus:       b,
		logger:    logger.With(log.String("component", "resource")),
		resources: make(map[string]*Resource),
		info:      newDomain(),
		data:      newDomain(),
	}
}

// SetRequester replaces the request sink.
func (c *Controller) SetRequester(r Requester) { c.requester = r }

// Create registers a new resource. owner is graph.RootID for a free-standing
// resource.
func (c *Controller) Create(owner graph.ID) *Resource {
	r := newResource(c, owner)
	c.resources[r.id] = r
	return r
}

func (c *Controller) Get(id string) (*Resource, bool) {
	r, ok := c.resources[id]
	return r, ok
}

// ByOwner returns the resources of one object in creation order.
func (c *Controller) ByOwner(owner graph.ID) []*Resource {
	var out []*Resource
	for _, r := range c.resources {
		if r.owner == owner {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

func (c *Controller) Len() int { return len(c.resources) }

// Remove forgets a resource and cancels its outstanding requests.
func (c *Controller) Remove(id string) {
	if _, ok := c.resources[id]; !ok {
		return
	}
	delete(c.resources, id)
	c.info.cancel(id)
	c.data.cancel(id)
}

// Reset forgets every resource. Sequence counters keep counting so replies
// to requests from before the reset can never match.
func (c *Controller) Reset() {
	c.resources = make(map[string]*Resource)
	c.info.clear()
	c.data.clear()
}

// Pending reports the number of outstanding info and data requests.
func (c *Controller) Pending() (info, data int) {
	return len(c.info.bySeq), len(c.data.bySeq)
}

func (c *Controller) requestInfo(r *Resource) {
	c.data.cancel(r.id)
	if r.filename == "" {
		c.info.cancel(r.id)
		return
	}
	req := protocol.ResourceRequest{
		Sequence: c.info.next(r.id),
		Context:  r.id,
		Name:     r.filename,
		Width:    r.width,
		Height:   r.height,
	}
	if c.requester == nil {
		c.info.cancel(r.id)
		return
	}
	if err := c.requester.RequestResourceInfo(req); err != nil {
		c.info.cancel(r.id)
		c.logger.Warn("Resource info request failed",
			log.String("resource", r.id),
			log.String("name", r.filename),
			log.Error(err))
	}
}

// HandleInfo processes a handle_resource_info reply and requests the data.
func (c *Controller) HandleInfo(res protocol.ResourceInfoResult) {
	id, ok := c.info.resolve(res.Request.Sequence)
	if !ok {
		c.logger.Debug("Superseded resource info dropped", log.Int64("sequence", res.Request.Sequence))
		return
	}
	r, ok := c.resources[id]
	if !ok {
		return
	}

	var info protocol.ResourceInfo
	if err := protocol.DecodeNested(res.Info, &info); err != nil {
		c.logger.Warn("Malformed resource info dropped",
			log.String("resource", id),
			log.Error(err))
		return
	}
	r.info = &info

	req := protocol.ResourceRequest{
		Sequence: c.data.next(id),
		Context:  id,
		Name:     r.filename,
		Path:     info.Path,
		Width:    r.width,
		Height:   r.height,
		AsPNG:    info.MimeType == "image/svg+xml",
	}
	if c.requester == nil {
		c.data.cancel(id)
		return
	}
	if err := c.requester.RequestResourceData(req); err != nil {
		c.data.cancel(id)
		c.logger.Warn("Resource data request failed",
			log.String("resource", id),
			log.Error(err))
	}
}

// HandleData processes a handle_resource_data reply and delivers a data URI
// to subscribers.
func (c *Controller) HandleData(res protocol.ResourceDataResult) {
	id, ok := c.data.resolve(res.Request.Sequence)
	if !ok {
		c.logger.Debug("Superseded resource data dropped", log.Int64("sequence", res.Request.Sequence))
		return
	}
	r, ok := c.resources[id]
	if !ok {
		return
	}

	var body protocol.ResourceData
	if err := protocol.DecodeNested(res.Data, &body); err != nil {
		c.logger.Warn("Malformed resource data dropped",
			log.String("resource", id),
			log.Error(err))
		return
	}
	mime := body.MimeType
	if mime == "" && r.info != nil {
		mime = r.info.MimeType
	}

	d := Delivery{
		Resource: r,
		MimeType: mime,
		DataURI:  "data:" + mime + ";base64," + body.Data,
	}
	if err := c.bus.PublishToTopic(TopicResource, bus.NewEvent(EventData, "resource", d)); err != nil {
		c.logger.Warn("Resource listener failed", log.String("resource", id), log.Error(err))
	}
}

// domain correlates replies of one request kind. Only the newest request per
// resource is kept.
type domain struct {
	seq       int64
	byRequest map[string]int64
	bySeq     map[int64]string
}

func newDomain() domain {
	return domain{
		byRequest: make(map[string]int64),
		bySeq:     make(map[int64]string),
	}
}

func (d *domain) next(id string) int64 {
	d.cancel(id)
	d.seq++
	d.byRequest[id] = d.seq
	d.bySeq[d.seq] = id
	return d.seq
}

func (d *domain) resolve(seq int64) (string, bool) {
	id, ok := d.bySeq[seq]
	if !ok {
		return "", false
	}
	delete(d.bySeq, seq)
	delete(d.byRequest, id)
	return id, true
}

func (d *domain) cancel(id string) {
	if seq, ok := d.byRequest[id]; ok {
		delete(d.bySeq, seq)
		delete(d.byRequest, id)
	}
}

func (d *domain) clear() {
	d.byRequest = make(map[string]int64)
	d.bySeq = make(map[int64]string)
}
