package graph

import (
	"slices"

	"github.com/zeusync/xebra/internal/core/events/bus"
	"github.com/zeusync/xebra/internal/core/observability/log"
	"github.com/zeusync/xebra/internal/core/protocol"
)

// ParamWriter receives every local parameter write so it can be sent to the host.
type ParamWriter interface {
	WriteParam(p *Param)
}

// Graph is the store of all live entities: a flat id lookup plus ordered
// container, frame and object collections.
//
// A Graph is not safe for concurrent use. All mutation happens on the
// client's single consumer loop.
type Graph struct {
	catalog Catalog
	logger  log.Log
	bus     bus.EventBus
	writer  ParamWriter

	entities   map[ID]Entity
	containers []ID
	// parked holds adds whose parent has not arrived yet, keyed by parent id.
	parked map[ID][]parkedAdd
	// pending holds the newest modify for a parked parameter, keyed by its id.
	pending map[ID]pendingModify
}

type pendingModify struct {
	values []any
	types  []protocol.WireType
	seq    int64
}

type parkedAdd struct {
	param    bool
	id       ID
	typ      string
	seq      int64
	parentID ID
}

type Option func(*Graph)

// WithBus publishes graph events on an existing bus.
func WithBus(b bus.EventBus) Option {
	return func(g *Graph) { g.bus = b }
}

// WithWriter sets the receiver of local writes.
func WithWriter(w ParamWriter) Option {
	return func(g *Graph) { g.writer = w }
}

// New creates an empty graph holding only the root entity.
func New(catalog Catalog, logger log.Log, opts ...Option) *Graph {
	g := &Graph{
		catalog: catalog,
		logger:  logger.With(log.String("component", "graph")),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.bus == nil {
		g.bus = bus.New()
	}
	g.install()
	return g
}

func (g *Graph) install() {
	root := newNode(g, RootID, "root", KindRoot, 0, RootID)
	g.entities = map[ID]Entity{RootID: &root}
	g.containers = nil
	g.parked = make(map[ID][]parkedAdd)
	g.pending = make(map[ID]pendingModify)
}

// SetWriter replaces the receiver of local writes.
func (g *Graph) SetWriter(w ParamWriter) { g.writer = w }

func (g *Graph) Bus() bus.EventBus { return g.bus }

func (g *Graph) Catalog() Catalog { return g.catalog }

// Len counts live entities, the root included.
func (g *Graph) Len() int { return len(g.entities) }

// AddEntity creates a container, frame, view or plain object. Adds for an id
// that already exists are ignored; adds whose parent is unknown wait until
// the parent arrives.
func (g *Graph) AddEntity(id ID, typ string, creationSeq int64, parentID ID) {
	if _, exists := g.entities[id]; exists {
		g.logger.Debug("Duplicate add ignored", log.Int64("id", int64(id)), log.String("type", typ))
		return
	}
	parent, ok := g.entities[parentID]
	if !ok {
		g.park(parkedAdd{id: id, typ: typ, seq: creationSeq, parentID: parentID})
		return
	}

	spec := g.catalog.Spec(typ)
	var ent Entity
	var obj *Object
	switch spec.Kind {
	case KindContainer:
		c := newContainer(g, id, typ, creationSeq, parentID, spec)
		ent, obj = c, &c.Object
	case KindFrame:
		f := newFrame(g, id, typ, creationSeq, parentID, spec)
		ent, obj = f, &f.Object
	default:
		kind := spec.Kind
		if kind != KindView {
			kind = KindObject
		}
		o := newObject(g, id, typ, kind, creationSeq, parentID, spec)
		ent, obj = &o, &o
	}

	g.entities[id] = ent
	parent.node().children[id] = struct{}{}
	for _, factory := range spec.Decorators {
		if d := factory(obj); d != nil {
			obj.decorators = append(obj.decorators, d)
		}
	}

	if c, ok := parent.(*Container); ok {
		c.attach(ent)
	} else if parentID == RootID && spec.Kind == KindContainer {
		g.containers = g.insertOrdered(g.containers, id)
	}

	g.logger.Debug("Entity added",
		log.Int64("id", int64(id)),
		log.String("type", typ),
		log.Int64("parent", int64(parentID)))

	if obj.checkReady() {
		g.announce(obj)
	}
	g.adopt(id)
}

// AddParameter creates a parameter under an object. The parameter starts
// without a value.
func (g *Graph) AddParameter(parentID, id ID, typ string, creationSeq int64) {
	if _, exists := g.entities[id]; exists {
		g.logger.Debug("Duplicate param ignored", log.Int64("id", int64(id)), log.String("type", typ))
		return
	}
	obj, ok := g.Object(parentID)
	if !ok {
		g.park(parkedAdd{param: true, id: id, typ: typ, seq: creationSeq, parentID: parentID})
		return
	}

	p := newParam(g, id, typ, creationSeq, parentID)
	g.entities[id] = p
	obj.children[id] = struct{}{}
	obj.paramIDs[typ] = id
	obj.snapshot = nil

	if m, ok := g.pending[id]; ok {
		delete(g.pending, id)
		g.ModifyParameter(id, m.values, m.types, m.seq)
	}
}

// DeleteEntity destroys an entity and everything below it. Unknown ids are
// ignored.
func (g *Graph) DeleteEntity(id ID) {
	if id == RootID {
		return
	}
	ent, ok := g.entities[id]
	if !ok {
		g.unpark(id)
		return
	}
	g.destroy(ent, true)
}

// ModifyParameter applies a host write. It reports false when the parameter
// is unknown or the write is not newer than the stored one.
func (g *Graph) ModifyParameter(id ID, values []any, types []protocol.WireType, remoteSeq int64) bool {
	p, ok := g.entities[id].(*Param)
	if !ok {
		if g.isParked(id) {
			if m, seen := g.pending[id]; !seen || remoteSeq > m.seq {
				g.pending[id] = pendingModify{values: values, types: types, seq: remoteSeq}
			}
			return false
		}
		g.logger.Debug("Modify for unknown param", log.Int64("id", int64(id)))
		return false
	}
	if !p.applyRemote(values, types, remoteSeq) {
		g.logger.Debug("Stale modify dropped",
			log.Int64("id", int64(id)),
			log.Int64("sequence", remoteSeq),
			log.Int64("stored", p.remoteSeq))
		return false
	}
	if obj, ok := g.Object(p.parentID); ok {
		g.paramChanged(obj, p, false)
	}
	return true
}

// GetByID returns any live entity.
func (g *Graph) GetByID(id ID) (Entity, bool) {
	e, ok := g.entities[id]
	return e, ok
}

// Object returns the object part of a container, frame, view or plain object.
func (g *Graph) Object(id ID) (*Object, bool) {
	switch e := g.entities[id].(type) {
	case *Object:
		return e, true
	case *Container:
		return &e.Object, true
	case *Frame:
		return &e.Object, true
	default:
		return nil, false
	}
}

func (g *Graph) Container(id ID) (*Container, bool) {
	c, ok := g.entities[id].(*Container)
	return c, ok
}

func (g *Graph) Frame(id ID) (*Frame, bool) {
	f, ok := g.entities[id].(*Frame)
	return f, ok
}

// Param returns a parameter by its own id.
func (g *Graph) Param(id ID) (*Param, bool) {
	p, ok := g.entities[id].(*Param)
	return p, ok
}

// Containers returns the top-level containers in creation order.
func (g *Graph) Containers() []*Container {
	out := make([]*Container, 0, len(g.containers))
	for _, id := range g.containers {
		if c, ok := g.Container(id); ok {
			out = append(out, c)
		}
	}
	return out
}

// ObjectByScriptingName searches the containers in order and returns the
// first object whose varname matches.
func (g *Graph) ObjectByScriptingName(name string) (*Object, bool) {
	for _, c := range g.Containers() {
		if o, ok := c.ObjectByScriptingName(name); ok {
			return o, true
		}
	}
	return nil, false
}

// SetParamValue writes through the object's single write entry point.
func (g *Graph) SetParamValue(objectID ID, name string, value any) error {
	o, ok := g.Object(objectID)
	if !ok {
		return ErrNotFound
	}
	return o.SetParamValue(name, value)
}

// Reset destroys every entity, clears all indices and installs a fresh root.
// Decorators are released but no per-entity events fire; a single reset
// event is published instead.
func (g *Graph) Reset() {
	root := g.entities[RootID]
	for _, id := range root.ChildIDs() {
		if ent, ok := g.entities[id]; ok {
			g.destroy(ent, false)
		}
	}
	g.install()
	g.logger.Info("Graph reset")
	g.publish(TopicGraph, EventReset, Change{})
}

func (g *Graph) destroy(ent Entity, notify bool) {
	n := ent.node()
	for _, child := range n.ChildIDs() {
		if ce, ok := g.entities[child]; ok {
			g.destroy(ce, notify)
		}
	}

	obj, isObject := g.Object(n.id)
	if isObject {
		for _, d := range obj.decorators {
			if ds, ok := d.(Destroyer); ok {
				ds.Destroy(obj)
			}
		}
		if c, ok := g.Container(n.parentID); ok {
			c.detach(n.id)
			for _, f := range c.Frames() {
				if notify {
					f.SetMember(n.id, false)
				} else {
					delete(f.members, n.id)
				}
			}
		}
	}

	if parent, ok := g.entities[n.parentID]; ok && n.id != RootID {
		pn := parent.node()
		delete(pn.children, n.id)
		if n.kind == KindParam && pn.paramIDs[n.typ] == n.id {
			delete(pn.paramIDs, n.typ)
			if po, ok := g.Object(pn.id); ok {
				po.snapshot = nil
			}
		}
	}

	delete(g.entities, n.id)
	for _, add := range g.parked[n.id] {
		delete(g.pending, add.id)
	}
	delete(g.parked, n.id)
	g.containers = slices.DeleteFunc(g.containers, func(x ID) bool { return x == n.id })

	if isObject && notify && obj.ready {
		g.publish(topicFor(n.kind), EventRemoved, Change{Entity: ent})
		if n.kind == KindView {
			g.viewChanged(obj, nil, false)
		}
	}
}

// paramChanged runs every side effect of an accepted parameter change.
func (g *Graph) paramChanged(obj *Object, p *Param, local bool) {
	obj.snapshot = nil

	if p.typ == ParamVarname {
		if c, ok := g.Container(obj.parentID); ok {
			name, _ := p.Text()
			c.reindex(obj.id, name)
		}
	}

	for _, d := range obj.decorators {
		if co, ok := d.(ChangeObserver); ok {
			co.ParamChanged(obj, p)
		}
	}

	wasReady := obj.ready
	if obj.checkReady() {
		g.announce(obj)
	}
	if wasReady {
		ent := g.entities[obj.id]
		g.publish(topicFor(obj.kind), EventChanged, Change{Entity: ent, Param: p, Local: local})
		if obj.kind == KindView {
			g.viewChanged(obj, p, local)
		}
	}

	if local && g.writer != nil && p.writeSeq > 0 {
		g.writer.WriteParam(p)
	}
}

// announce fires the one-shot ready notification and the deferred added one.
func (g *Graph) announce(obj *Object) {
	ent := g.entities[obj.id]
	topic := topicFor(obj.kind)
	g.publish(topic, EventReady, Change{Entity: ent})
	g.publish(topic, EventAdded, Change{Entity: ent})
	if obj.kind == KindView {
		g.viewChanged(obj, nil, false)
	}
}

// viewChanged tells container listeners that the display mode or lock state
// may have moved. It fires when a view becomes ready, changes or goes away.
func (g *Graph) viewChanged(view *Object, p *Param, local bool) {
	if c, ok := g.Container(view.parentID); ok {
		c.snapshot = nil
		g.publish(TopicContainer, EventChanged, Change{Entity: c, Param: p, Local: local})
	}
}

func (g *Graph) publish(topic, eventType string, change Change) {
	if err := g.bus.PublishToTopic(topic, bus.NewEvent(eventType, "graph", change)); err != nil {
		g.logger.Warn("Event handler failed",
			log.String("topic", topic),
			log.String("event", eventType),
			log.Error(err))
	}
}

func (g *Graph) park(add parkedAdd) {
	g.logger.Debug("Parent unknown, add parked",
		log.Int64("id", int64(add.id)),
		log.Int64("parent", int64(add.parentID)))
	g.parked[add.parentID] = append(g.parked[add.parentID], add)
}

func (g *Graph) adopt(parentID ID) {
	pending, ok := g.parked[parentID]
	if !ok {
		return
	}
	delete(g.parked, parentID)
	for _, add := range pending {
		if add.param {
			g.AddParameter(add.parentID, add.id, add.typ, add.seq)
		} else {
			g.AddEntity(add.id, add.typ, add.seq, add.parentID)
		}
	}
}

func (g *Graph) isParked(id ID) bool {
	for _, adds := range g.parked {
		for _, a := range adds {
			if a.id == id {
				return true
			}
		}
	}
	return false
}

func (g *Graph) unpark(id ID) {
	delete(g.parked, id)
	delete(g.pending, id)
	for parent, pending := range g.parked {
		pending = slices.DeleteFunc(pending, func(a parkedAdd) bool { return a.id == id })
		if len(pending) == 0 {
			delete(g.parked, parent)
		} else {
			g.parked[parent] = pending
		}
	}
}

// insertOrdered inserts id keeping ids sorted by creation sequence.
func (g *Graph) insertOrdered(ids []ID, id ID) []ID {
	seq := g.seqOf(id)
	i, _ := slices.BinarySearchFunc(ids, seq, func(x ID, s int64) int {
		xs := g.seqOf(x)
		switch {
		case xs < s:
			return -1
		case xs > s:
			return 1
		default:
			return 0
		}
	})
	return slices.Insert(ids, i, id)
}

func (g *Graph) seqOf(id ID) int64 {
	if e, ok := g.entities[id]; ok {
		return e.CreationSequence()
	}
	return 0
}
