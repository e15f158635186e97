package graph

import (
	"slices"
)

// ID identifies an entity within one session. The root entity is RootID.
type ID int64

const RootID ID = 0

// Kind is the structural role of an entity.
type Kind uint8

const (
	KindObject Kind = iota
	KindContainer
	KindFrame
	KindView
	KindParam
	KindRoot
)

func (k Kind) String() string {
	switch k {
	case KindContainer:
		return "container"
	case KindFrame:
		return "frame"
	case KindView:
		return "view"
	case KindParam:
		return "param"
	case KindRoot:
		return "root"
	default:
		return "object"
	}
}

// Entity is any addressable item in the graph.
type Entity interface {
	ID() ID
	Type() string
	Kind() Kind
	CreationSequence() int64
	ParentID() ID
	ChildIDs() []ID

	node() *Node
}

// Node holds the state every entity shares. Relationships are ids resolved
// through the owning Graph, never direct pointers.
type Node struct {
	g           *Graph
	id          ID
	typ         string
	kind        Kind
	creationSeq int64
	parentID    ID

	children map[ID]struct{}
	paramIDs map[string]ID
}

func newNode(g *Graph, id ID, typ string, kind Kind, seq int64, parentID ID) Node {
	return Node{
		g:           g,
		id:          id,
		typ:         typ,
		kind:        kind,
		creationSeq: seq,
		parentID:    parentID,
		children:    make(map[ID]struct{}),
		paramIDs:    make(map[string]ID),
	}
}

func (n *Node) ID() ID                  { return n.id }
func (n *Node) Type() string            { return n.typ }
func (n *Node) Kind() Kind              { return n.kind }
func (n *Node) CreationSequence() int64 { return n.creationSeq }
func (n *Node) ParentID() ID            { return n.parentID }
func (n *Node) node() *Node             { return n }

// ChildIDs returns the ids of all direct children in ascending order.
func (n *Node) ChildIDs() []ID {
	ids := make([]ID, 0, len(n.children))
	for id := range n.children {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// ParamID resolves a parameter child by its name.
func (n *Node) ParamID(name string) (ID, bool) {
	id, ok := n.paramIDs[name]
	return id, ok
}

// ParamNames returns the names of all parameter children, sorted.
func (n *Node) ParamNames() []string {
	names := make([]string, 0, len(n.paramIDs))
	for name := range n.paramIDs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
