package graph

import (
	"maps"
	"slices"
)

// Frame is a visual sub-region of a container. Its members are the objects
// that currently overlap it in its effective view mode.
type Frame struct {
	Object

	members map[ID]struct{}
	mode    ViewMode
}

func newFrame(g *Graph, id ID, typ string, seq int64, parentID ID, spec TypeSpec) *Frame {
	return &Frame{
		Object:  newObject(g, id, typ, KindFrame, seq, parentID, spec),
		members: make(map[ID]struct{}),
	}
}

// LocalViewMode is the mode set on the frame itself.
func (f *Frame) LocalViewMode() ViewMode { return f.mode }

// ViewMode is the effective mode: the local one, or the container's when linked.
func (f *Frame) ViewMode() ViewMode {
	if f.mode != ViewModeLinked {
		return f.mode
	}
	if c, ok := f.g.Container(f.parentID); ok {
		return c.ViewMode()
	}
	return ViewModePatching
}

// SetViewMode changes the local mode and announces the change.
func (f *Frame) SetViewMode(mode ViewMode) {
	if f.mode == mode {
		return
	}
	f.mode = mode
	f.snapshot = nil
	f.g.publish(TopicFrame, EventChanged, Change{Entity: f, Local: true})
}

// Members returns the ids of contained objects in ascending order.
func (f *Frame) Members() []ID {
	return slices.Sorted(maps.Keys(f.members))
}

func (f *Frame) Contains(id ID) bool {
	_, ok := f.members[id]
	return ok
}

// SetMember records whether object id lies inside the frame. Events fire
// only when membership actually flips.
func (f *Frame) SetMember(id ID, inside bool) bool {
	_, was := f.members[id]
	if was == inside {
		return false
	}
	if inside {
		f.members[id] = struct{}{}
		f.g.publish(TopicFrame, EventMemberAdded, Change{Entity: f, Member: id})
	} else {
		delete(f.members, id)
		f.g.publish(TopicFrame, EventMemberRemoved, Change{Entity: f, Member: id})
	}
	return true
}
