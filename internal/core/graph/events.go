package graph

// Bus topics. Every event published by the graph goes to exactly one topic.
const (
	TopicGraph     = "graph"
	TopicContainer = "container"
	TopicFrame     = "frame"
	TopicView      = "view"
	TopicObject    = "object"
)

// Event types.
const (
	EventAdded         = "added"
	EventReady         = "ready"
	EventChanged       = "changed"
	EventRemoved       = "removed"
	EventMemberAdded   = "member_added"
	EventMemberRemoved = "member_removed"
	EventReset         = "reset"
)

// Change is the data of every graph event.
type Change struct {
	Entity Entity
	// Param is set on changed events caused by a parameter write.
	Param *Param
	// Member is the object id on frame membership events.
	Member ID
	// Local marks changes made through this client's own write path.
	Local bool
}

func topicFor(k Kind) string {
	switch k {
	case KindContainer:
		return TopicContainer
	case KindFrame:
		return TopicFrame
	case KindView:
		return TopicView
	default:
		return TopicObject
	}
}
