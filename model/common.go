package model

type (
	ClientId uint32
)

// EventType is a remote location change notification kind.
type EventType string

const (
	ChildAddedEvent   EventType = "child_added"
	ChildChangedEvent EventType = "child_changed"
	ChildRemovedEvent EventType = "child_removed"
	ChildMovedEvent   EventType = "child_moved"
	ValueEvent        EventType = "value"
)

// ChildEventTypes lists the sibling-relative event kinds in registration order.
var ChildEventTypes = []EventType{
	ChildAddedEvent,
	ChildChangedEvent,
	ChildRemovedEvent,
	ChildMovedEvent,
}

// IsValid checks the event type is known.
func (t EventType) IsValid() bool {
	switch t {
	case ChildAddedEvent, ChildChangedEvent, ChildRemovedEvent, ChildMovedEvent, ValueEvent:
		return true
	}

	return false
}

// OperationType is a write operation kind sent to the store.
type OperationType string

const (
	SetOperationType    OperationType = "set"
	UpdateOperationType OperationType = "update"
	DeleteOperationType OperationType = "delete"
)
