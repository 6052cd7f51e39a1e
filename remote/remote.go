// Package remote defines the contract of a hierarchical key-value store that emits ordered
// child-level change events. Mirrors, the write-through gateway and bindings only depend on it.
package remote

import (
	"github.com/google/uuid"

	"github.com/itiky/collaborate-mirror/model"
)

type (
	// Handle identifies a listener registration; Off with the same handle removes exactly that listener.
	Handle uuid.UUID

	// Callback receives an event snapshot and, for sibling-relative events, the preceding sibling key
	// ("" if the child is first or the event is not sibling-relative).
	Callback func(snapshot Snapshot, prevKey string)

	// CompletionFunc is called once a write is acknowledged (nil) or rejected.
	CompletionFunc func(err error)

	// TransactionFunc computes a new value from the current one; abort skips the write.
	TransactionFunc func(current interface{}) (newValue interface{}, abort bool)

	// Snapshot is an immutable read of a location.
	Snapshot interface {
		// Key returns the location key ("" for the root).
		Key() string
		// Value returns the plain value (nil if absent).
		Value() interface{}
		// Priority returns the location priority.
		Priority() model.Priority
		HasChildren() bool
		HasChild(key string) bool
		// Child returns a child snapshot (an empty snapshot if absent).
		Child(key string) Snapshot
		// ForEach iterates children in sibling order until fn returns true.
		ForEach(fn func(child Snapshot) bool) bool
		// Ref returns the snapshot location.
		Ref() Location
	}

	// Query is a (possibly filtered) read view of a location.
	Query interface {
		// On registers a callback for the event type.
		On(event model.EventType, cb Callback) Handle
		// Off removes the registration.
		Off(event model.EventType, h Handle)
		// Once reads the current value.
		Once(onSuccess func(Snapshot), onError func(error))
		// Limit keeps only the last n children.
		Limit(n int) Query
		// StartAt keeps children ordered at or after (priority, key).
		StartAt(priority model.Priority, key string) Query
		// EndAt keeps children ordered at or before (priority, key).
		EndAt(priority model.Priority, key string) Query
		// Ref returns the underlying location.
		Ref() Location
		// String returns the query URL.
		String() string
	}

	// Location is a writable path in the store.
	Location interface {
		Query

		// Key returns the last path segment ("" for the root).
		Key() string
		// Path returns the canonical path.
		Path() string
		// Child derives a child location (path may be multi-segment).
		Child(path string) Location
		// Parent returns the parent location (nil for the root).
		Parent() Location
		// Push derives a child location with a new unique, time ordered key.
		Push() Location

		Set(value interface{}, onComplete CompletionFunc)
		SetWithPriority(value interface{}, priority model.Priority, onComplete CompletionFunc)
		Update(partial map[string]interface{}, onComplete CompletionFunc)
		Remove(onComplete CompletionFunc)
		Transaction(fn TransactionFunc, onComplete func(err error, committed bool, snapshot Snapshot))
	}
)

// NewHandle creates a unique registration handle.
func NewHandle() Handle {
	return Handle(uuid.New())
}

// String implements the stringer interface.
func (h Handle) String() string {
	return uuid.UUID(h).String()
}
