package storage

import (
	"github.com/itiky/collaborate-mirror/model"
	"github.com/itiky/collaborate-mirror/remote"
)

// Snapshot implements remote.Snapshot over an immutable node.
type Snapshot struct {
	ref  *Ref
	node *node
}

var _ remote.Snapshot = Snapshot{}

// Key implements remote.Snapshot interface.
func (s Snapshot) Key() string {
	return s.ref.Key()
}

// Value implements remote.Snapshot interface.
func (s Snapshot) Value() interface{} {
	return s.node.export()
}

// Priority implements remote.Snapshot interface.
func (s Snapshot) Priority() model.Priority {
	return s.node.getPriority()
}

// HasChildren implements remote.Snapshot interface.
func (s Snapshot) HasChildren() bool {
	return !s.node.isLeaf()
}

// HasChild implements remote.Snapshot interface.
func (s Snapshot) HasChild(key string) bool {
	return s.node.child(key) != nil
}

// Child implements remote.Snapshot interface.
func (s Snapshot) Child(key string) remote.Snapshot {
	childRef := s.ref.childRef(key)
	keys, err := model.SplitPath(key)
	if err != nil {
		return Snapshot{ref: childRef}
	}

	return Snapshot{ref: childRef, node: s.node.at(keys)}
}

// ForEach implements remote.Snapshot interface.
func (s Snapshot) ForEach(fn func(child remote.Snapshot) bool) bool {
	if s.node.isLeaf() {
		return false
	}

	for _, key := range s.node.keys {
		if fn(Snapshot{ref: s.ref.childRef(key), node: s.node.children[key]}) {
			return true
		}
	}

	return false
}

// Ref implements remote.Snapshot interface.
func (s Snapshot) Ref() remote.Location {
	return s.ref
}

// Exists returns true if the snapshot holds a value.
func (s Snapshot) Exists() bool {
	return s.node != nil
}
