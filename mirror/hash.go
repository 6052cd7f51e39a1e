package mirror

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/itiky/collaborate-mirror/model"
	"github.com/itiky/collaborate-mirror/remote"
)

type (
	// Hash is an unordered mirror: a map of a query's children.
	// Local properties shadow remote children with the same key: those are neither mirrored nor written.
	// Not safe for concurrent use: events and calls must come from the same run loop.
	Hash struct {
		query    remote.Query
		listener *Listener
		arena    *arena
		// a nil entry is a removed child
		entries   map[string]interface{}
		locals    map[string]interface{}
		loaded    bool
		observers observers[HashObserver]
	}

	// HashObserver is notified after the key changed (set, replaced or removed).
	HashObserver func(key string)
)

var _ Mirror = (*Hash)(nil)

// ChildAdded implements ChangeHandler interface.
func (h *Hash) ChildAdded(snapshot remote.Snapshot, _ string) {
	h.setEntry(snapshot)
}

// ChildChanged implements ChangeHandler interface.
func (h *Hash) ChildChanged(snapshot remote.Snapshot, _ string) {
	h.setEntry(snapshot)
}

// ChildRemoved implements ChangeHandler interface.
func (h *Hash) ChildRemoved(snapshot remote.Snapshot) {
	key := snapshot.Key()
	if h.isShadowed(key) {
		return
	}

	if _, found := h.entries[key]; !found {
		return
	}
	h.entries[key] = nil
	h.arena.release(snapshot.Ref())

	h.notify(key)
}

// ChildMoved implements ChangeHandler interface: the order is not mirrored.
func (h *Hash) ChildMoved(remote.Snapshot, string) {}

// ValueChanged implements ChangeHandler interface: the first value event marks the Hash loaded.
func (h *Hash) ValueChanged(remote.Snapshot) {
	h.loaded = true
}

// Loaded checks if the initial remote content was received.
func (h *Hash) Loaded() bool {
	return h.loaded
}

// DefineLocal defines a local property shadowing the remote child with the same key.
func (h *Hash) DefineLocal(key string, value interface{}) {
	h.locals[key] = value
	if entry, found := h.entries[key]; found {
		delete(h.entries, key)
		if entry != nil {
			h.arena.release(h.ChildRef(key))
		}
	}

	h.notify(key)
}

// Get returns a local property or a mirrored child (nil if absent). Subtrees are returned as mirrors.
func (h *Hash) Get(key string) interface{} {
	if value, found := h.locals[key]; found {
		return value
	}

	return h.arena.resolve(h.entries[key])
}

// Has checks if a mirrored child exists.
func (h *Hash) Has(key string) bool {
	return h.entries[key] != nil
}

// Keys returns the mirrored child keys sorted.
func (h *Hash) Keys() []string {
	keys := maps.Keys(h.entries)
	keys = slices.DeleteFunc(keys, func(key string) bool {
		return h.entries[key] == nil
	})
	slices.Sort(keys)

	return keys
}

// Len returns the number of mirrored children.
func (h *Hash) Len() int {
	n := 0
	for _, entry := range h.entries {
		if entry != nil {
			n++
		}
	}

	return n
}

// Set writes value remotely as the key child; a local property is set locally instead.
func (h *Hash) Set(key string, value interface{}) (*Completion, error) {
	if h.setLocal(key, value) {
		c := newCompletion(nil)
		c.resolve(nil, nil)
		return c, nil
	}

	return SetValue(h.ChildRef(key), value)
}

// SetWithPriority writes value remotely as the key child with a priority.
func (h *Hash) SetWithPriority(key string, value interface{}, priority model.Priority) (*Completion, error) {
	return SetValueWithPriority(h.ChildRef(key), value, priority)
}

// Remove removes the key child remotely.
func (h *Hash) Remove(key string) (*Completion, error) {
	return RemoveValue(h.ChildRef(key))
}

// Update merges partial remotely: listed children are replaced, the others are kept.
func (h *Hash) Update(partial map[string]interface{}) (*Completion, error) {
	return UpdateValue(h.BaseRef(), partial)
}

// BaseRef returns the writable location of the mirrored query (nil if unset).
func (h *Hash) BaseRef() remote.Location {
	if h.query == nil {
		return nil
	}

	return h.query.Ref()
}

// ChildRef returns the location of a child (nil if the query is unset).
func (h *Hash) ChildRef(key string) remote.Location {
	ref := h.BaseRef()
	if ref == nil {
		return nil
	}

	return ref.Child(key)
}

// ToPlain implements Plainer interface: mirrored children only, local properties are not included.
func (h *Hash) ToPlain() interface{} {
	plain := make(map[string]interface{}, len(h.entries))
	for key, entry := range h.entries {
		if entry == nil {
			continue
		}
		plain[key] = CoerceToRemote(entry)
	}

	return plain
}

// ToList returns an ordered mirror of the same query.
func (h *Hash) ToList() *List {
	return NewList(h.query)
}

// Observe registers fn to be called after every key change.
func (h *Hash) Observe(fn HashObserver) (cancel func()) {
	return h.observers.add(fn)
}

// Query implements Mirror interface.
func (h *Hash) Query() remote.Query {
	return h.query
}

// SetQuery implements Mirror interface.
func (h *Hash) SetQuery(q remote.Query) {
	if h.query != nil && q != nil && h.query.String() == q.String() {
		return
	}

	h.listener.Detach()
	h.reset()
	h.query = q
	h.listener.Attach(q)
}

// Destroy implements Mirror interface.
func (h *Hash) Destroy() {
	h.listener.Detach()
	h.reset()
	h.query = nil
}

// String implements the stringer interface.
func (h *Hash) String() string {
	return fmt.Sprintf("<mirror.Hash:%s>", queryString(h.query))
}

func (h *Hash) setEntry(snapshot remote.Snapshot) {
	key := snapshot.Key()
	if h.isShadowed(key) {
		logrus.WithFields(logrus.Fields{
			"mirror": h.String(),
			"key":    key,
		}).Debug("mirror: remote child shadowed by a local property")
		return
	}

	h.entries[key] = h.arena.coerce(snapshot)
	h.notify(key)
}

func (h *Hash) setLocal(key string, value interface{}) bool {
	if !h.isShadowed(key) {
		return false
	}
	h.locals[key] = value
	h.notify(key)

	return true
}

func (h *Hash) isShadowed(key string) bool {
	_, found := h.locals[key]
	return found
}

func (h *Hash) reset() {
	keys := h.Keys()

	h.arena.releaseAll()
	h.entries = make(map[string]interface{})
	h.loaded = false

	for _, key := range keys {
		h.notify(key)
	}
}

func (h *Hash) notify(key string) {
	h.observers.each(func(fn HashObserver) {
		fn(key)
	})
}

// NewHash creates a new Hash object mirroring q (nil for an empty Hash without a location).
func NewHash(q remote.Query) *Hash {
	h := &Hash{
		arena:   newArena(),
		entries: make(map[string]interface{}),
		locals:  make(map[string]interface{}),
	}
	h.listener = NewListener(h, true)
	h.SetQuery(q)

	return h
}
