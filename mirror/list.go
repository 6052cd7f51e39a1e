package mirror

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"

	"github.com/itiky/collaborate-mirror/model"
	"github.com/itiky/collaborate-mirror/remote"
)

type (
	// List is an ordered mirror: a local sequence kept in the remote sibling order of a query's children.
	// Not safe for concurrent use: events and calls must come from the same run loop.
	List struct {
		query    remote.Query
		listener *Listener
		arena    *arena
		// order holds every child key the query reported (the list marker included)
		order model.KeyList
		// keys and sequence are parallel: keys[i] is the remote key of sequence[i]
		keys      model.KeyList
		sequence  []interface{}
		observers observers[ListObserver]
	}

	// ListObserver is notified after count items at index were removed (removed) or inserted (!removed).
	ListObserver func(index, count int, removed bool)
)

var _ Mirror = (*List)(nil)

// ChildAdded implements ChangeHandler interface.
// An unknown prevKey places the item first, an already mirrored key is moved.
func (l *List) ChildAdded(snapshot remote.Snapshot, prevKey string) {
	key := snapshot.Key()
	if !l.applyOrder(model.ChildEvent{Type: model.ChildAddedEvent, Key: key, PrevKey: prevKey}) || key == ListMarkerKey {
		return
	}

	l.place(key, l.arena.coerce(snapshot))
}

// ChildChanged implements ChangeHandler interface.
// The item follows prevKey when its position changed as well. Unknown keys are skipped.
func (l *List) ChildChanged(snapshot remote.Snapshot, prevKey string) {
	key := snapshot.Key()
	if !l.applyOrder(model.ChildEvent{Type: model.ChildChangedEvent, Key: key, PrevKey: prevKey}) || key == ListMarkerKey {
		return
	}

	l.place(key, l.arena.coerce(snapshot))
}

// ChildRemoved implements ChangeHandler interface. Removing an unknown key is a no-op.
func (l *List) ChildRemoved(snapshot remote.Snapshot) {
	key := snapshot.Key()
	l.applyOrder(model.ChildEvent{Type: model.ChildRemovedEvent, Key: key})

	idx := l.keys.IndexOf(key)
	if idx < 0 {
		return
	}

	l.keys = slices.Delete(l.keys, idx, idx+1)
	l.sequence = slices.Delete(l.sequence, idx, idx+1)
	l.arena.release(snapshot.Ref())

	l.notify(idx, 1, true)
}

// ChildMoved implements ChangeHandler interface.
// The item keeps its value, only its position changes. Moving an unknown key adds it.
func (l *List) ChildMoved(snapshot remote.Snapshot, prevKey string) {
	key := snapshot.Key()
	if !l.applyOrder(model.ChildEvent{Type: model.ChildMovedEvent, Key: key, PrevKey: prevKey}) || key == ListMarkerKey {
		return
	}

	var value interface{}
	if idx := l.keys.IndexOf(key); idx >= 0 {
		value = l.sequence[idx]
	} else {
		value = l.arena.coerce(snapshot)
	}

	l.place(key, value)
}

// ValueChanged implements ChangeHandler interface.
func (l *List) ValueChanged(remote.Snapshot) {}

// Len returns the number of items.
func (l *List) Len() int {
	return len(l.sequence)
}

// At returns the item at idx (nil if out of range). Subtrees are returned as mirrors.
func (l *List) At(idx int) interface{} {
	if idx < 0 || idx >= len(l.sequence) {
		return nil
	}

	return l.arena.resolve(l.sequence[idx])
}

// KeyAt returns the remote key of the item at idx ("" if out of range).
func (l *List) KeyAt(idx int) string {
	if idx < 0 || idx >= len(l.keys) {
		return ""
	}

	return l.keys[idx]
}

// First returns the first item (nil if empty).
func (l *List) First() interface{} {
	return l.At(0)
}

// Last returns the last item (nil if empty).
func (l *List) Last() interface{} {
	return l.At(len(l.sequence) - 1)
}

// IndexOf returns the index of the item with the remote key or -1.
func (l *List) IndexOf(key string) int {
	return l.keys.IndexOf(key)
}

// Contains checks if an item equals value in plain form.
func (l *List) Contains(value interface{}) bool {
	plain := CoerceToRemote(value)
	for _, item := range l.sequence {
		if model.Equal(CoerceToRemote(l.arena.resolve(item)), plain) {
			return true
		}
	}

	return false
}

// Keys returns a copy of the remote keys in order.
func (l *List) Keys() []string {
	keys := make([]string, len(l.keys))
	copy(keys, l.keys)

	return keys
}

// Values returns a copy of the items in order.
func (l *List) Values() []interface{} {
	values := make([]interface{}, 0, len(l.sequence))
	for _, item := range l.sequence {
		values = append(values, l.arena.resolve(item))
	}

	return values
}

// BaseRef returns the writable location of the mirrored query (nil if unset).
func (l *List) BaseRef() remote.Location {
	if l.query == nil {
		return nil
	}

	return l.query.Ref()
}

// ChildRef returns the location of an item by its remote key (nil if the query is unset).
func (l *List) ChildRef(key string) remote.Location {
	ref := l.BaseRef()
	if ref == nil {
		return nil
	}

	return ref.Child(key)
}

// Push appends value remotely under a new time ordered key.
func (l *List) Push(value interface{}) (*Completion, error) {
	return PushValue(l.BaseRef(), value)
}

// PushWithPriority pushes value with a priority: its position follows the priority instead of the push order.
func (l *List) PushWithPriority(value interface{}, priority model.Priority) (*Completion, error) {
	return PushValueWithPriority(l.BaseRef(), value, priority)
}

// InsertAt adds value remotely. The position is validated only: the item lands where its key and priority order it.
func (l *List) InsertAt(idx int, value interface{}) (*Completion, error) {
	return l.Replace(idx, 0, value)
}

// RemoveAt removes the item at idx remotely.
func (l *List) RemoveAt(idx int) (*Completion, error) {
	return l.Replace(idx, 1)
}

// Clear removes every item remotely.
func (l *List) Clear() (*Completion, error) {
	return l.Replace(0, len(l.keys))
}

// AddObject pushes value unless the List already contains an equal item.
func (l *List) AddObject(value interface{}) (*Completion, error) {
	ref := l.BaseRef()
	if ref == nil {
		return nil, ErrNoLocation
	}

	if l.Contains(value) {
		c := newCompletion(ref)
		c.resolve(nil, nil)
		return c, nil
	}

	return PushValue(ref, value)
}

// Replace removes count items starting at start and pushes values remotely.
// The local sequence changes only when the resulting remote events arrive.
// Pushed values are ordered by their new keys, so they land at the end rather than at start.
func (l *List) Replace(start, count int, values ...interface{}) (*Completion, error) {
	ref := l.BaseRef()
	if ref == nil {
		return nil, ErrNoLocation
	}
	if start < 0 || count < 0 || start+count > len(l.keys) {
		return nil, fmt.Errorf("%w: [%d:%d] of %d", ErrIndexOutOfRange, start, start+count, len(l.keys))
	}

	// events of a synchronous store mutate keys during the loop
	removedKeys := slices.Clone([]string(l.keys[start : start+count]))

	completions := make([]*Completion, 0, len(removedKeys)+len(values))
	for _, key := range removedKeys {
		c, err := RemoveValue(ref.Child(key))
		if err != nil {
			return nil, err
		}
		completions = append(completions, c)
	}
	for _, value := range values {
		c, err := PushValue(ref, value)
		if err != nil {
			return nil, err
		}
		completions = append(completions, c)
	}

	return Join(completions...), nil
}

// ToPlain implements Plainer interface: the items keyed by remote keys plus the list marker.
func (l *List) ToPlain() interface{} {
	plain := make(map[string]interface{}, len(l.sequence)+1)
	for i, item := range l.sequence {
		plain[l.keys[i]] = CoerceToRemote(item)
	}
	plain[ListMarkerKey] = true

	return plain
}

// ToHash returns an unordered mirror of the same query.
func (l *List) ToHash() *Hash {
	return NewHash(l.query)
}

// Observe registers fn to be called after every sequence change.
func (l *List) Observe(fn ListObserver) (cancel func()) {
	return l.observers.add(fn)
}

// Query implements Mirror interface.
func (l *List) Query() remote.Query {
	return l.query
}

// SetQuery implements Mirror interface.
func (l *List) SetQuery(q remote.Query) {
	if l.query != nil && q != nil && l.query.String() == q.String() {
		return
	}

	l.listener.Detach()
	l.reset()
	l.query = q
	l.listener.Attach(q)
}

// Destroy implements Mirror interface.
func (l *List) Destroy() {
	l.listener.Detach()
	l.reset()
	l.query = nil
}

// String implements the stringer interface.
func (l *List) String() string {
	return fmt.Sprintf("<mirror.List:%s>", queryString(l.query))
}

// applyOrder replays the event on the full child order.
func (l *List) applyOrder(e model.ChildEvent) bool {
	order, err := model.ApplyChildEvents(l.order, e)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"mirror": l.String(),
			"event":  e.String(),
		}).Warnf("mirror: event skipped: %v", err)
		return false
	}
	l.order = order

	return true
}

// place removes the key slot (if any) and inserts value at the key position in order.
func (l *List) place(key string, value interface{}) {
	if oldIdx := l.keys.IndexOf(key); oldIdx >= 0 {
		l.keys = slices.Delete(l.keys, oldIdx, oldIdx+1)
		l.sequence = slices.Delete(l.sequence, oldIdx, oldIdx+1)
		l.notify(oldIdx, 1, true)
	}

	idx := l.visibleIndex(key)
	l.keys = slices.Insert(l.keys, idx, key)
	l.sequence = slices.Insert(l.sequence, idx, value)
	l.notify(idx, 1, false)
}

// visibleIndex returns the sequence index of a key known to order (the list marker is not mirrored).
func (l *List) visibleIndex(key string) int {
	idx := l.order.IndexOf(key)
	if markerIdx := l.order.IndexOf(ListMarkerKey); markerIdx >= 0 && markerIdx < idx {
		idx--
	}

	return idx
}

func (l *List) reset() {
	count := len(l.sequence)

	l.arena.releaseAll()
	l.order, l.keys, l.sequence = nil, nil, nil

	if count > 0 {
		l.notify(0, count, true)
	}
}

func (l *List) notify(idx, count int, removed bool) {
	l.observers.each(func(fn ListObserver) {
		fn(idx, count, removed)
	})
}

// NewList creates a new List object mirroring q (nil for an empty List without a location).
func NewList(q remote.Query) *List {
	l := &List{
		arena: newArena(),
	}
	l.listener = NewListener(l, false)
	l.SetQuery(q)

	return l
}

func queryString(q remote.Query) string {
	if q == nil {
		return "none"
	}

	return q.String()
}
