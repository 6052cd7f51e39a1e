package storage

import (
	"fmt"
	"strings"

	"github.com/itiky/collaborate-mirror/model"
	"github.com/itiky/collaborate-mirror/remote"
)

type (
	// Query implements remote.Query: a filtered read view of a Ref.
	Query struct {
		ref   *Ref
		limit int
		start *bound
		end   *bound
	}

	// bound is a (priority, key) ordering position; an empty key compares by priority only.
	bound struct {
		priority model.Priority
		key      string
	}
)

var _ remote.Query = Query{}

// On implements remote.Query interface.
func (q Query) On(event model.EventType, cb remote.Callback) remote.Handle {
	if !event.IsValid() || cb == nil || q.ref.err != nil {
		return remote.Handle{}
	}

	return q.ref.store.register(q, event, cb)
}

// Off implements remote.Query interface.
func (q Query) Off(event model.EventType, h remote.Handle) {
	q.ref.store.unregister(event, h)
}

// Once implements remote.Query interface.
func (q Query) Once(onSuccess func(remote.Snapshot), onError func(error)) {
	s := q.ref.store
	if q.ref.err != nil {
		if onError != nil {
			err := q.ref.err
			s.dispatch(func() { onError(err) })
		}
		return
	}

	s.Lock()
	viewNode, _ := q.view(s.root)
	s.Unlock()

	if onSuccess != nil {
		snapshot := Snapshot{ref: q.ref, node: viewNode}
		s.dispatch(func() { onSuccess(snapshot) })
	}
}

// Limit implements remote.Query interface.
func (q Query) Limit(n int) remote.Query {
	q.limit = n
	return q
}

// StartAt implements remote.Query interface.
func (q Query) StartAt(priority model.Priority, key string) remote.Query {
	q.start = &bound{priority: priority, key: key}
	return q
}

// EndAt implements remote.Query interface.
func (q Query) EndAt(priority model.Priority, key string) remote.Query {
	q.end = &bound{priority: priority, key: key}
	return q
}

// Ref implements remote.Query interface.
func (q Query) Ref() remote.Location {
	return q.ref
}

// String implements remote.Query interface.
func (q Query) String() string {
	params := q.params()
	if params == "" {
		return q.ref.String()
	}

	return q.ref.String() + "?" + params
}

// id identifies the query within the store (path and filters).
func (q Query) id() string {
	return q.ref.Path() + "?" + q.params()
}

func (q Query) params() string {
	params := make([]string, 0, 3)
	if q.start != nil {
		params = append(params, fmt.Sprintf("startAt=%s,%s", q.start.priority, q.start.key))
	}
	if q.end != nil {
		params = append(params, fmt.Sprintf("endAt=%s,%s", q.end.priority, q.end.key))
	}
	if q.limit > 0 {
		params = append(params, fmt.Sprintf("limit=%d", q.limit))
	}

	return strings.Join(params, "&")
}

func (q Query) isFiltered() bool {
	return q.limit > 0 || q.start != nil || q.end != nil
}

// view returns the node visible through the query and its visible children keys in order.
func (q Query) view(root *node) (*node, []string) {
	n := root.at(q.ref.keys)
	if n.isLeaf() {
		return n, nil
	}
	if !q.isFiltered() {
		return n, n.keys
	}

	keys := make([]string, 0, len(n.keys))
	for _, key := range n.keys {
		p := n.children[key].priority
		if q.start != nil && q.start.compare(p, key) > 0 {
			continue
		}
		if q.end != nil && q.end.compare(p, key) < 0 {
			continue
		}
		keys = append(keys, key)
	}
	if q.limit > 0 && len(keys) > q.limit {
		keys = keys[len(keys)-q.limit:]
	}
	if len(keys) == 0 {
		return nil, nil
	}

	viewNode := &node{
		priority: n.priority,
		children: make(map[string]*node, len(keys)),
		keys:     keys,
	}
	for _, key := range keys {
		viewNode.children[key] = n.children[key]
	}

	return viewNode, keys
}

// compare returns the bound position relative to a child: -1 if the bound is before it.
func (b *bound) compare(priority model.Priority, key string) int {
	if b.key == "" {
		return b.priority.Compare(priority)
	}

	return model.CompareChildren(b.priority, b.key, priority, key)
}
