package storage

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/itiky/collaborate-mirror/model"
	"github.com/itiky/collaborate-mirror/remote"
)

var (
	ErrInvalidPath  = errors.New("invalid path")
	ErrInvalidValue = errors.New("invalid value")
	ErrInvalidKey   = errors.New("invalid key")
)

type (
	// Dispatcher delivers listener callbacks (synchronously by default).
	Dispatcher func(fn func())

	// Writer accepts write requests for a Store's locations.
	// The Store is its own Writer; a network client replaces it with a forwarder.
	Writer interface {
		Write(req model.OperationRequest, onComplete remote.CompletionFunc)
	}

	// Store is an in-memory hierarchical key-value store emitting sibling-relative change events.
	// Each write replaces the root with a copy-on-write tree, so snapshots are never mutated.
	Store struct {
		sync.Mutex
		url      string
		root     *node
		version  int
		regs     []*registration
		dispatch Dispatcher
		writer   Writer
	}

	registration struct {
		handle remote.Handle
		event  model.EventType
		query  Query
		cb     remote.Callback
		// set once the registration is removed, queued events become no-ops
		canceled atomic.Bool
	}

	StoreOption func(s *Store)
)

// WithDispatcher sets the listener callbacks dispatcher.
func WithDispatcher(d Dispatcher) StoreOption {
	return func(s *Store) {
		s.dispatch = d
	}
}

// WithWriter sets the Writer used by Store locations.
func WithWriter(w Writer) StoreOption {
	return func(s *Store) {
		s.writer = w
	}
}

// WithRoot sets the initial store data.
func WithRoot(tree *model.TreeNode) StoreOption {
	return func(s *Store) {
		s.root = nodeFromTree(tree)
	}
}

// String implements stringer interface.
func (s *Store) String() string {
	s.Lock()
	defer s.Unlock()

	return fmt.Sprintf("%s (v%d):\n%s", s.url, s.version, s.root)
}

// Root returns the root location.
func (s *Store) Root() *Ref {
	return &Ref{store: s}
}

// Ref returns a location by path.
func (s *Store) Ref(path string) (*Ref, error) {
	keys, err := model.SplitPath(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}

	return &Ref{store: s, keys: keys}, nil
}

// Version returns the number of write batches applied.
func (s *Store) Version() int {
	s.Lock()
	defer s.Unlock()

	return s.version
}

// Export builds a model.TreeNode (snapshot).
func (s *Store) Export() *model.TreeNode {
	s.Lock()
	defer s.Unlock()

	return s.root.toTree()
}

// Reset replaces the whole store data notifying listeners.
func (s *Store) Reset(tree *model.TreeNode) {
	s.Lock()
	old := s.root
	s.root = nodeFromTree(tree)
	s.version++
	events := s.collectEvents(old, s.root)
	s.Unlock()

	s.deliver(events)
}

// Write implements Writer interface: applies a single request.
func (s *Store) Write(req model.OperationRequest, onComplete remote.CompletionFunc) {
	op, err := NewOperation(req, 0, time.Now().UTC())
	if err == nil {
		s.ApplyOperations(op)
	}

	if onComplete != nil {
		s.dispatch(func() { onComplete(err) })
	}
}

// ApplyOperations updates the store state with StorageOperation list as a single batch
// and notifies listeners about the changes.
func (s *Store) ApplyOperations(ops ...StorageOperation) {
	s.Lock()
	old := s.root
	for _, op := range ops {
		if op == nil {
			continue
		}
		s.root = op.Apply(s.root)
	}
	s.version++
	events := s.collectEvents(old, s.root)
	s.Unlock()

	logrus.WithFields(logrus.Fields{
		"store":  s.url,
		"ops":    len(ops),
		"events": len(events),
	}).Debug("storage: operations applied")

	s.deliver(events)
}

// transaction runs a read-modify-write on the current value.
func (s *Store) transaction(keys []string, fn remote.TransactionFunc) (model.OperationRequest, bool, error) {
	s.Lock()
	current := s.root.at(keys).export()
	s.Unlock()

	newValue, abort := fn(current)
	if abort {
		return model.OperationRequest{}, false, nil
	}

	value, err := model.Normalize(newValue)
	if err != nil {
		return model.OperationRequest{}, false, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}

	return model.OperationRequest{
		Type:  model.SetOperationType,
		Path:  model.JoinPath(keys...),
		Value: value,
	}, true, nil
}

// register adds a listener and returns the initial events for it.
func (s *Store) register(q Query, event model.EventType, cb remote.Callback) remote.Handle {
	reg := &registration{
		handle: remote.NewHandle(),
		event:  event,
		query:  q,
		cb:     cb,
	}

	s.Lock()
	s.regs = append(s.regs, reg)
	viewNode, keys := q.view(s.root)
	events := make([]func(), 0)
	switch event {
	case model.ChildAddedEvent:
		prevKey := ""
		for _, key := range keys {
			snapshot, prev := Snapshot{ref: q.ref.childRef(key), node: viewNode.child(key)}, prevKey
			events = append(events, func() { reg.fire(snapshot, prev) })
			prevKey = key
		}
	case model.ValueEvent:
		snapshot := Snapshot{ref: q.ref, node: viewNode}
		events = append(events, func() { reg.fire(snapshot, "") })
	}
	s.Unlock()

	s.deliver(events)

	return reg.handle
}

// unregister removes a listener.
func (s *Store) unregister(event model.EventType, h remote.Handle) {
	s.Lock()
	defer s.Unlock()

	for i, reg := range s.regs {
		if reg.handle == h && reg.event == event {
			reg.cancel()
			s.regs = append(s.regs[:i], s.regs[i+1:]...)
			return
		}
	}
}

// collectEvents diffs every registered query between the old and the new root.
func (s *Store) collectEvents(oldRoot, newRoot *node) []func() {
	events := make([]func(), 0)

	// Group registrations by query keeping the registration order
	groups := make(map[string][]*registration)
	groupIds := make([]string, 0)
	for _, reg := range s.regs {
		id := reg.query.id()
		if _, found := groups[id]; !found {
			groupIds = append(groupIds, id)
		}
		groups[id] = append(groups[id], reg)
	}

	for _, id := range groupIds {
		regs := groups[id]
		q := regs[0].query

		if oldRoot.at(q.ref.keys) == newRoot.at(q.ref.keys) {
			continue
		}

		oldView, oldKeys := q.view(oldRoot)
		newView, newKeys := q.view(newRoot)
		if equalNodes(oldView, newView) {
			continue
		}

		for _, e := range diffChildren(oldView, oldKeys, newView, newKeys) {
			n := newView.child(e.Key)
			if e.Type == model.ChildRemovedEvent {
				n = oldView.child(e.Key)
			}
			snapshot, prevKey := Snapshot{ref: q.ref.childRef(e.Key), node: n}, e.PrevKey

			for _, reg := range regs {
				if reg.event != e.Type {
					continue
				}
				reg := reg
				events = append(events, func() { reg.fire(snapshot, prevKey) })
			}
		}

		snapshot := Snapshot{ref: q.ref, node: newView}
		for _, reg := range regs {
			if reg.event != model.ValueEvent {
				continue
			}
			reg := reg
			events = append(events, func() { reg.fire(snapshot, "") })
		}
	}

	return events
}

// deliver dispatches events outside the store lock.
func (s *Store) deliver(events []func()) {
	for _, e := range events {
		s.dispatch(e)
	}
}

// fire calls the callback unless the registration was removed meanwhile.
func (r *registration) fire(snapshot Snapshot, prevKey string) {
	if r.canceled.Load() {
		return
	}
	r.cb(snapshot, prevKey)
}

func (r *registration) cancel() {
	r.canceled.Store(true)
}

// NewStore creates a new Store object.
func NewStore(name string, opts ...StoreOption) *Store {
	s := &Store{
		url:      "mem://" + name,
		dispatch: func(fn func()) { fn() },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.writer == nil {
		s.writer = s
	}

	return s
}
