package mirror

import (
	"github.com/sirupsen/logrus"

	"github.com/itiky/collaborate-mirror/model"
	"github.com/itiky/collaborate-mirror/remote"
)

type (
	// ChangeHandler receives the remote change events of a query.
	ChangeHandler interface {
		ChildAdded(snapshot remote.Snapshot, prevKey string)
		ChildChanged(snapshot remote.Snapshot, prevKey string)
		ChildRemoved(snapshot remote.Snapshot)
		ChildMoved(snapshot remote.Snapshot, prevKey string)
		ValueChanged(snapshot remote.Snapshot)
	}

	// Listener keeps a ChangeHandler registered on at most one query at a time.
	Listener struct {
		handler   ChangeHandler
		withValue bool
		query     remote.Query
		handles   []listenerHandle
	}

	listenerHandle struct {
		event  model.EventType
		handle remote.Handle
	}
)

// Attach registers the handler on the query.
// Attaching the same query again is a no-op, attaching another one detaches the previous first.
func (l *Listener) Attach(q remote.Query) {
	if q == nil {
		l.Detach()
		return
	}
	if l.query != nil {
		if l.query.String() == q.String() {
			return
		}
		l.Detach()
	}
	l.query = q

	// value goes last: its initial event marks the end of the initial child events
	events := append([]model.EventType(nil), model.ChildEventTypes...)
	if l.withValue {
		events = append(events, model.ValueEvent)
	}

	for _, event := range events {
		var cb remote.Callback
		switch event {
		case model.ChildAddedEvent:
			cb = l.handler.ChildAdded
		case model.ChildChangedEvent:
			cb = l.handler.ChildChanged
		case model.ChildRemovedEvent:
			cb = func(snapshot remote.Snapshot, _ string) { l.handler.ChildRemoved(snapshot) }
		case model.ChildMovedEvent:
			cb = l.handler.ChildMoved
		case model.ValueEvent:
			cb = func(snapshot remote.Snapshot, _ string) { l.handler.ValueChanged(snapshot) }
		}
		l.handles = append(l.handles, listenerHandle{event: event, handle: q.On(event, cb)})
	}

	logrus.WithField("query", q.String()).Debug("mirror: listener attached")
}

// Detach removes every registration made by Attach.
func (l *Listener) Detach() {
	if l.query == nil {
		return
	}

	for _, h := range l.handles {
		l.query.Off(h.event, h.handle)
	}
	logrus.WithField("query", l.query.String()).Debug("mirror: listener detached")

	l.handles = nil
	l.query = nil
}

// IsAttached checks if the handler is registered.
func (l *Listener) IsAttached() bool {
	return l.query != nil
}

// NewListener creates a new Listener object.
func NewListener(handler ChangeHandler, withValue bool) *Listener {
	return &Listener{
		handler:   handler,
		withValue: withValue,
	}
}
