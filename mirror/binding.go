package mirror

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/itiky/collaborate-mirror/model"
	"github.com/itiky/collaborate-mirror/remote"
)

type (
	// Target is a host object with observable properties addressed by dotted paths.
	Target interface {
		Get(path string) interface{}
		Set(path string, value interface{})
		Observe(path string, fn func()) (cancel func())
	}

	// Scheduler runs tasks on the next run loop turn.
	Scheduler interface {
		Defer(fn func())
	}

	// Binding keeps a local property path of connected objects in sync with a remote location.
	// The remote location is observed once for all the connected objects: from the first Connect until the last Disconnect.
	// Syncs are coalesced per object: any number of changes within a turn result in a single sync on the next one.
	// A local change wins over a concurrent remote one. A sync does not react to its own echo.
	Binding struct {
		to        string
		from      remote.Location
		oneWay    bool
		scheduler Scheduler

		connections []*connection
		handle      remote.Handle
		observing   bool
		snapshot    remote.Snapshot
	}

	connection struct {
		target         Target
		state          syncState
		connected      bool
		cancelObserver func()
		arena          *arena
	}
)

// OneWay makes the Binding remote-to-local only: local changes are never written remotely.
// Must be called before the first Connect.
func (b *Binding) OneWay() *Binding {
	b.oneWay = true
	return b
}

// IsOneWay checks if the Binding is remote-to-local only.
func (b *Binding) IsOneWay() bool {
	return b.oneWay
}

// Connect starts syncing target. Connecting an already connected target is a no-op.
func (b *Binding) Connect(target Target) error {
	if target == nil {
		return fmt.Errorf("%s: must be non-nil", "target")
	}
	if b.find(target) != nil {
		return nil
	}

	c := &connection{
		target:    target,
		connected: true,
		arena:     newArena(),
	}
	if !b.oneWay {
		c.cancelObserver = target.Observe(b.to, func() {
			b.schedule(c, toRemote)
		})
	}
	b.connections = append(b.connections, c)

	logrus.WithFields(logrus.Fields{
		"binding": b.String(),
		"objects": len(b.connections),
	}).Debug("mirror: object connected")

	if !b.observing {
		// the initial value event schedules the initial sync of every connected object
		b.observing = true
		b.handle = b.from.On(model.ValueEvent, b.remoteChanged)
		return nil
	}
	if b.snapshot != nil {
		b.schedule(c, fromRemote)
	}

	return nil
}

// Disconnect stops syncing target. A sync scheduled for target before becomes a no-op.
func (b *Binding) Disconnect(target Target) {
	c := b.find(target)
	if c == nil {
		return
	}

	c.connected = false
	if c.cancelObserver != nil {
		c.cancelObserver()
	}
	c.arena.releaseAll()

	for i, item := range b.connections {
		if item == c {
			b.connections = append(b.connections[:i:i], b.connections[i+1:]...)
			break
		}
	}

	logrus.WithFields(logrus.Fields{
		"binding": b.String(),
		"objects": len(b.connections),
	}).Debug("mirror: object disconnected")

	if len(b.connections) == 0 && b.observing {
		b.from.Off(model.ValueEvent, b.handle)
		b.observing = false
		b.snapshot = nil
	}
}

// Connected returns the number of connected objects.
func (b *Binding) Connected() int {
	return len(b.connections)
}

// String implements the stringer interface.
func (b *Binding) String() string {
	arrow := "<->"
	if b.oneWay {
		arrow = "<-"
	}

	return fmt.Sprintf("%s %s %s", b.to, arrow, b.from.String())
}

func (b *Binding) remoteChanged(snapshot remote.Snapshot, _ string) {
	b.snapshot = snapshot
	for _, c := range b.connections {
		b.schedule(c, fromRemote)
	}
}

func (b *Binding) schedule(c *connection, d direction) {
	next, needsSync := c.state.trigger(d)
	c.state = next
	if needsSync {
		b.scheduler.Defer(func() {
			b.sync(c)
		})
	}
}

// sync runs the pending direction for a connected object.
func (b *Binding) sync(c *connection) {
	d := c.state.direction()
	if !c.connected || d == noDirection {
		c.state = stateIdle
		return
	}

	c.state = stateSuppressed
	defer func() { c.state = stateIdle }()

	switch d {
	case fromRemote:
		if b.snapshot == nil {
			return
		}
		// an echo of the object own write is already in place
		if model.Equal(CoerceToRemote(c.target.Get(b.to)), b.snapshot.Value()) {
			return
		}
		c.target.Set(b.to, c.arena.resolve(c.arena.coerce(b.snapshot)))

	case toRemote:
		completion, err := SetValue(b.from, c.target.Get(b.to))
		if err != nil {
			b.logSyncError(err)
			return
		}
		completion.Then(func(completion *Completion) {
			if err := completion.Err(); err != nil {
				b.logSyncError(err)
			}
		})
	}
}

func (b *Binding) logSyncError(err error) {
	logrus.WithField("binding", b.String()).Warnf("mirror: local value write failed: %v", err)
}

func (b *Binding) find(target Target) *connection {
	for _, c := range b.connections {
		if c.target == target {
			return c
		}
	}

	return nil
}

// NewBinding creates a new Binding object between the local property path and the remote location.
func NewBinding(to string, from remote.Location, scheduler Scheduler) (*Binding, error) {
	if to == "" {
		return nil, fmt.Errorf("%s: must be non-empty", "to")
	}
	if from == nil {
		return nil, ErrNoLocation
	}
	if scheduler == nil {
		return nil, fmt.Errorf("%s: must be non-nil", "scheduler")
	}

	return &Binding{
		to:        to,
		from:      from,
		scheduler: scheduler,
	}, nil
}

// Bind creates a two-way Binding and connects target.
func Bind(target Target, to string, from remote.Location, scheduler Scheduler) (*Binding, error) {
	b, err := NewBinding(to, from, scheduler)
	if err != nil {
		return nil, err
	}

	if err := b.Connect(target); err != nil {
		return nil, err
	}

	return b, nil
}

// BindOneWay creates a remote-to-local Binding and connects target.
func BindOneWay(target Target, to string, from remote.Location, scheduler Scheduler) (*Binding, error) {
	b, err := NewBinding(to, from, scheduler)
	if err != nil {
		return nil, err
	}
	if err := b.OneWay().Connect(target); err != nil {
		return nil, err
	}

	return b, nil
}
