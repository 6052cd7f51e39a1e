package mirror

import (
	"context"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/itiky/collaborate-mirror/remote"
)

// Completion is the asynchronous outcome of a remote operation.
// Callers never have to block on it: Then chains a continuation, Wait is for callers outside the run loop.
type Completion struct {
	sync.Mutex
	doneCh    chan struct{}
	location  remote.Location
	value     interface{}
	err       error
	callbacks []func(c *Completion)
}

// Done returns a channel closed once the operation completes.
func (c *Completion) Done() <-chan struct{} {
	return c.doneCh
}

// IsDone checks if the operation completed.
func (c *Completion) IsDone() bool {
	select {
	case <-c.doneCh:
		return true
	default:
		return false
	}
}

// Err returns the remote error (nil until done or on success).
func (c *Completion) Err() error {
	c.Lock()
	defer c.Unlock()

	return c.err
}

// Location returns the written location (the new child for push operations).
func (c *Completion) Location() remote.Location {
	return c.location
}

// Value returns the read value (Get only).
func (c *Completion) Value() interface{} {
	c.Lock()
	defer c.Unlock()

	return c.value
}

// Then registers a continuation called once done (immediately if already done).
func (c *Completion) Then(fn func(c *Completion)) *Completion {
	c.Lock()
	if !c.IsDone() {
		c.callbacks = append(c.callbacks, fn)
		c.Unlock()
		return c
	}
	c.Unlock()

	fn(c)

	return c
}

// Wait blocks until the operation completes or ctx is done.
func (c *Completion) Wait(ctx context.Context) error {
	select {
	case <-c.doneCh:
		return c.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Completion) resolve(value interface{}, err error) {
	c.Lock()
	if c.IsDone() {
		c.Unlock()
		return
	}
	c.value, c.err = value, err
	callbacks := c.callbacks
	c.callbacks = nil
	close(c.doneCh)
	c.Unlock()

	for _, fn := range callbacks {
		fn(c)
	}
}

// onComplete adapts the Completion to a remote.CompletionFunc.
func (c *Completion) onComplete(err error) {
	c.resolve(nil, err)
}

// Join returns a Completion done once all the inputs are done, failing with every input error.
func Join(completions ...*Completion) *Completion {
	joined := newCompletion(nil)
	if len(completions) == 0 {
		joined.resolve(nil, nil)
		return joined
	}

	var (
		mu      sync.Mutex
		left    = len(completions)
		joinErr *multierror.Error
	)
	for _, c := range completions {
		c.Then(func(c *Completion) {
			mu.Lock()
			if err := c.Err(); err != nil {
				joinErr = multierror.Append(joinErr, err)
			}
			left--
			finished := left == 0
			mu.Unlock()

			if finished {
				joined.resolve(nil, joinErr.ErrorOrNil())
			}
		})
	}

	return joined
}

func newCompletion(location remote.Location) *Completion {
	return &Completion{
		doneCh:   make(chan struct{}),
		location: location,
	}
}
