package storage

import (
	"fmt"

	"github.com/itiky/collaborate-mirror/model"
	"github.com/itiky/collaborate-mirror/remote"
)

// Ref implements remote.Location for a Store path.
// A Ref built from an invalid path keeps the error: writes fail with it, listeners are not registered.
type Ref struct {
	store *Store
	keys  []string
	err   error
}

var _ remote.Location = (*Ref)(nil)

// Key implements remote.Location interface.
func (r *Ref) Key() string {
	if len(r.keys) == 0 {
		return ""
	}

	return r.keys[len(r.keys)-1]
}

// Path implements remote.Location interface.
func (r *Ref) Path() string {
	return model.JoinPath(r.keys...)
}

// String implements remote.Query interface.
func (r *Ref) String() string {
	return r.store.url + r.Path()
}

// Child implements remote.Location interface.
func (r *Ref) Child(path string) remote.Location {
	return r.childRef(path)
}

func (r *Ref) childRef(path string) *Ref {
	child := &Ref{store: r.store, err: r.err}

	keys, err := model.SplitPath(path)
	if err != nil && child.err == nil {
		child.err = fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	child.keys = append(append(make([]string, 0, len(r.keys)+len(keys)), r.keys...), keys...)

	return child
}

// Parent implements remote.Location interface.
func (r *Ref) Parent() remote.Location {
	if len(r.keys) == 0 {
		return nil
	}

	return &Ref{store: r.store, keys: r.keys[:len(r.keys)-1], err: r.err}
}

// Push implements remote.Location interface.
func (r *Ref) Push() remote.Location {
	return r.childRef(model.NewPushKey())
}

// Set implements remote.Location interface.
func (r *Ref) Set(value interface{}, onComplete remote.CompletionFunc) {
	r.set(value, model.NoPriority, false, onComplete)
}

// SetWithPriority implements remote.Location interface.
func (r *Ref) SetWithPriority(value interface{}, priority model.Priority, onComplete remote.CompletionFunc) {
	r.set(value, priority, true, onComplete)
}

// Update implements remote.Location interface.
func (r *Ref) Update(partial map[string]interface{}, onComplete remote.CompletionFunc) {
	values := make(map[string]interface{}, len(partial))
	for path, value := range partial {
		if _, err := model.SplitPath(path); err != nil {
			r.fail(fmt.Errorf("%w: %v", ErrInvalidKey, err), onComplete)
			return
		}

		normalized, err := model.Normalize(value)
		if err != nil {
			r.fail(fmt.Errorf("%w: %s: %v", ErrInvalidValue, path, err), onComplete)
			return
		}
		values[path] = normalized
	}

	r.write(model.OperationRequest{
		Type:  model.UpdateOperationType,
		Path:  r.Path(),
		Value: values,
	}, onComplete)
}

// Remove implements remote.Location interface.
func (r *Ref) Remove(onComplete remote.CompletionFunc) {
	r.write(model.OperationRequest{
		Type: model.DeleteOperationType,
		Path: r.Path(),
	}, onComplete)
}

// Transaction implements remote.Location interface.
// The update is computed against the local store state and written as a regular set.
func (r *Ref) Transaction(fn remote.TransactionFunc, onComplete func(err error, committed bool, snapshot remote.Snapshot)) {
	done := func(err error, committed bool) {
		if onComplete == nil {
			return
		}
		r.store.Lock()
		snapshot := Snapshot{ref: r, node: r.store.root.at(r.keys)}
		r.store.Unlock()
		onComplete(err, committed, snapshot)
	}

	if r.err != nil {
		err := r.err
		r.store.dispatch(func() { done(err, false) })
		return
	}

	req, commit, err := r.store.transaction(r.keys, fn)
	if err != nil || !commit {
		r.store.dispatch(func() { done(err, false) })
		return
	}

	r.store.writer.Write(req, func(err error) {
		done(err, err == nil)
	})
}

// On implements remote.Query interface.
func (r *Ref) On(event model.EventType, cb remote.Callback) remote.Handle {
	return r.query().On(event, cb)
}

// Off implements remote.Query interface.
func (r *Ref) Off(event model.EventType, h remote.Handle) {
	r.query().Off(event, h)
}

// Once implements remote.Query interface.
func (r *Ref) Once(onSuccess func(remote.Snapshot), onError func(error)) {
	r.query().Once(onSuccess, onError)
}

// Limit implements remote.Query interface.
func (r *Ref) Limit(n int) remote.Query {
	return r.query().Limit(n)
}

// StartAt implements remote.Query interface.
func (r *Ref) StartAt(priority model.Priority, key string) remote.Query {
	return r.query().StartAt(priority, key)
}

// EndAt implements remote.Query interface.
func (r *Ref) EndAt(priority model.Priority, key string) remote.Query {
	return r.query().EndAt(priority, key)
}

// Ref implements remote.Query interface.
func (r *Ref) Ref() remote.Location {
	return r
}

func (r *Ref) query() Query {
	return Query{ref: r}
}

func (r *Ref) set(value interface{}, priority model.Priority, hasPriority bool, onComplete remote.CompletionFunc) {
	normalized, err := model.Normalize(value)
	if err != nil {
		r.fail(fmt.Errorf("%w: %v", ErrInvalidValue, err), onComplete)
		return
	}

	r.write(model.OperationRequest{
		Type:        model.SetOperationType,
		Path:        r.Path(),
		Value:       normalized,
		Priority:    priority,
		HasPriority: hasPriority,
	}, onComplete)
}

func (r *Ref) write(req model.OperationRequest, onComplete remote.CompletionFunc) {
	if r.err != nil {
		r.fail(r.err, onComplete)
		return
	}

	r.store.writer.Write(req, onComplete)
}

func (r *Ref) fail(err error, onComplete remote.CompletionFunc) {
	if onComplete == nil {
		return
	}
	r.store.dispatch(func() { onComplete(err) })
}
