// Package object is a minimal host property system: an observable property bag with dotted path access.
package object

import (
	"reflect"
	"strings"

	"golang.org/x/exp/slices"
)

type (
	// Getter is implemented by values a dotted path can traverse (objects and hash mirrors).
	Getter interface {
		Get(key string) interface{}
	}

	// Object is an observable property bag. Not safe for concurrent use: it lives on the run loop.
	Object struct {
		props     map[string]interface{}
		observers map[string][]*observer
	}

	observer struct {
		fn       func()
		canceled bool
	}
)

// Get returns a property value by dotted path (nil if any hop is missing).
func (o *Object) Get(path string) interface{} {
	keys := strings.Split(path, ".")

	var cur Getter = o
	for i, key := range keys {
		if i == len(keys)-1 {
			if cur == o {
				return o.props[key]
			}
			return cur.Get(key)
		}

		next, ok := cur.Get(key).(Getter)
		if !ok {
			return nil
		}
		cur = next
	}

	return nil
}

// Set sets a property value by dotted path and notifies observers if the value changed.
// Intermediate hops must be *Object values, otherwise Set is a no-op.
func (o *Object) Set(path string, value interface{}) {
	target, key := o.resolve(path)
	if target == nil {
		return
	}

	old, found := target.props[key]
	if found && sameValue(old, value) {
		return
	}
	target.props[key] = value

	target.notify(key)
}

// Observe registers fn to be called after the property at path changes.
// Only the last path hop is observed.
func (o *Object) Observe(path string, fn func()) (cancel func()) {
	target, key := o.resolve(path)
	if target == nil || fn == nil {
		return func() {}
	}

	obs := &observer{fn: fn}
	target.observers[key] = append(target.observers[key], obs)

	return func() {
		obs.canceled = true
		list := target.observers[key]
		for i, item := range list {
			if item == obs {
				target.observers[key] = append(list[:i:i], list[i+1:]...)
				break
			}
		}
	}
}

// Keys returns the property names sorted.
func (o *Object) Keys() []string {
	keys := make([]string, 0, len(o.props))
	for key := range o.props {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	return keys
}

// resolve returns the object owning the last path hop.
func (o *Object) resolve(path string) (*Object, string) {
	keys := strings.Split(path, ".")

	target := o
	for _, key := range keys[:len(keys)-1] {
		next, ok := target.props[key].(*Object)
		if !ok {
			return nil, ""
		}
		target = next
	}

	return target, keys[len(keys)-1]
}

func (o *Object) notify(key string) {
	observers := append([]*observer(nil), o.observers[key]...)
	for _, obs := range observers {
		if !obs.canceled {
			obs.fn()
		}
	}
}

// sameValue compares comparable values by identity and others deeply.
func sameValue(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta.Comparable() {
		return a == b
	}

	return reflect.DeepEqual(a, b)
}

// New creates a new Object object.
func New(props map[string]interface{}) *Object {
	o := &Object{
		props:     make(map[string]interface{}, len(props)),
		observers: make(map[string][]*observer),
	}
	for key, value := range props {
		o.props[key] = value
	}

	return o
}
