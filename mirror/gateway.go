package mirror

import (
	"github.com/sirupsen/logrus"

	"github.com/itiky/collaborate-mirror/model"
	"github.com/itiky/collaborate-mirror/remote"
)

// Get reads the current query value: subtrees are returned as a new mirror of the query, leaves as scalars.
func Get(q remote.Query) (*Completion, error) {
	if q == nil {
		return nil, ErrNoLocation
	}

	c := newCompletion(q.Ref())
	q.Once(
		func(snapshot remote.Snapshot) {
			c.resolve(coerceQuery(q, snapshot), nil)
		},
		func(err error) {
			c.resolve(nil, err)
		},
	)

	return c, nil
}

// SetValue replaces the location value with the plain form of value.
func SetValue(loc remote.Location, value interface{}) (*Completion, error) {
	if loc == nil {
		return nil, ErrNoLocation
	}

	c := newCompletion(loc)
	logWrite(model.SetOperationType, loc)
	loc.Set(CoerceToRemote(value), c.onComplete)

	return c, nil
}

// SetValueWithPriority is SetValue also setting the location priority.
func SetValueWithPriority(loc remote.Location, value interface{}, priority model.Priority) (*Completion, error) {
	if loc == nil {
		return nil, ErrNoLocation
	}

	c := newCompletion(loc)
	logWrite(model.SetOperationType, loc)
	loc.SetWithPriority(CoerceToRemote(value), priority, c.onComplete)

	return c, nil
}

// PushValue writes value under a new unique child of loc; the Completion location is that child.
func PushValue(loc remote.Location, value interface{}) (*Completion, error) {
	if loc == nil {
		return nil, ErrNoLocation
	}

	return SetValue(loc.Push(), value)
}

// PushValueWithPriority is PushValue also setting the new child priority.
func PushValueWithPriority(loc remote.Location, value interface{}, priority model.Priority) (*Completion, error) {
	if loc == nil {
		return nil, ErrNoLocation
	}

	return SetValueWithPriority(loc.Push(), value, priority)
}

// RemoveValue deletes the location. Removing an absent location succeeds.
func RemoveValue(loc remote.Location) (*Completion, error) {
	if loc == nil {
		return nil, ErrNoLocation
	}

	c := newCompletion(loc)
	logWrite(model.DeleteOperationType, loc)
	loc.Remove(c.onComplete)

	return c, nil
}

// UpdateValue merges partial into the location: only the listed children are replaced.
func UpdateValue(loc remote.Location, partial map[string]interface{}) (*Completion, error) {
	if loc == nil {
		return nil, ErrNoLocation
	}

	plain := make(map[string]interface{}, len(partial))
	for key, value := range partial {
		plain[key] = CoerceToRemote(value)
	}

	c := newCompletion(loc)
	logWrite(model.UpdateOperationType, loc)
	loc.Update(plain, c.onComplete)

	return c, nil
}

// TransactValue runs a read-modify-write on the location.
// The Completion value is the committed value (nil if fn aborted).
func TransactValue(loc remote.Location, fn remote.TransactionFunc) (*Completion, error) {
	if loc == nil {
		return nil, ErrNoLocation
	}

	c := newCompletion(loc)
	loc.Transaction(
		func(current interface{}) (interface{}, bool) {
			newValue, abort := fn(current)
			return CoerceToRemote(newValue), abort
		},
		func(err error, committed bool, snapshot remote.Snapshot) {
			if err != nil || !committed {
				c.resolve(nil, err)
				return
			}
			c.resolve(snapshot.Value(), nil)
		},
	)

	return c, nil
}

func logWrite(opType model.OperationType, loc remote.Location) {
	logrus.WithFields(logrus.Fields{
		"op":       opType,
		"location": loc.String(),
	}).Debug("mirror: write")
}
