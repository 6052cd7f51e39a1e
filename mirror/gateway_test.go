package mirror

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/itiky/collaborate-mirror/model"
	"github.com/itiky/collaborate-mirror/remote"
	"github.com/itiky/collaborate-mirror/runloop"
	"github.com/itiky/collaborate-mirror/storage"
)

func Test_Gateway_NoLocation(t *testing.T) {
	_, err := Get(nil)
	require.ErrorIs(t, err, ErrNoLocation)
	_, err = SetValue(nil, 1)
	require.ErrorIs(t, err, ErrNoLocation)
	_, err = SetValueWithPriority(nil, 1, model.NumberPriority(1))
	require.ErrorIs(t, err, ErrNoLocation)
	_, err = PushValue(nil, 1)
	require.ErrorIs(t, err, ErrNoLocation)
	_, err = PushValueWithPriority(nil, 1, model.NumberPriority(1))
	require.ErrorIs(t, err, ErrNoLocation)
	_, err = RemoveValue(nil)
	require.ErrorIs(t, err, ErrNoLocation)
	_, err = UpdateValue(nil, nil)
	require.ErrorIs(t, err, ErrNoLocation)
	_, err = TransactValue(nil, nil)
	require.ErrorIs(t, err, ErrNoLocation)
}

func Test_Gateway_Push(t *testing.T) {
	ref := newTestRef(t, "items")

	c, err := PushValue(ref, "a")
	requireCompleted(t, c, err)
	require.NotEmpty(t, c.Location().Key())
	require.Equal(t, ref.Path()+"/"+c.Location().Key(), c.Location().Path())

	read, err := Get(c.Location())
	requireCompleted(t, read, err)
	require.Equal(t, "a", read.Value())
}

func Test_Gateway_Get(t *testing.T) {
	ref := newTestRef(t, "doc")

	c, err := SetValue(ref, map[string]interface{}{
		"hash": map[string]interface{}{"a": 1},
		"list": map[string]interface{}{ListMarkerKey: true, "a": 1},
	})
	requireCompleted(t, c, err)

	read, err := Get(ref.Child("hash"))
	requireCompleted(t, read, err)
	require.IsType(t, &Hash{}, read.Value())

	read, err = Get(ref.Child("list"))
	requireCompleted(t, read, err)
	require.IsType(t, &List{}, read.Value())

	read, err = Get(ref.Child("missing"))
	requireCompleted(t, read, err)
	require.Nil(t, read.Value())

	var children []interface{}
	ref.Once(func(snapshot remote.Snapshot) {
		for _, key := range []string{"hash", "list", "missing"} {
			children = append(children, CoerceFromSnapshot(snapshot.Child(key)))
		}
	}, nil)
	require.Len(t, children, 3)
	require.IsType(t, &Hash{}, children[0])
	require.IsType(t, &List{}, children[1])
	require.Equal(t, []interface{}{1.0}, children[1].(*List).Values())
	require.Nil(t, children[2])
}

func Test_Gateway_Transaction(t *testing.T) {
	ref := newTestRef(t, "counter")

	increment := func(current interface{}) (interface{}, bool) {
		n, _ := current.(float64)
		return n + 1, false
	}
	for i := 0; i < 3; i++ {
		c, err := TransactValue(ref, increment)
		requireCompleted(t, c, err)
	}

	c, err := TransactValue(ref, func(current interface{}) (interface{}, bool) {
		return nil, true
	})
	requireCompleted(t, c, err)
	require.Nil(t, c.Value(), "aborted")

	read, err := Get(ref)
	requireCompleted(t, read, err)
	require.Equal(t, 3.0, read.Value())
}

func Test_Gateway_RemoteFailure(t *testing.T) {
	w := &failingWriter{err: errors.New("permission denied")}
	ref := storage.NewStore(t.Name(), storage.WithWriter(w)).Root().Child("doc")

	c, err := SetValue(ref, "a")
	require.NoError(t, err, "remote failures are not reported synchronously")
	require.True(t, c.IsDone())
	require.ErrorIs(t, c.Err(), w.err)

	c, err = PushValue(ref, "a")
	require.NoError(t, err)
	joined := Join(c, c)
	require.ErrorIs(t, joined.Err(), w.err)
}

func Test_Completion_Async(t *testing.T) {
	loop := runloop.New()
	loop.Start()
	defer loop.Stop()

	ref := storage.NewStore(t.Name(), storage.WithDispatcher(loop.Post)).Root().Child("doc")

	c, err := SetValue(ref, "a")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, c.Wait(ctx))

	thenCalled := make(chan struct{})
	c.Then(func(*Completion) { close(thenCalled) })
	<-thenCalled

	require.True(t, Join().IsDone())
}

type failingWriter struct {
	err error
}

func (w *failingWriter) Write(_ model.OperationRequest, onComplete remote.CompletionFunc) {
	onComplete(w.err)
}
