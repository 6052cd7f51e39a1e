package mirror

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/itiky/collaborate-mirror/model"
	"github.com/itiky/collaborate-mirror/remote"
	"github.com/itiky/collaborate-mirror/storage"
)

func Test_List_PriorityOrder(t *testing.T) {
	ref := newTestRef(t, "items")
	l := NewList(ref)
	require.Zero(t, l.Len())

	for i, value := range []string{"d", "e", "f"} {
		c, err := l.PushWithPriority(value, model.NumberPriority(float64(i+1)))
		requireCompleted(t, c, err)
	}
	require.Equal(t, []interface{}{"d", "e", "f"}, l.Values())

	c, err := SetValueWithPriority(ref.Child("g"), "g", model.NumberPriority(0))
	requireCompleted(t, c, err)
	require.Equal(t, []interface{}{"g", "d", "e", "f"}, l.Values())
	require.Equal(t, "g", l.KeyAt(0))

	// moved forward
	c, err = SetValueWithPriority(l.ChildRef(l.KeyAt(0)), "g", model.NumberPriority(2.5))
	requireCompleted(t, c, err)
	require.Equal(t, []interface{}{"d", "e", "g", "f"}, l.Values())

	// moved backward and changed
	c, err = SetValueWithPriority(l.ChildRef(l.KeyAt(3)), "F", model.NumberPriority(-1))
	requireCompleted(t, c, err)
	require.Equal(t, []interface{}{"F", "d", "e", "g"}, l.Values())
	require.Equal(t, "F", l.First())
	require.Equal(t, "g", l.Last())
}

func Test_List_EventReplay(t *testing.T) {
	s := storage.NewStore(t.Name())
	ref, err := s.Ref("items")
	require.NoError(t, err)
	l := NewList(ref)

	keys := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	for i := 0; i < 500; i++ {
		key := keys[rand.Intn(len(keys))]
		switch rand.Intn(3) {
		case 0:
			_, err = RemoveValue(ref.Child(key))
		case 1:
			_, err = SetValueWithPriority(ref.Child(key), rand.Intn(100), model.NumberPriority(float64(rand.Intn(5))))
		default:
			_, err = SetValue(ref.Child(key), fmt.Sprintf("v%d", i))
		}
		require.NoError(t, err)

		expKeys, expValues := readChildren(t, ref)
		require.Equal(t, expKeys, l.Keys(), "step %d", i)
		require.Equal(t, expValues, l.Values(), "step %d", i)
	}
}

func Test_List_RemoveIsIdempotent(t *testing.T) {
	ref := newTestRef(t, "items")
	l := NewList(ref)

	for _, value := range []string{"a", "b", "c"} {
		c, err := l.Push(value)
		requireCompleted(t, c, err)
	}
	key := l.KeyAt(1)

	c, err := RemoveValue(ref.Child(key))
	requireCompleted(t, c, err)
	require.Equal(t, []interface{}{"a", "c"}, l.Values())

	c, err = RemoveValue(ref.Child(key))
	requireCompleted(t, c, err)
	require.Equal(t, []interface{}{"a", "c"}, l.Values())

	snapshot := &testSnapshot{key: key, ref: ref.Child(key)}
	l.ChildRemoved(snapshot)
	l.ChildRemoved(snapshot)
	require.Equal(t, []interface{}{"a", "c"}, l.Values())
}

// Test feeds the handlers directly with events a store may send after missed or reordered notifications.
func Test_List_EventEdgeCases(t *testing.T) {
	base := newTestRef(t, "items")
	leaf := func(key string, value interface{}) remote.Snapshot {
		return &testSnapshot{key: key, value: value, ref: base.Child(key)}
	}

	l := NewList(nil)
	check := func(comment string, keys []string, values []interface{}) {
		t.Helper()
		require.Equal(t, keys, l.Keys(), comment)
		require.Equal(t, values, l.Values(), comment)
	}

	l.ChildAdded(leaf("a", "a1"), "")
	l.ChildAdded(leaf("b", "b1"), "a")
	l.ChildChanged(leaf("a", "a2"), "b")
	check("changed with a new preceding key", []string{"b", "a"}, []interface{}{"b1", "a2"})

	l.ChildChanged(leaf("b", "b2"), "")
	check("changed in place", []string{"b", "a"}, []interface{}{"b2", "a2"})

	l.ChildChanged(leaf("x", "x1"), "a")
	check("changed unknown key", []string{"b", "a"}, []interface{}{"b2", "a2"})

	l.ChildAdded(leaf("c", "c1"), "zz")
	check("added after unknown key", []string{"c", "b", "a"}, []interface{}{"c1", "b2", "a2"})

	l.ChildMoved(leaf("d", "d1"), "b")
	check("moved unknown key", []string{"c", "b", "d", "a"}, []interface{}{"c1", "b2", "d1", "a2"})

	l.ChildMoved(leaf("a", "ignored"), "")
	check("moved keeps the value", []string{"a", "c", "b", "d"}, []interface{}{"a2", "c1", "b2", "d1"})

	l.ChildAdded(leaf("c", "c2"), "d")
	check("added known key", []string{"a", "b", "d", "c"}, []interface{}{"a2", "b2", "d1", "c2"})

	l.ChildRemoved(leaf("b", nil))
	l.ChildMoved(leaf("d", "d1"), "b")
	check("moved after removed key", []string{"d", "a", "c"}, []interface{}{"d1", "a2", "c2"})
}

func Test_List_Replace(t *testing.T) {
	ref := newTestRef(t, "items")
	l := NewList(ref)

	_, err := NewList(nil).Push("a")
	require.ErrorIs(t, err, ErrNoLocation)

	for _, value := range []string{"a", "b", "c"} {
		c, err := l.Push(value)
		requireCompleted(t, c, err)
	}

	_, err = l.Replace(2, 2)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = l.RemoveAt(-1)
	require.ErrorIs(t, err, ErrIndexOutOfRange)

	c, err := l.Replace(0, 2, "x", "y")
	requireCompleted(t, c, err)
	require.Equal(t, []interface{}{"c", "x", "y"}, l.Values())

	c, err = l.InsertAt(l.Len(), "z")
	requireCompleted(t, c, err)
	require.Equal(t, []interface{}{"c", "x", "y", "z"}, l.Values())

	c, err = l.RemoveAt(1)
	requireCompleted(t, c, err)
	require.Equal(t, []interface{}{"c", "y", "z"}, l.Values())

	c, err = l.AddObject("y")
	requireCompleted(t, c, err)
	require.Equal(t, 3, l.Len())

	c, err = l.Clear()
	requireCompleted(t, c, err)
	require.Zero(t, l.Len())
}

func Test_List_NestedMirrors(t *testing.T) {
	ref := newTestRef(t, "items")
	l := NewList(ref)

	c, err := l.Push(map[string]interface{}{"title": "a", "tags": map[string]interface{}{"x": true}})
	requireCompleted(t, c, err)

	item, ok := l.At(0).(*Hash)
	require.True(t, ok)
	require.Same(t, item, l.At(0), "the same location resolves to the same mirror")
	require.Equal(t, "a", item.Get("title"))
	require.IsType(t, &Hash{}, item.Get("tags"))

	c, err = item.Set("title", "b")
	requireCompleted(t, c, err)
	require.Equal(t, "b", item.Get("title"))
	require.Same(t, item, l.At(0))

	c, err = l.RemoveAt(0)
	requireCompleted(t, c, err)
	require.Zero(t, l.Len())
	require.Nil(t, item.Query(), "removed nested mirror is destroyed")
}

func Test_List_Marker(t *testing.T) {
	ref := newTestRef(t, "doc")

	plain := map[string]interface{}{
		"name": "doc",
		"items": map[string]interface{}{
			ListMarkerKey: true,
			"a":           "first",
			"b":           "second",
		},
	}
	c, err := SetValue(ref, plain)
	requireCompleted(t, c, err)

	h := NewHash(ref)
	items, ok := h.Get("items").(*List)
	require.True(t, ok)
	require.Equal(t, []interface{}{"first", "second"}, items.Values())
	require.Equal(t, []string{"a", "b"}, items.Keys())

	normalized, err := model.Normalize(plain)
	require.NoError(t, err)
	require.Equal(t, normalized, h.ToPlain())

	c, err = items.Push("third")
	requireCompleted(t, c, err)
	require.Equal(t, 3, items.Len())
	require.True(t, items.Contains("third"))
	require.False(t, items.Contains(true), "the marker is not an item")
	c, err = items.PushWithPriority("zero", model.NumberPriority(0))
	requireCompleted(t, c, err)
	require.Equal(t, "zero", items.Last(), "prioritized children sort after the others")
}

func Test_List_LimitQuery(t *testing.T) {
	ref := newTestRef(t, "items")

	for i := 0; i < 3; i++ {
		c, err := PushValue(ref, i)
		requireCompleted(t, c, err)
	}

	l := NewList(ref.Limit(2))
	require.Equal(t, []interface{}{1.0, 2.0}, l.Values())

	c, err := l.Push(3)
	requireCompleted(t, c, err)
	require.Equal(t, []interface{}{2.0, 3.0}, l.Values())

	c, err = l.RemoveAt(1)
	requireCompleted(t, c, err)
	require.Equal(t, []interface{}{1.0, 2.0}, l.Values())
}

func Test_List_Observe(t *testing.T) {
	ref := newTestRef(t, "items")
	l := NewList(ref)

	type change struct {
		idx, count int
		removed    bool
	}
	changes := make([]change, 0)
	cancel := l.Observe(func(idx, count int, removed bool) {
		changes = append(changes, change{idx, count, removed})
	})

	c, err := l.Push("a")
	requireCompleted(t, c, err)
	c, err = l.PushWithPriority("b", model.NumberPriority(-1))
	requireCompleted(t, c, err)
	require.Equal(t, []change{{0, 1, false}, {1, 1, false}}, changes, "prioritized children sort after the others")

	cancel()
	c, err = l.Clear()
	requireCompleted(t, c, err)
	require.Len(t, changes, 2)
}

func Test_List_SetQuery(t *testing.T) {
	s := storage.NewStore(t.Name())
	refA, err := s.Ref("a")
	require.NoError(t, err)
	refB, err := s.Ref("b")
	require.NoError(t, err)

	c, err := PushValue(refA, "a1")
	requireCompleted(t, c, err)
	c, err = PushValue(refB, "b1")
	requireCompleted(t, c, err)

	l := NewList(refA)
	require.Equal(t, []interface{}{"a1"}, l.Values())
	require.Equal(t, "<mirror.List:mem://Test_List_SetQuery/a>", l.String())

	l.SetQuery(refB)
	require.Equal(t, []interface{}{"b1"}, l.Values())

	c, err = PushValue(refA, "a2")
	requireCompleted(t, c, err)
	require.Equal(t, []interface{}{"b1"}, l.Values(), "the previous query is detached")

	l.Destroy()
	require.Zero(t, l.Len())
	require.Equal(t, "<mirror.List:none>", l.String())
	_, err = l.Push("x")
	require.ErrorIs(t, err, ErrNoLocation)
}

func newTestRef(t *testing.T, path string) *storage.Ref {
	ref, err := storage.NewStore(t.Name()).Ref(path)
	require.NoError(t, err)

	return ref
}

func requireCompleted(t *testing.T, c *Completion, err error) {
	t.Helper()

	require.NoError(t, err)
	require.True(t, c.IsDone())
	require.NoError(t, c.Err())
}

// readChildren reads the ordered child keys and values of a location.
func readChildren(t *testing.T, q remote.Query) ([]string, []interface{}) {
	keys, values := make([]string, 0), make([]interface{}, 0)
	read := false
	q.Once(func(snapshot remote.Snapshot) {
		read = true
		snapshot.ForEach(func(child remote.Snapshot) bool {
			keys = append(keys, child.Key())
			values = append(values, child.Value())
			return false
		})
	}, nil)
	require.True(t, read)

	return keys, values
}

// testSnapshot is a leaf remote.Snapshot for handlers fed directly.
type testSnapshot struct {
	key   string
	value interface{}
	ref   remote.Location
}

func (s *testSnapshot) Key() string                                { return s.key }
func (s *testSnapshot) Value() interface{}                         { return s.value }
func (s *testSnapshot) Priority() model.Priority                   { return model.NoPriority }
func (s *testSnapshot) HasChildren() bool                          { return false }
func (s *testSnapshot) HasChild(string) bool                       { return false }
func (s *testSnapshot) Child(key string) remote.Snapshot           { return &testSnapshot{key: key} }
func (s *testSnapshot) ForEach(func(child remote.Snapshot) bool) bool { return false }
func (s *testSnapshot) Ref() remote.Location                       { return s.ref }
