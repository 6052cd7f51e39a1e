package mirror

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/itiky/collaborate-mirror/model"
)

func Test_Hash_UpdateMerges(t *testing.T) {
	ref := newTestRef(t, "doc")
	h := NewHash(ref)
	require.True(t, h.Loaded())
	require.Zero(t, h.Len())

	c, err := SetValue(ref, map[string]interface{}{"a": "b", "c": "d"})
	requireCompleted(t, c, err)
	require.Equal(t, []string{"a", "c"}, h.Keys())

	c, err = h.Update(map[string]interface{}{"a": "z"})
	requireCompleted(t, c, err)
	require.Equal(t, "z", h.Get("a"))
	require.Equal(t, "d", h.Get("c"))
	require.Equal(t, 2, h.Len())
}

func Test_Hash_SetRemove(t *testing.T) {
	ref := newTestRef(t, "doc")
	h := NewHash(ref)

	changed := make([]string, 0)
	cancel := h.Observe(func(key string) {
		changed = append(changed, key)
	})
	defer cancel()

	c, err := h.Set("a", 1)
	requireCompleted(t, c, err)
	c, err = h.SetWithPriority("b", "x", model.StringPriority("p"))
	requireCompleted(t, c, err)
	require.Equal(t, 1.0, h.Get("a"))
	require.True(t, h.Has("b"))

	c, err = h.Remove("b")
	requireCompleted(t, c, err)
	require.False(t, h.Has("b"))
	require.Nil(t, h.Get("b"))
	require.Equal(t, []string{"a"}, h.Keys())
	require.Equal(t, []string{"a", "b", "b"}, changed)

	// removing an absent child is not an error
	c, err = h.Remove("b")
	requireCompleted(t, c, err)
	require.Len(t, changed, 3)

	_, err = NewHash(nil).Set("a", 1)
	require.ErrorIs(t, err, ErrNoLocation)
}

func Test_Hash_LocalProperties(t *testing.T) {
	ref := newTestRef(t, "doc")

	c, err := SetValue(ref, map[string]interface{}{"ref": "remote", "title": "a"})
	requireCompleted(t, c, err)

	h := NewHash(nil)
	h.DefineLocal("ref", "local")
	h.SetQuery(ref)

	require.Equal(t, "local", h.Get("ref"))
	require.Equal(t, []string{"title"}, h.Keys())

	c, err = h.Set("ref", "updated")
	requireCompleted(t, c, err)
	require.Equal(t, "updated", h.Get("ref"))

	stored, _ := readChildren(t, ref)
	require.Equal(t, []string{"ref", "title"}, stored)
	value, err := Get(ref.Child("ref"))
	require.NoError(t, err)
	require.Equal(t, "remote", value.Value(), "a local property set is not written remotely")

	require.Equal(t, map[string]interface{}{"title": "a"}, h.ToPlain())
}

func Test_Hash_RoundTrip(t *testing.T) {
	ref := newTestRef(t, "doc")

	plain := map[string]interface{}{
		"name":  "doc",
		"count": 3,
		"flags": []interface{}{true, false},
		"owner": map[string]interface{}{
			"name": "user",
			"tags": []interface{}{"a", "b"},
		},
	}
	c, err := SetValue(ref, plain)
	requireCompleted(t, c, err)

	normalized, err := model.Normalize(plain)
	require.NoError(t, err)

	h := NewHash(ref)
	require.Equal(t, normalized, h.ToPlain())

	owner, ok := h.Get("owner").(*Hash)
	require.True(t, ok)
	require.Equal(t, "user", owner.Get("name"))
	require.Equal(t, normalized, h.ToPlain(), "materialized mirrors serialize the same way")

	// written back through the mirror
	copyRef := ref.Parent().Child("copy")
	c, err = SetValue(copyRef, h)
	requireCompleted(t, c, err)
	require.Equal(t, normalized, NewHash(copyRef).ToPlain())
}

func Test_Hash_ToList(t *testing.T) {
	ref := newTestRef(t, "doc")

	c, err := SetValue(ref, map[string]interface{}{"b": 2, "a": 1})
	requireCompleted(t, c, err)

	h := NewHash(ref)
	l := h.ToList()
	require.Equal(t, []interface{}{1.0, 2.0}, l.Values())
	require.Equal(t, h.ToPlain(), l.ToHash().ToPlain())
	require.Equal(t, "<mirror.Hash:mem://Test_Hash_ToList/doc>", h.String())
}
