package object

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_Object_GetSet(t *testing.T) {
	o := New(map[string]interface{}{
		"name":   "a",
		"nested": New(map[string]interface{}{"value": 1}),
	})

	require.Equal(t, "a", o.Get("name"))
	require.Equal(t, 1, o.Get("nested.value"))
	require.Nil(t, o.Get("missing.value"))

	o.Set("nested.value", 2)
	require.Equal(t, 2, o.Get("nested.value"))

	o.Set("missing.value", 3)
	require.Nil(t, o.Get("missing.value"))
	require.Equal(t, []string{"name", "nested"}, o.Keys())
}

func Test_Object_Observe(t *testing.T) {
	o := New(nil)

	calls := 0
	cancel := o.Observe("value", func() { calls++ })

	o.Set("value", "a")
	require.Equal(t, 1, calls)

	o.Set("value", "a")
	require.Equal(t, 1, calls, "same value does not notify")

	o.Set("value", map[string]interface{}{"a": 1})
	o.Set("value", map[string]interface{}{"a": 1})
	require.Equal(t, 2, calls, "deeply equal value does not notify")

	cancel()
	o.Set("value", "b")
	require.Equal(t, 2, calls)
}
