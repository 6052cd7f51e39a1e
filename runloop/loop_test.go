package runloop

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func Test_Loop_Turns(t *testing.T) {
	l := New()

	order := make([]string, 0)
	l.Defer(func() {
		order = append(order, "a")
		l.Defer(func() { order = append(order, "c") })
	})
	l.Defer(func() { order = append(order, "b") })

	require.Equal(t, 2, l.Pending())
	require.Equal(t, 2, l.Turn())
	require.Equal(t, []string{"a", "b"}, order, "tasks deferred during a turn run on the next one")

	require.Equal(t, 1, l.Drain())
	require.Equal(t, []string{"a", "b", "c"}, order)
	require.Zero(t, l.Pending())
}

func Test_Loop_Worker(t *testing.T) {
	l := New()
	l.Start()
	defer l.Stop()

	var counter int32
	for i := 0; i < 10; i++ {
		l.Post(func() { atomic.AddInt32(&counter, 1) })
	}
	l.Sync(func() {})

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&counter) == 10
	}, time.Second, 10*time.Millisecond)
}

func Test_Loop_Restart(t *testing.T) {
	l := New()
	l.Start()
	l.Stop()
	l.Stop()

	l.Start()
	defer l.Stop()

	var ran int32
	l.Sync(func() { atomic.StoreInt32(&ran, 1) })
	require.Equal(t, int32(1), atomic.LoadInt32(&ran))
}
