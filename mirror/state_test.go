package mirror

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_SyncState_Transitions(t *testing.T) {
	type testCase struct {
		state     syncState
		trigger   direction
		next      syncState
		scheduled bool
	}

	testCases := []testCase{
		{stateIdle, fromRemote, statePendingIn, true},
		{stateIdle, toRemote, statePendingOut, true},
		{statePendingIn, fromRemote, statePendingIn, false},
		{statePendingIn, toRemote, statePendingOut, false},
		{statePendingOut, fromRemote, statePendingOut, false},
		{statePendingOut, toRemote, statePendingOut, false},
		{stateSuppressed, fromRemote, stateSuppressed, false},
		{stateSuppressed, toRemote, stateSuppressed, false},
	}

	for _, tc := range testCases {
		next, scheduled := tc.state.trigger(tc.trigger)
		require.Equal(t, tc.next, next, "%s + %s", tc.state, tc.trigger)
		require.Equal(t, tc.scheduled, scheduled, "%s + %s", tc.state, tc.trigger)
	}
}

func Test_SyncState_Direction(t *testing.T) {
	require.Equal(t, fromRemote, statePendingIn.direction())
	require.Equal(t, toRemote, statePendingOut.direction())
	require.Equal(t, noDirection, stateIdle.direction())
	require.Equal(t, noDirection, stateSuppressed.direction())
}

func Test_SyncState_Coalescing(t *testing.T) {
	// any sequence of triggers within a turn schedules at most one sync, and a local change always wins
	triggers := [][]direction{
		{fromRemote, toRemote, fromRemote},
		{toRemote, fromRemote, fromRemote},
		{fromRemote, fromRemote},
	}
	expected := []direction{toRemote, toRemote, fromRemote}

	for i, seq := range triggers {
		state, scheduledCnt := stateIdle, 0
		for _, d := range seq {
			next, scheduled := state.trigger(d)
			state = next
			if scheduled {
				scheduledCnt++
			}
		}
		require.Equal(t, 1, scheduledCnt, "sequence %d", i)
		require.Equal(t, expected[i], state.direction(), "sequence %d", i)
	}
}
