package mirror

type (
	// direction is a sync direction of a bound object.
	direction int

	// syncState is the per object sync state of a Binding.
	//
	//	idle       --remote change--> pendingIn
	//	idle       --local change---> pendingOut
	//	pendingIn  --local change---> pendingOut (local wins)
	//	pendingOut --any change-----> pendingOut
	//	pending*   --sync starts----> suppressed
	//	suppressed --any change-----> suppressed (own echo)
	//	suppressed --sync ends------> idle
	syncState int
)

const (
	noDirection direction = iota
	fromRemote
	toRemote
)

const (
	stateIdle syncState = iota
	statePendingIn
	statePendingOut
	stateSuppressed
)

// trigger returns the next state for a change in direction d and whether a sync must be scheduled.
// At most one sync is scheduled per object until it runs.
func (s syncState) trigger(d direction) (syncState, bool) {
	switch s {
	case stateIdle:
		switch d {
		case fromRemote:
			return statePendingIn, true
		case toRemote:
			return statePendingOut, true
		}
	case statePendingIn:
		if d == toRemote {
			return statePendingOut, false
		}
	}

	return s, false
}

// direction returns the direction a scheduled sync runs in.
func (s syncState) direction() direction {
	switch s {
	case statePendingIn:
		return fromRemote
	case statePendingOut:
		return toRemote
	default:
		return noDirection
	}
}

// String implements the stringer interface.
func (s syncState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case statePendingIn:
		return "pendingIn"
	case statePendingOut:
		return "pendingOut"
	case stateSuppressed:
		return "suppressed"
	default:
		return "unknown"
	}
}

// String implements the stringer interface.
func (d direction) String() string {
	switch d {
	case fromRemote:
		return "fromRemote"
	case toRemote:
		return "toRemote"
	default:
		return "none"
	}
}
