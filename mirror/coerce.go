package mirror

import (
	"github.com/itiky/collaborate-mirror/remote"
)

// ListMarkerKey is the child key marking a subtree to be mirrored as a List.
// List.ToPlain writes it back, so a List value survives a round trip through the store.
const ListMarkerKey = "_list"

type (
	// Plainer is implemented by values that convert themselves into plain values before being written remotely.
	Plainer interface {
		ToPlain() interface{}
	}

	// Mirror is the shared surface of List and Hash.
	Mirror interface {
		ChangeHandler
		Plainer
		// Query returns the mirrored query (nil if unset).
		Query() remote.Query
		// SetQuery replaces the mirrored query resetting the content.
		SetQuery(q remote.Query)
		// Destroy detaches the mirror and releases its nested mirrors.
		Destroy()
		String() string
	}

	mirrorKind int
)

const (
	scalarKind mirrorKind = iota
	hashKind
	listKind
)

// CoerceToRemote converts a value into its plain remote form: mirrors and Plainer values are converted via ToPlain,
// maps and slices are converted recursively, anything else is returned as is.
func CoerceToRemote(value interface{}) interface{} {
	switch v := value.(type) {
	case Plainer:
		return v.ToPlain()
	case *lazyChild:
		return v.snapshot.Value()
	case map[string]interface{}:
		plain := make(map[string]interface{}, len(v))
		for key, item := range v {
			plain[key] = CoerceToRemote(item)
		}
		return plain
	case []interface{}:
		plain := make([]interface{}, 0, len(v))
		for _, item := range v {
			plain = append(plain, CoerceToRemote(item))
		}
		return plain
	default:
		return value
	}
}

// CoerceFromSnapshot converts a snapshot into a new mirror of its location (subtrees) or a scalar (leaves).
func CoerceFromSnapshot(snapshot remote.Snapshot) interface{} {
	return coerceQuery(snapshot.Ref(), snapshot)
}

// coerceQuery converts a snapshot read through q, mirrors are created over q.
func coerceQuery(q remote.Query, snapshot remote.Snapshot) interface{} {
	switch kindOf(snapshot) {
	case listKind:
		return NewList(q)
	case hashKind:
		return NewHash(q)
	default:
		return snapshot.Value()
	}
}

func kindOf(snapshot remote.Snapshot) mirrorKind {
	switch {
	case !snapshot.HasChildren():
		return scalarKind
	case snapshot.HasChild(ListMarkerKey):
		return listKind
	default:
		return hashKind
	}
}
