package model

import (
	"fmt"
	"strings"
)

type (
	// KeyList is an ordered list of sibling keys (the key view of an ordered mirror).
	KeyList []string

	// ChildEvent is a sibling-relative change notification.
	// PrevKey is the key of the preceding sibling ("" if the child is now first).
	ChildEvent struct {
		Type    EventType
		Key     string
		PrevKey string
	}
)

// String implements the stringer interface.
func (l KeyList) String() string {
	str := strings.Builder{}
	for i, key := range l {
		str.WriteString(fmt.Sprintf("- [%d] %s\n", i, key))
	}

	return str.String()
}

// IndexOf returns the key index or -1.
func (l KeyList) IndexOf(key string) int {
	for i, k := range l {
		if k == key {
			return i
		}
	}

	return -1
}

// IndexAfter returns the index right after the preceding key (0 if prevKey is empty).
// An unknown prevKey yields 0 as well.
func (l KeyList) IndexAfter(prevKey string) int {
	if prevKey == "" {
		return 0
	}

	return l.IndexOf(prevKey) + 1
}

// String implements the stringer interface.
func (e ChildEvent) String() string {
	return fmt.Sprintf("%s: %s (after %q)", e.Type, e.Key, e.PrevKey)
}

// ApplyChildEvents replays ChildEvent objects on the input KeyList.
// A preceding key that is not in the list places the child first. Removing an unknown key is a no-op,
// moving an unknown key adds it, adding a known key moves it. Changing an unknown key is an error,
// a changed key is moved when its preceding key differs.
func ApplyChildEvents(l KeyList, events ...ChildEvent) (KeyList, error) {
	for i, e := range events {
		switch e.Type {
		case ChildAddedEvent, ChildMovedEvent:
			l = l.place(e.Key, e.PrevKey)

		case ChildChangedEvent:
			if l.IndexOf(e.Key) < 0 {
				return nil, fmt.Errorf("event[%d] (%s): key %q: not found", i, e.Type, e.Key)
			}
			if idx := l.IndexAfter(e.PrevKey); idx < len(l) && l[idx] == e.Key {
				continue
			}
			l = l.place(e.Key, e.PrevKey)

		case ChildRemovedEvent:
			idx := l.IndexOf(e.Key)
			if idx < 0 {
				continue
			}

			// Cut
			l = append(l[:idx], l[idx+1:]...)

		default:
			return nil, fmt.Errorf("event[%d] (%s): unknown type", i, e.Type)
		}
	}

	return l, nil
}

// place cuts the key (if present) and inserts it right after prevKey.
// The target index is computed against the shortened list.
func (l KeyList) place(key, prevKey string) KeyList {
	if idx := l.IndexOf(key); idx >= 0 {
		l = append(l[:idx], l[idx+1:]...)
	}

	idx := l.IndexAfter(prevKey)
	l = append(l, "")
	copy(l[idx+1:], l[idx:])
	l[idx] = key

	return l
}
