package storage

import (
	"github.com/itiky/collaborate-mirror/model"
)

// diffChildren builds the ordered event batch turning the old children view into the new one.
// Replaying the batch (model.ApplyChildEvents) on oldKeys yields newKeys:
//   - child_removed for every key gone;
//   - child_added / child_moved in the new order, moved only for children with a changed priority
//     (siblings with unchanged priorities keep their relative order, so they never need a move);
//   - child_changed for children whose content or priority changed, once the order is final.
func diffChildren(oldView *node, oldKeys []string, newView *node, newKeys []string) []model.ChildEvent {
	events := make([]model.ChildEvent, 0)

	newSet := make(map[string]bool, len(newKeys))
	for _, key := range newKeys {
		newSet[key] = true
	}

	for _, key := range oldKeys {
		if !newSet[key] {
			events = append(events, model.ChildEvent{Type: model.ChildRemovedEvent, Key: key})
		}
	}

	prevKey := ""
	for _, key := range newKeys {
		oldChild, newChild := oldView.child(key), newView.child(key)
		switch {
		case oldChild == nil:
			events = append(events, model.ChildEvent{Type: model.ChildAddedEvent, Key: key, PrevKey: prevKey})
		case oldChild.priority.Compare(newChild.priority) != 0:
			events = append(events, model.ChildEvent{Type: model.ChildMovedEvent, Key: key, PrevKey: prevKey})
		}
		prevKey = key
	}

	prevKey = ""
	for _, key := range newKeys {
		oldChild, newChild := oldView.child(key), newView.child(key)
		if oldChild != nil && !equalNodes(oldChild, newChild) {
			events = append(events, model.ChildEvent{Type: model.ChildChangedEvent, Key: key, PrevKey: prevKey})
		}
		prevKey = key
	}

	return events
}
