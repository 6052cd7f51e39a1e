package mirror

type (
	// observers is a cancellable callback list safe to mutate while notifying.
	observers[F any] struct {
		entries []*observerEntry[F]
	}

	observerEntry[F any] struct {
		fn       F
		canceled bool
	}
)

func (o *observers[F]) add(fn F) (cancel func()) {
	entry := &observerEntry[F]{fn: fn}
	o.entries = append(o.entries, entry)

	return func() {
		entry.canceled = true
		for i, item := range o.entries {
			if item == entry {
				o.entries = append(o.entries[:i:i], o.entries[i+1:]...)
				return
			}
		}
	}
}

func (o *observers[F]) each(call func(fn F)) {
	entries := append([]*observerEntry[F](nil), o.entries...)
	for _, entry := range entries {
		if !entry.canceled {
			call(entry.fn)
		}
	}
}
