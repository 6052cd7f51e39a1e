package mirror

import (
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/itiky/collaborate-mirror/remote"
)

type (
	// arena owns the nested mirrors created by a single owner (mirror or bound object).
	// Nested mirrors are keyed by location URL, so the same path always resolves to the same mirror instance,
	// and are created lazily on first access.
	arena struct {
		cache *cache.Cache
	}

	// lazyChild is a subtree value not materialized into a mirror yet.
	lazyChild struct {
		snapshot remote.Snapshot
		kind     mirrorKind
	}
)

// coerce converts a child snapshot into a scalar, the already materialized mirror for its path, or a lazy placeholder.
func (a *arena) coerce(snapshot remote.Snapshot) interface{} {
	kind := kindOf(snapshot)
	id := snapshot.Ref().String()

	if cached, found := a.cache.Get(id); found {
		if mirrorKindOf(cached) == kind {
			return cached
		}
		a.cache.Delete(id)
	}

	if kind == scalarKind {
		return snapshot.Value()
	}

	return &lazyChild{snapshot: snapshot, kind: kind}
}

// resolve materializes a lazy placeholder.
func (a *arena) resolve(value interface{}) interface{} {
	lazy, ok := value.(*lazyChild)
	if !ok {
		return value
	}

	id := lazy.snapshot.Ref().String()
	if cached, found := a.cache.Get(id); found {
		return cached
	}

	var m Mirror
	switch lazy.kind {
	case listKind:
		m = NewList(lazy.snapshot.Ref())
	default:
		m = NewHash(lazy.snapshot.Ref())
	}
	a.cache.Set(id, m, cache.NoExpiration)

	logrus.WithField("mirror", m.String()).Debug("mirror: nested mirror created")

	return m
}

// release destroys the nested mirror for a location (if any).
func (a *arena) release(location remote.Location) {
	if location == nil {
		return
	}
	a.cache.Delete(location.String())
}

// releaseAll destroys every nested mirror.
func (a *arena) releaseAll() {
	for id := range a.cache.Items() {
		a.cache.Delete(id)
	}
}

// Len returns the number of materialized mirrors.
func (a *arena) Len() int {
	return a.cache.ItemCount()
}

func mirrorKindOf(value interface{}) mirrorKind {
	switch value.(type) {
	case *List:
		return listKind
	case *Hash:
		return hashKind
	default:
		return scalarKind
	}
}

func newArena() *arena {
	c := cache.New(cache.NoExpiration, 0)
	c.OnEvicted(func(_ string, value interface{}) {
		if m, ok := value.(Mirror); ok {
			m.Destroy()
		}
	})

	return &arena{cache: c}
}
