package subject

import (
	"maps"
	"slices"

	"github.com/roach88/rxcore/internal/observer"
)

// registry maps registration keys to guarded observers.
// Keys are never reused, so removing a key removes exactly the
// registration made by one Subscribe call even if the same observer was
// registered twice. Not safe for concurrent use; owners lock around it.
type registry[T, E any] struct {
	observers map[uint64]*observer.Safe[T, E]
	nextKey   uint64
}

func newRegistry[T, E any]() registry[T, E] {
	return registry[T, E]{observers: make(map[uint64]*observer.Safe[T, E])}
}

func (r *registry[T, E]) add(o *observer.Safe[T, E]) uint64 {
	r.nextKey++
	r.observers[r.nextKey] = o
	return r.nextKey
}

func (r *registry[T, E]) remove(key uint64) bool {
	if _, ok := r.observers[key]; !ok {
		return false
	}
	delete(r.observers, key)
	return true
}

// snapshot returns the registered observers in registration order.
func (r *registry[T, E]) snapshot() []*observer.Safe[T, E] {
	keys := slices.Sorted(maps.Keys(r.observers))
	out := make([]*observer.Safe[T, E], len(keys))
	for i, k := range keys {
		out[i] = r.observers[k]
	}
	return out
}

// drain empties the registry and returns what it held.
func (r *registry[T, E]) drain() []*observer.Safe[T, E] {
	out := r.snapshot()
	clear(r.observers)
	return out
}

func (r *registry[T, E]) len() int {
	return len(r.observers)
}
