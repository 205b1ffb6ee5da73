// Package registry is a concurrency-safe keyed collection that remembers
// insertion order.
package registry

import (
	"sync"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Registry is a named collection of values that keeps insertion order.
type Registry[T any] interface {
	Get(name string) (T, bool)
	// Add stores value under name. Replacing an existing entry keeps its
	// original position and reports true.
	Add(name string, value T) bool
	GetOrAdd(name string, value func() T) (T, bool)
	Del(name string) bool
	Has(name string) bool
	Keys() []string
	Values() []T
	Len() int
	Clear()
}

type registry[T any] struct {
	mu     sync.RWMutex
	values *orderedmap.OrderedMap[string, T]
}

// New creates an empty registry.
func New[T any]() Registry[T] {
	return &registry[T]{
		values: orderedmap.New[string, T](),
	}
}

func (r *registry[T]) Get(name string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.values.Get(name)
}

func (r *registry[T]) Add(name string, value T) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, replaced := r.values.Set(name, value)
	return replaced
}

// GetOrAdd returns the stored value, or stores the result of valueFn. The
// boolean reports whether the value was already present.
func (r *registry[T]) GetOrAdd(name string, valueFn func() T) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.values.Get(name); ok {
		return v, true
	}
	v := valueFn()
	r.values.Set(name, v)
	return v, false
}

func (r *registry[T]) Del(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.values.Delete(name)
	return ok
}

func (r *registry[T]) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

func (r *registry[T]) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, r.values.Len())
	for pair := r.values.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

func (r *registry[T]) Values() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	values := make([]T, 0, r.values.Len())
	for pair := r.values.Oldest(); pair != nil; pair = pair.Next() {
		values = append(values, pair.Value)
	}
	return values
}

func (r *registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.values.Len()
}

func (r *registry[T]) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = orderedmap.New[string, T]()
}
