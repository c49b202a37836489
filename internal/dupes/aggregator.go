// Package dupes collects keyed occurrences across files and reports the keys
// seen more than once, in the order they were first seen.
package dupes

// Occurrence is one place a key was seen.
type Occurrence[V any] struct {
	Path string
	Line int
	Ref  V
}

// Group is a key with at least two occurrences.
type Group[K comparable, V any] struct {
	Key    K
	First  Occurrence[V]
	Others []Occurrence[V]
}

// Aggregator is not safe for concurrent use; one module run owns it.
type Aggregator[K comparable, V any] struct {
	order []K
	occ   map[K][]Occurrence[V]
}

func New[K comparable, V any]() *Aggregator[K, V] {
	return &Aggregator[K, V]{occ: make(map[K][]Occurrence[V])}
}

// Add records occ under key.
func (a *Aggregator[K, V]) Add(key K, occ Occurrence[V]) {
	if a.occ == nil {
		a.occ = make(map[K][]Occurrence[V])
	}
	prev, seen := a.occ[key]
	if !seen {
		a.order = append(a.order, key)
	}
	a.occ[key] = append(prev, occ)
}

// Len returns the number of distinct keys.
func (a *Aggregator[K, V]) Len() int {
	return len(a.order)
}

// Groups returns duplicated keys in first-insertion order.
func (a *Aggregator[K, V]) Groups() []Group[K, V] {
	var out []Group[K, V]
	for _, key := range a.order {
		list := a.occ[key]
		if len(list) < 2 {
			continue
		}
		others := make([]Occurrence[V], len(list)-1)
		copy(others, list[1:])
		out = append(out, Group[K, V]{Key: key, First: list[0], Others: others})
	}
	return out
}
