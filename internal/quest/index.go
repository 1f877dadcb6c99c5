package quest

import "iter"

type EntryKind uint8

const (
	EntryOne EntryKind = iota
	EntryMany
)

// Entry holds the declarations of one name. A single declaration is stored
// as One; the second promotes the entry to Many.
type Entry[T any] struct {
	kind EntryKind
	one  T
	many []T
}

func (e *Entry[T]) Kind() EntryKind { return e.kind }

// Primary returns the first declaration.
func (e *Entry[T]) Primary() T {
	if e.kind == EntryMany {
		return e.many[0]
	}
	return e.one
}

// Definitions returns every declaration in document order.
func (e *Entry[T]) Definitions() []T {
	if e.kind == EntryMany {
		return e.many
	}
	return []T{e.one}
}

func (e *Entry[T]) push(v T) {
	switch e.kind {
	case EntryOne:
		e.many = []T{e.one, v}
		e.kind = EntryMany
		var zero T
		e.one = zero
	case EntryMany:
		e.many = append(e.many, v)
	}
}

// Index maps names to their declarations and keeps insertion order.
type Index[T any] struct {
	keys    []string
	entries map[string]*Entry[T]
}

func NewIndex[T any]() *Index[T] {
	return &Index[T]{entries: make(map[string]*Entry[T])}
}

// Push records a declaration; nothing is ever replaced.
func (ix *Index[T]) Push(key string, v T) {
	if e, ok := ix.entries[key]; ok {
		e.push(v)
		return
	}
	ix.keys = append(ix.keys, key)
	ix.entries[key] = &Entry[T]{kind: EntryOne, one: v}
}

// Get returns the primary declaration of key.
func (ix *Index[T]) Get(key string) (T, bool) {
	e, ok := ix.entries[key]
	if !ok {
		var zero T
		return zero, false
	}
	return e.Primary(), true
}

func (ix *Index[T]) Entry(key string) (*Entry[T], bool) {
	e, ok := ix.entries[key]
	return e, ok
}

func (ix *Index[T]) Definitions(key string) []T {
	if e, ok := ix.entries[key]; ok {
		return e.Definitions()
	}
	return nil
}

// Keys returns names in first-declaration order.
func (ix *Index[T]) Keys() []string {
	return ix.keys
}

// Len is the number of distinct names.
func (ix *Index[T]) Len() int {
	return len(ix.keys)
}

// All yields every declaration, grouped by name in first-declaration order.
func (ix *Index[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, k := range ix.keys {
			for _, v := range ix.entries[k].Definitions() {
				if !yield(v) {
					return
				}
			}
		}
	}
}
