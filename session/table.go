package session

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value   V
	touched time.Time
}

// Table is a mutex-guarded keyed table with last-write-wins replacement.
// Every write refreshes the entry's touch time, which Sweep uses for idle
// eviction.
type Table[K comparable, V any] struct {
	mu    sync.Mutex
	items map[K]entry[V]
}

func NewTable[K comparable, V any]() *Table[K, V] {
	return &Table[K, V]{items: make(map[K]entry[V])}
}

func (t *Table[K, V]) Put(k K, v V) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items[k] = entry[V]{value: v, touched: time.Now()}
}

func (t *Table[K, V]) Get(k K) (V, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.items[k]
	return e.value, ok
}

func (t *Table[K, V]) Delete(k K) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.items, k)
}

func (t *Table[K, V]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.items)
}

// Update runs fn on the current value of k while holding the lock. If fn
// returns an error nothing changes. Otherwise next is stored, or the key is
// removed when keep is false.
func (t *Table[K, V]) Update(k K, fn func(v V, ok bool) (next V, keep bool, err error)) (V, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.items[k]
	next, keep, err := fn(e.value, ok)
	if err != nil {
		return next, err
	}
	if keep {
		t.items[k] = entry[V]{value: next, touched: time.Now()}
	} else {
		delete(t.items, k)
	}
	return next, nil
}

// Sweep removes entries last written before cutoff and returns how many went.
func (t *Table[K, V]) Sweep(cutoff time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for k, e := range t.items {
		if e.touched.Before(cutoff) {
			delete(t.items, k)
			n++
		}
	}
	return n
}
