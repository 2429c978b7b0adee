package ledger

import "sync"

// keyedMutex hands out one mutex per user id.
type keyedMutex struct {
	locks sync.Map // map[int64]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{}
}

// Lock acquires the mutex of every id in the order given and returns a
// function that releases them in reverse. Callers pass sorted, distinct ids.
func (k *keyedMutex) Lock(ids ...int64) func() {
	held := make([]*sync.Mutex, 0, len(ids))
	for _, id := range ids {
		v, _ := k.locks.LoadOrStore(id, &sync.Mutex{})
		mu := v.(*sync.Mutex)
		mu.Lock()
		held = append(held, mu)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}
