package achievements

import (
	"context"
	"sync"
	"time"
)

// Store keeps per-epoch achievement state. Every key carries the epoch, so
// state from a previous day is inert even before Reset removes it.
type Store interface {
	// Achieve records that the user crossed threshold in epoch. notified is
	// false when the user was already recorded for it. When the user is the
	// first in the epoch, claimed is true and the boost until the given time
	// is stored. All writes land together or not at all.
	Achieve(ctx context.Context, userID, threshold int64, epoch string, until time.Time) (notified, claimed bool, err error)
	BoostExpiry(ctx context.Context, userID int64, epoch string) (time.Time, bool, error)
	// Reset drops notices, broadcasts and boosts of every epoch before the given one.
	Reset(ctx context.Context, before string) error
}

type noticeKey struct {
	userID    int64
	threshold int64
	epoch     string
}

type broadcastKey struct {
	threshold int64
	epoch     string
}

type boost struct {
	until time.Time
	epoch string
}

// MemoryStore is a Store for a single process.
type MemoryStore struct {
	mu         sync.Mutex
	notices    map[noticeKey]struct{}
	broadcasts map[broadcastKey]int64
	boosts     map[int64]boost
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		notices:    make(map[noticeKey]struct{}),
		broadcasts: make(map[broadcastKey]int64),
		boosts:     make(map[int64]boost),
	}
}

func (m *MemoryStore) Achieve(_ context.Context, userID, threshold int64, epoch string, until time.Time) (bool, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	notice := noticeKey{userID, threshold, epoch}
	if _, ok := m.notices[notice]; ok {
		return false, false, nil
	}
	m.notices[notice] = struct{}{}

	claim := broadcastKey{threshold, epoch}
	if _, ok := m.broadcasts[claim]; ok {
		return true, false, nil
	}
	m.broadcasts[claim] = userID
	m.boosts[userID] = boost{until: until, epoch: epoch}
	return true, true, nil
}

func (m *MemoryStore) BoostExpiry(_ context.Context, userID int64, epoch string) (time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.boosts[userID]
	if !ok || b.epoch != epoch {
		return time.Time{}, false, nil
	}
	return b.until, true, nil
}

func (m *MemoryStore) Reset(_ context.Context, before string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for k := range m.notices {
		if k.epoch < before {
			delete(m.notices, k)
		}
	}
	for k := range m.broadcasts {
		if k.epoch < before {
			delete(m.broadcasts, k)
		}
	}
	for id, b := range m.boosts {
		if b.epoch < before {
			delete(m.boosts, id)
		}
	}
	return nil
}
