// Package ledgertest provides an in-memory ledger store for tests.
package ledgertest

import (
	"context"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jkcommunity/jkbot/internal/domain/errs"
	"github.com/jkcommunity/jkbot/internal/domain/ledger"
)

type entryKey struct {
	userID int64
	bucket ledger.Bucket
	key    string
}

// Store implements ledger.Store, ledger.UserRepository and the mute lookups
// the economy needs. Transactions are serialized and rolled back on error.
type Store struct {
	mu      sync.Mutex
	users   map[int64]ledger.User
	entries map[entryKey]int64
	mutes   map[int64]time.Time
	failAdd error
	now     func() time.Time
}

func NewStore() *Store {
	return &Store{
		users:   make(map[int64]ledger.User),
		entries: make(map[entryKey]int64),
		mutes:   make(map[int64]time.Time),
		now:     time.Now,
	}
}

// Seed registers users directly.
func (s *Store) Seed(users ...ledger.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range users {
		if u.RegisteredAt.IsZero() {
			u.RegisteredAt = s.now()
		}
		s.users[u.ID] = u
	}
}

// FailAdds makes every following Add inside a transaction return err.
func (s *Store) FailAdds(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failAdd = err
}

// Entry returns a raw bucket value.
func (s *Store) Entry(userID int64, bucket ledger.Bucket, key string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[entryKey{userID, bucket, key}]
}

// MuteOf returns the stored mute expiry.
func (s *Store) MuteOf(userID int64) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	until, ok := s.mutes[userID]
	return until, ok
}

func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx ledger.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := maps.Clone(s.entries)
	mutes := maps.Clone(s.mutes)

	if err := fn(ctx, &tx{s: s}); err != nil {
		s.entries = entries
		s.mutes = mutes
		return err
	}
	return nil
}

func (s *Store) Top(_ context.Context, bucket ledger.Bucket, key string, n int) ([]ledger.Standing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []ledger.Standing
	for k, points := range s.entries {
		if k.bucket == bucket && k.key == key {
			out = append(out, ledger.Standing{UserID: k.userID, Handle: s.users[k.userID].Handle, Points: points})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Points != out[j].Points {
			return out[i].Points > out[j].Points
		}
		return out[i].UserID < out[j].UserID
	})
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (s *Store) Stats(_ context.Context, userID int64, keys ledger.Keys) (*ledger.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, &errs.NotFoundError{Entity: "user", Key: userID}
	}
	return &ledger.Stats{
		User:     u,
		Today:    s.entries[entryKey{userID, ledger.BucketDay, keys.Day}],
		Week:     s.entries[entryKey{userID, ledger.BucketWeek, keys.Week}],
		Month:    s.entries[entryKey{userID, ledger.BucketMonth, keys.Month}],
		Lifetime: s.balance(userID),
	}, nil
}

func (s *Store) Balance(_ context.Context, userID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balance(userID), nil
}

func (s *Store) balance(userID int64) int64 {
	var sum int64
	for k, points := range s.entries {
		if k.userID == userID && k.bucket == ledger.BucketDay {
			sum += points
		}
	}
	return sum
}

func (s *Store) Upsert(_ context.Context, user *ledger.User) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[user.ID]
	if ok {
		user.RegisteredAt = existing.RegisteredAt
	} else {
		user.RegisteredAt = s.now()
	}
	s.users[user.ID] = *user
	return !ok, nil
}

func (s *Store) GetByID(_ context.Context, id int64) (*ledger.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, &errs.NotFoundError{Entity: "user", Key: id}
	}
	return &u, nil
}

func (s *Store) GetByHandle(_ context.Context, handle string) (*ledger.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Handle, handle) {
			return &u, nil
		}
	}
	return nil, &errs.NotFoundError{Entity: "user", Key: handle}
}

func (s *Store) Handles(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	handles := make([]string, 0, len(s.users))
	for _, u := range s.users {
		if u.Handle != "" {
			handles = append(handles, u.Handle)
		}
	}
	slices.Sort(handles)
	return handles, nil
}

// tx runs with Store.mu held.
type tx struct {
	s *Store
}

func (t *tx) LockUsers(_ context.Context, ids ...int64) error {
	for _, id := range ids {
		if _, ok := t.s.users[id]; !ok {
			return &errs.NotFoundError{Entity: "user", Key: id}
		}
	}
	return nil
}

func (t *tx) Balance(_ context.Context, userID int64) (int64, error) {
	return t.s.balance(userID), nil
}

func (t *tx) Add(_ context.Context, userID, delta int64, keys ledger.Keys) (ledger.Totals, error) {
	if t.s.failAdd != nil {
		return ledger.Totals{}, t.s.failAdd
	}

	var totals ledger.Totals
	for _, b := range ledger.Buckets {
		k := entryKey{userID, b, keys.For(b)}
		t.s.entries[k] += delta
		switch b {
		case ledger.BucketDay:
			totals.Day = t.s.entries[k]
		case ledger.BucketWeek:
			totals.Week = t.s.entries[k]
		case ledger.BucketMonth:
			totals.Month = t.s.entries[k]
		}
	}
	return totals, nil
}

func (t *tx) SetMute(_ context.Context, userID int64, until time.Time) error {
	t.s.mutes[userID] = until
	return nil
}

func (s *Store) MuteExpiry(_ context.Context, userID int64) (time.Time, bool, error) {
	until, ok := s.MuteOf(userID)
	return until, ok, nil
}

func (s *Store) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, until := range s.mutes {
		if !now.Before(until) {
			delete(s.mutes, id)
			removed++
		}
	}
	return removed, nil
}
