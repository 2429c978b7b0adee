package ledger

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/jkcommunity/jkbot/internal/domain/errs"
)

type User struct {
	ID           int64
	Handle       string
	DisplayName  string
	RegisteredAt time.Time
}

// Mention renders the user the way chat messages refer to them.
func (u User) Mention() string {
	if u.Handle != "" {
		return "@" + u.Handle
	}
	return u.DisplayName
}

type Standing struct {
	UserID int64
	Handle string
	Points int64
}

// Totals are a user's bucket values right after a write.
type Totals struct {
	Day   int64
	Week  int64
	Month int64
}

type Stats struct {
	User     User
	Today    int64
	Week     int64
	Month    int64
	Lifetime int64
}

// Tx is the ledger seen from inside one storage transaction.
type Tx interface {
	// LockUsers pins the given users for the rest of the transaction and
	// fails with a NotFoundError if one of them was never seen.
	LockUsers(ctx context.Context, ids ...int64) error
	Balance(ctx context.Context, userID int64) (int64, error)
	Add(ctx context.Context, userID, delta int64, keys Keys) (Totals, error)
	SetMute(ctx context.Context, userID int64, until time.Time) error
}

type Store interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	Top(ctx context.Context, bucket Bucket, key string, n int) ([]Standing, error)
	Stats(ctx context.Context, userID int64, keys Keys) (*Stats, error)
	Balance(ctx context.Context, userID int64) (int64, error)
}

// Service is the points ledger. Every write goes through a per-user lock
// so read-modify-write sequences never interleave for the same user.
type Service struct {
	store Store
	loc   *time.Location
	now   func() time.Time
	locks *keyedMutex
}

func NewService(store Store, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		store: store,
		loc:   loc,
		now:   time.Now,
		locks: newKeyedMutex(),
	}
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) Location() *time.Location {
	return s.loc
}

func (s *Service) Keys() Keys {
	return KeysAt(s.now(), s.loc)
}

// Atomic runs fn in one transaction while holding the locks of every user in
// ids. Locks are taken in id order.
func (s *Service) Atomic(ctx context.Context, ids []int64, fn func(ctx context.Context, tx Tx) error) error {
	ordered := slices.Clone(ids)
	slices.Sort(ordered)
	ordered = slices.Compact(ordered)

	unlock := s.locks.Lock(ordered...)
	defer unlock()

	return s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		if err := tx.LockUsers(ctx, ordered...); err != nil {
			return err
		}
		return fn(ctx, tx)
	})
}

// Add applies delta to the user's current day, week and month entries.
// Negative deltas are stored as they are.
func (s *Service) Add(ctx context.Context, userID, delta int64) (Totals, error) {
	keys := s.Keys()

	var totals Totals
	err := s.Atomic(ctx, []int64{userID}, func(ctx context.Context, tx Tx) error {
		var err error
		totals, err = tx.Add(ctx, userID, delta, keys)
		return err
	})
	if err != nil {
		return Totals{}, classify("add points", err)
	}

	slog.Debug("Points applied",
		slog.String("type", "db"),
		slog.Int64("user_id", userID),
		slog.Int64("delta", delta),
		slog.Int64("day_total", totals.Day),
	)
	return totals, nil
}

// Spend debits amount after checking the lifetime balance in the same
// transaction.
func (s *Service) Spend(ctx context.Context, userID, amount int64) error {
	if amount <= 0 {
		return errs.Validation("amount", "must be positive")
	}
	keys := s.Keys()

	err := s.Atomic(ctx, []int64{userID}, func(ctx context.Context, tx Tx) error {
		return Debit(ctx, tx, userID, amount, keys)
	})
	return classify("spend", err)
}

// Move transfers amount between two users atomically.
func (s *Service) Move(ctx context.Context, from, to, amount int64) error {
	if from == to {
		return errs.Validation("target", "cannot be yourself")
	}
	if amount <= 0 {
		return errs.Validation("amount", "must be positive")
	}
	keys := s.Keys()

	err := s.Atomic(ctx, []int64{from, to}, func(ctx context.Context, tx Tx) error {
		if err := Debit(ctx, tx, from, amount, keys); err != nil {
			return err
		}
		_, err := tx.Add(ctx, to, amount, keys)
		return err
	})
	return classify("move", err)
}

// classify keeps domain errors as they are and wraps storage failures.
func classify(operation string, err error) error {
	if err == nil || errs.UserFacing(err) {
		return err
	}
	return errs.Persistence(operation, "ledger", err)
}

// Debit checks the balance and subtracts amount. It must run inside Atomic.
func Debit(ctx context.Context, tx Tx, userID, amount int64, keys Keys) error {
	balance, err := tx.Balance(ctx, userID)
	if err != nil {
		return err
	}
	if balance < amount {
		return &errs.InsufficientBalanceError{UserID: userID, Balance: balance, Required: amount}
	}
	_, err = tx.Add(ctx, userID, -amount, keys)
	return err
}

func (s *Service) Top(ctx context.Context, bucket Bucket, n int) ([]Standing, error) {
	return s.TopAt(ctx, bucket, s.Keys().For(bucket), n)
}

// TopAt ranks users in one bucket by points descending, ties by user id.
func (s *Service) TopAt(ctx context.Context, bucket Bucket, key string, n int) ([]Standing, error) {
	if n <= 0 {
		return nil, nil
	}
	top, err := s.store.Top(ctx, bucket, key, n)
	if err != nil {
		return nil, errs.Persistence("top", "ledger", err)
	}
	return top, nil
}

func (s *Service) Stats(ctx context.Context, userID int64) (*Stats, error) {
	stats, err := s.store.Stats(ctx, userID, s.Keys())
	if err != nil {
		if errs.IsNotFound(err) {
			return nil, err
		}
		return nil, errs.Persistence("stats", "ledger", err)
	}
	return stats, nil
}

// Balance is the sum of every day entry of the user.
func (s *Service) Balance(ctx context.Context, userID int64) (int64, error) {
	balance, err := s.store.Balance(ctx, userID)
	if err != nil {
		return 0, errs.Persistence("balance", "ledger", err)
	}
	return balance, nil
}
