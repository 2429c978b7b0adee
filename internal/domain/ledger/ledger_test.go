package ledger_test

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jkcommunity/jkbot/internal/domain/errs"
	"github.com/jkcommunity/jkbot/internal/domain/ledger"
	"github.com/jkcommunity/jkbot/internal/domain/ledger/ledgertest"
)

var fixedNow = time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)

func newService(t *testing.T, users ...int64) (*ledger.Service, *ledgertest.Store) {
	t.Helper()
	store := ledgertest.NewStore()
	for _, id := range users {
		store.Seed(ledger.User{ID: id, Handle: "user" + string(rune('a'+id))})
	}
	svc := ledger.NewService(store, time.UTC).WithClock(func() time.Time { return fixedNow })
	return svc, store
}

func TestAddUpdatesAllBuckets(t *testing.T) {
	svc, store := newService(t, 1)
	ctx := context.Background()

	totals, err := svc.Add(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, ledger.Totals{Day: 10, Week: 10, Month: 10}, totals)

	keys := svc.Keys()
	assert.EqualValues(t, 10, store.Entry(1, ledger.BucketDay, keys.Day))
	assert.EqualValues(t, 10, store.Entry(1, ledger.BucketWeek, keys.Week))
	assert.EqualValues(t, 10, store.Entry(1, ledger.BucketMonth, keys.Month))
}

func TestNegativeDeltasAreNotClamped(t *testing.T) {
	svc, _ := newService(t, 1)
	ctx := context.Background()

	_, err := svc.Add(ctx, 1, 10)
	require.NoError(t, err)
	totals, err := svc.Add(ctx, 1, -30)
	require.NoError(t, err)
	assert.EqualValues(t, -20, totals.Day)

	balance, err := svc.Balance(ctx, 1)
	require.NoError(t, err)
	assert.EqualValues(t, -20, balance)
}

func TestBucketsEqualSumOfDeltasUnderConcurrency(t *testing.T) {
	svc, _ := newService(t, 1)
	ctx := context.Background()

	const workers = 8
	const perWorker = 50

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		want int64
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(seed uint64) {
			defer wg.Done()
			rng := rand.New(rand.NewPCG(seed, 7))
			for i := 0; i < perWorker; i++ {
				delta := rng.Int64N(41) - 20
				_, err := svc.Add(ctx, 1, delta)
				assert.NoError(t, err)
				mu.Lock()
				want += delta
				mu.Unlock()
			}
		}(uint64(w))
	}
	wg.Wait()

	stats, err := svc.Stats(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, want, stats.Today)
	assert.Equal(t, want, stats.Week)
	assert.Equal(t, want, stats.Month)
	assert.Equal(t, want, stats.Lifetime)
}

func TestSpend(t *testing.T) {
	svc, _ := newService(t, 1)
	ctx := context.Background()

	_, err := svc.Add(ctx, 1, 50)
	require.NoError(t, err)

	err = svc.Spend(ctx, 1, 80)
	var insufficient *errs.InsufficientBalanceError
	require.ErrorAs(t, err, &insufficient)
	assert.EqualValues(t, 50, insufficient.Balance)

	balance, _ := svc.Balance(ctx, 1)
	assert.EqualValues(t, 50, balance, "failed spend leaves balance unchanged")

	require.NoError(t, svc.Spend(ctx, 1, 50))
	balance, _ = svc.Balance(ctx, 1)
	assert.EqualValues(t, 0, balance)

	assert.True(t, errs.IsValidation(svc.Spend(ctx, 1, 0)))
}

func TestMove(t *testing.T) {
	ctx := context.Background()

	t.Run("conserves points", func(t *testing.T) {
		svc, _ := newService(t, 1, 2)
		_, err := svc.Add(ctx, 1, 100)
		require.NoError(t, err)

		require.NoError(t, svc.Move(ctx, 1, 2, 40))

		from, _ := svc.Balance(ctx, 1)
		to, _ := svc.Balance(ctx, 2)
		assert.EqualValues(t, 60, from)
		assert.EqualValues(t, 40, to)
		assert.EqualValues(t, 100, from+to)
	})

	t.Run("self transfer rejected", func(t *testing.T) {
		svc, _ := newService(t, 1)
		assert.True(t, errs.IsValidation(svc.Move(ctx, 1, 1, 10)))
	})

	t.Run("unknown target leaves sender untouched", func(t *testing.T) {
		svc, _ := newService(t, 1)
		_, err := svc.Add(ctx, 1, 100)
		require.NoError(t, err)

		assert.True(t, errs.IsNotFound(svc.Move(ctx, 1, 99, 10)))
		balance, _ := svc.Balance(ctx, 1)
		assert.EqualValues(t, 100, balance)
	})

	t.Run("opposite transfers do not deadlock", func(t *testing.T) {
		svc, _ := newService(t, 1, 2)
		_, _ = svc.Add(ctx, 1, 1000)
		_, _ = svc.Add(ctx, 2, 1000)

		var wg sync.WaitGroup
		for i := 0; i < 100; i++ {
			wg.Add(2)
			go func() { defer wg.Done(); _ = svc.Move(ctx, 1, 2, 3) }()
			go func() { defer wg.Done(); _ = svc.Move(ctx, 2, 1, 5) }()
		}
		wg.Wait()

		a, _ := svc.Balance(ctx, 1)
		b, _ := svc.Balance(ctx, 2)
		assert.EqualValues(t, 2000, a+b)
	})
}

func TestStorageFailureRollsBack(t *testing.T) {
	svc, store := newService(t, 1, 2)
	ctx := context.Background()
	_, err := svc.Add(ctx, 1, 100)
	require.NoError(t, err)

	store.FailAdds(errors.New("disk full"))

	err = svc.Move(ctx, 1, 2, 10)
	assert.True(t, errs.IsPersistence(err))

	store.FailAdds(nil)
	a, _ := svc.Balance(ctx, 1)
	b, _ := svc.Balance(ctx, 2)
	assert.EqualValues(t, 100, a)
	assert.EqualValues(t, 0, b)
}

func TestTop(t *testing.T) {
	svc, _ := newService(t, 1, 2, 3, 4)
	ctx := context.Background()

	for id, pts := range map[int64]int64{1: 30, 2: 50, 3: 30, 4: 10} {
		_, err := svc.Add(ctx, id, pts)
		require.NoError(t, err)
	}

	top, err := svc.Top(ctx, ledger.BucketDay, 3)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.EqualValues(t, 2, top[0].UserID)
	assert.EqualValues(t, 1, top[1].UserID, "ties ordered by user id")
	assert.EqualValues(t, 3, top[2].UserID)

	none, err := svc.Top(ctx, ledger.BucketWeek, 0)
	require.NoError(t, err)
	assert.Empty(t, none)

	empty, err := svc.TopAt(ctx, ledger.BucketMonth, "1999-01-01", 10)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
