package economy_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jkcommunity/jkbot/internal/domain/economy"
	"github.com/jkcommunity/jkbot/internal/domain/errs"
	"github.com/jkcommunity/jkbot/internal/domain/ledger"
	"github.com/jkcommunity/jkbot/internal/domain/ledger/ledgertest"
)

var now = time.Date(2024, 3, 14, 15, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*economy.Service, *ledger.Service, *ledgertest.Store) {
	t.Helper()
	store := ledgertest.NewStore()
	store.Seed(
		ledger.User{ID: 1, Handle: "buyer"},
		ledger.User{ID: 2, Handle: "target"},
	)
	clock := func() time.Time { return now }
	l := ledger.NewService(store, time.UTC).WithClock(clock)
	return economy.NewService(l, store, economy.Config{}).WithClock(clock), l, store
}

func TestTransferConservesPoints(t *testing.T) {
	svc, l, _ := setup(t)
	ctx := context.Background()
	_, err := l.Add(ctx, 1, 120)
	require.NoError(t, err)
	_, err = l.Add(ctx, 2, 30)
	require.NoError(t, err)

	require.NoError(t, svc.Transfer(ctx, 1, 2, 70))

	a, _ := l.Balance(ctx, 1)
	b, _ := l.Balance(ctx, 2)
	assert.EqualValues(t, 50, a)
	assert.EqualValues(t, 100, b)
	assert.EqualValues(t, 150, a+b)

	err = svc.Transfer(ctx, 1, 2, 51)
	assert.True(t, errs.IsInsufficient(err))

	assert.True(t, errs.IsValidation(svc.Transfer(ctx, 1, 2, -5)))
}

func TestMutePurchase(t *testing.T) {
	svc, l, store := setup(t)
	ctx := context.Background()
	_, err := l.Add(ctx, 1, 150)
	require.NoError(t, err)

	mute, err := svc.Mute(ctx, 1, 2, 100)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, mute.Duration)
	assert.Equal(t, now.Add(30*time.Minute), mute.Until)

	balance, _ := l.Balance(ctx, 1)
	assert.EqualValues(t, 50, balance)

	until, ok := store.MuteOf(2)
	require.True(t, ok)
	assert.Equal(t, now.Add(30*time.Minute), until)

	left, err := svc.MutedFor(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, left)

	left, err = svc.MutedFor(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, left)
}

func TestMuteRejections(t *testing.T) {
	svc, l, store := setup(t)
	ctx := context.Background()
	_, err := l.Add(ctx, 1, 150)
	require.NoError(t, err)

	tests := []struct {
		name   string
		target int64
		amount int64
		check  func(error) bool
	}{
		{name: "not a multiple", target: 2, amount: 150, check: errs.IsValidation},
		{name: "below unit", target: 2, amount: 50, check: errs.IsValidation},
		{name: "zero", target: 2, amount: 0, check: errs.IsValidation},
		{name: "self", target: 1, amount: 100, check: errs.IsValidation},
		{name: "insufficient", target: 2, amount: 200, check: errs.IsInsufficient},
		{name: "unknown target", target: 99, amount: 100, check: errs.IsNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Mute(ctx, 1, tt.target, tt.amount)
			assert.True(t, tt.check(err), "unexpected error %v", err)

			balance, _ := l.Balance(ctx, 1)
			assert.EqualValues(t, 150, balance)
			_, muted := store.MuteOf(tt.target)
			assert.False(t, muted)
		})
	}
}

func TestMuteRollsBackOnStorageFailure(t *testing.T) {
	svc, l, store := setup(t)
	ctx := context.Background()
	_, err := l.Add(ctx, 1, 300)
	require.NoError(t, err)

	store.FailAdds(errors.New("write failed"))
	_, err = svc.Mute(ctx, 1, 2, 200)
	assert.True(t, errs.IsPersistence(err))
	store.FailAdds(nil)

	_, muted := store.MuteOf(2)
	assert.False(t, muted)
	balance, _ := l.Balance(ctx, 1)
	assert.EqualValues(t, 300, balance)
}

func TestMuteDuration(t *testing.T) {
	svc, _, _ := setup(t)

	d, err := svc.MuteDuration(300)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, d)
}

func TestWager(t *testing.T) {
	ctx := context.Background()

	t.Run("win adds the stake", func(t *testing.T) {
		svc, l, _ := setup(t)
		_, _ = l.Add(ctx, 1, 100)

		draws := []float64{1.0, 0.19}
		svc.WithDraw(func() float64 {
			d := draws[0]
			draws = draws[1:]
			return d
		})

		res, err := svc.Wager(ctx, 1, 40)
		require.NoError(t, err)
		assert.True(t, res.Won)
		assert.InDelta(t, 0.20, res.Odds, 1e-9)
		assert.EqualValues(t, 140, res.Balance)

		balance, _ := l.Balance(ctx, 1)
		assert.EqualValues(t, 140, balance)
	})

	t.Run("loss subtracts the stake", func(t *testing.T) {
		svc, l, _ := setup(t)
		_, _ = l.Add(ctx, 1, 100)
		svc.WithDraw(func() float64 { return 0.5 })

		res, err := svc.Wager(ctx, 1, 100)
		require.NoError(t, err)
		assert.False(t, res.Won)
		assert.InDelta(t, 0.15, res.Odds, 1e-9)

		balance, _ := l.Balance(ctx, 1)
		assert.EqualValues(t, 0, balance)
	})

	t.Run("odds stay in range", func(t *testing.T) {
		svc, l, _ := setup(t)
		_, _ = l.Add(ctx, 1, 1_000_000)
		for i := 0; i < 200; i++ {
			res, err := svc.Wager(ctx, 1, 1)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, res.Odds, economy.DefaultWagerMinOdds)
			assert.LessOrEqual(t, res.Odds, economy.DefaultWagerMaxOdds)
		}
	})

	t.Run("rejections", func(t *testing.T) {
		svc, l, _ := setup(t)
		_, _ = l.Add(ctx, 1, 10)

		_, err := svc.Wager(ctx, 1, 0)
		assert.True(t, errs.IsValidation(err))

		_, err = svc.Wager(ctx, 1, 11)
		assert.True(t, errs.IsInsufficient(err))
	})
}

func TestSweepMutes(t *testing.T) {
	svc, l, store := setup(t)
	ctx := context.Background()
	_, _ = l.Add(ctx, 1, 100)
	_, err := svc.Mute(ctx, 1, 2, 100)
	require.NoError(t, err)

	n, err := svc.SweepMutes(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	later := now.Add(31 * time.Minute)
	svc.WithClock(func() time.Time { return later })
	n, err = svc.SweepMutes(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, muted := store.MuteOf(2)
	assert.False(t, muted)
}
