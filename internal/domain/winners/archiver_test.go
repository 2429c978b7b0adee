package winners_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/jkcommunity/jkbot/internal/domain/errs"
	"github.com/jkcommunity/jkbot/internal/domain/ledger"
	"github.com/jkcommunity/jkbot/internal/domain/ledger/ledgertest"
	"github.com/jkcommunity/jkbot/internal/domain/winners"
	"github.com/jkcommunity/jkbot/internal/domain/winners/mock"
)

var (
	february = time.Date(2024, 2, 20, 12, 0, 0, 0, time.UTC)
	march    = time.Date(2024, 3, 1, 1, 0, 0, 0, time.UTC)
)

func februaryLedger(t *testing.T) *ledger.Service {
	t.Helper()
	store := ledgertest.NewStore()
	store.Seed(ledger.User{ID: 1, Handle: "alice"}, ledger.User{ID: 2, Handle: "bob"})

	l := ledger.NewService(store, time.UTC).WithClock(func() time.Time { return february })
	ctx := context.Background()
	_, err := l.Add(ctx, 1, 300)
	require.NoError(t, err)
	_, err = l.Add(ctx, 2, 450)
	require.NoError(t, err)
	return l
}

func TestRunIsIdempotent(t *testing.T) {
	l := februaryLedger(t)
	repo := mock.NewMockRepository(gomock.NewController(t))

	expected := &winners.Winner{UserID: 2, Handle: "bob", Points: 450, MonthStart: "2024-02-01", RecordedAt: march}
	gomock.InOrder(
		repo.EXPECT().Record(gomock.Any(), expected).Return(true, nil),
		repo.EXPECT().Record(gomock.Any(), expected).Return(false, nil),
	)

	archiver := winners.NewArchiver(l, repo).WithClock(func() time.Time { return march })
	ctx := context.Background()

	w, created, err := archiver.Run(ctx)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, expected, w)

	_, created, err = archiver.Run(ctx)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestRunWithEmptyMonth(t *testing.T) {
	store := ledgertest.NewStore()
	l := ledger.NewService(store, time.UTC)
	repo := mock.NewMockRepository(gomock.NewController(t))

	archiver := winners.NewArchiver(l, repo).WithClock(func() time.Time { return march })
	w, created, err := archiver.Run(context.Background())
	require.NoError(t, err)
	assert.Nil(t, w)
	assert.False(t, created)
}

func TestRunReportsStorageFailure(t *testing.T) {
	l := februaryLedger(t)
	repo := mock.NewMockRepository(gomock.NewController(t))
	repo.EXPECT().Record(gomock.Any(), gomock.Any()).Return(false, errors.New("timeout"))

	archiver := winners.NewArchiver(l, repo).WithClock(func() time.Time { return march })
	_, _, err := archiver.Run(context.Background())
	assert.True(t, errs.IsPersistence(err))
}

func TestHistory(t *testing.T) {
	repo := mock.NewMockRepository(gomock.NewController(t))
	repo.EXPECT().History(gomock.Any(), 10).Return([]winners.Winner{{UserID: 2, MonthStart: "2024-02-01"}}, nil)

	archiver := winners.NewArchiver(ledger.NewService(ledgertest.NewStore(), time.UTC), repo)
	history, err := archiver.History(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "2024-02-01", history[0].MonthStart)
}
