package achievements_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/jkcommunity/jkbot/internal/domain/achievements"
	"github.com/jkcommunity/jkbot/internal/domain/achievements/mock"
	"github.com/jkcommunity/jkbot/internal/domain/errs"
	"github.com/jkcommunity/jkbot/internal/domain/ledger"
)

func newTracker(store achievements.Store, now *time.Time) *achievements.Tracker {
	return achievements.NewTracker(store, achievements.Config{}).
		WithClock(func() time.Time { return *now }).
		WithPicker(func(int) int { return 0 })
}

func TestFirstAchieverIsAnnouncedAndBoosted(t *testing.T) {
	now := time.Date(2024, 3, 14, 15, 0, 0, 0, time.UTC)
	tracker := newTracker(achievements.NewMemoryStore(), &now)
	ctx := context.Background()
	alice := ledger.User{ID: 1, Handle: "alice"}

	event, err := tracker.Check(ctx, alice, 200)
	require.NoError(t, err)
	require.NotNil(t, event)
	assert.EqualValues(t, 200, event.Threshold)
	assert.Equal(t, "🎉 Отличное начало, alice! Ты набрал 200 очков!", event.Text)
	assert.Equal(t, now.Add(30*time.Minute), event.BoostUntil)

	boosted, err := tracker.BoostActive(ctx, 1, now.Add(29*time.Minute))
	require.NoError(t, err)
	assert.True(t, boosted)

	boosted, err = tracker.BoostActive(ctx, 1, now.Add(30*time.Minute))
	require.NoError(t, err)
	assert.False(t, boosted, "boost expires by timestamp")

	again, err := tracker.Check(ctx, alice, 210)
	require.NoError(t, err)
	assert.Nil(t, again, "threshold fires once per user per day")
}

func TestOnlyOneBroadcastUnderConcurrency(t *testing.T) {
	now := time.Date(2024, 3, 14, 15, 0, 0, 0, time.UTC)
	tracker := newTracker(achievements.NewMemoryStore(), &now)
	ctx := context.Background()

	var (
		wg     sync.WaitGroup
		events atomic.Int32
	)
	for id := int64(1); id <= 64; id++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			event, err := tracker.Check(ctx, ledger.User{ID: id, Handle: "u"}, 200)
			assert.NoError(t, err)
			if event != nil {
				events.Add(1)
			}
		}(id)
	}
	wg.Wait()

	assert.EqualValues(t, 1, events.Load())
}

func TestOneThresholdPerCheck(t *testing.T) {
	now := time.Date(2024, 3, 14, 15, 0, 0, 0, time.UTC)
	tracker := newTracker(achievements.NewMemoryStore(), &now)
	ctx := context.Background()
	bob := ledger.User{ID: 2, DisplayName: "Bob"}

	first, err := tracker.Check(ctx, bob, 650)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.EqualValues(t, 200, first.Threshold)
	assert.Contains(t, first.Text, "Bob")

	second, err := tracker.Check(ctx, bob, 650)
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.EqualValues(t, 500, second.Threshold)

	third, err := tracker.Check(ctx, bob, 650)
	require.NoError(t, err)
	assert.Nil(t, third)
}

func TestLaterAchieverIsNotAnnounced(t *testing.T) {
	now := time.Date(2024, 3, 14, 15, 0, 0, 0, time.UTC)
	tracker := newTracker(achievements.NewMemoryStore(), &now)
	ctx := context.Background()

	_, err := tracker.Check(ctx, ledger.User{ID: 1, Handle: "alice"}, 200)
	require.NoError(t, err)

	event, err := tracker.Check(ctx, ledger.User{ID: 2, Handle: "bob"}, 200)
	require.NoError(t, err)
	assert.Nil(t, event)

	boosted, err := tracker.BoostActive(ctx, 2, now)
	require.NoError(t, err)
	assert.False(t, boosted)
}

func TestImplicitTopThresholdUsesFallbackText(t *testing.T) {
	now := time.Date(2024, 3, 14, 15, 0, 0, 0, time.UTC)
	tracker := achievements.NewTracker(achievements.NewMemoryStore(), achievements.Config{Thresholds: []int64{5000}}).
		WithClock(func() time.Time { return now })

	assert.Equal(t, []int64{5000, 10000}, tracker.Thresholds())

	ctx := context.Background()
	carol := ledger.User{ID: 3, Handle: "carol"}
	_, err := tracker.Check(ctx, carol, 10000)
	require.NoError(t, err)

	event, err := tracker.Check(ctx, carol, 10000)
	require.NoError(t, err)
	require.NotNil(t, event)
	assert.Equal(t, "🎉 @carol первый достиг 10000 очков за сегодня! Поздравляем!", event.Text)
}

func TestEpochFollowsResetTime(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Moscow")
	require.NoError(t, err)

	midnight := achievements.NewTracker(nil, achievements.Config{Location: loc})
	assert.Equal(t, "2024-03-14", midnight.Epoch(time.Date(2024, 3, 14, 23, 59, 0, 0, loc)))
	assert.Equal(t, "2024-03-15", midnight.Epoch(time.Date(2024, 3, 15, 0, 0, 0, 0, loc)))

	late := achievements.NewTracker(nil, achievements.Config{Location: loc, ResetHour: 3})
	assert.Equal(t, "2024-03-14", late.Epoch(time.Date(2024, 3, 15, 1, 0, 0, 0, loc)))
}

func TestResetStartsANewDay(t *testing.T) {
	now := time.Date(2024, 3, 14, 23, 50, 0, 0, time.UTC)
	store := achievements.NewMemoryStore()
	tracker := newTracker(store, &now)
	ctx := context.Background()
	alice := ledger.User{ID: 1, Handle: "alice"}

	event, err := tracker.Check(ctx, alice, 200)
	require.NoError(t, err)
	require.NotNil(t, event)

	now = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	boosted, err := tracker.BoostActive(ctx, 1, now)
	require.NoError(t, err)
	assert.False(t, boosted, "boost from the previous epoch is inert")

	require.NoError(t, tracker.Reset(ctx))

	_, ok, err := store.BoostExpiry(ctx, 1, "2024-03-14")
	require.NoError(t, err)
	assert.False(t, ok)

	event, err = tracker.Check(ctx, alice, 200)
	require.NoError(t, err)
	assert.NotNil(t, event, "thresholds can be broadcast again after the boundary")
}

func TestStoreFailuresArePersistenceErrors(t *testing.T) {
	now := time.Date(2024, 3, 14, 15, 0, 0, 0, time.UTC)
	store := mock.NewMockStore(gomock.NewController(t))
	store.EXPECT().
		Achieve(gomock.Any(), int64(1), int64(200), "2024-03-14", now.Add(30*time.Minute)).
		Return(false, false, errors.New("connection reset"))

	tracker := newTracker(store, &now)
	event, err := tracker.Check(context.Background(), ledger.User{ID: 1}, 250)
	assert.Nil(t, event)
	assert.True(t, errs.IsPersistence(err))
}

// failingStore fails the first Achieve call without writing anything, the way
// a rolled back transaction leaves the store.
type failingStore struct {
	*achievements.MemoryStore
	failures int
}

func (s *failingStore) Achieve(ctx context.Context, userID, threshold int64, epoch string, until time.Time) (bool, bool, error) {
	if s.failures > 0 {
		s.failures--
		return false, false, errors.New("boost write failed")
	}
	return s.MemoryStore.Achieve(ctx, userID, threshold, epoch, until)
}

func TestFailedAchievementCanBeRetried(t *testing.T) {
	now := time.Date(2024, 3, 14, 15, 0, 0, 0, time.UTC)
	store := &failingStore{MemoryStore: achievements.NewMemoryStore(), failures: 1}
	tracker := newTracker(store, &now)
	ctx := context.Background()
	alice := ledger.User{ID: 1, Handle: "alice"}

	event, err := tracker.Check(ctx, alice, 200)
	require.Error(t, err)
	assert.Nil(t, event)

	boosted, err := tracker.BoostActive(ctx, 1, now)
	require.NoError(t, err)
	assert.False(t, boosted)

	event, err = tracker.Check(ctx, alice, 210)
	require.NoError(t, err)
	require.NotNil(t, event, "threshold is still available after a failed write")
	assert.EqualValues(t, 200, event.Threshold)

	boosted, err = tracker.BoostActive(ctx, 1, now)
	require.NoError(t, err)
	assert.True(t, boosted)
}

func TestRetryAfterMockedFailureStillAnnounces(t *testing.T) {
	now := time.Date(2024, 3, 14, 15, 0, 0, 0, time.UTC)
	until := now.Add(30 * time.Minute)
	store := mock.NewMockStore(gomock.NewController(t))
	gomock.InOrder(
		store.EXPECT().Achieve(gomock.Any(), int64(1), int64(200), "2024-03-14", until).
			Return(false, false, errors.New("boost write failed")),
		store.EXPECT().Achieve(gomock.Any(), int64(1), int64(200), "2024-03-14", until).
			Return(true, true, nil),
	)

	tracker := newTracker(store, &now)
	ctx := context.Background()
	alice := ledger.User{ID: 1, Handle: "alice"}

	_, err := tracker.Check(ctx, alice, 200)
	require.True(t, errs.IsPersistence(err))

	event, err := tracker.Check(ctx, alice, 200)
	require.NoError(t, err)
	require.NotNil(t, event)
	assert.Equal(t, until, event.BoostUntil)
}
