package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/jkcommunity/jkbot/internal/domain/achievements"
	"github.com/jkcommunity/jkbot/internal/domain/activity"
	"github.com/jkcommunity/jkbot/internal/domain/economy"
	"github.com/jkcommunity/jkbot/internal/domain/ledger"
	"github.com/jkcommunity/jkbot/internal/domain/ledger/ledgertest"
	"github.com/jkcommunity/jkbot/internal/domain/winners"
	"github.com/jkcommunity/jkbot/internal/domain/winners/mock"
)

var (
	february = time.Date(2024, 2, 20, 12, 0, 0, 0, time.UTC)
	march    = time.Date(2024, 3, 1, 1, 0, 0, 0, time.UTC)
)

type recordingBroadcaster struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (r *recordingBroadcaster) Broadcast(_ context.Context, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.messages = append(r.messages, text)
	return nil
}

type recordingPutter struct {
	input *s3.PutObjectInput
	body  []byte
}

func (p *recordingPutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	p.input = in
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	p.body = body
	return &s3.PutObjectOutput{}, nil
}

type fixture struct {
	jobs  *Jobs
	store *ledgertest.Store
	l     *ledger.Service
	econ  *economy.Service
	out   *recordingBroadcaster
	repo  *mock.MockRepository
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()
	clock := func() time.Time { return now }

	store := ledgertest.NewStore()
	l := ledger.NewService(store, time.UTC).WithClock(clock)
	econ := economy.NewService(l, store, economy.Config{}).WithClock(clock)
	tracker := achievements.NewTracker(achievements.NewMemoryStore(), achievements.Config{}).WithClock(clock)
	repo := mock.NewMockRepository(gomock.NewController(t))
	archiver := winners.NewArchiver(l, repo).WithClock(clock)
	out := &recordingBroadcaster{}

	jobs := NewJobs(l, tracker, econ, &activity.Pipeline{}, archiver, out, JobsConfig{
		TopN:             3,
		BoostStartHour:   20,
		BoostEndHour:     23,
		BaseProbability:  0.20,
		BoostProbability: 0.325,
	}).WithClock(clock)

	return &fixture{jobs: jobs, store: store, l: l, econ: econ, out: out, repo: repo}
}

func TestDailyReportBroadcastsTopUsers(t *testing.T) {
	f := newFixture(t, february)
	ctx := context.Background()
	f.store.Seed(ledger.User{ID: 1, Handle: "alice"}, ledger.User{ID: 2, Handle: "bob"})
	_, err := f.l.Add(ctx, 1, 30)
	require.NoError(t, err)
	_, err = f.l.Add(ctx, 2, 50)
	require.NoError(t, err)

	require.NoError(t, f.jobs.DailyReport(ctx))
	require.Len(t, f.out.messages, 1)
	assert.Contains(t, f.out.messages[0], "🥇 1. @bob - 50 очков")
	assert.Contains(t, f.out.messages[0], "🥈 2. @alice - 30 очков")
}

func TestDailyReportOnEmptyDay(t *testing.T) {
	f := newFixture(t, february)
	require.NoError(t, f.jobs.DailyReport(context.Background()))
	require.Len(t, f.out.messages, 1)
	assert.Contains(t, f.out.messages[0], "Будь первым!")
}

func TestBoostAnnouncement(t *testing.T) {
	f := newFixture(t, february)
	require.NoError(t, f.jobs.BoostAnnouncement(context.Background()))
	assert.Contains(t, f.out.messages[0], "БУСТ АКТИВНОСТИ")
}

func TestBroadcastFailureIsReturned(t *testing.T) {
	f := newFixture(t, february)
	f.out.err = errors.New("gateway down")
	assert.Error(t, f.jobs.BoostAnnouncement(context.Background()))
}

func TestSweepMutes(t *testing.T) {
	f := newFixture(t, february)
	ctx := context.Background()
	f.store.Seed(ledger.User{ID: 1, Handle: "buyer"}, ledger.User{ID: 2, Handle: "target"})
	_, err := f.l.Add(ctx, 1, 100)
	require.NoError(t, err)
	_, err = f.econ.Mute(ctx, 1, 2, 100)
	require.NoError(t, err)

	require.NoError(t, f.jobs.SweepMutes(ctx))
	_, ok := f.store.MuteOf(2)
	assert.True(t, ok, "active mutes survive the sweep")

	f.jobs.WithClock(func() time.Time { return february.Add(time.Hour) })
	f.econ.WithClock(func() time.Time { return february.Add(time.Hour) })
	require.NoError(t, f.jobs.SweepMutes(ctx))
	_, ok = f.store.MuteOf(2)
	assert.False(t, ok)
}

func seedFebruary(t *testing.T, f *fixture) {
	t.Helper()
	f.store.Seed(ledger.User{ID: 1, Handle: "alice"}, ledger.User{ID: 2, Handle: "bob"})
	feb := ledger.NewService(f.store, time.UTC).WithClock(func() time.Time { return february })
	_, err := feb.Add(context.Background(), 1, 300)
	require.NoError(t, err)
	_, err = feb.Add(context.Background(), 2, 450)
	require.NoError(t, err)
}

func TestMonthlyCheckAnnouncesAndExportsOnce(t *testing.T) {
	f := newFixture(t, march)
	seedFebruary(t, f)
	putter := &recordingPutter{}
	f.jobs.WithExporter(NewArchiveExporter(putter, "exports", "leaderboards"))

	gomock.InOrder(
		f.repo.EXPECT().Record(gomock.Any(), gomock.Any()).Return(true, nil),
		f.repo.EXPECT().Record(gomock.Any(), gomock.Any()).Return(false, nil),
	)

	ctx := context.Background()
	require.NoError(t, f.jobs.MonthlyCheck(ctx))
	require.NoError(t, f.jobs.MonthlyCheck(ctx))

	require.Len(t, f.out.messages, 1, "announced once")
	assert.Contains(t, f.out.messages[0], "Поздравляем @bob")

	require.NotNil(t, putter.input)
	assert.Equal(t, "exports", aws.ToString(putter.input.Bucket))
	assert.Equal(t, "leaderboards/2024-02.json", aws.ToString(putter.input.Key))

	var doc LeaderboardExport
	require.NoError(t, json.Unmarshal(putter.body, &doc))
	assert.Equal(t, "2024-02-01", doc.MonthStart)
	require.NotNil(t, doc.Winner)
	assert.EqualValues(t, 2, doc.Winner.UserID)
	require.Len(t, doc.Standings, 2)
	assert.Equal(t, ExportedStanding{Rank: 2, UserID: 1, Handle: "alice", Points: 300}, doc.Standings[1])
}

func TestMonthlyCheckWithoutWinner(t *testing.T) {
	f := newFixture(t, march)
	require.NoError(t, f.jobs.MonthlyCheck(context.Background()))
	assert.Empty(t, f.out.messages)
}

func TestExportKey(t *testing.T) {
	assert.Equal(t, "2024-02.json", NewArchiveExporter(nil, "b", "").Key("2024-02-01"))
	assert.Equal(t, "x/2024-12.json", NewArchiveExporter(nil, "b", "x/").Key("2024-12-01"))
}

type fakeSender struct {
	channel snowflake.ID
	msg     discord.MessageCreate
	err     error
}

func (s *fakeSender) CreateMessage(channelID snowflake.ID, m discord.MessageCreate, _ ...rest.RequestOpt) (*discord.Message, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.channel = channelID
	s.msg = m
	return &discord.Message{ID: 99, ChannelID: channelID, Content: m.Content}, nil
}

func TestChatBroadcaster(t *testing.T) {
	sender := &fakeSender{}
	b := NewChatBroadcaster(sender, 1234)

	require.NoError(t, b.Broadcast(context.Background(), "hello"))
	assert.EqualValues(t, 1234, sender.channel)
	assert.Equal(t, "hello", sender.msg.Content)
	require.NotNil(t, sender.msg.AllowedMentions)

	assert.Error(t, NewChatBroadcaster(sender, 0).Broadcast(context.Background(), "x"))

	sender.err = errors.New("rate limited")
	assert.ErrorContains(t, b.Broadcast(context.Background(), "x"), "rate limited")
}
