package activity

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jkcommunity/jkbot/internal/domain/achievements"
	"github.com/jkcommunity/jkbot/internal/domain/errs"
	"github.com/jkcommunity/jkbot/internal/domain/gate"
	"github.com/jkcommunity/jkbot/internal/domain/ledger"
	"github.com/jkcommunity/jkbot/internal/domain/scoring"
)

const (
	DefaultPointsPerMessage int64 = 10
	mutedNoticeInterval           = time.Minute
)

// Message is one inbound chat message.
type Message struct {
	UserID      int64
	Handle      string
	DisplayName string
	Text        string
	At          time.Time
}

type Outcome struct {
	Awarded    bool
	Points     int64
	DailyTotal int64
	Verdict    scoring.Verdict
	Decision   gate.Decision
	Event      *achievements.Event
	Muted      bool
	MutedFor   time.Duration
	// NotifyMuted is set at most once a minute per muted user.
	NotifyMuted bool
}

type MuteChecker interface {
	MutedFor(ctx context.Context, userID int64) (time.Duration, error)
}

type Pipeline struct {
	Directory *ledger.Directory
	Mutes     MuteChecker
	Scorer    scoring.Scorer
	Gate      *gate.Gate
	Ledger    *ledger.Service
	Tracker   *achievements.Tracker
	Points    int64

	notices sync.Map // map[int64]time.Time
}

// Handle runs one message through mute check, scoring, the reward gate, the
// ledger and the achievement tracker, in that order. Messages that earn
// nothing return an *errs.ScoringSkip together with the outcome.
func (p *Pipeline) Handle(ctx context.Context, msg Message) (*Outcome, error) {
	if msg.At.IsZero() {
		msg.At = time.Now()
	}
	out := &Outcome{}

	left, err := p.Mutes.MutedFor(ctx, msg.UserID)
	if err != nil {
		return nil, err
	}
	if left > 0 {
		out.Muted = true
		out.MutedFor = left
		out.NotifyMuted = p.shouldNotify(msg.UserID, msg.At)
		return out, &errs.ScoringSkip{Reason: "muted"}
	}

	user, err := p.Directory.Touch(ctx, ledger.User{
		ID:          msg.UserID,
		Handle:      msg.Handle,
		DisplayName: msg.DisplayName,
	})
	if err != nil {
		return nil, err
	}

	out.Verdict = p.Scorer.Score(msg.Text)
	if !out.Verdict.Meaningful {
		return out, &errs.ScoringSkip{Reason: out.Verdict.Reason}
	}

	boosted, err := p.Tracker.BoostActive(ctx, user.ID, msg.At)
	if err != nil {
		slog.Warn("Boost lookup failed, using base probability",
			slog.String("type", "sys"),
			slog.Int64("user_id", user.ID),
			slog.Any("error", err),
		)
	}

	out.Decision = p.Gate.Roll(msg.At, boosted)
	if !out.Decision.Awarded {
		return out, &errs.ScoringSkip{Reason: "not drawn"}
	}

	points := p.Points
	if points <= 0 {
		points = DefaultPointsPerMessage
	}
	totals, err := p.Ledger.Add(ctx, user.ID, points)
	if err != nil {
		return nil, err
	}
	out.Awarded = true
	out.Points = points
	out.DailyTotal = totals.Day

	event, err := p.Tracker.Check(ctx, *user, totals.Day)
	if err != nil {
		slog.Error("Achievement check failed",
			slog.String("type", "sys"),
			slog.Int64("user_id", user.ID),
			slog.Any("error", err),
		)
	}
	out.Event = event

	slog.Debug("Message awarded",
		slog.String("type", "sys"),
		slog.Int64("user_id", user.ID),
		slog.Int64("points", points),
		slog.Int64("day_total", totals.Day),
		slog.Bool("boosted", boosted),
		slog.Float64("probability", out.Decision.Probability),
	)
	return out, nil
}

func (p *Pipeline) shouldNotify(userID int64, now time.Time) bool {
	for {
		prev, loaded := p.notices.LoadOrStore(userID, now)
		if !loaded {
			return true
		}
		last := prev.(time.Time)
		if now.Sub(last) < mutedNoticeInterval {
			return false
		}
		if p.notices.CompareAndSwap(userID, last, now) {
			return true
		}
	}
}

// ForgetNotices drops muted-notice timestamps older than the notice interval.
func (p *Pipeline) ForgetNotices(now time.Time) {
	p.notices.Range(func(key, value any) bool {
		if now.Sub(value.(time.Time)) >= mutedNoticeInterval {
			p.notices.CompareAndDelete(key, value)
		}
		return true
	})
}
