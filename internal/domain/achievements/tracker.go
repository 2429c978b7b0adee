package achievements

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/jkcommunity/jkbot/internal/domain/errs"
	"github.com/jkcommunity/jkbot/internal/domain/ledger"
)

const DefaultBoostDuration = 30 * time.Minute

type Config struct {
	Thresholds    []int64
	BoostDuration time.Duration
	// ResetHour and ResetMinute mark where one achievement day ends.
	ResetHour   int
	ResetMinute int
	Location    *time.Location
	Templates   Templates
}

// Event is emitted for the chat-wide first achiever of a threshold.
type Event struct {
	ID         uuid.UUID
	UserID     int64
	Handle     string
	Threshold  int64
	Text       string
	Epoch      string
	BoostUntil time.Time
	At         time.Time
}

type Tracker struct {
	store      Store
	cfg        Config
	thresholds []int64
	now        func() time.Time
	pick       func(n int) int
}

func NewTracker(store Store, cfg Config) *Tracker {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.BoostDuration <= 0 {
		cfg.BoostDuration = DefaultBoostDuration
	}
	if cfg.Templates == nil {
		cfg.Templates = DefaultTemplates
	}
	if len(cfg.Thresholds) == 0 {
		cfg.Thresholds = DefaultThresholds
	}

	thresholds := slices.Clone(cfg.Thresholds)
	if !slices.Contains(thresholds, TopThreshold) {
		thresholds = append(thresholds, TopThreshold)
	}
	slices.Sort(thresholds)

	return &Tracker{
		store:      store,
		cfg:        cfg,
		thresholds: slices.Compact(thresholds),
		now:        time.Now,
		pick:       rand.IntN,
	}
}

// WithClock replaces the time source.
func (t *Tracker) WithClock(now func() time.Time) *Tracker {
	t.now = now
	return t
}

// WithPicker replaces the template variant chooser.
func (t *Tracker) WithPicker(pick func(n int) int) *Tracker {
	t.pick = pick
	return t
}

func (t *Tracker) Thresholds() []int64 {
	return slices.Clone(t.thresholds)
}

// Epoch names the achievement day containing now: the local date of now
// shifted back by the reset time.
func (t *Tracker) Epoch(now time.Time) string {
	shift := time.Duration(t.cfg.ResetHour)*time.Hour + time.Duration(t.cfg.ResetMinute)*time.Minute
	return now.In(t.cfg.Location).Add(-shift).Format(ledger.KeyLayout)
}

// Check marks at most one newly crossed threshold for the user. If nobody
// reached it before in this epoch the user is announced and boosted.
func (t *Tracker) Check(ctx context.Context, user ledger.User, dailyTotal int64) (*Event, error) {
	now := t.now()
	epoch := t.Epoch(now)

	for _, threshold := range t.thresholds {
		if dailyTotal < threshold {
			return nil, nil
		}

		until := now.Add(t.cfg.BoostDuration)
		fresh, claimed, err := t.store.Achieve(ctx, user.ID, threshold, epoch, until)
		if err != nil {
			return nil, errs.Persistence("achieve", "achievement", err)
		}
		if !fresh {
			continue
		}
		if !claimed {
			return nil, nil
		}

		name := user.Handle
		if name == "" {
			name = user.DisplayName
		}
		event := &Event{
			ID:         uuid.New(),
			UserID:     user.ID,
			Handle:     user.Handle,
			Threshold:  threshold,
			Text:       t.cfg.Templates.Render(threshold, name, t.pick),
			Epoch:      epoch,
			BoostUntil: until,
			At:         now,
		}

		slog.Info("Threshold reached first",
			slog.String("type", "sys"),
			slog.String("event_id", event.ID.String()),
			slog.Int64("user_id", user.ID),
			slog.Int64("threshold", threshold),
			slog.String("epoch", epoch),
		)
		return event, nil
	}
	return nil, nil
}

// BoostActive reports whether the user holds an unexpired boost granted in
// the current epoch.
func (t *Tracker) BoostActive(ctx context.Context, userID int64, now time.Time) (bool, error) {
	until, ok, err := t.store.BoostExpiry(ctx, userID, t.Epoch(now))
	if err != nil {
		return false, errs.Persistence("boost expiry", "boost", err)
	}
	return ok && now.Before(until), nil
}

// Reset removes every notice, broadcast and boost from earlier epochs.
func (t *Tracker) Reset(ctx context.Context) error {
	epoch := t.Epoch(t.now())
	if err := t.store.Reset(ctx, epoch); err != nil {
		return errs.Persistence("reset", "achievement", err)
	}

	slog.Info("Daily achievement state reset",
		slog.String("type", "sys"),
		slog.String("epoch", epoch),
	)
	return nil
}
