package economy

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/jkcommunity/jkbot/internal/domain/errs"
	"github.com/jkcommunity/jkbot/internal/domain/ledger"
)

const (
	DefaultMuteUnit           int64 = 100
	DefaultMuteMinutesPerUnit       = 30
	DefaultWagerMinOdds             = 0.10
	DefaultWagerMaxOdds             = 0.20
)

type Config struct {
	MuteUnit           int64
	MuteMinutesPerUnit int
	WagerMinOdds       float64
	WagerMaxOdds       float64
}

// MuteStore reads mute state. Mutes are written inside ledger transactions.
type MuteStore interface {
	MuteExpiry(ctx context.Context, userID int64) (time.Time, bool, error)
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

type Mute struct {
	Target   int64
	Until    time.Time
	Duration time.Duration
	Cost     int64
}

type WagerResult struct {
	Won     bool
	Odds    float64
	Stake   int64
	Balance int64
}

type Service struct {
	ledger *ledger.Service
	mutes  MuteStore
	cfg    Config
	draw   func() float64
	now    func() time.Time
}

func NewService(l *ledger.Service, mutes MuteStore, cfg Config) *Service {
	if cfg.MuteUnit <= 0 {
		cfg.MuteUnit = DefaultMuteUnit
	}
	if cfg.MuteMinutesPerUnit <= 0 {
		cfg.MuteMinutesPerUnit = DefaultMuteMinutesPerUnit
	}
	if cfg.WagerMaxOdds <= 0 {
		cfg.WagerMinOdds, cfg.WagerMaxOdds = DefaultWagerMinOdds, DefaultWagerMaxOdds
	}
	return &Service{
		ledger: l,
		mutes:  mutes,
		cfg:    cfg,
		draw:   rand.Float64,
		now:    time.Now,
	}
}

// WithDraw replaces the uniform [0,1) source used by Wager.
func (s *Service) WithDraw(draw func() float64) *Service {
	s.draw = draw
	return s
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) Config() Config {
	return s.cfg
}

// Transfer moves points from one user to another.
func (s *Service) Transfer(ctx context.Context, from, to, amount int64) error {
	if err := s.ledger.Move(ctx, from, to, amount); err != nil {
		return err
	}

	slog.Info("Points transferred",
		slog.String("type", "sys"),
		slog.String("operation", "transfer"),
		slog.Int64("from", from),
		slog.Int64("to", to),
		slog.Int64("amount", amount),
	)
	return nil
}

// MuteDuration converts an amount to a silence duration.
func (s *Service) MuteDuration(amount int64) (time.Duration, error) {
	if amount < s.cfg.MuteUnit || amount%s.cfg.MuteUnit != 0 {
		return 0, errs.Validation("amount", fmt.Sprintf("must be a positive multiple of %d", s.cfg.MuteUnit))
	}
	units := amount / s.cfg.MuteUnit
	return time.Duration(units*int64(s.cfg.MuteMinutesPerUnit)) * time.Minute, nil
}

// Mute debits the buyer and silences the target in one transaction. A new
// mute replaces any existing one.
func (s *Service) Mute(ctx context.Context, buyer, target, amount int64) (*Mute, error) {
	if buyer == target {
		return nil, errs.Validation("target", "cannot be yourself")
	}
	duration, err := s.MuteDuration(amount)
	if err != nil {
		return nil, err
	}

	now := s.now()
	until := now.Add(duration)
	keys := ledger.KeysAt(now, s.ledger.Location())

	err = s.ledger.Atomic(ctx, []int64{buyer, target}, func(ctx context.Context, tx ledger.Tx) error {
		if err := ledger.Debit(ctx, tx, buyer, amount, keys); err != nil {
			return err
		}
		return tx.SetMute(ctx, target, until)
	})
	if err != nil {
		return nil, wrap("mute", err)
	}

	slog.Info("Mute purchased",
		slog.String("type", "sys"),
		slog.String("operation", "mute"),
		slog.Int64("buyer", buyer),
		slog.Int64("target", target),
		slog.Int64("amount", amount),
		slog.Duration("duration", duration),
	)
	return &Mute{Target: target, Until: until, Duration: duration, Cost: amount}, nil
}

// Wager stakes amount. The win probability is drawn from the configured
// range for every play, then the outcome is drawn against it.
func (s *Service) Wager(ctx context.Context, player, amount int64) (*WagerResult, error) {
	if amount <= 0 {
		return nil, errs.Validation("amount", "must be positive")
	}

	keys := ledger.KeysAt(s.now(), s.ledger.Location())
	result := &WagerResult{Stake: amount}

	err := s.ledger.Atomic(ctx, []int64{player}, func(ctx context.Context, tx ledger.Tx) error {
		balance, err := tx.Balance(ctx, player)
		if err != nil {
			return err
		}
		if balance < amount {
			return &errs.InsufficientBalanceError{UserID: player, Balance: balance, Required: amount}
		}

		result.Odds = s.cfg.WagerMinOdds + s.draw()*(s.cfg.WagerMaxOdds-s.cfg.WagerMinOdds)
		result.Won = s.draw() < result.Odds

		delta := -amount
		if result.Won {
			delta = amount
		}
		if _, err := tx.Add(ctx, player, delta, keys); err != nil {
			return err
		}
		result.Balance = balance + delta
		return nil
	})
	if err != nil {
		return nil, wrap("wager", err)
	}

	slog.Info("Wager played",
		slog.String("type", "sys"),
		slog.String("operation", "wager"),
		slog.Int64("player", player),
		slog.Int64("stake", amount),
		slog.Bool("won", result.Won),
		slog.Float64("odds", result.Odds),
	)
	return result, nil
}

// MutedFor returns how long the user stays silenced, or zero.
func (s *Service) MutedFor(ctx context.Context, userID int64) (time.Duration, error) {
	until, ok, err := s.mutes.MuteExpiry(ctx, userID)
	if err != nil {
		return 0, errs.Persistence("mute lookup", "mute", err)
	}
	if !ok {
		return 0, nil
	}
	if left := until.Sub(s.now()); left > 0 {
		return left, nil
	}
	return 0, nil
}

// SweepMutes deletes expired mute records.
func (s *Service) SweepMutes(ctx context.Context) (int, error) {
	n, err := s.mutes.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, errs.Persistence("sweep", "mute", err)
	}
	return n, nil
}

func wrap(operation string, err error) error {
	if errs.UserFacing(err) {
		return err
	}
	return errs.Persistence(operation, "ledger", err)
}
