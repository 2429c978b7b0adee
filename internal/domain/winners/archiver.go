package winners

import (
	"context"
	"log/slog"
	"time"

	"github.com/jkcommunity/jkbot/internal/domain/errs"
	"github.com/jkcommunity/jkbot/internal/domain/ledger"
)

type Winner struct {
	UserID     int64
	Handle     string
	Points     int64
	MonthStart string
	RecordedAt time.Time
}

type Repository interface {
	// Record stores the winner unless the month is already archived.
	Record(ctx context.Context, w *Winner) (created bool, err error)
	History(ctx context.Context, limit int) ([]Winner, error)
}

// Archiver records the previous month's top user exactly once.
type Archiver struct {
	ledger *ledger.Service
	repo   Repository
	now    func() time.Time
}

func NewArchiver(l *ledger.Service, repo Repository) *Archiver {
	return &Archiver{ledger: l, repo: repo, now: time.Now}
}

// WithClock replaces the time source.
func (a *Archiver) WithClock(now func() time.Time) *Archiver {
	a.now = now
	return a
}

// Run archives the previous month. It is safe to call any number of times;
// created is true only for the call that wrote the record.
func (a *Archiver) Run(ctx context.Context) (*Winner, bool, error) {
	now := a.now()
	month := ledger.PreviousMonth(now, a.ledger.Location())

	top, err := a.ledger.TopAt(ctx, ledger.BucketMonth, month, 1)
	if err != nil {
		return nil, false, err
	}
	if len(top) == 0 || top[0].Points <= 0 {
		slog.Debug("No monthly winner to archive",
			slog.String("type", "sys"),
			slog.String("month", month),
		)
		return nil, false, nil
	}

	w := &Winner{
		UserID:     top[0].UserID,
		Handle:     top[0].Handle,
		Points:     top[0].Points,
		MonthStart: month,
		RecordedAt: now,
	}
	created, err := a.repo.Record(ctx, w)
	if err != nil {
		return nil, false, errs.Persistence("record", "monthly_winner", err)
	}

	if created {
		slog.Info("Monthly winner archived",
			slog.String("type", "sys"),
			slog.String("month", month),
			slog.Int64("user_id", w.UserID),
			slog.Int64("points", w.Points),
		)
	}
	return w, created, nil
}

func (a *Archiver) History(ctx context.Context, limit int) ([]Winner, error) {
	history, err := a.repo.History(ctx, limit)
	if err != nil {
		return nil, errs.Persistence("history", "monthly_winner", err)
	}
	return history, nil
}
