package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jkcommunity/jkbot/internal/domain/achievements"
	"github.com/jkcommunity/jkbot/internal/domain/activity"
	"github.com/jkcommunity/jkbot/internal/domain/economy"
	"github.com/jkcommunity/jkbot/internal/domain/ledger"
	"github.com/jkcommunity/jkbot/internal/domain/winners"
	"github.com/jkcommunity/jkbot/jkbot/config"
	"github.com/jkcommunity/jkbot/jkbot/utils"
)

// exportLimit caps the number of standings written to a monthly export.
const exportLimit = 100

type JobsConfig struct {
	TopN             int
	BoostStartHour   int
	BoostEndHour     int
	BaseProbability  float64
	BoostProbability float64
}

// Jobs holds the periodic tasks of the bot. Each method is a scheduler job.
type Jobs struct {
	ledger      *ledger.Service
	tracker     *achievements.Tracker
	economy     *economy.Service
	pipeline    *activity.Pipeline
	archiver    *winners.Archiver
	exporter    *ArchiveExporter
	broadcaster Broadcaster
	cfg         JobsConfig
	now         func() time.Time
}

func NewJobs(
	l *ledger.Service,
	tracker *achievements.Tracker,
	econ *economy.Service,
	pipeline *activity.Pipeline,
	archiver *winners.Archiver,
	broadcaster Broadcaster,
	cfg JobsConfig,
) *Jobs {
	return &Jobs{
		ledger:      l,
		tracker:     tracker,
		economy:     econ,
		pipeline:    pipeline,
		archiver:    archiver,
		broadcaster: broadcaster,
		cfg:         cfg,
		now:         time.Now,
	}
}

// WithExporter enables the monthly leaderboard export.
func (j *Jobs) WithExporter(e *ArchiveExporter) *Jobs {
	j.exporter = e
	return j
}

func (j *Jobs) WithClock(now func() time.Time) *Jobs {
	j.now = now
	return j
}

// DailyReport broadcasts today's top users.
func (j *Jobs) DailyReport(ctx context.Context) error {
	top, err := j.ledger.Top(ctx, ledger.BucketDay, j.cfg.TopN)
	if err != nil {
		return err
	}
	return j.broadcaster.Broadcast(ctx, utils.DailyReport(top))
}

// BoostAnnouncement announces the evening window of raised probability.
func (j *Jobs) BoostAnnouncement(ctx context.Context) error {
	return j.broadcaster.Broadcast(ctx, utils.BoostAnnouncement(
		j.cfg.BoostStartHour, j.cfg.BoostEndHour, j.cfg.BaseProbability, j.cfg.BoostProbability,
	))
}

// DailyReset drops achievement state and boosts of finished days.
func (j *Jobs) DailyReset(ctx context.Context) error {
	return j.tracker.Reset(ctx)
}

// SweepMutes deletes expired mutes and forgets stale muted-notice marks.
func (j *Jobs) SweepMutes(ctx context.Context) error {
	n, err := j.economy.SweepMutes(ctx)
	if err != nil {
		return err
	}
	j.pipeline.ForgetNotices(j.now())

	if n > 0 {
		slog.Info("Expired mutes removed",
			slog.String("type", "job"),
			slog.Int("count", n),
		)
	}
	return nil
}

// MonthlyCheck archives last month's winner and announces it once. The
// export runs only for a newly archived month.
func (j *Jobs) MonthlyCheck(ctx context.Context) error {
	winner, created, err := j.archiver.Run(ctx)
	if err != nil {
		return err
	}
	if winner == nil || !created {
		return nil
	}

	var errs []error
	if err = j.broadcaster.Broadcast(ctx, utils.WinnerAnnouncement(winner)); err != nil {
		errs = append(errs, err)
	}
	if j.exporter != nil {
		if err = j.export(ctx, winner); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (j *Jobs) export(ctx context.Context, winner *winners.Winner) error {
	ctx, cancel := context.WithTimeout(ctx, config.ExportTimeout)
	defer cancel()

	standings, err := j.ledger.TopAt(ctx, ledger.BucketMonth, winner.MonthStart, exportLimit)
	if err != nil {
		return err
	}
	_, err = j.exporter.Export(ctx, winner.MonthStart, winner, standings)
	return err
}
