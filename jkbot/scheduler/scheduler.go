package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jkcommunity/jkbot/jkbot/logger"
)

type Job func(ctx context.Context) error

type Option func(*entry)

// OnWeekday restricts a daily job to one day of the week.
func OnWeekday(day time.Weekday) Option {
	return func(e *entry) {
		e.weekday = &day
	}
}

// WithTimeout bounds a single run of the job.
func WithTimeout(d time.Duration) Option {
	return func(e *entry) {
		e.timeout = d
	}
}

type entry struct {
	name    string
	job     Job
	timeout time.Duration

	// daily jobs
	hour, minute int
	weekday      *time.Weekday

	// interval jobs
	every time.Duration
}

// Scheduler runs jobs at wall-clock times in one location, or at fixed
// intervals. A failing or panicking run is logged and the job is
// rescheduled.
type Scheduler struct {
	loc     *time.Location
	now     func() time.Time
	entries []*entry
}

func New(loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{loc: loc, now: time.Now}
}

// RunDaily runs job every day at hour:minute local time.
func (s *Scheduler) RunDaily(name string, hour, minute int, job Job, opts ...Option) {
	e := &entry{name: name, job: job, hour: hour, minute: minute}
	for _, opt := range opts {
		opt(e)
	}
	s.entries = append(s.entries, e)
}

// Every runs job once per interval, first after one interval has passed.
func (s *Scheduler) Every(name string, interval time.Duration, job Job, opts ...Option) {
	e := &entry{name: name, job: job, every: interval}
	for _, opt := range opts {
		opt(e)
	}
	s.entries = append(s.entries, e)
}

// Run blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, e := range s.entries {
		g.Go(func() error {
			s.loop(ctx, e)
			return nil
		})
	}

	logger.LogSystem("Scheduler started", slog.Int("jobs", len(s.entries)))
	return g.Wait()
}

func (s *Scheduler) loop(ctx context.Context, e *entry) {
	for {
		now := s.now()
		next := s.next(e, now)
		slog.Debug("Job scheduled",
			slog.String("type", "job"),
			slog.String("job", e.name),
			slog.Time("next_run", next),
		)

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		s.runOnce(ctx, e)
	}
}

func (s *Scheduler) next(e *entry, now time.Time) time.Time {
	if e.every > 0 {
		return now.Add(e.every)
	}
	return NextDaily(now, e.hour, e.minute, s.loc, e.weekday)
}

func (s *Scheduler) runOnce(ctx context.Context, e *entry) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	err := safeRun(ctx, e.job)
	logger.LogJob(e.name, time.Since(start), err)
}

func safeRun(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v\n%s", r, debug.Stack())
		}
	}()
	return job(ctx)
}

// NextDaily returns the first hour:minute in loc strictly after now, on the
// given weekday when one is set.
func NextDaily(now time.Time, hour, minute int, loc *time.Location, weekday *time.Weekday) time.Time {
	local := now.In(loc)
	y, m, d := local.Date()
	candidate := time.Date(y, m, d, hour, minute, 0, 0, loc)
	if !candidate.After(local) {
		candidate = time.Date(y, m, d+1, hour, minute, 0, 0, loc)
	}
	if weekday != nil {
		for candidate.Weekday() != *weekday {
			y, m, d = candidate.Date()
			candidate = time.Date(y, m, d+1, hour, minute, 0, 0, loc)
		}
	}
	return candidate
}
