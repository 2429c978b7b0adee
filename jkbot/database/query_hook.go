package database

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/uptrace/bun"
)

// QueryLogger is a bun query hook that logs every statement at debug level,
// slow ones as warnings and failures as errors.
type QueryLogger struct {
	slow time.Duration
}

func NewQueryLogger(slow time.Duration) *QueryLogger {
	return &QueryLogger{slow: slow}
}

func (l *QueryLogger) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (l *QueryLogger) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	duration := time.Since(event.StartTime)
	attrs := []any{
		slog.String("type", "db"),
		slog.String("operation", event.Operation()),
		slog.String("query", event.Query),
		slog.Duration("took", duration),
	}

	if event.Err != nil && !errors.Is(event.Err, sql.ErrNoRows) {
		slog.Error("Query failed", append(attrs, slog.Any("error", event.Err))...)
		return
	}

	if event.Result != nil {
		if n, err := event.Result.RowsAffected(); err == nil {
			attrs = append(attrs, slog.Int64("affected_rows", n))
		}
	}

	if l.slow > 0 && duration > l.slow {
		slog.Warn("Slow query", append(attrs, slog.String("status", "slow"))...)
		return
	}
	slog.Debug("Query executed", attrs...)
}
