package logger

import (
	"log/slog"
	"time"

	"github.com/jkcommunity/jkbot/jkbot/config"
)

// LogCommand logs the outcome of a command, flagging slow ones
func LogCommand(name string, duration time.Duration, err error, attrs ...any) {
	base := []any{
		slog.String("type", "cmd"),
		slog.String("name", name),
		slog.Duration("took", duration),
	}
	base = append(base, attrs...)

	switch {
	case err != nil:
		slog.Error("Command failed", append(base,
			slog.Any("error", err),
			slog.String("status", "failed"),
		)...)
	case duration > config.SlowCommandThreshold:
		slog.Warn("Command executed slowly", append(base, slog.String("status", "slow"))...)
	default:
		slog.Info("Command completed", append(base, slog.String("status", "success"))...)
	}
}

// LogJob logs a scheduled job run
func LogJob(name string, duration time.Duration, err error, attrs ...any) {
	base := []any{
		slog.String("type", "job"),
		slog.String("job", name),
		slog.Duration("took", duration),
	}

	if err != nil {
		slog.Error("Job failed", append(append(base, slog.Any("error", err)), attrs...)...)
	} else {
		slog.Info("Job completed", append(base, attrs...)...)
	}
}

// LogSystem logs system events
func LogSystem(msg string, attrs ...any) {
	baseAttrs := []any{slog.String("type", "sys")}
	slog.Info(msg, append(baseAttrs, attrs...)...)
}

// LogError logs error events
func LogError(msg string, err error, attrs ...any) {
	baseAttrs := []any{
		slog.String("type", "error"),
		slog.Any("error", err),
	}
	slog.Error(msg, append(baseAttrs, attrs...)...)
}
