package handlers

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/disgoorg/disgo/handler"

	"github.com/jkcommunity/jkbot/jkbot/config"
	"github.com/jkcommunity/jkbot/jkbot/logger"
)

// WrapWithLogging logs start, outcome and duration of a slash command. A
// command still running after config.CommandExecutionTimeout is reported as
// timed out; its goroutine is left to finish on its own.
func WrapWithLogging(name string, h handler.CommandHandler) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		start := time.Now()
		user := e.User()

		slog.Debug("Command started",
			slog.String("type", "cmd"),
			slog.String("name", name),
			slog.String("user_id", user.ID.String()),
			slog.String("user_name", user.Username),
			slog.String("channel_id", e.Channel().ID().String()),
		)

		done := make(chan error, 1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					done <- fmt.Errorf("command panicked: %v", r)
				}
			}()
			done <- h(e)
		}()

		select {
		case err := <-done:
			logger.LogCommand(name, time.Since(start), err,
				slog.String("user_id", user.ID.String()),
				slog.String("user_name", user.Username),
			)
			return err

		case <-time.After(config.CommandExecutionTimeout):
			slog.Error("Command timed out",
				slog.String("type", "cmd"),
				slog.String("name", name),
				slog.String("user_id", user.ID.String()),
				slog.String("user_name", user.Username),
				slog.String("status", "timeout"),
				slog.Duration("timeout", config.CommandExecutionTimeout),
			)
			return fmt.Errorf("command %s timed out after %s", name, config.CommandExecutionTimeout)
		}
	}
}
