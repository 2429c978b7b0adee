package main

import (
	"log/slog"
	"os"

	"github.com/jkcommunity/jkbot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		slog.Error("Migration failed",
			slog.String("type", "db"),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
