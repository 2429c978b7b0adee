package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jkcommunity/jkbot/jkbot"
	"github.com/jkcommunity/jkbot/jkbot/database"
	"github.com/jkcommunity/jkbot/jkbot/logger"
	"github.com/jkcommunity/jkbot/jkbot/migration"
)

var (
	legacyPath string
	fresh      bool
	batchSize  int
)

var legacyCmd = &cobra.Command{
	Use:   "legacy",
	Short: "Import the original bot's SQLite database (chat_bot.db)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := jkbot.LoadConfig(configPath)
		if err != nil {
			return err
		}
		logger.Setup(cfg.Log.Level, cfg.Log.AddSource, cfg.Log.Format)

		if _, err = os.Stat(legacyPath); err != nil {
			return fmt.Errorf("legacy database %s: %w", legacyPath, err)
		}
		src, err := database.OpenSQLite(legacyPath)
		if err != nil {
			return err
		}
		defer src.Close()

		dst, err := database.Open(ctx, cfg.DB)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer dst.Close()

		if err = dst.InitializeSchema(ctx); err != nil {
			return err
		}
		if fresh {
			slog.Warn("Clearing application tables before import",
				slog.String("type", "db"),
				slog.String("driver", cfg.DB.Driver),
			)
			if err = dst.ResetAppTables(ctx); err != nil {
				return err
			}
		}

		migrator := migration.NewMigrator(src.BunDB(), dst.BunDB())
		migrator.SetBatchSize(batchSize)
		if err = migrator.MigrateAll(ctx); err != nil {
			return err
		}
		migrator.LogStats()
		return nil
	},
}

func init() {
	legacyCmd.Flags().StringVar(&legacyPath, "sqlite", "chat_bot.db", "path to the legacy SQLite database")
	legacyCmd.Flags().BoolVar(&fresh, "fresh", false, "delete existing users, points, winners and mutes first")
	legacyCmd.Flags().IntVar(&batchSize, "batch-size", 500, "rows per insert statement")
	legacyCmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		if batchSize <= 0 {
			return errors.New("--batch-size must be positive")
		}
		return nil
	}
	rootCmd.AddCommand(legacyCmd)
}
