package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/handler"

	"github.com/jkcommunity/jkbot/internal/domain/achievements"
	"github.com/jkcommunity/jkbot/internal/domain/activity"
	"github.com/jkcommunity/jkbot/internal/domain/economy"
	"github.com/jkcommunity/jkbot/internal/domain/gate"
	"github.com/jkcommunity/jkbot/internal/domain/ledger"
	"github.com/jkcommunity/jkbot/internal/domain/scoring"
	"github.com/jkcommunity/jkbot/internal/domain/winners"
	"github.com/jkcommunity/jkbot/jkbot"
	"github.com/jkcommunity/jkbot/jkbot/api"
	"github.com/jkcommunity/jkbot/jkbot/commands"
	economycmd "github.com/jkcommunity/jkbot/jkbot/commands/economy"
	"github.com/jkcommunity/jkbot/jkbot/commands/stats"
	"github.com/jkcommunity/jkbot/jkbot/commands/system"
	"github.com/jkcommunity/jkbot/jkbot/config"
	"github.com/jkcommunity/jkbot/jkbot/database"
	"github.com/jkcommunity/jkbot/jkbot/database/repositories"
	"github.com/jkcommunity/jkbot/jkbot/handlers"
	"github.com/jkcommunity/jkbot/jkbot/logger"
	"github.com/jkcommunity/jkbot/jkbot/scheduler"
	"github.com/jkcommunity/jkbot/jkbot/services"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	shouldSyncCommands := flag.Bool("sync-commands", false, "Whether to sync commands to discord")
	path := flag.String("config", "config.toml", "path to config")
	flag.Parse()

	cfg, err := jkbot.LoadConfig(*path)
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(-1)
	}
	logger.Setup(cfg.Log.Level, cfg.Log.AddSource, cfg.Log.Format)

	slog.Info("Starting JKBot",
		slog.String("type", "sys"),
		slog.String("version", version),
		slog.String("commit", commit))

	loc, err := cfg.Rewards.Location()
	if err != nil {
		fatal("Invalid timezone", err)
	}

	dbStartTime := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	db, err := database.Open(ctx, cfg.DB)
	if err != nil {
		cancel()
		fatal("Database connection failed", err, slog.Duration("attempted_for", time.Since(dbStartTime)))
	}
	defer db.Close()

	if err = db.InitializeSchema(ctx); err != nil {
		cancel()
		fatal("Failed to initialize database schema", err)
	}
	cancel()
	slog.Info("Database ready",
		slog.String("type", "db"),
		slog.String("driver", cfg.DB.Driver),
		slog.Duration("took", time.Since(dbStartTime)))

	b := jkbot.New(cfg, version, commit)
	b.DB = db
	wire(b, loc)

	h := handler.New()
	h.Command("/start", handlers.WrapWithLogging("start", system.StartHandler))
	h.Command("/help", handlers.WrapWithLogging("help", system.HelpHandler(b)))
	h.Command("/jk", handlers.WrapWithLogging("jk", system.JKHandler))
	h.Command("/stats", handlers.WrapWithLogging("stats", stats.StatsHandler(b)))
	h.Command("/today", handlers.WrapWithLogging("today", stats.LeaderboardHandler(b, ledger.BucketDay)))
	h.Command("/week", handlers.WrapWithLogging("week", stats.LeaderboardHandler(b, ledger.BucketWeek)))
	h.Command("/month", handlers.WrapWithLogging("month", stats.MonthHandler(b)))
	h.Command("/winners", handlers.WrapWithLogging("winners", stats.WinnersHandler(b)))
	h.Command("/send", handlers.WrapWithLogging("send", economycmd.SendHandler(b)))
	h.Command("/mute", handlers.WrapWithLogging("mute", economycmd.MuteHandler(b)))
	h.Command("/dice", handlers.WrapWithLogging("dice", economycmd.DiceHandler(b)))

	if err = b.SetupBot(h, bot.NewListenerFunc(b.OnReady)); err != nil {
		fatal("Failed to setup bot", err, slog.String("component", "bot_setup"))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		b.Client.Close(ctx)
	}()

	broadcaster := services.NewChatBroadcaster(b.Client.Rest(), cfg.Bot.ChatChannelID)
	listener := handlers.NewMessageListener(b.Pipeline, broadcaster, cfg.Bot.ChatChannelID)
	b.Client.AddEventListeners(bot.NewListenerFunc(listener.OnGuildMessageCreate))

	if *shouldSyncCommands || cfg.Bot.SyncCommands {
		slog.Info("Syncing commands",
			slog.String("type", "sys"),
			slog.Any("guild_ids", cfg.Bot.DevGuilds),
		)
		if err = handler.SyncCommands(b.Client, commands.Commands, cfg.Bot.DevGuilds); err != nil {
			slog.Error("Failed to sync commands",
				slog.String("type", "sys"),
				slog.Any("error", err),
				slog.String("component", "command_sync"),
				slog.String("status", "failed"),
			)
		}
	}

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	jobs := services.NewJobs(b.Ledger, b.Tracker, b.Economy, b.Pipeline, b.Archiver, broadcaster, services.JobsConfig{
		TopN:             cfg.Rewards.TopNLimit,
		BoostStartHour:   cfg.Rewards.BoostStartHour,
		BoostEndHour:     cfg.Rewards.BoostEndHour,
		BaseProbability:  cfg.Rewards.BaseProbability,
		BoostProbability: cfg.Rewards.BoostProbability,
	})
	if cfg.Archive.Enabled {
		client, err := services.NewS3Client(runCtx, cfg.Archive.Endpoint, cfg.Archive.Region, cfg.Archive.Key, cfg.Archive.Secret)
		if err != nil {
			fatal("Failed to create object storage client", err, slog.String("component", "archive"))
		}
		jobs.WithExporter(services.NewArchiveExporter(client, cfg.Archive.Bucket, cfg.Archive.Prefix))
	}

	sched := newScheduler(cfg, loc, jobs)
	go func() {
		if err := sched.Run(runCtx); err != nil {
			logger.LogError("Scheduler stopped", err)
		}
	}()

	var server *api.Server
	if cfg.API.Enabled {
		server = api.New(db, b.Ledger, b.Archiver, api.Options{
			Version:      version,
			Commit:       commit,
			TopN:         cfg.Rewards.TopNLimit,
			HistoryLimit: cfg.Rewards.MonthlyWinnerHistoryLimit,
		})
		go func() {
			if err := server.Listen(cfg.API.Address); err != nil {
				logger.LogError("HTTP API stopped", err, slog.String("address", cfg.API.Address))
			}
		}()
	}

	gatewayCtx, gatewayCancel := context.WithTimeout(runCtx, 10*time.Second)
	defer gatewayCancel()
	if err = b.Client.OpenGateway(gatewayCtx); err != nil {
		fatal("Failed to open gateway", err, slog.String("component", "gateway"))
	}

	slog.Info("Bot is running. Press CTRL-C to exit.", slog.String("type", "sys"))
	<-runCtx.Done()
	slog.Info("Shutting down bot...", slog.String("type", "sys"))

	if server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.LogError("HTTP API shutdown failed", err)
		}
	}
}

// wire builds the domain services on top of the database.
func wire(b *jkbot.Bot, loc *time.Location) {
	cfg := b.Cfg
	r := cfg.Rewards
	bunDB := b.DB.BunDB()

	users := repositories.NewUserRepository(bunDB)
	ledgerRepo := repositories.NewLedgerRepository(bunDB)

	b.Ledger = ledger.NewService(ledgerRepo, loc)
	b.Directory = ledger.NewDirectory(users, config.UserCacheSize)
	b.Economy = economy.NewService(b.Ledger, ledgerRepo, economy.Config{
		MuteUnit:           r.MuteUnitPoints,
		MuteMinutesPerUnit: r.MuteMinutesPerUnit,
		WagerMinOdds:       r.WagerMinWin,
		WagerMaxOdds:       r.WagerMaxWin,
	})
	b.Tracker = achievements.NewTracker(repositories.NewAchievementRepository(bunDB), achievements.Config{
		Thresholds:    r.PointThresholds,
		BoostDuration: time.Duration(r.BoostGrantMinutes) * time.Minute,
		ResetHour:     cfg.Schedule.ResetHour,
		ResetMinute:   cfg.Schedule.ResetMinute,
		Location:      loc,
	})
	b.Archiver = winners.NewArchiver(b.Ledger, repositories.NewWinnerRepository(bunDB))

	scorer, err := scoring.New(scoring.Policy(r.ScoringPolicy), r.MinWordsForPoints)
	if err != nil {
		fatal("Invalid scoring policy", err)
	}
	b.Pipeline = &activity.Pipeline{
		Directory: b.Directory,
		Mutes:     b.Economy,
		Scorer:    scorer,
		Gate: gate.New(gate.Config{
			BaseProbability:  r.BaseProbability,
			BoostProbability: r.BoostProbability,
			BoostStartHour:   r.BoostStartHour,
			BoostEndHour:     r.BoostEndHour,
			BoostDelta:       r.BoostDelta,
			Location:         loc,
		}),
		Ledger:  b.Ledger,
		Tracker: b.Tracker,
		Points:  r.PointsPerMessage,
	}
}

func newScheduler(cfg *jkbot.Config, loc *time.Location, jobs *services.Jobs) *scheduler.Scheduler {
	s := cfg.Schedule
	sched := scheduler.New(loc)

	sched.RunDaily("daily_report", s.DailyReportHour, s.DailyReportMinute, jobs.DailyReport)
	sched.RunDaily("boost_announcement", cfg.Rewards.BoostStartHour, 0, jobs.BoostAnnouncement)
	sched.RunDaily("daily_reset", s.ResetHour, s.ResetMinute, jobs.DailyReset)

	var monthlyOpts []scheduler.Option
	if day, ok, _ := s.Weekday(); ok {
		monthlyOpts = append(monthlyOpts, scheduler.OnWeekday(day))
	}
	monthlyOpts = append(monthlyOpts, scheduler.WithTimeout(config.JobTimeout))
	sched.RunDaily("monthly_check", s.MonthlyCheckHour, s.MonthlyCheckMinute, jobs.MonthlyCheck, monthlyOpts...)

	sched.Every("mute_sweep", time.Duration(s.MuteSweepMinutes)*time.Minute, jobs.SweepMutes)
	return sched
}

func fatal(msg string, err error, attrs ...any) {
	slog.Error(msg, append([]any{
		slog.String("type", "sys"),
		slog.Any("error", err),
		slog.String("error_details", fmt.Sprintf("%+v", err)),
		slog.String("status", "failed"),
	}, attrs...)...)
	os.Exit(-1)
}
