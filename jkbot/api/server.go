package api

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jkcommunity/jkbot/internal/domain/errs"
	"github.com/jkcommunity/jkbot/internal/domain/ledger"
	"github.com/jkcommunity/jkbot/internal/domain/winners"
	"github.com/jkcommunity/jkbot/jkbot/config"
)

// Database is the part of the store the health check needs.
type Database interface {
	Ping(ctx context.Context) error
	PoolStats() map[string]int32
}

type Options struct {
	Version      string
	Commit       string
	TopN         int
	HistoryLimit int
}

// Server is the read-only HTTP view over the ledger.
type Server struct {
	app      *fiber.App
	db       Database
	ledger   *ledger.Service
	archiver *winners.Archiver
	opts     Options
}

func New(db Database, l *ledger.Service, archiver *winners.Archiver, opts Options) *Server {
	if opts.TopN <= 0 {
		opts.TopN = 10
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 10
	}

	s := &Server{
		app: fiber.New(fiber.Config{
			AppName:               "JKBot API",
			ErrorHandler:          ErrorHandler,
			DisableStartupMessage: true,
		}),
		db:       db,
		ledger:   l,
		archiver: archiver,
		opts:     opts,
	}

	s.app.Use(RequestID())
	s.app.Use(Logging())

	s.app.Get("/health", s.health)
	v1 := s.app.Group("/api")
	v1.Get("/leaderboard/:bucket", s.leaderboard)
	v1.Get("/users/:id/stats", s.userStats)
	v1.Get("/winners", s.winners)

	s.app.Use(func(c *fiber.Ctx) error {
		return sendError(c, fiber.StatusNotFound, "NOT_FOUND", "route not found")
	})
	return s
}

// App exposes the fiber app for in-process requests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen(address string) error {
	slog.Info("HTTP API listening",
		slog.String("type", "http"),
		slog.String("address", address),
	)
	return s.app.Listen(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), config.DefaultQueryTimeout)
	defer cancel()

	view := HealthView{Status: "healthy", Version: s.opts.Version, Commit: s.opts.Commit, Database: "ok"}
	if err := s.db.Ping(ctx); err != nil {
		slog.Error("Health check failed",
			slog.String("type", "http"),
			slog.Any("error", err),
		)
		view.Status = "unhealthy"
		view.Database = "unreachable"
		return c.Status(fiber.StatusServiceUnavailable).JSON(Response{
			Data:      view,
			Error:     &Error{Code: "UNAVAILABLE", Message: "database unreachable"},
			RequestID: requestID(c),
			Timestamp: time.Now().UTC(),
		})
	}
	view.Pool = s.db.PoolStats()
	return sendSuccess(c, view)
}

func (s *Server) leaderboard(c *fiber.Ctx) error {
	bucket, err := ledger.ParseBucket(c.Params("bucket"))
	if err != nil {
		return sendError(c, fiber.StatusBadRequest, "BAD_REQUEST", err.Error())
	}
	limit, err := s.limit(c, s.opts.TopN)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), config.StatsQueryTimeout)
	defer cancel()

	key := s.ledger.Keys().For(bucket)
	top, err := s.ledger.TopAt(ctx, bucket, key, limit)
	if err != nil {
		return s.fail(c, err)
	}

	view := LeaderboardView{Bucket: string(bucket), Key: key, Standings: make([]StandingView, len(top))}
	for i, st := range top {
		view.Standings[i] = StandingView{Rank: i + 1, UserID: st.UserID, Handle: st.Handle, Points: st.Points}
	}
	return sendSuccess(c, view)
}

func (s *Server) userStats(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return sendError(c, fiber.StatusBadRequest, "BAD_REQUEST", "user id must be numeric")
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), config.StatsQueryTimeout)
	defer cancel()

	stats, err := s.ledger.Stats(ctx, id)
	if err != nil {
		return s.fail(c, err)
	}
	return sendSuccess(c, StatsView{
		UserID:       stats.User.ID,
		Handle:       stats.User.Handle,
		DisplayName:  stats.User.DisplayName,
		Today:        stats.Today,
		Week:         stats.Week,
		Month:        stats.Month,
		Lifetime:     stats.Lifetime,
		RegisteredAt: stats.User.RegisteredAt,
	})
}

func (s *Server) winners(c *fiber.Ctx) error {
	limit, err := s.limit(c, s.opts.HistoryLimit)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), config.StatsQueryTimeout)
	defer cancel()

	history, err := s.archiver.History(ctx, limit)
	if err != nil {
		return s.fail(c, err)
	}
	views := make([]WinnerView, len(history))
	for i, w := range history {
		views[i] = WinnerView{MonthStart: w.MonthStart, UserID: w.UserID, Handle: w.Handle, Points: w.Points, RecordedAt: w.RecordedAt}
	}
	return sendSuccess(c, views)
}

// limit reads ?limit=, capped at config.MaxAPILimit.
func (s *Server) limit(c *fiber.Ctx, fallback int) (int, error) {
	raw := c.Query("limit")
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "limit must be a positive integer")
	}
	return min(n, config.MaxAPILimit), nil
}

func (s *Server) fail(c *fiber.Ctx, err error) error {
	if errs.IsNotFound(err) {
		return sendError(c, fiber.StatusNotFound, "NOT_FOUND", err.Error())
	}
	slog.Error("API request failed",
		slog.String("type", "http"),
		slog.String("path", c.Path()),
		slog.String("request_id", requestID(c)),
		slog.Any("error", err),
	)
	return sendError(c, fiber.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "internal error")
}
