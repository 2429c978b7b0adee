package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// Response is the envelope of every API reply.
type Response struct {
	Success   bool      `json:"success"`
	Data      any       `json:"data,omitempty"`
	Error     *Error    `json:"error,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type StandingView struct {
	Rank   int    `json:"rank"`
	UserID int64  `json:"user_id"`
	Handle string `json:"handle"`
	Points int64  `json:"points"`
}

type LeaderboardView struct {
	Bucket    string         `json:"bucket"`
	Key       string         `json:"key"`
	Standings []StandingView `json:"standings"`
}

type StatsView struct {
	UserID       int64     `json:"user_id"`
	Handle       string    `json:"handle"`
	DisplayName  string    `json:"display_name,omitempty"`
	Today        int64     `json:"today"`
	Week         int64     `json:"week"`
	Month        int64     `json:"month"`
	Lifetime     int64     `json:"lifetime"`
	RegisteredAt time.Time `json:"registered_at"`
}

type WinnerView struct {
	MonthStart string    `json:"month_start"`
	UserID     int64     `json:"user_id"`
	Handle     string    `json:"handle"`
	Points     int64     `json:"points"`
	RecordedAt time.Time `json:"recorded_at"`
}

type HealthView struct {
	Status   string           `json:"status"`
	Version  string           `json:"version"`
	Commit   string           `json:"commit"`
	Database string           `json:"database"`
	Pool     map[string]int32 `json:"pool,omitempty"`
}

func sendSuccess(c *fiber.Ctx, data any) error {
	return c.Status(fiber.StatusOK).JSON(Response{
		Success:   true,
		Data:      data,
		RequestID: requestID(c),
		Timestamp: time.Now().UTC(),
	})
}

func sendError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(Response{
		Error:     &Error{Code: code, Message: message},
		RequestID: requestID(c),
		Timestamp: time.Now().UTC(),
	})
}
