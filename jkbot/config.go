package jkbot

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/disgoorg/snowflake/v2"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/jkcommunity/jkbot/jkbot/database"
)

// LoadConfig reads the TOML file at path on top of DefaultConfig, then
// applies .env and JKBOT_* environment overrides.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	file, err := os.Open(path)
	switch {
	case err == nil:
		defer file.Close()
		if err = toml.NewDecoder(file).Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
		slog.Warn("Config file not found, using defaults",
			slog.String("type", "sys"),
			slog.String("path", path),
		)
	default:
		return nil, fmt.Errorf("failed to open config: %w", err)
	}

	if err = godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	if err = env.ParseWithOptions(cfg, env.Options{Prefix: "JKBOT_"}); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

type Config struct {
	Log      LogConfig         `toml:"log"`
	Bot      BotConfig         `toml:"bot"`
	DB       database.DBConfig `toml:"db" envPrefix:"DB_"`
	Rewards  RewardsConfig     `toml:"rewards"`
	Schedule ScheduleConfig    `toml:"schedule"`
	API      APIConfig         `toml:"api" envPrefix:"API_"`
	Archive  ArchiveConfig     `toml:"archive" envPrefix:"S3_"`
}

type LogConfig struct {
	Level     slog.Level `toml:"level"`
	Format    string     `toml:"format"`
	AddSource bool       `toml:"add_source"`
}

type BotConfig struct {
	DevGuilds     []snowflake.ID `toml:"dev_guilds"`
	Token         string         `toml:"token" env:"TOKEN"`
	ChatChannelID snowflake.ID   `toml:"chat_channel_id" env:"CHAT_CHANNEL_ID"`
	SyncCommands  bool           `toml:"sync_commands"`
}

type RewardsConfig struct {
	Timezone                  string  `toml:"timezone"`
	BaseProbability           float64 `toml:"base_probability"`
	BoostProbability          float64 `toml:"boost_probability"`
	BoostStartHour            int     `toml:"boost_start_hour"`
	BoostEndHour              int     `toml:"boost_end_hour"`
	BoostDelta                float64 `toml:"boost_delta"`
	PointsPerMessage          int64   `toml:"points_per_message"`
	MinWordsForPoints         int     `toml:"min_words_for_points"`
	ScoringPolicy             string  `toml:"scoring_policy"`
	PointThresholds           []int64 `toml:"point_thresholds"`
	TopNLimit                 int     `toml:"top_n_limit"`
	MonthlyWinnerHistoryLimit int     `toml:"monthly_winner_history_limit"`
	MuteUnitPoints            int64   `toml:"mute_unit_points"`
	MuteMinutesPerUnit        int     `toml:"mute_minutes_per_unit"`
	BoostGrantMinutes         int     `toml:"boost_grant_minutes"`
	WagerMinWin               float64 `toml:"wager_min_win"`
	WagerMaxWin               float64 `toml:"wager_max_win"`
}

// Location resolves the configured civil time zone.
func (r RewardsConfig) Location() (*time.Location, error) {
	return time.LoadLocation(r.Timezone)
}

type ScheduleConfig struct {
	DailyReportHour    int `toml:"daily_report_hour"`
	DailyReportMinute  int `toml:"daily_report_minute"`
	ResetHour          int `toml:"reset_hour"`
	ResetMinute        int `toml:"reset_minute"`
	MonthlyCheckHour   int `toml:"monthly_check_hour"`
	MonthlyCheckMinute int `toml:"monthly_check_minute"`
	// MonthlyCheckWeekday restricts the monthly check to one weekday
	// ("monday" ... "sunday"). Empty runs it every day.
	MonthlyCheckWeekday string `toml:"monthly_check_weekday"`
	MuteSweepMinutes    int    `toml:"mute_sweep_minutes"`
}

// Weekday parses MonthlyCheckWeekday.
func (s ScheduleConfig) Weekday() (time.Weekday, bool, error) {
	if s.MonthlyCheckWeekday == "" {
		return 0, false, nil
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), s.MonthlyCheckWeekday) {
			return d, true, nil
		}
	}
	return 0, false, fmt.Errorf("unknown weekday %q", s.MonthlyCheckWeekday)
}

type APIConfig struct {
	Enabled bool   `toml:"enabled" env:"ENABLED"`
	Address string `toml:"address" env:"ADDRESS"`
}

type ArchiveConfig struct {
	Enabled  bool   `toml:"enabled" env:"ENABLED"`
	Endpoint string `toml:"endpoint" env:"ENDPOINT"`
	Region   string `toml:"region" env:"REGION"`
	Bucket   string `toml:"bucket" env:"BUCKET"`
	Key      string `toml:"key" env:"KEY"`
	Secret   string `toml:"secret" env:"SECRET"`
	Prefix   string `toml:"prefix" env:"PREFIX"`
}

func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level:  slog.LevelInfo,
			Format: "text",
		},
		DB: database.DBConfig{
			Driver:   "postgres",
			Host:     "localhost",
			Port:     5432,
			Database: "jkbot",
			SSLMode:  "disable",
			PoolSize: 10,
			Path:     "jkbot.db",
		},
		Rewards: RewardsConfig{
			Timezone:                  "Europe/Moscow",
			BaseProbability:           0.20,
			BoostProbability:          0.325,
			BoostStartHour:            20,
			BoostEndHour:              23,
			BoostDelta:                0.03,
			PointsPerMessage:          10,
			MinWordsForPoints:         5,
			ScoringPolicy:             "strict",
			PointThresholds:           []int64{200, 500, 1000, 2000, 5000},
			TopNLimit:                 10,
			MonthlyWinnerHistoryLimit: 10,
			MuteUnitPoints:            100,
			MuteMinutesPerUnit:        30,
			BoostGrantMinutes:         30,
			WagerMinWin:               0.10,
			WagerMaxWin:               0.20,
		},
		Schedule: ScheduleConfig{
			DailyReportHour:  22,
			ResetHour:        0,
			MonthlyCheckHour: 1,
			MuteSweepMinutes: 10,
		},
		API: APIConfig{
			Address: ":8080",
		},
		Archive: ArchiveConfig{
			Region: "us-east-1",
			Prefix: "leaderboards/",
		},
	}
}

// Validate rejects settings the bot cannot run with.
func (c *Config) Validate() error {
	var problems []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			problems = append(problems, fmt.Errorf(format, args...))
		}
	}

	r := c.Rewards
	check(r.BaseProbability >= 0 && r.BaseProbability <= 1, "rewards.base_probability must be in [0,1]")
	check(r.BoostProbability >= 0 && r.BoostProbability <= 1, "rewards.boost_probability must be in [0,1]")
	check(r.BoostDelta >= 0 && r.BoostDelta <= 1, "rewards.boost_delta must be in [0,1]")
	check(validHour(r.BoostStartHour), "rewards.boost_start_hour must be in 0-23")
	check(r.BoostEndHour >= 0 && r.BoostEndHour <= 24, "rewards.boost_end_hour must be in 0-24")
	check(r.PointsPerMessage > 0, "rewards.points_per_message must be positive")
	check(r.MinWordsForPoints > 0, "rewards.min_words_for_points must be positive")
	check(r.ScoringPolicy == "strict" || r.ScoringPolicy == "scored", "rewards.scoring_policy must be strict or scored")
	check(len(r.PointThresholds) > 0, "rewards.point_thresholds must not be empty")
	check(slices.IsSorted(r.PointThresholds), "rewards.point_thresholds must be ascending")
	check(r.TopNLimit > 0, "rewards.top_n_limit must be positive")
	check(r.MonthlyWinnerHistoryLimit > 0, "rewards.monthly_winner_history_limit must be positive")
	check(r.MuteUnitPoints > 0, "rewards.mute_unit_points must be positive")
	check(r.MuteMinutesPerUnit > 0, "rewards.mute_minutes_per_unit must be positive")
	check(r.BoostGrantMinutes > 0, "rewards.boost_grant_minutes must be positive")
	check(r.WagerMinWin >= 0 && r.WagerMinWin <= r.WagerMaxWin && r.WagerMaxWin <= 1, "rewards.wager_min_win/wager_max_win must satisfy 0 <= min <= max <= 1")
	if _, err := r.Location(); err != nil {
		problems = append(problems, fmt.Errorf("rewards.timezone: %w", err))
	}

	s := c.Schedule
	check(validHour(s.DailyReportHour) && validMinute(s.DailyReportMinute), "schedule daily report time is invalid")
	check(validHour(s.ResetHour) && validMinute(s.ResetMinute), "schedule reset time is invalid")
	check(validHour(s.MonthlyCheckHour) && validMinute(s.MonthlyCheckMinute), "schedule monthly check time is invalid")
	check(s.MuteSweepMinutes > 0, "schedule.mute_sweep_minutes must be positive")
	if _, _, err := s.Weekday(); err != nil {
		problems = append(problems, fmt.Errorf("schedule.monthly_check_weekday: %w", err))
	}

	check(c.DB.Driver == "postgres" || c.DB.Driver == "sqlite", "db.driver must be postgres or sqlite")
	if c.Archive.Enabled {
		check(c.Archive.Bucket != "", "archive.bucket is required when the archive is enabled")
	}

	return errors.Join(problems...)
}

func validHour(h int) bool {
	return h >= 0 && h <= 23
}

func validMinute(m int) bool {
	return m >= 0 && m <= 59
}
