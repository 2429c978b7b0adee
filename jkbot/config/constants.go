package config

import "time"

// Embed colors
const (
	ErrorColor   = 0xFF0000
	SuccessColor = 0x00FF00
	InfoColor    = 0x0099FF
	WarningColor = 0xFFAA00
)

// Database and performance
const (
	DefaultQueryTimeout     = 30 * time.Second
	StatsQueryTimeout       = 10 * time.Second
	CommandExecutionTimeout = 10 * time.Second
	SlowCommandThreshold    = 2 * time.Second
	SlowQueryThreshold      = 200 * time.Millisecond
	NetworkDialTimeout      = 5 * time.Second
	MaxRetries              = 3

	UserCacheSize = 1024
)

// Leaderboards
const (
	EntriesPerPage = 10
	MaxAPILimit    = 100
)

// Jobs
const (
	JobTimeout    = 2 * time.Minute
	ExportTimeout = 30 * time.Second
)
