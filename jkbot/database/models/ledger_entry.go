package models

import (
	"time"

	"github.com/uptrace/bun"
)

// LedgerEntry is one user's points in one bucket period.
type LedgerEntry struct {
	bun.BaseModel `bun:"table:ledger_entries,alias:le"`

	UserID    int64     `bun:"user_id,pk"`
	Bucket    string    `bun:"bucket,pk"`     // day, week, month
	BucketKey string    `bun:"bucket_key,pk"` // period start date
	Points    int64     `bun:"points,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// Standing is a leaderboard row joined with the user's handle.
type Standing struct {
	UserID int64  `bun:"user_id"`
	Handle string `bun:"handle"`
	Points int64  `bun:"points"`
}
