package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Boost is the temporary reward-probability boost of a first achiever.
type Boost struct {
	bun.BaseModel `bun:"table:boosts,alias:b"`

	UserID      int64  `bun:"user_id,pk"`
	ExpiresUnix int64  `bun:"expires_unix,notnull"`
	Epoch       string `bun:"epoch,notnull"`
}

// AchievementNotice marks that a user crossed a threshold during an epoch.
type AchievementNotice struct {
	bun.BaseModel `bun:"table:achievement_notices,alias:an"`

	UserID     int64     `bun:"user_id,pk"`
	Threshold  int64     `bun:"threshold,pk"`
	Epoch      string    `bun:"epoch,pk"`
	NotifiedAt time.Time `bun:"notified_at,notnull"`
}

// AchievementBroadcast is the chat-wide first-achiever claim for a threshold.
type AchievementBroadcast struct {
	bun.BaseModel `bun:"table:achievement_broadcasts,alias:ab"`

	Threshold int64     `bun:"threshold,pk"`
	Epoch     string    `bun:"epoch,pk"`
	UserID    int64     `bun:"user_id,notnull"`
	ClaimedAt time.Time `bun:"claimed_at,notnull"`
}
