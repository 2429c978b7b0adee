package models

import (
	"time"

	"github.com/uptrace/bun"
)

type MonthlyWinner struct {
	bun.BaseModel `bun:"table:monthly_winners,alias:mw"`

	MonthStart string    `bun:"month_start,pk"`
	UserID     int64     `bun:"user_id,notnull"`
	Handle     string    `bun:"handle,notnull"`
	Points     int64     `bun:"points,notnull"`
	RecordedAt time.Time `bun:"recorded_at,notnull"`
}
