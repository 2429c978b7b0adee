package migration

import (
	"database/sql"
	"time"

	"github.com/uptrace/bun"
)

// Rows of the original bot's chat_bot.db.

type legacyUser struct {
	bun.BaseModel `bun:"table:users"`

	UserID    int64          `bun:"user_id"`
	Username  sql.NullString `bun:"username"`
	FirstName sql.NullString `bun:"first_name"`
	LastName  sql.NullString `bun:"last_name"`
	CreatedAt sql.NullString `bun:"created_at"`
}

// legacyPoints is a row of daily_points, weekly_points or monthly_points,
// with the period column aliased to period.
type legacyPoints struct {
	UserID int64  `bun:"user_id"`
	Points int64  `bun:"points"`
	Period string `bun:"period"`
}

type legacyWinner struct {
	bun.BaseModel `bun:"table:monthly_winners"`

	ID         int64          `bun:"id"`
	UserID     int64          `bun:"user_id"`
	Username   sql.NullString `bun:"username"`
	Points     int64          `bun:"points"`
	MonthStart string         `bun:"month_start"`
	CreatedAt  sql.NullString `bun:"created_at"`
}

type legacyMute struct {
	bun.BaseModel `bun:"table:mutes"`

	UserID         int64 `bun:"user_id"`
	UntilTimestamp int64 `bun:"until_timestamp"`
}

// TableStats counts what happened to the rows of one legacy table.
type TableStats struct {
	Table    string
	Read     int
	Imported int
	Skipped  int
}

type Stats struct {
	Tables    []*TableStats
	StartTime time.Time
	EndTime   time.Time
}

func (s *Stats) table(name string) *TableStats {
	for _, t := range s.Tables {
		if t.Table == name {
			return t
		}
	}
	t := &TableStats{Table: name}
	s.Tables = append(s.Tables, t)
	return t
}

func (s *Stats) Imported() int {
	n := 0
	for _, t := range s.Tables {
		n += t.Imported
	}
	return n
}
