package models

import (
	"time"

	"github.com/uptrace/bun"
)

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int64     `bun:"id,pk"`
	Handle       string    `bun:"handle,notnull"`
	DisplayName  string    `bun:"display_name,notnull"`
	RegisteredAt time.Time `bun:"registered_at,notnull"`
	UpdatedAt    time.Time `bun:"updated_at,notnull"`
}
