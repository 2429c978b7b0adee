package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Mute struct {
	bun.BaseModel `bun:"table:mutes,alias:m"`

	UserID    int64     `bun:"user_id,pk"`
	UntilUnix int64     `bun:"until_unix,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

func (m *Mute) Until() time.Time {
	return time.Unix(m.UntilUnix, 0)
}
