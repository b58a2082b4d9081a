package models

import (
	"time"

	"github.com/uptrace/bun"
)

// WatchPath is a root directory whose immediate children are treated as
// candidate entry folders during a scan.
type WatchPath struct {
	bun.BaseModel `bun:"table:watch_paths,alias:wp"`

	ID        int       `bun:",pk,nullzero" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Filepath  string    `bun:",nullzero" json:"filepath"`
}
