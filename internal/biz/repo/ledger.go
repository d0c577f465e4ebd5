package repo

import (
	"context"
	"time"

	"github.com/anthropics/feishu-guardian/internal/biz/domain"
)

// LedgerRepo persists ban ledger snapshots (SQLite).
type LedgerRepo interface {
	// Load reads the last snapshot; an absent snapshot yields an empty
	// slice, not an error
	Load(ctx context.Context) ([]domain.BanRecord, error)

	// Save atomically replaces the snapshot with the given records
	Save(ctx context.Context, records []domain.BanRecord) error
}

// MuteRepo tracks active timed mutes so the sweep can lift them, even
// after a restart.
type MuteRepo interface {
	// Add records an active mute (upserting on repeat offenses)
	Add(ctx context.Context, mute domain.Mute) error

	// Remove deletes the mute row once lifted
	Remove(ctx context.Context, chatID, userID string) error

	// Expired lists mutes whose expiry is at or before now
	Expired(ctx context.Context, now time.Time) ([]domain.Mute, error)
}
