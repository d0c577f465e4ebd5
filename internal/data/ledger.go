package data

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/anthropics/feishu-guardian/internal/biz/domain"
	"github.com/anthropics/feishu-guardian/internal/biz/repo"

	_ "modernc.org/sqlite"
)

// OpenDB opens (creating if needed) the guardian database and its schema.
func OpenDB(dbPath string) (*sql.DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS ban_records (
			user_id TEXT PRIMARY KEY,
			count INTEGER NOT NULL,
			last_action INTEGER NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create ban_records table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS mutes (
			chat_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			until INTEGER NOT NULL,
			PRIMARY KEY (chat_id, user_id)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create mutes table: %w", err)
	}

	return db, nil
}

// ledgerRepo implements the ledger snapshot repository
type ledgerRepo struct {
	db *sql.DB
}

// NewLedgerRepo creates a ledger snapshot repository over db
func NewLedgerRepo(db *sql.DB) repo.LedgerRepo {
	return &ledgerRepo{db: db}
}

// Load reads the last snapshot. No rows means an empty ledger.
func (r *ledgerRepo) Load(ctx context.Context) ([]domain.BanRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, count, last_action FROM ban_records
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load ban records: %w", err)
	}
	defer rows.Close()

	var records []domain.BanRecord
	for rows.Next() {
		var rec domain.BanRecord
		var lastAction int64
		if err := rows.Scan(&rec.UserID, &rec.Count, &lastAction); err != nil {
			return nil, fmt.Errorf("failed to scan ban record: %w", err)
		}
		rec.LastAction = time.Unix(lastAction, 0)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Save replaces the whole snapshot in one transaction.
func (r *ledgerRepo) Save(ctx context.Context, records []domain.BanRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin snapshot: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM ban_records`); err != nil {
		return fmt.Errorf("failed to clear snapshot: %w", err)
	}
	for _, rec := range records {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO ban_records (user_id, count, last_action) VALUES (?, ?, ?)
		`, rec.UserID, rec.Count, rec.LastAction.Unix())
		if err != nil {
			return fmt.Errorf("failed to write record for %s: %w", rec.UserID, err)
		}
	}
	return tx.Commit()
}

// muteRepo implements the active-mute repository
type muteRepo struct {
	db *sql.DB
}

// NewMuteRepo creates an active-mute repository over db
func NewMuteRepo(db *sql.DB) repo.MuteRepo {
	return &muteRepo{db: db}
}

// Add records an active mute; a repeat offense extends the existing row.
func (r *muteRepo) Add(ctx context.Context, mute domain.Mute) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO mutes (chat_id, user_id, until) VALUES (?, ?, ?)
		ON CONFLICT(chat_id, user_id) DO UPDATE SET until = excluded.until
	`, mute.ChatID, mute.UserID, mute.Until.Unix())
	if err != nil {
		return fmt.Errorf("failed to record mute: %w", err)
	}
	return nil
}

// Remove deletes the mute row.
func (r *muteRepo) Remove(ctx context.Context, chatID, userID string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM mutes WHERE chat_id = ? AND user_id = ?
	`, chatID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove mute: %w", err)
	}
	return nil
}

// Expired lists mutes due at or before now.
func (r *muteRepo) Expired(ctx context.Context, now time.Time) ([]domain.Mute, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT chat_id, user_id, until FROM mutes WHERE until <= ?
	`, now.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to list expired mutes: %w", err)
	}
	defer rows.Close()

	var mutes []domain.Mute
	for rows.Next() {
		var m domain.Mute
		var until int64
		if err := rows.Scan(&m.ChatID, &m.UserID, &until); err != nil {
			return nil, fmt.Errorf("failed to scan mute: %w", err)
		}
		m.Until = time.Unix(until, 0)
		mutes = append(mutes, m)
	}
	return mutes, rows.Err()
}
