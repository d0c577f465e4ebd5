package data

import (
	"database/sql"

	"github.com/anthropics/feishu-guardian/internal/biz/repo"
	"github.com/anthropics/feishu-guardian/internal/infra/feishu"
)

// Repositories contains all repositories
type Repositories struct {
	Message repo.MessageRepo
	Ledger  repo.LedgerRepo
	Mutes   repo.MuteRepo

	db *sql.DB
}

// NewRepositories creates all repositories over one guardian database
func NewRepositories(feishuClient *feishu.Client, dbPath string) (*Repositories, error) {
	db, err := OpenDB(dbPath)
	if err != nil {
		return nil, err
	}

	return &Repositories{
		Message: NewFeishuRepo(feishuClient),
		Ledger:  NewLedgerRepo(db),
		Mutes:   NewMuteRepo(db),
		db:      db,
	}, nil
}

// Close closes the underlying database
func (r *Repositories) Close() error {
	return r.db.Close()
}
