package usecase

import (
	"sort"
	"sync"
	"time"

	"github.com/anthropics/feishu-guardian/internal/biz/domain"
)

// DecayWindow is how long an offense count survives without new offenses.
// Repeat detection and word-triggered escalation share this constant.
const DecayWindow = 20 * time.Hour

// BanLedger tracks per-user offense counts with lazy time decay: a record
// is reset on read once the decay window has elapsed, never by a background
// sweep. Safe for concurrent use; the snapshot scheduler reads it from its
// own goroutine.
type BanLedger struct {
	mu      sync.Mutex
	records map[string]*domain.BanRecord
}

// NewBanLedger creates an empty ledger
func NewBanLedger() *BanLedger {
	return &BanLedger{records: make(map[string]*domain.BanRecord)}
}

// Get returns the record for user, decaying it first. First-seen users get
// a fresh zero record.
func (l *BanLedger) Get(user string, now time.Time) domain.BanRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	return *l.refresh(user, now)
}

// RecordOffense increments the user's count, refreshes the action time and
// returns the new count.
func (l *BanLedger) RecordOffense(user string, now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec := l.refresh(user, now)
	rec.Count++
	rec.LastAction = now
	return rec.Count
}

// TopN force-decays every record, then ranks by count descending with ties
// broken by most recent action. Returns at most n records.
func (l *BanLedger) TopN(n int, now time.Time) []domain.BanRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]domain.BanRecord, 0, len(l.records))
	for user := range l.records {
		out = append(out, *l.refresh(user, now))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].LastAction.After(out[j].LastAction)
	})
	if n >= 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

// Snapshot copies every record for persistence.
func (l *BanLedger) Snapshot() []domain.BanRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]domain.BanRecord, 0, len(l.records))
	for _, rec := range l.records {
		out = append(out, *rec)
	}
	return out
}

// Restore replaces the ledger contents with a loaded snapshot.
func (l *BanLedger) Restore(records []domain.BanRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.records = make(map[string]*domain.BanRecord, len(records))
	for _, rec := range records {
		r := rec
		l.records[rec.UserID] = &r
	}
}

// refresh applies lazy decay. Caller must hold the lock.
func (l *BanLedger) refresh(user string, now time.Time) *domain.BanRecord {
	rec, ok := l.records[user]
	if !ok || rec.Expired(now, DecayWindow) {
		rec = &domain.BanRecord{UserID: user, LastAction: now}
		l.records[user] = rec
	}
	return rec
}

// NextDuration computes the escalated mute duration in minutes: the base
// doubled once per prior offense, floor one minute. Escalation is
// uncapped; the shift saturates to avoid integer overflow.
func NextDuration(baseMinutes, count int) int {
	if count > 30 {
		count = 30
	}
	d := baseMinutes << uint(count)
	if d < 1 {
		return 1
	}
	return d
}
