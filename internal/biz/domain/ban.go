package domain

import "time"

// BanRecord tracks one user's offense count within the decay window.
type BanRecord struct {
	UserID     string
	Count      int
	LastAction time.Time
}

// Expired reports whether the record has sat idle strictly longer than the
// decay window and should be treated as reset.
func (r *BanRecord) Expired(now time.Time, window time.Duration) bool {
	return now.Sub(r.LastAction) > window
}
