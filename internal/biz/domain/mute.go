package domain

import "time"

// Mute is an active timed mute awaiting expiry. Persisted so a restart
// does not leave users muted forever.
type Mute struct {
	ChatID string
	UserID string
	Until  time.Time
}
