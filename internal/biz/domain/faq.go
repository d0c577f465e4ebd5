package domain

import "time"

// DefaultFaqCooldown is the minimum interval between two firings of the
// same FAQ rule unless the rule configures its own.
const DefaultFaqCooldown = 60 * time.Second

// FaqRule maps trigger keywords to one or more canned replies.
// Static after load; runtime trigger state lives with the responder.
type FaqRule struct {
	Keywords  []string
	Whitelist []string // any whitelist hit suppresses the reply
	Replies   []string // one picked uniformly at random when several
	Cooldown  time.Duration
}
