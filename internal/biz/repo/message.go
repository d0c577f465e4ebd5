package repo

import (
	"context"
	"time"
)

// MessageRepo sends moderation actions back to the chat platform.
// Sends are fire-and-forget from the pipeline's point of view: a failed
// send is logged by the caller, never retried.
type MessageRepo interface {
	// SendText sends a plain text message to a chat (group or p2p)
	SendText(ctx context.Context, chatID, text string) error

	// SendTextWithMention sends a text message prefixed with an @ mention
	// of the given user
	SendTextWithMention(ctx context.Context, chatID, text, userID, userName string) error

	// MuteUser revokes the user's posting rights in the chat for the
	// given duration; the unmute sweep lifts it on expiry
	MuteUser(ctx context.Context, chatID, userID string, d time.Duration) error

	// UnmuteUser restores the user's posting rights
	UnmuteUser(ctx context.Context, chatID, userID string) error
}
