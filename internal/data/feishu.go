package data

import (
	"context"
	"time"

	"github.com/anthropics/feishu-guardian/internal/biz/repo"
	"github.com/anthropics/feishu-guardian/internal/infra/feishu"
)

// feishuRepo implements the outgoing message repository over the Feishu client
type feishuRepo struct {
	client *feishu.Client
}

// NewFeishuRepo creates a new Feishu repository
func NewFeishuRepo(client *feishu.Client) repo.MessageRepo {
	return &feishuRepo{client: client}
}

// SendText sends a plain text message
func (r *feishuRepo) SendText(ctx context.Context, chatID, text string) error {
	return r.client.SendText(chatID, text)
}

// SendTextWithMention sends a text message prefixed with an @ mention
func (r *feishuRepo) SendTextWithMention(ctx context.Context, chatID, text, userID, userName string) error {
	return r.client.SendTextWithMention(chatID, text, feishu.Mention{
		UserID:   userID,
		UserName: userName,
	})
}

// MuteUser revokes the user's posting rights in the chat.
// Feishu has no native timed mute; the sweep restores the rights later.
func (r *feishuRepo) MuteUser(ctx context.Context, chatID, userID string, d time.Duration) error {
	return r.client.RestrictSpeech(chatID, userID)
}

// UnmuteUser restores the user's posting rights
func (r *feishuRepo) UnmuteUser(ctx context.Context, chatID, userID string) error {
	return r.client.AllowSpeech(chatID, userID)
}
