package feishu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	"github.com/larksuite/oapi-sdk-go/v3/event/dispatcher"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	larkws "github.com/larksuite/oapi-sdk-go/v3/ws"
)

const openBaseURL = "https://open.feishu.cn"

// Message represents a received Feishu text message.
// Content is the raw text including mention placeholders (@_user_1 etc.);
// the pipeline strips them only where it parses commands.
type Message struct {
	ChatID     string
	MsgID      string
	MsgType    string // text, image, post
	ChatType   string // p2p (private), group
	Content    string
	Sender     *Sender
	CreateTime int64 // milliseconds Unix timestamp from Feishu
}

// Sender represents the message sender
type Sender struct {
	SenderID   string
	SenderType string // user, bot
	TenantKey  string
}

// MemberJoined represents a user entering a group chat.
type MemberJoined struct {
	ChatID string
	UserID string
	Name   string
}

// MessageHandler is the callback for received messages
type MessageHandler func(msg *Message)

// MemberJoinedHandler is the callback for member-added events
type MemberJoinedHandler func(ev *MemberJoined)

// Client is the Feishu API client
type Client struct {
	appID          string
	appSecret      string
	larkCli        *lark.Client
	wsCli          *larkws.Client
	onMessage      MessageHandler
	onMemberJoined MemberJoinedHandler
	ctx            context.Context
	cancel         context.CancelFunc
}

// NewClient creates a new Feishu client
func NewClient(appID, appSecret string) *Client {
	return &Client{
		appID:     appID,
		appSecret: appSecret,
	}
}

// OnMessage sets the message handler
func (c *Client) OnMessage(handler MessageHandler) {
	c.onMessage = handler
}

// OnMemberJoined sets the member-added handler
func (c *Client) OnMemberJoined(handler MemberJoinedHandler) {
	c.onMemberJoined = handler
}

// Start connects to Feishu via WebSocket and starts listening for events
func (c *Client) Start() error {
	c.ctx, c.cancel = context.WithCancel(context.Background())

	c.larkCli = lark.NewClient(c.appID, c.appSecret)

	// Handlers must return quickly so the SDK can send its ACK, otherwise
	// Feishu retries the delivery.
	eventHandler := dispatcher.NewEventDispatcher("", "").
		OnP2MessageReceiveV1(func(ctx context.Context, event *larkim.P2MessageReceiveV1) error {
			go c.handleMessage(event)
			return nil
		}).
		OnP2ChatMemberUserAddedV1(func(ctx context.Context, event *larkim.P2ChatMemberUserAddedV1) error {
			go c.handleMemberAdded(event)
			return nil
		})

	c.wsCli = larkws.NewClient(c.appID, c.appSecret,
		larkws.WithEventHandler(eventHandler),
		larkws.WithLogLevel(larkcore.LogLevelInfo),
	)

	fmt.Println("[Feishu] Starting WebSocket connection...")

	// Start WebSocket (blocking)
	return c.wsCli.Start(c.ctx)
}

// Stop disconnects from Feishu
func (c *Client) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
}

// handleMessage processes incoming Feishu messages
func (c *Client) handleMessage(event *larkim.P2MessageReceiveV1) {
	if c.onMessage == nil {
		return
	}
	rawMsg := event.Event.Message
	if rawMsg == nil {
		return
	}

	// Ignore the bot's own messages to prevent feedback loops
	if event.Event.Sender != nil && event.Event.Sender.SenderType != nil {
		if *event.Event.Sender.SenderType == "app" {
			return
		}
	}

	msg := &Message{
		ChatID:  *rawMsg.ChatId,
		MsgID:   *rawMsg.MessageId,
		MsgType: *rawMsg.MessageType,
	}

	// Only text messages carry moderatable content
	if msg.MsgType != "text" {
		return
	}
	if rawMsg.Content != nil {
		msg.Content = parseTextContent(*rawMsg.Content)
	}

	if rawMsg.CreateTime != nil {
		if ts, err := strconv.ParseInt(*rawMsg.CreateTime, 10, 64); err == nil {
			msg.CreateTime = ts
		}
	}
	if rawMsg.ChatType != nil {
		msg.ChatType = *rawMsg.ChatType
	}

	if event.Event.Sender != nil {
		msg.Sender = &Sender{}
		if event.Event.Sender.SenderId != nil && event.Event.Sender.SenderId.OpenId != nil {
			msg.Sender.SenderID = *event.Event.Sender.SenderId.OpenId
		}
		if event.Event.Sender.SenderType != nil {
			msg.Sender.SenderType = *event.Event.Sender.SenderType
		}
		if event.Event.Sender.TenantKey != nil {
			msg.Sender.TenantKey = *event.Event.Sender.TenantKey
		}
	}

	c.onMessage(msg)
}

// handleMemberAdded processes member-added events
func (c *Client) handleMemberAdded(event *larkim.P2ChatMemberUserAddedV1) {
	if c.onMemberJoined == nil || event.Event == nil || event.Event.ChatId == nil {
		return
	}
	chatID := *event.Event.ChatId

	for _, user := range event.Event.Users {
		if user == nil {
			continue
		}
		ev := &MemberJoined{ChatID: chatID}
		if user.UserId != nil && user.UserId.OpenId != nil {
			ev.UserID = *user.UserId.OpenId
		}
		if user.Name != nil {
			ev.Name = *user.Name
		}
		if ev.UserID == "" {
			continue
		}
		c.onMemberJoined(ev)
	}
}

// parseTextContent extracts the text field from a message content payload.
// Mention placeholders are kept as-is.
func parseTextContent(content string) string {
	var parsed struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return content
	}
	return parsed.Text
}

// Mention represents a user to be mentioned in a message
type Mention struct {
	UserID   string // open_id (ou_xxx)
	UserName string // display name for the mention
}

// SendText sends a text message to a chat
func (c *Client) SendText(chatID, text string) error {
	content := map[string]string{"text": text}
	contentJSON, _ := json.Marshal(content)

	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType(larkim.ReceiveIdTypeChatId).
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(chatID).
			MsgType(larkim.MsgTypeText).
			Content(string(contentJSON)).
			Build()).
		Build()

	resp, err := c.larkCli.Im.Message.Create(context.Background(), req)
	if err != nil {
		return fmt.Errorf("send message failed: %w", err)
	}
	if !resp.Success() {
		return fmt.Errorf("send message error: %s", resp.Msg)
	}
	return nil
}

// SendTextWithMention sends a text message prefixed with an @ mention tag
func (c *Client) SendTextWithMention(chatID, text string, mention Mention) error {
	name := mention.UserName
	if name == "" {
		name = "member"
	}
	tag := fmt.Sprintf("<at user_id=%q>@%s</at>", mention.UserID, name)

	content := map[string]string{"text": tag + " " + text}
	contentJSON, _ := json.Marshal(content)

	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType(larkim.ReceiveIdTypeChatId).
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(chatID).
			MsgType(larkim.MsgTypeText).
			Content(string(contentJSON)).
			Build()).
		Build()

	resp, err := c.larkCli.Im.Message.Create(context.Background(), req)
	if err != nil {
		return fmt.Errorf("send message with mention failed: %w", err)
	}
	if !resp.Success() {
		return fmt.Errorf("send message with mention error: %s", resp.Msg)
	}
	return nil
}

// RestrictSpeech removes the user from the chat's moderator list.
// The guarded group runs with posting permission set to "moderator_list"
// and every member enrolled as a moderator, so removal acts as a mute.
func (c *Client) RestrictSpeech(chatID, userID string) error {
	return c.updateModeration(chatID, nil, []string{userID})
}

// AllowSpeech puts the user back on the chat's moderator list.
func (c *Client) AllowSpeech(chatID, userID string) error {
	return c.updateModeration(chatID, []string{userID}, nil)
}

// updateModeration calls the chat moderation endpoint directly; the SDK
// has no wrapper for it.
func (c *Client) updateModeration(chatID string, added, removed []string) error {
	token, err := c.tenantAccessToken()
	if err != nil {
		return err
	}

	body := map[string]interface{}{
		"moderation_setting": "moderator_list",
	}
	if len(added) > 0 {
		body["moderator_added_list"] = added
	}
	if len(removed) > 0 {
		body["moderator_removed_list"] = removed
	}
	payload, _ := json.Marshal(body)

	url := fmt.Sprintf("%s/open-apis/im/v1/chats/%s/moderation?user_id_type=open_id", openBaseURL, chatID)
	req, err := http.NewRequest(http.MethodPut, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build moderation request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("update moderation: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode moderation response: %w", err)
	}
	if result.Code != 0 {
		return fmt.Errorf("moderation API error %d: %s", result.Code, result.Msg)
	}
	return nil
}

// tenantAccessToken fetches a tenant access token for raw API calls
func (c *Client) tenantAccessToken() (string, error) {
	tokenReq := fmt.Sprintf(`{"app_id":%q,"app_secret":%q}`, c.appID, c.appSecret)
	resp, err := http.Post(
		openBaseURL+"/open-apis/auth/v3/tenant_access_token/internal",
		"application/json",
		bytes.NewReader([]byte(tokenReq)),
	)
	if err != nil {
		return "", fmt.Errorf("get token: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		Code              int    `json:"code"`
		Msg               string `json:"msg"`
		TenantAccessToken string `json:"tenant_access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode token: %w", err)
	}
	if result.Code != 0 {
		return "", fmt.Errorf("token API error %d: %s", result.Code, result.Msg)
	}
	return result.TenantAccessToken, nil
}
