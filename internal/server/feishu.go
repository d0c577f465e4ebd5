package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/anthropics/feishu-guardian/internal/biz/domain"
	"github.com/anthropics/feishu-guardian/internal/infra/feishu"
	"github.com/anthropics/feishu-guardian/internal/service"
)

// GuardServer receives Feishu events, converts them to chat events and
// feeds them to the moderation pipeline in arrival order.
type GuardServer struct {
	feishuClient *feishu.Client
	pipeline     *service.Pipeline
	scheduler    *service.Scheduler

	// Message deduplication cache: the platform redelivers on slow ACKs
	seenMsgsMu sync.Mutex
	seenMsgs   map[string]time.Time
}

// NewGuardServer creates a new guard server
func NewGuardServer(feishuClient *feishu.Client, pipeline *service.Pipeline, scheduler *service.Scheduler) *GuardServer {
	return &GuardServer{
		feishuClient: feishuClient,
		pipeline:     pipeline,
		scheduler:    scheduler,
		seenMsgs:     make(map[string]time.Time),
	}
}

// Start starts the pipeline, the maintenance scheduler and the Feishu
// client (blocking on the WebSocket loop).
func (s *GuardServer) Start() error {
	s.pipeline.Start()
	s.scheduler.Start(context.Background())

	s.feishuClient.OnMessage(s.handleMessage)
	s.feishuClient.OnMemberJoined(s.handleMemberJoined)
	return s.feishuClient.Start()
}

// Stop stops the server
func (s *GuardServer) Stop() {
	s.feishuClient.Stop()
	s.pipeline.Stop()
	s.scheduler.Stop()
}

// handleMessage converts one received message into a chat event
func (s *GuardServer) handleMessage(msg *feishu.Message) {
	if s.isMessageSeen(msg.MsgID) {
		fmt.Printf("[Server] Duplicate message ignored: %s\n", msg.MsgID)
		return
	}
	s.markMessageSeen(msg.MsgID)

	ev := &domain.ChatEvent{
		Kind:   domain.EventPrivateMessage,
		ChatID: msg.ChatID,
		Text:   msg.Content,
	}
	if msg.ChatType == "group" {
		ev.Kind = domain.EventGroupMessage
		ev.GroupID = msg.ChatID
	}
	if msg.Sender != nil {
		ev.SenderID = msg.Sender.SenderID
	}

	fmt.Printf("[Server] Received %s message from %s: %s\n",
		msg.ChatType, ev.SenderID, truncate(msg.Content, 50))
	s.pipeline.Submit(ev)
}

// handleMemberJoined converts one member-added event into a chat event
func (s *GuardServer) handleMemberJoined(m *feishu.MemberJoined) {
	fmt.Printf("[Server] Member %s joined %s\n", m.UserID, m.ChatID)
	s.pipeline.Submit(&domain.ChatEvent{
		Kind:       domain.EventMemberJoined,
		GroupID:    m.ChatID,
		ChatID:     m.ChatID,
		SenderID:   m.UserID,
		SenderName: m.Name,
	})
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// isMessageSeen checks if a message has been processed
func (s *GuardServer) isMessageSeen(msgID string) bool {
	s.seenMsgsMu.Lock()
	defer s.seenMsgsMu.Unlock()
	_, exists := s.seenMsgs[msgID]
	return exists
}

// markMessageSeen marks a message as processed and prunes old entries
func (s *GuardServer) markMessageSeen(msgID string) {
	s.seenMsgsMu.Lock()
	defer s.seenMsgsMu.Unlock()
	s.seenMsgs[msgID] = time.Now()

	cutoff := time.Now().Add(-5 * time.Minute)
	for id, ts := range s.seenMsgs {
		if ts.Before(cutoff) {
			delete(s.seenMsgs, id)
		}
	}
}
