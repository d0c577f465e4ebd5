package domain

// EventKind discriminates chat event variants.
type EventKind int

const (
	// EventGroupMessage is a text message posted in a group chat.
	EventGroupMessage EventKind = iota
	// EventPrivateMessage is a text message sent to the bot directly.
	EventPrivateMessage
	// EventMemberJoined fires when a user enters the group.
	EventMemberJoined
)

// ChatEvent is a single incoming event from the chat platform.
// Immutable once received; handlers never modify it.
type ChatEvent struct {
	Kind       EventKind
	GroupID    string // chat id for group events, empty for p2p
	ChatID     string // chat id to reply into (group or p2p)
	SenderID   string // message sender, or the joining member for EventMemberJoined
	SenderName string // display name when the platform provides one
	Text       string // raw text including mention placeholders
}

// IsMessage reports whether the event carries text.
func (e *ChatEvent) IsMessage() bool {
	return e.Kind == EventGroupMessage || e.Kind == EventPrivateMessage
}
