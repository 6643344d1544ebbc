package domain

import (
	"github.com/google/uuid"
)

// MessageRole represents the sender of a message
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// MessageStatus tracks the two-phase write of a message during a turn.
// A tentative message has been appended optimistically and is discarded
// when the turn fails; a committed message survived stream completion.
type MessageStatus string

const (
	StatusTentative MessageStatus = "tentative"
	StatusCommitted MessageStatus = "committed"
)

// Message represents one turn of a conversation
type Message struct {
	ID         string        `json:"id"`
	Role       MessageRole   `json:"role"`
	Content    string        `json:"content"`
	IsScenario bool          `json:"is_scenario,omitempty"`
	Status     MessageStatus `json:"status,omitempty"`
}

// InitialAssistantMessageID identifies the fixed greeting that opens
// every chat. The id is stable so reloaded histories can recognize it.
const InitialAssistantMessageID = "assistant-initial"

// DefaultChatTitle is used until a real title has been generated
const DefaultChatTitle = "New Chat"

// InitialAssistantMessage returns the greeting seeded into new chats
func InitialAssistantMessage() Message {
	return Message{
		ID:      InitialAssistantMessageID,
		Role:    RoleAssistant,
		Content: "Hi! I'm your script coach. Tell me about your script and I'll help you improve it.",
		Status:  StatusCommitted,
	}
}

// NewUserMessage creates a tentative user message
func NewUserMessage(content string) Message {
	return Message{
		ID:      uuid.NewString(),
		Role:    RoleUser,
		Content: content,
		Status:  StatusTentative,
	}
}

// NewAssistantMessage creates an empty tentative assistant message that
// accumulates streamed deltas
func NewAssistantMessage() Message {
	return Message{
		ID:     uuid.NewString(),
		Role:   RoleAssistant,
		Status: StatusTentative,
	}
}

// CloneMessages returns a copy that does not share the backing array
// with the caller
func CloneMessages(messages []Message) []Message {
	out := make([]Message, len(messages))
	copy(out, messages)
	return out
}
