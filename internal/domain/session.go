package domain

import (
	"time"
)

// ChatSession represents one persisted conversation
type ChatSession struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Messages    []Message `json:"messages"`
	CreatedAt   time.Time `json:"createdAt"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// SessionRepository defines the interface for chat history storage.
// Operations are synchronous and read-modify-write the whole collection
// per call; concurrent writers are not coordinated (last write wins).
type SessionRepository interface {
	// ListAll returns all sessions, most-recently-created first
	ListAll() []ChatSession

	// GetByID returns nil when the session does not exist
	GetByID(id string) *ChatSession

	// Create inserts a new session at the head of the list and returns
	// its generated id
	Create(messages []Message, title string) string

	// UpdateMessages replaces the message list and bumps lastUpdated.
	// Updating a nonexistent id is a no-op.
	UpdateMessages(id string, messages []Message)

	// UpdateTitle replaces the title and bumps lastUpdated. Updating a
	// nonexistent id is a no-op.
	UpdateTitle(id string, title string)

	// Delete removes the session; deleting a nonexistent id is a no-op
	Delete(id string)

	// ClearAll removes every session
	ClearAll()

	// Latest returns the most recently created session, or nil
	Latest() *ChatSession

	// Exists reports whether a session with the given id is stored
	Exists(id string) bool

	// Count returns the number of stored sessions
	Count() int

	// LoadMessages returns the session's messages with the initial
	// greeting guaranteed at the head, or nil when the session is
	// missing or empty
	LoadMessages(id string) []Message

	// SavedDraft returns the not-yet-persisted working message list,
	// seeding a fresh one with the initial greeting when none is stored
	SavedDraft() []Message

	// SaveDraft stores the working message list
	SaveDraft(messages []Message)

	// ClearDraft discards the working message list
	ClearDraft()
}
