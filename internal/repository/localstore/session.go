package localstore

import (
	"time"

	"github.com/lithammer/shortuuid/v4"

	"github.com/avilyaev/script-coach/internal/domain"
	"github.com/avilyaev/script-coach/internal/kvstore"
)

const (
	historyKey = "chat-history"
	draftKey   = "chat-messages"
)

// SessionRepository stores the full chat collection under a single
// namespaced key. Every operation reads, modifies and rewrites the
// collection; concurrent writers are not coordinated (last write wins,
// an accepted limitation of the single-user design).
type SessionRepository struct {
	store kvstore.Store
}

// New creates a session repository on top of a key-value store
func New(store kvstore.Store) *SessionRepository {
	return &SessionRepository{store: store}
}

func (r *SessionRepository) load() []domain.ChatSession {
	var sessions []domain.ChatSession
	if !r.store.Get(historyKey, &sessions) {
		return []domain.ChatSession{}
	}
	return sessions
}

func (r *SessionRepository) save(sessions []domain.ChatSession) {
	r.store.Set(historyKey, sessions)
}

// ListAll returns all sessions, most-recently-created first
func (r *SessionRepository) ListAll() []domain.ChatSession {
	return r.load()
}

// GetByID returns nil when the session does not exist
func (r *SessionRepository) GetByID(id string) *domain.ChatSession {
	for _, s := range r.load() {
		if s.ID == id {
			return &s
		}
	}
	return nil
}

// Create inserts a new session at the head of the list
func (r *SessionRepository) Create(messages []domain.Message, title string) string {
	now := time.Now().UTC()
	entry := domain.ChatSession{
		ID:          shortuuid.New(),
		Title:       title,
		Messages:    domain.CloneMessages(messages),
		CreatedAt:   now,
		LastUpdated: now,
	}
	r.save(append([]domain.ChatSession{entry}, r.load()...))
	return entry.ID
}

// UpdateMessages replaces the message list of an existing session
func (r *SessionRepository) UpdateMessages(id string, messages []domain.Message) {
	sessions := r.load()
	for i := range sessions {
		if sessions[i].ID == id {
			sessions[i].Messages = domain.CloneMessages(messages)
			sessions[i].LastUpdated = time.Now().UTC()
			r.save(sessions)
			return
		}
	}
}

// UpdateTitle replaces the title of an existing session
func (r *SessionRepository) UpdateTitle(id string, title string) {
	sessions := r.load()
	for i := range sessions {
		if sessions[i].ID == id {
			sessions[i].Title = title
			sessions[i].LastUpdated = time.Now().UTC()
			r.save(sessions)
			return
		}
	}
}

// Delete removes the session; deleting a nonexistent id is a no-op
func (r *SessionRepository) Delete(id string) {
	sessions := r.load()
	kept := sessions[:0]
	for _, s := range sessions {
		if s.ID != id {
			kept = append(kept, s)
		}
	}
	r.save(kept)
}

// ClearAll removes every session
func (r *SessionRepository) ClearAll() {
	r.save([]domain.ChatSession{})
}

// Latest returns the most recently created session, or nil
func (r *SessionRepository) Latest() *domain.ChatSession {
	sessions := r.load()
	if len(sessions) == 0 {
		return nil
	}
	return &sessions[0]
}

// Exists reports whether a session with the given id is stored
func (r *SessionRepository) Exists(id string) bool {
	return r.GetByID(id) != nil
}

// Count returns the number of stored sessions
func (r *SessionRepository) Count() int {
	return len(r.load())
}

// LoadMessages returns the session's messages with the initial greeting
// guaranteed at the head
func (r *SessionRepository) LoadMessages(id string) []domain.Message {
	session := r.GetByID(id)
	if session == nil || len(session.Messages) == 0 {
		return nil
	}
	if session.Messages[0].ID == domain.InitialAssistantMessageID {
		return domain.CloneMessages(session.Messages)
	}
	return append([]domain.Message{domain.InitialAssistantMessage()}, session.Messages...)
}

// SavedDraft returns the not-yet-persisted working message list
func (r *SessionRepository) SavedDraft() []domain.Message {
	var messages []domain.Message
	if !r.store.Get(draftKey, &messages) || len(messages) == 0 {
		return []domain.Message{domain.InitialAssistantMessage()}
	}
	return messages
}

// SaveDraft stores the working message list
func (r *SessionRepository) SaveDraft(messages []domain.Message) {
	r.store.Set(draftKey, messages)
}

// ClearDraft discards the working message list
func (r *SessionRepository) ClearDraft() {
	r.store.Delete(draftKey)
}
