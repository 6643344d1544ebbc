package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/avilyaev/script-coach/internal/api/response"
	"github.com/avilyaev/script-coach/internal/domain"
)

// SessionHandler exposes the chat history repository
type SessionHandler struct {
	repo domain.SessionRepository
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(repo domain.SessionRepository) *SessionHandler {
	return &SessionHandler{repo: repo}
}

// List returns all stored sessions, most recent first
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	response.OK(w, h.repo.ListAll())
}

// Create stores a new session and returns its id
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title    string           `json:"title"`
		Messages []domain.Message `json:"messages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if len(req.Messages) == 0 {
		req.Messages = []domain.Message{domain.InitialAssistantMessage()}
	}
	if req.Title == "" {
		req.Title = domain.DefaultChatTitle
	}

	id := h.repo.Create(req.Messages, req.Title)
	response.Created(w, map[string]string{"id": id})
}

// Get returns one session by id
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "chatID")
	session := h.repo.GetByID(id)
	if session == nil {
		response.NotFound(w, "chat not found")
		return
	}
	response.OK(w, session)
}

// UpdateMessages replaces the message list of a session
func (h *SessionHandler) UpdateMessages(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "chatID")

	var req struct {
		Messages []domain.Message `json:"messages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if !h.repo.Exists(id) {
		response.NotFound(w, "chat not found")
		return
	}

	h.repo.UpdateMessages(id, req.Messages)
	response.OK(w, map[string]string{"message": "messages updated"})
}

// UpdateTitle replaces the title of a session
func (h *SessionHandler) UpdateTitle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "chatID")

	var req struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Title == "" {
		response.BadRequest(w, "invalid request body")
		return
	}

	if !h.repo.Exists(id) {
		response.NotFound(w, "chat not found")
		return
	}

	h.repo.UpdateTitle(id, req.Title)
	response.OK(w, map[string]string{"message": "title updated"})
}

// Delete removes a session; deleting an unknown id succeeds
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.repo.Delete(chi.URLParam(r, "chatID"))
	response.OK(w, map[string]string{"message": "chat deleted"})
}

// ClearAll removes every stored session
func (h *SessionHandler) ClearAll(w http.ResponseWriter, r *http.Request) {
	h.repo.ClearAll()
	response.OK(w, map[string]string{"message": "history cleared"})
}
