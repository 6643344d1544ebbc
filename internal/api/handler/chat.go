package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/avilyaev/script-coach/internal/api/response"
	"github.com/avilyaev/script-coach/internal/domain"
	"github.com/avilyaev/script-coach/internal/llm"
	"github.com/avilyaev/script-coach/internal/scripts"
)

// ChatHandler relays a conversation to the configured provider and
// streams the reply back as server-sent events
type ChatHandler struct {
	registry *llm.Registry
	prompts  scripts.Prompts
	validate *validator.Validate
}

// NewChatHandler creates a new chat relay handler
func NewChatHandler(registry *llm.Registry, prompts scripts.Prompts) *ChatHandler {
	return &ChatHandler{
		registry: registry,
		prompts:  prompts,
		validate: validator.New(),
	}
}

type chatRequest struct {
	Messages []chatMessage `json:"messages" validate:"required,min=1,dive"`
	Training bool          `json:"training"`
}

type chatMessage struct {
	ID         string `json:"id"`
	Role       string `json:"role" validate:"required,oneof=user assistant"`
	Content    string `json:"content"`
	IsScenario bool   `json:"is_scenario"`
}

// Relay validates the request, attaches the system prompt and streams
// the upstream response to the caller without buffering it
func (h *ChatHandler) Relay(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid or missing messages in request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, "invalid or missing messages in request body")
		return
	}

	provider, err := h.registry.Default()
	if err != nil {
		log.Error().Err(err).Msg("no usable provider")
		response.InternalError(w, "llm provider is not configured")
		return
	}

	messages := make([]domain.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, domain.Message{
			ID:         m.ID,
			Role:       domain.MessageRole(m.Role),
			Content:    m.Content,
			IsScenario: m.IsScenario,
		})
	}

	body, err := provider.StreamChat(r.Context(), messages, h.prompts.Select(req.Training))
	if err != nil {
		log.Error().Err(err).Str("provider", provider.Name()).Msg("upstream call failed")
		response.BadGateway(w, "upstream provider request failed")
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	flusher, canFlush := w.(http.Flusher)
	buf := make([]byte, 4096)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				// caller went away mid-stream
				return
			}
			if canFlush {
				flusher.Flush()
			}
		}
		if err == io.EOF {
			return
		}
		if err != nil {
			// headers are already sent; terminate the stream
			log.Error().Err(err).Str("provider", provider.Name()).Msg("upstream stream aborted")
			return
		}
	}
}
