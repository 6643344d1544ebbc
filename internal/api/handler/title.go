package handler

import (
	"encoding/json"
	"net/http"

	"github.com/avilyaev/script-coach/internal/api/response"
	"github.com/avilyaev/script-coach/internal/domain"
	"github.com/avilyaev/script-coach/internal/service"
)

// TitleHandler generates chat titles. The endpoint always answers with
// a usable title: every upstream failure resolves to the deterministic
// fallback.
type TitleHandler struct {
	titles *service.TitleGenerator
}

// NewTitleHandler creates a new title handler
func NewTitleHandler(titles *service.TitleGenerator) *TitleHandler {
	return &TitleHandler{titles: titles}
}

// Generate returns a title for the posted conversation
func (h *TitleHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Messages []domain.Message `json:"messages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	response.OK(w, map[string]string{
		"title": h.titles.Generate(r.Context(), req.Messages),
	})
}
