package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/avilyaev/script-coach/internal/domain"
	"github.com/avilyaev/script-coach/internal/llm"
)

const (
	// titleMessageCount bounds how much of the conversation is sent to
	// the summarization endpoint
	titleMessageCount = 3

	// fallbackTitleRunes is the truncation length of the deterministic
	// fallback title
	fallbackTitleRunes = 30
)

// TitleGenerator produces a human-readable session title. Generation is
// best-effort: every failure mode resolves to a usable string and is
// never surfaced to the caller.
type TitleGenerator struct {
	provider llm.Provider
}

// NewTitleGenerator creates a title generator. provider may be nil when
// no upstream is configured; only the deterministic fallback is used
// then.
func NewTitleGenerator(provider llm.Provider) *TitleGenerator {
	return &TitleGenerator{provider: provider}
}

// Generate returns a non-empty title for the conversation
func (g *TitleGenerator) Generate(ctx context.Context, messages []domain.Message) string {
	fallback := FallbackTitle(messages)

	if g.provider == nil || !g.provider.IsConfigured() {
		return fallback
	}

	head := messages
	if len(head) > titleMessageCount {
		head = head[:titleMessageCount]
	}

	title, err := g.provider.GenerateTitle(ctx, head)
	if err != nil {
		log.Debug().Err(err).Msg("title generation failed, using fallback")
		return fallback
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return fallback
	}
	return title
}

// FallbackTitle derives a deterministic title from the first user
// message, truncated to a short preview
func FallbackTitle(messages []domain.Message) string {
	for _, m := range messages {
		if m.Role == domain.RoleUser && strings.TrimSpace(m.Content) != "" {
			return truncate(m.Content, fallbackTitleRunes)
		}
	}
	return domain.DefaultChatTitle
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
