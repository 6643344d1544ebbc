package llm

import (
	"github.com/avilyaev/script-coach/internal/domain"
)

// ChatMessage is the plain role/content wire shape used by the
// Anthropic messages API
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ContentBlock is one typed text block of an OpenAI input message
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// BlockMessage is the content-block wire shape used by the OpenAI
// responses API
type BlockMessage struct {
	Role    string         `json:"role"`
	Content []ContentBlock `json:"content"`
}

// FormatAnthropic converts application messages to the Anthropic wire
// shape. Input is never mutated and order is preserved; an empty input
// yields an empty payload.
func FormatAnthropic(messages []domain.Message) []ChatMessage {
	out := make([]ChatMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, ChatMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}
	return out
}

// FormatOpenAI converts application messages to the OpenAI wire shape:
// user content wrapped in input_text blocks, assistant content in
// output_text blocks
func FormatOpenAI(messages []domain.Message) []BlockMessage {
	out := make([]BlockMessage, 0, len(messages))
	for _, m := range messages {
		blockType := "output_text"
		if m.Role == domain.RoleUser {
			blockType = "input_text"
		}
		out = append(out, BlockMessage{
			Role: string(m.Role),
			Content: []ContentBlock{
				{Type: blockType, Text: m.Content},
			},
		})
	}
	return out
}
