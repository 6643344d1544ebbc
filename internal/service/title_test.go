package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/avilyaev/script-coach/internal/domain"
)

func conversation() []domain.Message {
	return []domain.Message{
		domain.InitialAssistantMessage(),
		{ID: "u1", Role: domain.RoleUser, Content: "Help me tighten the opening scene of my road-trip drama"},
		{ID: "a1", Role: domain.RoleAssistant, Content: "Happy to. Paste the scene."},
	}
}

func TestTitleGenerator_UsesProviderTitle(t *testing.T) {
	provider := new(MockProvider)
	provider.On("IsConfigured").Return(true)
	provider.On("GenerateTitle", mock.Anything, mock.Anything).Return("  Road-trip drama opening  ", nil)

	g := NewTitleGenerator(provider)
	got := g.Generate(context.Background(), conversation())

	assert.Equal(t, "Road-trip drama opening", got)
	provider.AssertExpectations(t)
}

func TestTitleGenerator_SendsOnlyConversationHead(t *testing.T) {
	provider := new(MockProvider)
	provider.On("IsConfigured").Return(true)
	provider.On("GenerateTitle", mock.Anything, mock.MatchedBy(func(msgs []domain.Message) bool {
		return len(msgs) == titleMessageCount
	})).Return("Title", nil)

	long := append(conversation(),
		domain.Message{ID: "u2", Role: domain.RoleUser, Content: "more"},
		domain.Message{ID: "a2", Role: domain.RoleAssistant, Content: "and more"},
	)

	g := NewTitleGenerator(provider)
	assert.Equal(t, "Title", g.Generate(context.Background(), long))
	provider.AssertExpectations(t)
}

func TestTitleGenerator_FallbackPaths(t *testing.T) {
	msgs := conversation()

	tests := []struct {
		name  string
		setup func(*MockProvider)
	}{
		{
			"network error",
			func(p *MockProvider) {
				p.On("IsConfigured").Return(true)
				p.On("GenerateTitle", mock.Anything, mock.Anything).Return("", errors.New("connection refused"))
			},
		},
		{
			"upstream non-success",
			func(p *MockProvider) {
				p.On("IsConfigured").Return(true)
				p.On("GenerateTitle", mock.Anything, mock.Anything).Return("", errors.New("anthropic returned status 500"))
			},
		},
		{
			"empty payload",
			func(p *MockProvider) {
				p.On("IsConfigured").Return(true)
				p.On("GenerateTitle", mock.Anything, mock.Anything).Return("   ", nil)
			},
		},
		{
			"not configured",
			func(p *MockProvider) {
				p.On("IsConfigured").Return(false)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := new(MockProvider)
			tt.setup(provider)

			g := NewTitleGenerator(provider)
			got := g.Generate(context.Background(), msgs)

			assert.NotEmpty(t, got, "every failure mode must resolve to a usable title")
			assert.Equal(t, FallbackTitle(msgs), got)
		})
	}
}

func TestTitleGenerator_NilProvider(t *testing.T) {
	g := NewTitleGenerator(nil)
	assert.NotEmpty(t, g.Generate(context.Background(), conversation()))
}

func TestFallbackTitle(t *testing.T) {
	t.Run("truncates long first user message", func(t *testing.T) {
		msgs := conversation()
		got := FallbackTitle(msgs)

		assert.True(t, strings.HasSuffix(got, "..."))
		assert.Equal(t, fallbackTitleRunes+3, len([]rune(got)))
		assert.True(t, strings.HasPrefix(msgs[1].Content, strings.TrimSuffix(got, "...")))
	})

	t.Run("short message kept verbatim", func(t *testing.T) {
		msgs := []domain.Message{{Role: domain.RoleUser, Content: "Hi"}}
		assert.Equal(t, "Hi", FallbackTitle(msgs))
	})

	t.Run("no user message yields default", func(t *testing.T) {
		assert.Equal(t, domain.DefaultChatTitle, FallbackTitle([]domain.Message{domain.InitialAssistantMessage()}))
		assert.Equal(t, domain.DefaultChatTitle, FallbackTitle(nil))
	})
}
