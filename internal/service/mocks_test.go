package service

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/avilyaev/script-coach/internal/domain"
)

// MockProvider mocks the llm.Provider interface
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Name() string {
	return "mock"
}

func (m *MockProvider) DefaultModel() string {
	return "mock-model"
}

func (m *MockProvider) IsConfigured() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockProvider) StreamChat(ctx context.Context, messages []domain.Message, system string) (io.ReadCloser, error) {
	args := m.Called(ctx, messages, system)
	if rc, ok := args.Get(0).(io.ReadCloser); ok {
		return rc, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProvider) GenerateTitle(ctx context.Context, messages []domain.Message) (string, error) {
	args := m.Called(ctx, messages)
	return args.String(0), args.Error(1)
}

// MockGateway mocks the Gateway interface
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Stream(ctx context.Context, messages []domain.Message, training bool) (io.ReadCloser, error) {
	args := m.Called(ctx, messages, training)
	if rc, ok := args.Get(0).(io.ReadCloser); ok {
		return rc, args.Error(1)
	}
	return nil, args.Error(1)
}
