package fcm

import (
	"context"
	"sync"

	"github.com/skiptow/dispatch/core/model"
)

// MockSender records multicast calls for tests and dry runs.
type MockSender struct {
	mu    sync.Mutex
	Calls []MockCall
	Err   error
}

// MockCall captures one SendMulticast invocation.
type MockCall struct {
	Message model.Notification
	Tokens  []string
}

// NewMockSender creates an empty MockSender.
func NewMockSender() *MockSender { return &MockSender{} }

func (m *MockSender) SendMulticast(_ context.Context, n model.Notification, tokens []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, MockCall{Message: n, Tokens: append([]string(nil), tokens...)})
	return m.Err
}

// Sent returns a copy of the recorded calls.
func (m *MockSender) Sent() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall(nil), m.Calls...)
}
