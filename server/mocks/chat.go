// Package mocks provides test doubles for the upstream clients and the
// configuration watcher.
package mocks

import (
	"context"
	"sync"

	"github.com/teilomillet/medtriage/server/provider"
)

// MockChat implements provider.ChatCompleter. Every call is recorded so
// tests can assert on the prompt that would have been sent.
//
//	chat := NewMockChat(func(ctx context.Context, m []provider.Message) (string, error) {
//	    return "Non-urgent", nil
//	})
type MockChat struct {
	CompleteFunc func(context.Context, []provider.Message) (string, error)

	mu       sync.Mutex
	requests [][]provider.Message
}

var _ provider.ChatCompleter = (*MockChat)(nil)

// NewMockChat creates a MockChat. A nil completeFunc replies with an empty string.
func NewMockChat(completeFunc func(context.Context, []provider.Message) (string, error)) *MockChat {
	return &MockChat{CompleteFunc: completeFunc}
}

// Complete records the messages and delegates to CompleteFunc.
func (m *MockChat) Complete(ctx context.Context, messages []provider.Message) (string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, messages)
	m.mu.Unlock()

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, messages)
	}
	return "", nil
}

// Calls returns how many times Complete was called.
func (m *MockChat) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// LastMessages returns the messages of the most recent call, or nil.
func (m *MockChat) LastMessages() []provider.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return nil
	}
	return m.requests[len(m.requests)-1]
}
