package mocks

import (
	"sync"

	"github.com/teilomillet/medtriage/config"
)

var _ config.Watcher = (*MockConfigWatcher)(nil)

// MockConfigWatcher is an in-memory config.Watcher. Tests publish configs
// with UpdateConfig instead of writing files.
type MockConfigWatcher struct {
	mu          sync.Mutex
	current     *config.Config
	subscribers []chan *config.Config
	closed      bool
}

// NewMockConfigWatcher starts with cfg as the current config.
func NewMockConfigWatcher(cfg *config.Config) *MockConfigWatcher {
	return &MockConfigWatcher{current: cfg}
}

func (m *MockConfigWatcher) GetCurrentConfig() *config.Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Subscribe returns a channel buffered for one update. After Close the
// channel comes back already closed.
func (m *MockConfigWatcher) Subscribe() <-chan *config.Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan *config.Config, 1)
	if m.closed {
		close(ch)
		return ch
	}
	m.subscribers = append(m.subscribers, ch)
	return ch
}

// Subscribers reports how many channels are currently open.
func (m *MockConfigWatcher) Subscribers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subscribers)
}

// Close closes every subscriber channel. It is safe to call twice.
func (m *MockConfigWatcher) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	for _, ch := range m.subscribers {
		close(ch)
	}
	m.subscribers = nil
	return nil
}

// UpdateConfig stores cfg and offers it to every subscriber. A subscriber
// whose buffer is full misses the update.
func (m *MockConfigWatcher) UpdateConfig(cfg *config.Config) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = cfg
	for _, ch := range m.subscribers {
		select {
		case ch <- cfg:
		default:
		}
	}
}
