package mocks

import (
	"sync"

	"github.com/Billy-Davies-2/psl-draft/internal/logger"
	"github.com/Billy-Davies-2/psl-draft/internal/pubsub"
)

// MockNATS is an in-memory stand-in for the JetStream upstream. It keeps
// every published event, which tests use to assert on announcements.
type MockNATS struct {
	mu          sync.Mutex
	published   []pubsub.Event
	subscribers []chan pubsub.Event
}

// NewMockNATS creates an empty mock upstream
func NewMockNATS() *MockNATS {
	logger.Info("Using MOCK NATS/JetStream (in-memory pub/sub)")
	return &MockNATS{}
}

// Publish records the event and delivers it to every subscriber
func (m *MockNATS) Publish(event pubsub.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.published = append(m.published, event)
	for _, ch := range m.subscribers {
		select {
		case ch <- event:
		default:
			logger.Warn("Mock NATS: Skipping slow subscriber", "event_type", event.Type)
		}
	}
}

func (m *MockNATS) Subscribe() chan pubsub.Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := make(chan pubsub.Event, 100)
	m.subscribers = append(m.subscribers, ch)
	return ch
}

func (m *MockNATS) Unsubscribe(ch chan pubsub.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subscribers {
		if sub == ch {
			close(ch)
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			return
		}
	}
}

// Published returns a copy of every event published so far
func (m *MockNATS) Published() []pubsub.Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]pubsub.Event, len(m.published))
	copy(out, m.published)
	return out
}

// Types returns the type of every published event, in order
func (m *MockNATS) Types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, len(m.published))
	for i, ev := range m.published {
		out[i] = ev.Type
	}
	return out
}

// Close closes all subscriber channels
func (m *MockNATS) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, ch := range m.subscribers {
		close(ch)
	}
	m.subscribers = nil
}
