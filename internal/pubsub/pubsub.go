package pubsub

import (
	"encoding/json"
	"sync"

	"github.com/Billy-Davies-2/psl-draft/internal/logger"
)

// Event types published after each successful draft mutation.
const (
	EventPreDraftBuy    = "predraft:buy"
	EventDraftStart     = "draft:start"
	EventDraftPick      = "draft:pick"
	EventDraftSkip      = "draft:skip"
	EventDraftUndo      = "draft:undo"
	EventDraftReset     = "draft:reset"
	EventPlayerRegister = "players:register"
	EventPlayerRating   = "players:rating"
	EventTeamBudget     = "teams:budget"
)

// Event represents a pubsub event
type Event struct {
	Type    string                 `json:"type"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// NewEvent builds an event whose payload is the JSON object form of v. Values
// that do not encode to an object are stored under "value".
func NewEvent(eventType string, v interface{}) Event {
	ev := Event{Type: eventType}
	if v == nil {
		return ev
	}
	if m, ok := v.(map[string]interface{}); ok {
		ev.Payload = m
		return ev
	}

	data, err := json.Marshal(v)
	if err != nil {
		logger.Error("Failed to encode event payload", "type", eventType, "error", err)
		return ev
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(data, &payload); err != nil {
		var value interface{}
		_ = json.Unmarshal(data, &value)
		payload = map[string]interface{}{"value": value}
	}
	ev.Payload = payload
	return ev
}

// Publisher is what the adapters need to announce events.
type Publisher interface {
	Publish(Event)
}

// Upstream is an interface for upstream publishers (e.g., NATS)
type Upstream interface {
	Publish(Event)
	Subscribe() chan Event
	Unsubscribe(chan Event)
}

// PubSub implements a simple publish-subscribe system
type PubSub struct {
	mu          sync.RWMutex
	subscribers []chan Event
	upstream    Upstream
	upstreamCh  chan Event
}

// New creates a new PubSub instance
func New() *PubSub {
	return &PubSub{
		subscribers: []chan Event{},
	}
}

// NewWithUpstream creates a PubSub that bridges to an upstream publisher.
// Publish goes to the upstream, which broadcasts to every instance; events
// coming back from the upstream are forwarded to local subscribers.
func NewWithUpstream(upstream Upstream) *PubSub {
	ps := &PubSub{
		subscribers: []chan Event{},
		upstream:    upstream,
		upstreamCh:  upstream.Subscribe(),
	}

	go func() {
		logger.Debug("PubSub: Subscribed to upstream, waiting for events")
		for event := range ps.upstreamCh {
			logger.Debug("PubSub: Received event from upstream, forwarding to local", "type", event.Type)
			ps.publishLocal(event)
		}
		logger.Debug("PubSub: Upstream channel closed")
	}()

	return ps
}

// Subscribe adds a new subscriber and returns a channel for receiving events
func (ps *PubSub) Subscribe() chan Event {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	ch := make(chan Event, 16)
	ps.subscribers = append(ps.subscribers, ch)
	logger.Debug("PubSub: New subscriber added", "totalSubscribers", len(ps.subscribers))
	return ch
}

// Unsubscribe removes a subscriber and closes its channel
func (ps *PubSub) Unsubscribe(ch chan Event) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	for i, sub := range ps.subscribers {
		if sub == ch {
			close(ch)
			ps.subscribers = append(ps.subscribers[:i], ps.subscribers[i+1:]...)
			break
		}
	}
}

// SubscriberCount returns the number of local subscribers
func (ps *PubSub) SubscriberCount() int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return len(ps.subscribers)
}

// Publish sends an event to all subscribers, through the upstream when one
// is configured.
func (ps *PubSub) Publish(event Event) {
	if ps.upstream != nil {
		logger.Debug("PubSub: Forwarding to upstream", "type", event.Type)
		ps.upstream.Publish(event)
		return
	}
	ps.publishLocal(event)
}

// publishLocal sends an event to local subscribers only. Slow subscribers
// miss the event rather than block the publisher.
func (ps *PubSub) publishLocal(event Event) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	for _, ch := range ps.subscribers {
		select {
		case ch <- event:
		default:
			logger.Warn("PubSub: Dropping event for slow subscriber", "type", event.Type)
		}
	}
}

// Close detaches from the upstream and closes every local subscriber.
func (ps *PubSub) Close() {
	if ps.upstream != nil {
		ps.upstream.Unsubscribe(ps.upstreamCh)
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()
	for _, ch := range ps.subscribers {
		close(ch)
	}
	ps.subscribers = nil
}
