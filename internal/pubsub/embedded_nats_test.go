package pubsub

import (
	"sync"
	"testing"
	"time"

	"github.com/Billy-Davies-2/psl-draft/internal/logger"
)

func init() {
	logger.Init("")
}

func newEmbedded(t *testing.T, opts EmbeddedNATSOptions) *EmbeddedNATSPubSub {
	t.Helper()
	ps, err := NewEmbeddedNATSPubSub(opts)
	if err != nil {
		t.Fatalf("Failed to create embedded NATS: %v", err)
	}
	return ps
}

func TestNewEmbeddedNATSPubSub(t *testing.T) {
	ps := newEmbedded(t, DefaultEmbeddedNATSOptions())
	defer ps.Close()

	if ps.server == nil || ps.nc == nil || ps.js == nil {
		t.Fatal("server, connection and JetStream context should all be set")
	}
	if ps.GetServerURL() == "" {
		t.Error("server URL should not be empty")
	}
}

func TestEmbeddedNATSSubscribeUnsubscribe(t *testing.T) {
	ps := newEmbedded(t, DefaultEmbeddedNATSOptions())
	defer ps.Close()

	ch := ps.Subscribe()
	if ps.SubscriberCount() != 1 {
		t.Errorf("expected 1 subscriber, got %d", ps.SubscriberCount())
	}

	ps.Unsubscribe(ch)
	if ps.SubscriberCount() != 0 {
		t.Errorf("expected 0 subscribers after unsubscribe, got %d", ps.SubscriberCount())
	}
	if _, ok := <-ch; ok {
		t.Error("channel should be closed after unsubscribe")
	}
}

func TestEmbeddedNATSPublishAndReceive(t *testing.T) {
	ps := newEmbedded(t, DefaultEmbeddedNATSOptions())
	defer ps.Close()

	ch1 := ps.Subscribe()
	ch2 := ps.Subscribe()

	ps.Publish(Event{
		Type: EventDraftPick,
		Payload: map[string]interface{}{
			"team":   "Lahore Qalandars",
			"round":  1.0,
			"player": map[string]interface{}{"id": "P1001"},
		},
	})

	for i, ch := range []chan Event{ch1, ch2} {
		select {
		case received := <-ch:
			if received.Type != EventDraftPick {
				t.Errorf("subscriber %d: expected %s, got %s", i, EventDraftPick, received.Type)
			}
			if received.Payload["team"] != "Lahore Qalandars" || received.Payload["round"] != 1.0 {
				t.Errorf("subscriber %d: payload mismatch: %v", i, received.Payload)
			}
			player, ok := received.Payload["player"].(map[string]interface{})
			if !ok || player["id"] != "P1001" {
				t.Errorf("subscriber %d: nested payload mismatch: %v", i, received.Payload["player"])
			}
		case <-time.After(2 * time.Second):
			t.Errorf("subscriber %d: timeout waiting for event", i)
		}
	}
}

func TestEmbeddedNATSConcurrentPublish(t *testing.T) {
	ps := newEmbedded(t, DefaultEmbeddedNATSOptions())
	defer ps.Close()

	ch := ps.Subscribe()

	var wg sync.WaitGroup
	const publishers, perPublisher = 5, 10
	for i := 0; i < publishers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < perPublisher; j++ {
				ps.Publish(Event{Type: EventDraftSkip, Payload: map[string]interface{}{"publisher": id, "seq": j}})
			}
		}(i)
	}
	wg.Wait()

	received := 0
	timeout := time.After(5 * time.Second)
	for received < publishers*perPublisher {
		select {
		case <-ch:
			received++
		case <-timeout:
			t.Fatalf("received %d/%d events before timeout", received, publishers*perPublisher)
		}
	}
}

func TestEmbeddedNATSClose(t *testing.T) {
	ps := newEmbedded(t, DefaultEmbeddedNATSOptions())
	ch := ps.Subscribe()

	ps.Close()

	if _, ok := <-ch; ok {
		t.Error("channel should be closed after Close()")
	}
}

func TestEmbeddedNATSCustomOptions(t *testing.T) {
	ps := newEmbedded(t, EmbeddedNATSOptions{
		Port:       0,
		Subject:    "psl.custom.events",
		StreamName: "CUSTOM_STREAM",
		StoreDir:   t.TempDir(),
	})
	defer ps.Close()

	if ps.subject != "psl.custom.events" {
		t.Errorf("expected subject psl.custom.events, got %s", ps.subject)
	}
	info, err := ps.js.StreamInfo("CUSTOM_STREAM")
	if err != nil {
		t.Fatalf("StreamInfo() error = %v", err)
	}
	if info.Config.Storage.String() != "File" {
		t.Errorf("expected file storage with a store dir, got %s", info.Config.Storage)
	}
}

func TestDefaultEmbeddedNATSOptions(t *testing.T) {
	opts := DefaultEmbeddedNATSOptions()

	if opts.Port != -1 {
		t.Errorf("expected port -1 (random), got %d", opts.Port)
	}
	if opts.Subject != "draft.events" {
		t.Errorf("expected subject draft.events, got %s", opts.Subject)
	}
	if opts.StreamName != DefaultStreamName {
		t.Errorf("expected stream name %s, got %s", DefaultStreamName, opts.StreamName)
	}
}

func TestPubSubBridgedThroughEmbeddedNATS(t *testing.T) {
	upstream := newEmbedded(t, DefaultEmbeddedNATSOptions())
	defer upstream.Close()

	ps := NewWithUpstream(upstream)
	defer ps.Close()

	ch := ps.Subscribe()
	ps.Publish(NewEvent(EventDraftStart, map[string]interface{}{"rounds": 5}))

	select {
	case received := <-ch:
		if received.Type != EventDraftStart {
			t.Errorf("expected %s, got %s", EventDraftStart, received.Type)
		}
		if received.Payload["rounds"] != 5.0 {
			t.Errorf("rounds = %v, want 5", received.Payload["rounds"])
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for bridged event")
	}
}
