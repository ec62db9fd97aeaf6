package history

import (
	"context"
	"sync"
	"testing"
)

type memSink struct {
	mu     sync.Mutex
	events []Event
}

func (m *memSink) Send(_ context.Context, e Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

func TestRecorderMapsLifecycleEvents(t *testing.T) {
	sink := &memSink{}
	r := NewRecorder(sink)

	r.OnStart("alpha")
	r.OnStop("alpha", false)
	r.OnStop("alpha", true)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.events) != 3 {
		t.Fatalf("recorded %d events, want 3", len(sink.events))
	}
	want := []EventType{EventStart, EventStop, EventCrash}
	for i, e := range sink.events {
		if e.Type != want[i] {
			t.Fatalf("event %d type = %q, want %q", i, e.Type, want[i])
		}
		if e.AppID != "alpha" || e.OccurredAt.IsZero() {
			t.Fatalf("event %d incomplete: %+v", i, e)
		}
	}
}

func TestRecorderIgnoresBusRelayEvents(t *testing.T) {
	sink := &memSink{}
	r := NewRecorder(sink)

	r.OnNotify("alpha", "ops", "msg")
	r.OnTimeout("alpha")

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.events) != 0 {
		t.Fatalf("bus relay events must not be recorded: %+v", sink.events)
	}
}
