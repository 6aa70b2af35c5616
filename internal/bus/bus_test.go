package bus

import (
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("chat.", 10)
	defer unsub()

	b.Publish(Event{Kind: "chat.message_added", Timestamp: time.Now(), Payload: map[string]string{"chat_id": "c1"}})

	select {
	case evt := <-ch:
		if evt.Kind != "chat.message_added" {
			t.Errorf("got kind %q, want chat.message_added", evt.Kind)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestNamespaceFiltering(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("profile.", 10)
	defer unsub()

	b.Publish(Event{Kind: "event.created"})
	b.Publish(Event{Kind: "session.status_changed"})
	b.Publish(Event{Kind: "profile.image_updated"})

	select {
	case evt := <-ch:
		if evt.Kind != "profile.image_updated" {
			t.Errorf("got kind %q, want profile.image_updated", evt.Kind)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}

	// Neither of the foreign-namespace events may arrive.
	select {
	case evt := <-ch:
		t.Errorf("unexpected event: %v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnsubscribe(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("event.", 10)
	unsub()

	b.Publish(Event{Kind: "event.field_updated"})

	select {
	case evt := <-ch:
		t.Errorf("received event after unsubscribe: %v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDropOnFullBuffer(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("chat.", 1)
	defer unsub()

	b.Publish(Event{Kind: "chat.created"})
	// Buffer is full; the second publish is dropped instead of blocking
	// the publishing workflow.
	b.Publish(Event{Kind: "chat.message_added"})

	evt := <-ch
	if evt.Kind != "chat.created" {
		t.Errorf("got %q, want chat.created", evt.Kind)
	}
}
