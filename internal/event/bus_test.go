package event

import (
	"errors"
	"testing"
)

func TestBus_SubscribePublish(t *testing.T) {
	bus := NewBus()

	var received []Event
	bus.Subscribe(TypeForegroundRequested, func(e Event) {
		received = append(received, e)
	})

	bus.Publish(NewForegroundRequestedEvent())
	bus.Publish(NewImportCompletedEvent("/tmp/x.cred", 3))

	if len(received) != 1 {
		t.Fatalf("expected 1 event, got %d", len(received))
	}
	if received[0].EventType() != TypeForegroundRequested {
		t.Errorf("EventType = %q, want %q", received[0].EventType(), TypeForegroundRequested)
	}
}

func TestBus_SubscribeAll(t *testing.T) {
	bus := NewBus()

	var count int
	bus.SubscribeAll(func(Event) { count++ })

	bus.Publish(NewForegroundRequestedEvent())
	bus.Publish(NewImportFailedEvent("/tmp/x.cred", errors.New("bad file")))
	bus.Publish(NewChannelPublishedEvent("1000", "/run/chan.sock"))

	if count != 3 {
		t.Errorf("wildcard handler called %d times, want 3", count)
	}
}

func TestBus_SpecificBeforeWildcard(t *testing.T) {
	bus := NewBus()

	var order []string
	bus.SubscribeAll(func(Event) { order = append(order, "wildcard") })
	bus.Subscribe(TypeImportCompleted, func(Event) { order = append(order, "specific") })

	bus.Publish(NewImportCompletedEvent("/tmp/x.cred", 1))

	if len(order) != 2 || order[0] != "specific" || order[1] != "wildcard" {
		t.Errorf("dispatch order = %v, want [specific wildcard]", order)
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()

	var count int
	id := bus.Subscribe(TypeForegroundRequested, func(Event) { count++ })

	bus.Publish(NewForegroundRequestedEvent())
	if !bus.Unsubscribe(id) {
		t.Error("Unsubscribe() = false, want true")
	}
	bus.Publish(NewForegroundRequestedEvent())

	if count != 1 {
		t.Errorf("handler called %d times, want 1", count)
	}

	if bus.Unsubscribe(id) {
		t.Error("second Unsubscribe() = true, want false")
	}
}

func TestBus_PanickingHandlerDoesNotBlockOthers(t *testing.T) {
	bus := NewBus()

	var called bool
	bus.Subscribe(TypeImportFailed, func(Event) { panic("handler bug") })
	bus.Subscribe(TypeImportFailed, func(Event) { called = true })

	bus.Publish(NewImportFailedEvent("/tmp/x.cred", errors.New("bad")))

	if !called {
		t.Error("second handler not called after first panicked")
	}
}

func TestEventFields(t *testing.T) {
	imp := NewImportCompletedEvent("/tmp/x.cred", 7)
	if imp.Path != "/tmp/x.cred" || imp.Entries != 7 {
		t.Errorf("ImportCompletedEvent fields = %+v", imp)
	}
	if imp.Timestamp().IsZero() {
		t.Error("Timestamp() is zero")
	}

	pub := NewChannelPublishedEvent("1000", "/run/chan.sock")
	if pub.OwnerUID != "1000" || pub.Addr != "/run/chan.sock" {
		t.Errorf("ChannelPublishedEvent fields = %+v", pub)
	}
}
