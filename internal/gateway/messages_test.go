package gateway

import "testing"

func TestHubPublishReachesEverySubscriber(t *testing.T) {
	hub := NewHub()
	a, unsubA := hub.Subscribe()
	b, unsubB := hub.Subscribe()
	defer unsubA()
	defer unsubB()

	hub.Publish(ReloadRequested{Scope: "customer"})

	for _, ch := range []<-chan Event{a, b} {
		select {
		case ev := <-ch:
			if _, ok := ev.(ReloadRequested); !ok {
				t.Errorf("expected ReloadRequested, got %T", ev)
			}
		default:
			t.Error("subscriber missed the event")
		}
	}
}

func TestHubUnsubscribeClosesChannel(t *testing.T) {
	hub := NewHub()
	ch, unsub := hub.Subscribe()
	unsub()
	unsub()

	if _, open := <-ch; open {
		t.Error("channel must be closed after unsubscribe")
	}

	// Publishing after unsubscribe must not panic.
	hub.Publish(ReloadRequested{Scope: "customer"})
}

func TestHubSlowSubscriberDoesNotBlock(t *testing.T) {
	hub := NewHub()
	ch, unsub := hub.Subscribe()
	defer unsub()

	for i := 0; i < 10; i++ {
		hub.Publish(ReloadRequested{Scope: "customer"})
	}
	// The buffer holds a few events; the rest were dropped without
	// blocking the publisher.
	if len(ch) == 0 {
		t.Error("expected buffered events")
	}
}
