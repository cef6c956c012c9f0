package app_test

import (
	"testing"
	"time"

	"study-quiz-service/internal/app"
	"study-quiz-service/internal/domain"
)

func TestProgressHubDeliversToSubscribers(t *testing.T) {
	hub := app.NewProgressHub()
	ch, cancel := hub.Subscribe("s1")
	defer cancel()

	hub.Publish(domain.SessionProgress{SessionID: "s1", AttemptCount: 1, TotalCount: 3})

	select {
	case event := <-ch:
		if event.AttemptCount != 1 || event.TotalCount != 3 {
			t.Fatalf("unexpected event %+v", event)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected progress event")
	}
}

func TestProgressHubIsolatesSessions(t *testing.T) {
	hub := app.NewProgressHub()
	ch, cancel := hub.Subscribe("s1")
	defer cancel()

	hub.Publish(domain.SessionProgress{SessionID: "other", AttemptCount: 1})

	select {
	case event := <-ch:
		t.Fatalf("event for another session leaked: %+v", event)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestProgressHubDropsOldestForSlowSubscriber(t *testing.T) {
	hub := app.NewProgressHub()
	ch, cancel := hub.Subscribe("s1")
	defer cancel()

	// Overflow the buffer without reading; publish must not block and the
	// newest event must survive.
	for i := 1; i <= 20; i++ {
		hub.Publish(domain.SessionProgress{SessionID: "s1", AttemptCount: i, TotalCount: 20})
	}

	var last domain.SessionProgress
	for {
		select {
		case event := <-ch:
			last = event
			continue
		default:
		}
		break
	}
	if last.AttemptCount != 20 {
		t.Fatalf("expected newest event to survive, got %+v", last)
	}
}

func TestProgressHubCancelClosesChannel(t *testing.T) {
	hub := app.NewProgressHub()
	ch, cancel := hub.Subscribe("s1")
	cancel()
	cancel() // idempotent

	if _, ok := <-ch; ok {
		t.Fatalf("expected closed channel after cancel")
	}
	// Publishing after cancel must not panic.
	hub.Publish(domain.SessionProgress{SessionID: "s1"})
}
