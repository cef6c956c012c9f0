package app

import (
	"sync"

	"study-quiz-service/internal/domain"
)

// ProgressHub fans session progress events out to websocket subscribers.
// Purely observational: nothing in the core depends on a subscriber being
// present or keeping up.
type ProgressHub struct {
	mu   sync.Mutex
	subs map[string]map[chan domain.SessionProgress]struct{}
}

func NewProgressHub() *ProgressHub {
	return &ProgressHub{subs: make(map[string]map[chan domain.SessionProgress]struct{})}
}

// Subscribe registers a listener for one session. The caller must invoke
// the returned cancel function to avoid leaks.
func (h *ProgressHub) Subscribe(sessionID string) (<-chan domain.SessionProgress, func()) {
	ch := make(chan domain.SessionProgress, 8)

	h.mu.Lock()
	if h.subs[sessionID] == nil {
		h.subs[sessionID] = make(map[chan domain.SessionProgress]struct{})
	}
	h.subs[sessionID][ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if set, ok := h.subs[sessionID]; ok {
			if _, ok := set[ch]; ok {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(h.subs, sessionID)
			}
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers an event to every subscriber of the session. Slow
// subscribers lose the oldest buffered event rather than blocking the
// submitting request.
func (h *ProgressHub) Publish(event domain.SessionProgress) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[event.SessionID] {
		select {
		case ch <- event:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- event
		}
	}
}
