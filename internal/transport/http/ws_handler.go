package http

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"study-quiz-service/internal/domain"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type progressMessage struct {
	Type    string                 `json:"type"`
	Payload domain.SessionProgress `json:"payload"`
}

// serveProgress streams session progress events to the session owner. The
// stream is observational only: core state never depends on a subscriber.
func (h *Handler) serveProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "missing sessionId")
		return
	}

	// Ownership check before the upgrade; Status also gives the snapshot
	// sent as the first frame.
	status, err := h.quiz.Status(r.Context(), userID, sessionID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	events, cancel := h.progress.Subscribe(sessionID)
	defer cancel()

	snapshot := progressMessage{Type: "progress", Payload: domain.SessionProgress{
		SessionID:    sessionID,
		AttemptCount: len(status.Attempts),
		TotalCount:   status.TotalCount,
		Finished:     status.FinishedAt != nil,
	}}
	if err := conn.WriteJSON(snapshot); err != nil {
		return
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(progressMessage{Type: "progress", Payload: event}); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		case <-done:
			return
		}
	}
}
