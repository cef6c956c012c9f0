package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"study-quiz-service/internal/app"
	"study-quiz-service/internal/domain"
)

// userIDHeader carries the authenticated principal, installed by the
// fronting auth proxy. Authentication itself is not this service's job.
const userIDHeader = "X-User-ID"

// Handler exposes the quiz core over JSON HTTP.
type Handler struct {
	quiz      *app.QuizService
	analytics *app.AnalyticsService
	progress  *app.ProgressHub
}

func NewHandler(quiz *app.QuizService, analytics *app.AnalyticsService, progress *app.ProgressHub) *Handler {
	return &Handler{quiz: quiz, analytics: analytics, progress: progress}
}

// Routes wires all endpoints onto a mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/quiz/sessions", h.createSession)
	mux.HandleFunc("GET /api/quiz/questions/{id}", h.questionForDelivery)
	mux.HandleFunc("POST /api/quiz/sessions/{id}/submit", h.submitAnswer)
	mux.HandleFunc("GET /api/quiz/sessions/{id}", h.sessionStatus)
	mux.HandleFunc("GET /api/analytics", h.analyticsOverview)
	mux.HandleFunc("GET /api/review", h.missedQuestions)
	mux.HandleFunc("GET /ws/sessions", h.serveProgress)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	return mux
}

type createSessionRequest struct {
	TopicID    string `json:"topicId"`
	Difficulty string `json:"difficulty"`
	Count      int    `json:"count"`
	Mode       string `json:"mode"`
}

type createSessionResponse struct {
	SessionID   string   `json:"sessionId"`
	QuestionIDs []string `json:"questionIds"`
}

func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	filter := domain.SessionFilter{
		TopicID:    req.TopicID,
		Difficulty: domain.Difficulty(req.Difficulty),
		Count:      req.Count,
	}
	sessionID, questionIDs, err := h.quiz.CreateSession(r.Context(), userID, filter, domain.Mode(req.Mode))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createSessionResponse{SessionID: sessionID, QuestionIDs: questionIDs})
}

func (h *Handler) questionForDelivery(w http.ResponseWriter, r *http.Request) {
	if _, ok := principal(w, r); !ok {
		return
	}
	view, err := h.quiz.QuestionForDelivery(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type submitAnswerRequest struct {
	QuestionID string `json:"questionId"`
	Selected   string `json:"selected"`
	TimeSpent  *int   `json:"timeSpent"`
}

func (h *Handler) submitAnswer(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}
	var req submitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.QuestionID == "" {
		writeError(w, http.StatusBadRequest, "questionId is required")
		return
	}

	result, err := h.quiz.SubmitAnswer(r.Context(), userID, r.PathValue("id"), req.QuestionID, req.Selected, req.TimeSpent)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) sessionStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}
	status, err := h.quiz.Status(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *Handler) analyticsOverview(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}
	overview, err := h.analytics.Overview(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

func (h *Handler) missedQuestions(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}
	missed, err := h.analytics.MissedQuestions(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, missed)
}

func principal(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := r.Header.Get(userIDHeader)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "missing "+userIDHeader+" header")
		return "", false
	}
	return userID, true
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeDomainError maps domain sentinels to HTTP statuses. Every outcome
// stays distinct so the presentation layer can render specific messages.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrQuestionNotFound),
		errors.Is(err, domain.ErrTopicNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrEmptyCatalog):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrSessionFinished),
		errors.Is(err, domain.ErrDuplicateAttempt):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrInvalidCount),
		errors.Is(err, domain.ErrInvalidDifficulty),
		errors.Is(err, domain.ErrInvalidMode),
		errors.Is(err, domain.ErrInvalidSelection):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrStoreUnavailable):
		log.Printf("store unavailable: %v", err)
		writeError(w, http.StatusServiceUnavailable, "storage temporarily unavailable")
	default:
		log.Printf("internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
