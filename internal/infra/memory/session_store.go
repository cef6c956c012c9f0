package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"study-quiz-service/internal/app"
	"study-quiz-service/internal/domain"
)

// SessionStore is an in-memory implementation of app.SessionRepository and
// app.AnalyticsRepository. One mutex hold per submission gives the same
// atomicity the Postgres store gets from its transaction.
type SessionStore struct {
	catalog *Catalog
	now     func() time.Time

	mu       sync.RWMutex
	sessions map[string]domain.QuizSession
	attempts map[string][]domain.Attempt     // sessionID -> insertion order
	answered map[string]map[string]struct{}  // sessionID -> questionIDs
	byUser   map[string][]string             // userID -> sessionIDs, creation order
	seq      int                             // global attempt sequence for tie-breaks
	seqs     map[string]int                  // attemptID -> seq
}

func NewSessionStore(catalog *Catalog) *SessionStore {
	return &SessionStore{
		catalog:  catalog,
		now:      time.Now,
		sessions: make(map[string]domain.QuizSession),
		attempts: make(map[string][]domain.Attempt),
		answered: make(map[string]map[string]struct{}),
		byUser:   make(map[string][]string),
		seqs:     make(map[string]int),
	}
}

// NewSessionStoreWithClock is test-only for deterministic finish times.
func NewSessionStoreWithClock(catalog *Catalog, now func() time.Time) *SessionStore {
	s := NewSessionStore(catalog)
	s.now = now
	return s
}

func (s *SessionStore) CreateSession(_ context.Context, session domain.QuizSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
	s.answered[session.ID] = make(map[string]struct{})
	s.byUser[session.UserID] = append(s.byUser[session.UserID], session.ID)
	return nil
}

func (s *SessionStore) GetSession(_ context.Context, id string) (domain.QuizSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return domain.QuizSession{}, domain.ErrSessionNotFound
	}
	return session, nil
}

func (s *SessionStore) ListAttempts(_ context.Context, sessionID string) ([]domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return nil, domain.ErrSessionNotFound
	}
	out := make([]domain.Attempt, len(s.attempts[sessionID]))
	copy(out, s.attempts[sessionID])
	return out, nil
}

// SubmitAttempt holds the lock across the terminal check, the duplicate
// check, the insert, the count and the conditional finish, so concurrent
// submissions serialize and exactly one of them finishes the session.
func (s *SessionStore) SubmitAttempt(_ context.Context, attempt domain.Attempt) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[attempt.SessionID]
	if !ok {
		return 0, false, domain.ErrSessionNotFound
	}
	if session.FinishedAt != nil {
		return 0, false, domain.ErrSessionFinished
	}
	if _, dup := s.answered[attempt.SessionID][attempt.QuestionID]; dup {
		return 0, false, domain.ErrDuplicateAttempt
	}

	s.attempts[attempt.SessionID] = append(s.attempts[attempt.SessionID], attempt)
	s.answered[attempt.SessionID][attempt.QuestionID] = struct{}{}
	s.seq++
	s.seqs[attempt.ID] = s.seq

	count := len(s.attempts[attempt.SessionID])
	finished := count >= session.TotalCount
	if finished {
		finishedAt := s.now()
		session.FinishedAt = &finishedAt
		s.sessions[attempt.SessionID] = session
	}
	return count, finished, nil
}

func (s *SessionStore) ListTopicAttempts(_ context.Context, userID string) ([]app.TopicAttemptRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	attempts := s.userAttemptsLocked(userID)
	sort.SliceStable(attempts, func(i, j int) bool {
		return s.seqs[attempts[i].ID] < s.seqs[attempts[j].ID]
	})

	rows := make([]app.TopicAttemptRow, 0, len(attempts))
	for _, a := range attempts {
		q, ok := s.catalog.question(a.QuestionID)
		if !ok {
			continue
		}
		rows = append(rows, app.TopicAttemptRow{
			TopicID:   q.TopicID,
			TopicName: s.catalog.topicName(q.TopicID),
			Correct:   a.Correct,
		})
	}
	return rows, nil
}

func (s *SessionStore) ListRecentSessions(_ context.Context, userID string, limit int) ([]app.SessionOutcomeRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byUser[userID]
	sessions := make([]domain.QuizSession, 0, len(ids))
	for _, id := range ids {
		sessions = append(sessions, s.sessions[id])
	}
	// Newest first; creation order breaks equal start times.
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].StartedAt.After(sessions[j].StartedAt)
	})
	if len(sessions) > limit {
		sessions = sessions[:limit]
	}

	rows := make([]app.SessionOutcomeRow, 0, len(sessions))
	for _, session := range sessions {
		correct := 0
		for _, a := range s.attempts[session.ID] {
			if a.Correct {
				correct++
			}
		}
		rows = append(rows, app.SessionOutcomeRow{
			StartedAt: session.StartedAt,
			Total:     len(s.attempts[session.ID]),
			Correct:   correct,
		})
	}
	return rows, nil
}

func (s *SessionStore) ListReviewAttempts(_ context.Context, userID string) ([]app.ReviewRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	attempts := s.userAttemptsLocked(userID)
	sort.SliceStable(attempts, func(i, j int) bool {
		return s.seqs[attempts[i].ID] > s.seqs[attempts[j].ID]
	})

	rows := make([]app.ReviewRow, 0, len(attempts))
	for _, a := range attempts {
		q, ok := s.catalog.question(a.QuestionID)
		if !ok {
			continue
		}
		rows = append(rows, app.ReviewRow{
			Question:  q,
			TopicName: s.catalog.topicName(q.TopicID),
			Selected:  a.Selected,
			Correct:   a.Correct,
			CreatedAt: a.CreatedAt,
		})
	}
	return rows, nil
}

func (s *SessionStore) userAttemptsLocked(userID string) []domain.Attempt {
	var out []domain.Attempt
	for _, sessionID := range s.byUser[userID] {
		out = append(out, s.attempts[sessionID]...)
	}
	return out
}
