package app

import (
	"context"
	"time"

	"github.com/google/uuid"

	"study-quiz-service/internal/domain"
)

// DeliveryRepository serves answer-stripped question views. Implementations
// may cache; they must never hold the answer or explanation.
type DeliveryRepository interface {
	GetDelivery(ctx context.Context, id string) (domain.DeliveryQuestion, error)
}

// SessionRepository abstracts durable session/attempt storage (in-memory,
// Postgres).
type SessionRepository interface {
	CreateSession(ctx context.Context, session domain.QuizSession) error
	GetSession(ctx context.Context, id string) (domain.QuizSession, error)
	ListAttempts(ctx context.Context, sessionID string) ([]domain.Attempt, error)
	// SubmitAttempt inserts the attempt, counts the session's attempts and
	// sets finishedAt when the count reaches totalCount, all as one atomic
	// unit. Exactly one submission observes the finished transition.
	// Returns domain.ErrSessionFinished for terminal sessions and
	// domain.ErrDuplicateAttempt when the question was already answered.
	SubmitAttempt(ctx context.Context, attempt domain.Attempt) (attemptCount int, finished bool, err error)
}

// QuizService contains the session lifecycle and scoring use cases.
type QuizService struct {
	sessions SessionRepository
	catalog  CatalogRepository
	delivery DeliveryRepository
	selector *Selector
	progress *ProgressHub
	now      func() time.Time
	newID    func() string
}

func NewQuizService(sessions SessionRepository, catalog CatalogRepository, delivery DeliveryRepository, progress *ProgressHub) *QuizService {
	return &QuizService{
		sessions: sessions,
		catalog:  catalog,
		delivery: delivery,
		selector: NewSelector(catalog),
		progress: progress,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// NewQuizServiceWithClock is test-only for deterministic timestamps and ids.
func NewQuizServiceWithClock(sessions SessionRepository, catalog CatalogRepository, delivery DeliveryRepository, progress *ProgressHub, now func() time.Time, newID func() string) *QuizService {
	s := NewQuizService(sessions, catalog, delivery, progress)
	s.now = now
	s.newID = newID
	return s
}

// CreateSession materializes a randomized question set and persists the
// session. TotalCount is the actual selected length, which may be smaller
// than the requested count.
func (s *QuizService) CreateSession(ctx context.Context, userID string, filter domain.SessionFilter, mode domain.Mode) (string, []string, error) {
	if err := filter.Validate(); err != nil {
		return "", nil, err
	}
	if !mode.Valid() {
		return "", nil, domain.ErrInvalidMode
	}

	ids, err := s.selector.Pick(ctx, filter)
	if err != nil {
		return "", nil, err
	}

	session := domain.QuizSession{
		ID:         s.newID(),
		UserID:     userID,
		Mode:       mode,
		TopicID:    filter.TopicID,
		Difficulty: filter.Difficulty,
		TotalCount: len(ids),
		StartedAt:  s.now(),
	}
	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return "", nil, err
	}
	return session.ID, ids, nil
}

// QuestionForDelivery returns the answer-stripped view of a published
// question.
func (s *QuizService) QuestionForDelivery(ctx context.Context, id string) (domain.DeliveryQuestion, error) {
	return s.delivery.GetDelivery(ctx, id)
}

// SubmitAnswer scores one submission, records the attempt and reports
// whether the session just finished. The attempt insert and the completion
// decision are atomic in the store.
func (s *QuizService) SubmitAnswer(ctx context.Context, userID, sessionID, questionID, selected string, timeSpent *int) (domain.SubmitResult, error) {
	if !domain.ValidLetter(selected) {
		return domain.SubmitResult{}, domain.ErrInvalidSelection
	}
	if timeSpent != nil && *timeSpent < 0 {
		return domain.SubmitResult{}, domain.ErrInvalidSelection
	}

	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return domain.SubmitResult{}, err
	}
	if session.UserID != userID {
		return domain.SubmitResult{}, domain.ErrForbidden
	}
	if session.Finished() {
		return domain.SubmitResult{}, domain.ErrSessionFinished
	}

	question, err := s.catalog.GetQuestion(ctx, questionID)
	if err != nil {
		return domain.SubmitResult{}, err
	}

	correct := Evaluate(question, selected)
	attempt := domain.Attempt{
		ID:         s.newID(),
		SessionID:  sessionID,
		QuestionID: questionID,
		Selected:   selected,
		Correct:    correct,
		TimeSpent:  timeSpent,
		CreatedAt:  s.now(),
	}

	// The store re-checks the terminal state under its own lock; the check
	// above only short-circuits the common case.
	count, finished, err := s.sessions.SubmitAttempt(ctx, attempt)
	if err != nil {
		return domain.SubmitResult{}, err
	}

	if s.progress != nil {
		s.progress.Publish(domain.SessionProgress{
			SessionID:    sessionID,
			AttemptCount: count,
			TotalCount:   session.TotalCount,
			Finished:     finished,
		})
	}

	return domain.SubmitResult{
		Correct:       correct,
		CorrectAnswer: question.Answer,
		Explanation:   question.Explanation,
		IsFinished:    finished,
		AttemptCount:  count,
		TotalCount:    session.TotalCount,
	}, nil
}

// Status returns the session snapshot with its recorded attempts. The
// answer letters already submitted are disclosed; unanswered questions are
// not listed, so nothing leaks ahead of submission.
func (s *QuizService) Status(ctx context.Context, userID, sessionID string) (domain.SessionStatus, error) {
	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return domain.SessionStatus{}, err
	}
	if session.UserID != userID {
		return domain.SessionStatus{}, domain.ErrForbidden
	}

	attempts, err := s.sessions.ListAttempts(ctx, sessionID)
	if err != nil {
		return domain.SessionStatus{}, err
	}

	records := make([]domain.AttemptRecord, 0, len(attempts))
	for _, a := range attempts {
		records = append(records, domain.AttemptRecord{
			QuestionID: a.QuestionID,
			Selected:   a.Selected,
			Correct:    a.Correct,
		})
	}
	return domain.SessionStatus{
		ID:         session.ID,
		Mode:       session.Mode,
		TotalCount: session.TotalCount,
		StartedAt:  session.StartedAt,
		FinishedAt: session.FinishedAt,
		Attempts:   records,
	}, nil
}
