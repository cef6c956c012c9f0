package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"study-quiz-service/internal/app"
	"study-quiz-service/internal/domain"
)

// SessionStore persists quiz sessions and attempts in Postgres and serves
// the analytics read side.
type SessionStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewSessionStore(pool *pgxpool.Pool) *SessionStore {
	return &SessionStore{pool: pool, now: time.Now}
}

func (s *SessionStore) CreateSession(ctx context.Context, session domain.QuizSession) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO quiz_sessions (id, user_id, mode, topic_id, difficulty, total_count, started_at, finished_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, $7, NULL)`,
		session.ID, session.UserID, string(session.Mode), session.TopicID,
		string(session.Difficulty), session.TotalCount, session.StartedAt)
	if err != nil {
		return storeErr("create session", err)
	}
	return nil
}

func (s *SessionStore) GetSession(ctx context.Context, id string) (domain.QuizSession, error) {
	session, err := scanSession(s.pool.QueryRow(ctx, `
		SELECT id, user_id, mode, COALESCE(topic_id, ''), COALESCE(difficulty, ''), total_count, started_at, finished_at
		FROM quiz_sessions WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.QuizSession{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.QuizSession{}, storeErr("get session", err)
	}
	return session, nil
}

func (s *SessionStore) ListAttempts(ctx context.Context, sessionID string) ([]domain.Attempt, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, session_id, question_id, selected, correct, time_spent, created_at
		FROM attempts WHERE session_id = $1
		ORDER BY created_at, id`, sessionID)
	if err != nil {
		return nil, storeErr("list attempts", err)
	}
	defer rows.Close()

	attempts := make([]domain.Attempt, 0)
	for rows.Next() {
		var a domain.Attempt
		if err := rows.Scan(&a.ID, &a.SessionID, &a.QuestionID, &a.Selected, &a.Correct, &a.TimeSpent, &a.CreatedAt); err != nil {
			return nil, storeErr("scan attempt", err)
		}
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list attempts", err)
	}
	return attempts, nil
}

// SubmitAttempt runs the whole submission as one transaction. The session
// row is locked FOR UPDATE first, so concurrent submissions for the same
// session serialize: the terminal check, the duplicate check, the insert,
// the count and the conditional finished_at update all see a consistent
// state, and exactly one submission flips the session to finished.
func (s *SessionStore) SubmitAttempt(ctx context.Context, attempt domain.Attempt) (int, bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, false, storeErr("begin submit", err)
	}
	defer tx.Rollback(ctx)

	var (
		totalCount int
		finishedAt *time.Time
	)
	err = tx.QueryRow(ctx, `
		SELECT total_count, finished_at FROM quiz_sessions
		WHERE id = $1 FOR UPDATE`, attempt.SessionID).
		Scan(&totalCount, &finishedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, domain.ErrSessionNotFound
	}
	if err != nil {
		return 0, false, storeErr("lock session", err)
	}
	if finishedAt != nil {
		return 0, false, domain.ErrSessionFinished
	}

	var duplicate bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM attempts WHERE session_id = $1 AND question_id = $2)`,
		attempt.SessionID, attempt.QuestionID).Scan(&duplicate)
	if err != nil {
		return 0, false, storeErr("check duplicate", err)
	}
	if duplicate {
		return 0, false, domain.ErrDuplicateAttempt
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO attempts (id, session_id, question_id, selected, correct, time_spent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		attempt.ID, attempt.SessionID, attempt.QuestionID, attempt.Selected,
		attempt.Correct, attempt.TimeSpent, attempt.CreatedAt)
	if err != nil {
		return 0, false, storeErr("insert attempt", err)
	}

	var count int
	if err := tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM attempts WHERE session_id = $1`, attempt.SessionID).Scan(&count); err != nil {
		return 0, false, storeErr("count attempts", err)
	}

	finished := count >= totalCount
	if finished {
		if _, err := tx.Exec(ctx, `
			UPDATE quiz_sessions SET finished_at = $2
			WHERE id = $1 AND finished_at IS NULL`, attempt.SessionID, s.now()); err != nil {
			return 0, false, storeErr("finish session", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, false, storeErr("commit submit", err)
	}
	return count, finished, nil
}

func (s *SessionStore) ListTopicAttempts(ctx context.Context, userID string) ([]app.TopicAttemptRow, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT q.topic_id, t.name, a.correct
		FROM attempts a
		JOIN quiz_sessions s ON s.id = a.session_id
		JOIN questions q ON q.id = a.question_id
		JOIN topics t ON t.id = q.topic_id
		WHERE s.user_id = $1
		ORDER BY a.created_at, a.id`, userID)
	if err != nil {
		return nil, storeErr("list topic attempts", err)
	}
	defer rows.Close()

	out := make([]app.TopicAttemptRow, 0)
	for rows.Next() {
		var r app.TopicAttemptRow
		if err := rows.Scan(&r.TopicID, &r.TopicName, &r.Correct); err != nil {
			return nil, storeErr("scan topic attempt", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list topic attempts", err)
	}
	return out, nil
}

func (s *SessionStore) ListRecentSessions(ctx context.Context, userID string, limit int) ([]app.SessionOutcomeRow, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT s.started_at,
		       COUNT(a.id),
		       COUNT(a.id) FILTER (WHERE a.correct)
		FROM quiz_sessions s
		LEFT JOIN attempts a ON a.session_id = s.id
		WHERE s.user_id = $1
		GROUP BY s.id
		ORDER BY s.started_at DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, storeErr("list recent sessions", err)
	}
	defer rows.Close()

	out := make([]app.SessionOutcomeRow, 0)
	for rows.Next() {
		var r app.SessionOutcomeRow
		if err := rows.Scan(&r.StartedAt, &r.Total, &r.Correct); err != nil {
			return nil, storeErr("scan session outcome", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list recent sessions", err)
	}
	return out, nil
}

func (s *SessionStore) ListReviewAttempts(ctx context.Context, userID string) ([]app.ReviewRow, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT q.id, q.topic_id, q.stem, q.options, q.answer, q.explanation, q.difficulty, q.published,
		       t.name, a.selected, a.correct, a.created_at
		FROM attempts a
		JOIN quiz_sessions s ON s.id = a.session_id
		JOIN questions q ON q.id = a.question_id
		JOIN topics t ON t.id = q.topic_id
		WHERE s.user_id = $1
		ORDER BY a.created_at DESC, a.id DESC`, userID)
	if err != nil {
		return nil, storeErr("list review attempts", err)
	}
	defer rows.Close()

	out := make([]app.ReviewRow, 0)
	for rows.Next() {
		var (
			r       app.ReviewRow
			rawOpts []byte
		)
		if err := rows.Scan(&r.Question.ID, &r.Question.TopicID, &r.Question.Stem, &rawOpts,
			&r.Question.Answer, &r.Question.Explanation, &r.Question.Difficulty, &r.Question.Published,
			&r.TopicName, &r.Selected, &r.Correct, &r.CreatedAt); err != nil {
			return nil, storeErr("scan review attempt", err)
		}
		if err := json.Unmarshal(rawOpts, &r.Question.Options); err != nil {
			return nil, fmt.Errorf("decode options: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list review attempts", err)
	}
	return out, nil
}

func scanSession(row pgx.Row) (domain.QuizSession, error) {
	var session domain.QuizSession
	err := row.Scan(&session.ID, &session.UserID, &session.Mode, &session.TopicID,
		&session.Difficulty, &session.TotalCount, &session.StartedAt, &session.FinishedAt)
	return session, err
}
