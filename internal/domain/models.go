package domain

import "time"

// Difficulty buckets questions for filtering.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHard   Difficulty = "HARD"
)

// Valid reports whether d is one of the three known levels.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Mode controls when feedback is shown to the student; the core persists
// the choice and treats both modes identically.
type Mode string

const (
	ModeTutor Mode = "TUTOR"
	ModeTimed Mode = "TIMED"
)

// Valid reports whether m is a known quiz mode.
func (m Mode) Valid() bool {
	return m == ModeTutor || m == ModeTimed
}

// ValidLetter reports whether s is exactly one of A, B, C or D.
func ValidLetter(s string) bool {
	return s == "A" || s == "B" || s == "C" || s == "D"
}

// Topic is a catalog grouping for questions. The catalog owns it; the
// core only reads it.
type Topic struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Options holds the four answer choices keyed by letter.
type Options struct {
	A string `json:"A"`
	B string `json:"B"`
	C string `json:"C"`
	D string `json:"D"`
}

// Question is a four-option MCQ. Answer and Explanation must never reach
// a client before that question has been submitted in the session.
type Question struct {
	ID          string     `json:"id"`
	TopicID     string     `json:"topicId"`
	Stem        string     `json:"stem"`
	Options     Options    `json:"options"`
	Answer      string     `json:"answer"`
	Explanation string     `json:"explanation"`
	Difficulty  Difficulty `json:"difficulty"`
	Published   bool       `json:"published"`
}

// DeliveryQuestion is the answer-stripped view served during a quiz.
type DeliveryQuestion struct {
	ID         string     `json:"id"`
	Stem       string     `json:"stem"`
	Options    Options    `json:"options"`
	Difficulty Difficulty `json:"difficulty"`
	TopicName  string     `json:"topicName"`
}

// QuizSession is one run through a fixed set of questions. TotalCount is
// frozen at creation; FinishedAt flips from nil exactly once.
type QuizSession struct {
	ID         string
	UserID     string
	Mode       Mode
	TopicID    string     // filter snapshot, empty means any topic
	Difficulty Difficulty // filter snapshot, empty means any difficulty
	TotalCount int
	StartedAt  time.Time
	FinishedAt *time.Time
}

// Finished reports whether the session reached its terminal state.
func (s QuizSession) Finished() bool {
	return s.FinishedAt != nil
}

// Attempt is one scored submission. Append-only; Correct is computed at
// write time and never recomputed.
type Attempt struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"sessionId"`
	QuestionID string    `json:"questionId"`
	Selected   string    `json:"selected"`
	Correct    bool      `json:"correct"`
	TimeSpent  *int      `json:"timeSpent,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// SessionFilter is the validated, immutable question filter captured when
// a session is created.
type SessionFilter struct {
	TopicID    string
	Difficulty Difficulty // empty means any
	Count      int
}

// Validate checks the filter before any store access happens.
func (f SessionFilter) Validate() error {
	if f.Count < 1 || f.Count > 100 {
		return ErrInvalidCount
	}
	if f.Difficulty != "" && !f.Difficulty.Valid() {
		return ErrInvalidDifficulty
	}
	return nil
}

// SubmitResult is the feedback returned after an attempt is recorded.
type SubmitResult struct {
	Correct       bool   `json:"correct"`
	CorrectAnswer string `json:"correctAnswer"`
	Explanation   string `json:"explanation"`
	IsFinished    bool   `json:"isFinished"`
	AttemptCount  int    `json:"attemptCount"`
	TotalCount    int    `json:"totalCount"`
}

// AttemptRecord is the per-question slice of a status snapshot.
type AttemptRecord struct {
	QuestionID string `json:"questionId"`
	Selected   string `json:"selected"`
	Correct    bool   `json:"correct"`
}

// SessionStatus is a read-only snapshot of a session and its attempts.
type SessionStatus struct {
	ID         string          `json:"id"`
	Mode       Mode            `json:"mode"`
	TotalCount int             `json:"totalCount"`
	StartedAt  time.Time       `json:"startedAt"`
	FinishedAt *time.Time      `json:"finishedAt"`
	Attempts   []AttemptRecord `json:"attempts"`
}

// TopicAccuracy is one row of the per-topic analytics view.
type TopicAccuracy struct {
	Topic    string `json:"topic"`
	Correct  int    `json:"correct"`
	Total    int    `json:"total"`
	Accuracy int    `json:"accuracy"`
}

// TrendPoint is one session in the recent-performance series.
type TrendPoint struct {
	Date     string `json:"date"`
	Accuracy int    `json:"accuracy"`
	Total    int    `json:"total"`
}

// Overview bundles a user's aggregate statistics.
type Overview struct {
	OverallAccuracy   int             `json:"overallAccuracy"`
	TotalAttempts     int             `json:"totalAttempts"`
	TotalCorrect      int             `json:"totalCorrect"`
	ByTopic           []TopicAccuracy `json:"byTopic"`
	RecentPerformance []TrendPoint    `json:"recentPerformance"`
}

// MissedQuestion is one entry of the review list: a question whose most
// recent attempt by the user is still incorrect.
type MissedQuestion struct {
	QuestionID    string     `json:"questionId"`
	Stem          string     `json:"stem"`
	Options       Options    `json:"options"`
	Answer        string     `json:"answer"`
	Explanation   string     `json:"explanation"`
	Difficulty    Difficulty `json:"difficulty"`
	Topic         string     `json:"topic"`
	Selected      string     `json:"selected"`
	LastAttempted time.Time  `json:"lastAttempted"`
}

// SessionProgress is pushed to websocket subscribers after each recorded
// attempt.
type SessionProgress struct {
	SessionID    string `json:"sessionId"`
	AttemptCount int    `json:"attemptCount"`
	TotalCount   int    `json:"totalCount"`
	Finished     bool   `json:"finished"`
}
