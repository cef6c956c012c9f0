package domain

import "errors"

var (
	// ErrSessionNotFound is returned when the referenced quiz session does not exist.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrQuestionNotFound indicates a question ID is unknown or unpublished.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrTopicNotFound indicates a filter references an unknown topic.
	ErrTopicNotFound = errors.New("topic not found")
	// ErrForbidden is returned when the caller does not own the session.
	ErrForbidden = errors.New("session owned by another user")
	// ErrEmptyCatalog is returned when no published questions match a filter.
	ErrEmptyCatalog = errors.New("no published questions match the filter")
	// ErrSessionFinished rejects mutations on a terminal session.
	ErrSessionFinished = errors.New("session already finished")
	// ErrDuplicateAttempt rejects a second submission for the same question
	// within one session.
	ErrDuplicateAttempt = errors.New("question already answered in this session")
	// ErrInvalidCount rejects a requested count outside [1,100].
	ErrInvalidCount = errors.New("count must be between 1 and 100")
	// ErrInvalidDifficulty rejects an unknown difficulty level.
	ErrInvalidDifficulty = errors.New("unknown difficulty")
	// ErrInvalidMode rejects an unknown quiz mode.
	ErrInvalidMode = errors.New("unknown quiz mode")
	// ErrInvalidSelection rejects a selected answer outside A-D.
	ErrInvalidSelection = errors.New("selected answer must be one of A, B, C, D")
	// ErrStoreUnavailable wraps transient store failures; reads may be
	// retried, submissions must not be retried blindly.
	ErrStoreUnavailable = errors.New("store unavailable")
)
