package app

import "study-quiz-service/internal/domain"

// Evaluate scores one submission: exact letter match against the stored
// answer, no partial credit, no normalization of option text.
func Evaluate(question domain.Question, selected string) bool {
	return question.Answer == selected
}
