package app

import (
	"context"
	"math"
	"sort"
	"time"

	"study-quiz-service/internal/domain"
)

// recentSessionLimit caps the performance trend to the latest sessions.
const recentSessionLimit = 14

// TopicAttemptRow is one attempt joined to its question's topic,
// chronological order.
type TopicAttemptRow struct {
	TopicID   string
	TopicName string
	Correct   bool
}

// SessionOutcomeRow summarizes one session's attempts, newest session first.
type SessionOutcomeRow struct {
	StartedAt time.Time
	Total     int
	Correct   int
}

// ReviewRow is one attempt joined to its full question, newest attempt
// first. Carries correct attempts too: the aggregator needs the latest
// attempt per question to decide whether it is still missed.
type ReviewRow struct {
	Question  domain.Question
	TopicName string
	Selected  string
	Correct   bool
	CreatedAt time.Time
}

// AnalyticsRepository is the read side the aggregator works from. Reads run
// in their own transactions; staleness relative to in-flight sessions is
// acceptable.
type AnalyticsRepository interface {
	ListTopicAttempts(ctx context.Context, userID string) ([]TopicAttemptRow, error)
	ListRecentSessions(ctx context.Context, userID string, limit int) ([]SessionOutcomeRow, error)
	ListReviewAttempts(ctx context.Context, userID string) ([]ReviewRow, error)
}

// AnalyticsService derives per-topic and per-session accuracy views and the
// missed-question review list from historical attempts.
type AnalyticsService struct {
	repo AnalyticsRepository
}

func NewAnalyticsService(repo AnalyticsRepository) *AnalyticsService {
	return &AnalyticsService{repo: repo}
}

// Overview computes overall, per-topic and recent-trend accuracy for one
// user.
func (s *AnalyticsService) Overview(ctx context.Context, userID string) (domain.Overview, error) {
	attempts, err := s.repo.ListTopicAttempts(ctx, userID)
	if err != nil {
		return domain.Overview{}, err
	}
	sessions, err := s.repo.ListRecentSessions(ctx, userID, recentSessionLimit)
	if err != nil {
		return domain.Overview{}, err
	}

	totalCorrect := 0
	type bucket struct {
		name    string
		correct int
		total   int
	}
	buckets := make(map[string]*bucket)
	order := make([]string, 0)
	for _, a := range attempts {
		if a.Correct {
			totalCorrect++
		}
		b, ok := buckets[a.TopicID]
		if !ok {
			b = &bucket{name: a.TopicName}
			buckets[a.TopicID] = b
			order = append(order, a.TopicID)
		}
		b.total++
		if a.Correct {
			b.correct++
		}
	}

	byTopic := make([]domain.TopicAccuracy, 0, len(order))
	for _, topicID := range order {
		b := buckets[topicID]
		byTopic = append(byTopic, domain.TopicAccuracy{
			Topic:    b.name,
			Correct:  b.correct,
			Total:    b.total,
			Accuracy: percentage(b.correct, b.total),
		})
	}
	// Weakest topics first; stable sort keeps discovery order on ties.
	sort.SliceStable(byTopic, func(i, j int) bool {
		return byTopic[i].Accuracy < byTopic[j].Accuracy
	})

	// Sessions arrive newest first; the trend reads chronologically.
	trend := make([]domain.TrendPoint, 0, len(sessions))
	for i := len(sessions) - 1; i >= 0; i-- {
		s := sessions[i]
		trend = append(trend, domain.TrendPoint{
			Date:     s.StartedAt.UTC().Format("2006-01-02"),
			Accuracy: percentage(s.Correct, s.Total),
			Total:    s.Total,
		})
	}

	return domain.Overview{
		OverallAccuracy:   percentage(totalCorrect, len(attempts)),
		TotalAttempts:     len(attempts),
		TotalCorrect:      totalCorrect,
		ByTopic:           byTopic,
		RecentPerformance: trend,
	}, nil
}

// MissedQuestions lists questions whose most recent attempt by the user is
// still incorrect, newest miss first, one entry per question carrying the
// latest selected letter.
func (s *AnalyticsService) MissedQuestions(ctx context.Context, userID string) ([]domain.MissedQuestion, error) {
	rows, err := s.repo.ListReviewAttempts(ctx, userID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	missed := make([]domain.MissedQuestion, 0)
	for _, row := range rows {
		if _, ok := seen[row.Question.ID]; ok {
			continue
		}
		seen[row.Question.ID] = struct{}{}
		// Rows are newest first, so the first row per question is the
		// latest attempt; a correct one clears the question from review.
		if row.Correct {
			continue
		}
		missed = append(missed, domain.MissedQuestion{
			QuestionID:    row.Question.ID,
			Stem:          row.Question.Stem,
			Options:       row.Question.Options,
			Answer:        row.Question.Answer,
			Explanation:   row.Question.Explanation,
			Difficulty:    row.Question.Difficulty,
			Topic:         row.TopicName,
			Selected:      row.Selected,
			LastAttempted: row.CreatedAt,
		})
	}
	return missed, nil
}

// percentage rounds 100*correct/total to the nearest integer, 0 when empty.
func percentage(correct, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(correct) / float64(total) * 100))
}
