package app_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"study-quiz-service/internal/app"
	"study-quiz-service/internal/domain"
	"study-quiz-service/internal/infra/memory"
)

func analyticsFixture() (*app.AnalyticsService, *memory.SessionStore) {
	catalog := memory.NewCatalog(
		[]domain.Topic{
			{ID: "topic-a", Name: "Hemodynamics"},
			{ID: "topic-b", Name: "Ventilation"},
		},
		[]domain.Question{
			testQuestion("qa1", "topic-a", domain.DifficultyEasy, "A"),
			testQuestion("qa2", "topic-a", domain.DifficultyEasy, "A"),
			testQuestion("qa3", "topic-a", domain.DifficultyEasy, "A"),
			testQuestion("qa4", "topic-a", domain.DifficultyEasy, "A"),
			testQuestion("qa5", "topic-a", domain.DifficultyEasy, "A"),
			testQuestion("qb1", "topic-b", domain.DifficultyEasy, "A"),
			testQuestion("qb2", "topic-b", domain.DifficultyEasy, "A"),
		},
	)
	store := memory.NewSessionStore(catalog)
	return app.NewAnalyticsService(store), store
}

var attemptSeq int

func recordAttempt(t *testing.T, store *memory.SessionStore, sessionID, questionID, selected string, correct bool, at time.Time) {
	t.Helper()
	attemptSeq++
	_, _, err := store.SubmitAttempt(context.Background(), domain.Attempt{
		ID:         fmt.Sprintf("a-%d", attemptSeq),
		SessionID:  sessionID,
		QuestionID: questionID,
		Selected:   selected,
		Correct:    correct,
		CreatedAt:  at,
	})
	if err != nil {
		t.Fatalf("record attempt %s/%s: %v", sessionID, questionID, err)
	}
}

func createSession(t *testing.T, store *memory.SessionStore, id, userID string, total int, startedAt time.Time) {
	t.Helper()
	err := store.CreateSession(context.Background(), domain.QuizSession{
		ID:         id,
		UserID:     userID,
		Mode:       domain.ModeTutor,
		TotalCount: total,
		StartedAt:  startedAt,
	})
	if err != nil {
		t.Fatalf("create session %s: %v", id, err)
	}
}

func TestOverviewAccuracyByTopic(t *testing.T) {
	ctx := context.Background()
	service, store := analyticsFixture()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	// topic-a: 3 correct out of 5, topic-b: 0 out of 2.
	createSession(t, store, "s1", "u1", 7, base)
	correct := []bool{true, true, true, false, false}
	for i, qid := range []string{"qa1", "qa2", "qa3", "qa4", "qa5"} {
		recordAttempt(t, store, "s1", qid, "A", correct[i], base.Add(time.Duration(i)*time.Minute))
	}
	recordAttempt(t, store, "s1", "qb1", "B", false, base.Add(10*time.Minute))
	recordAttempt(t, store, "s1", "qb2", "C", false, base.Add(11*time.Minute))

	overview, err := service.Overview(ctx, "u1")
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if overview.TotalAttempts != 7 || overview.TotalCorrect != 3 {
		t.Fatalf("expected 3/7 overall, got %d/%d", overview.TotalCorrect, overview.TotalAttempts)
	}
	if overview.OverallAccuracy != 43 { // round(3/7*100)
		t.Fatalf("expected overall accuracy 43, got %d", overview.OverallAccuracy)
	}
	if len(overview.ByTopic) != 2 {
		t.Fatalf("expected 2 topic rows, got %d", len(overview.ByTopic))
	}
	// Weakest first: Ventilation 0%, then Hemodynamics 60%.
	if overview.ByTopic[0].Topic != "Ventilation" || overview.ByTopic[0].Accuracy != 0 {
		t.Fatalf("expected Ventilation at 0%% first, got %+v", overview.ByTopic[0])
	}
	if overview.ByTopic[1].Topic != "Hemodynamics" || overview.ByTopic[1].Accuracy != 60 {
		t.Fatalf("expected Hemodynamics at 60%%, got %+v", overview.ByTopic[1])
	}
}

func TestOverviewOmitsUntouchedTopics(t *testing.T) {
	ctx := context.Background()
	service, store := analyticsFixture()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	createSession(t, store, "s1", "u1", 1, base)
	recordAttempt(t, store, "s1", "qa1", "A", true, base)

	overview, err := service.Overview(ctx, "u1")
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if len(overview.ByTopic) != 1 || overview.ByTopic[0].Topic != "Hemodynamics" {
		t.Fatalf("topics without attempts must be omitted, got %+v", overview.ByTopic)
	}
}

func TestOverviewRecentTrend(t *testing.T) {
	ctx := context.Background()
	service, store := analyticsFixture()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	// Three sessions on consecutive days; the middle one has no attempts.
	createSession(t, store, "s1", "u1", 2, base)
	recordAttempt(t, store, "s1", "qa1", "A", true, base.Add(time.Minute))
	recordAttempt(t, store, "s1", "qa2", "B", false, base.Add(2*time.Minute))

	createSession(t, store, "s2", "u1", 1, base.Add(24*time.Hour))

	createSession(t, store, "s3", "u1", 1, base.Add(48*time.Hour))
	recordAttempt(t, store, "s3", "qa3", "A", true, base.Add(48*time.Hour+time.Minute))

	overview, err := service.Overview(ctx, "u1")
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	trend := overview.RecentPerformance
	if len(trend) != 3 {
		t.Fatalf("expected 3 trend points, got %d", len(trend))
	}
	wantDates := []string{"2024-03-01", "2024-03-02", "2024-03-03"}
	wantAccuracy := []int{50, 0, 100}
	for i := range trend {
		if trend[i].Date != wantDates[i] {
			t.Fatalf("point %d: expected date %s, got %s", i, wantDates[i], trend[i].Date)
		}
		if trend[i].Accuracy != wantAccuracy[i] {
			t.Fatalf("point %d: expected accuracy %d, got %d", i, wantAccuracy[i], trend[i].Accuracy)
		}
	}
}

func TestOverviewTrendKeepsLatestFourteenSessions(t *testing.T) {
	ctx := context.Background()
	service, store := analyticsFixture()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 16; i++ {
		createSession(t, store, fmt.Sprintf("s%d", i), "u1", 1, base.Add(time.Duration(i)*24*time.Hour))
	}

	overview, err := service.Overview(ctx, "u1")
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	trend := overview.RecentPerformance
	if len(trend) != 14 {
		t.Fatalf("expected 14 trend points, got %d", len(trend))
	}
	// The two oldest sessions fall off; the window starts at day 3.
	if trend[0].Date != "2024-03-03" {
		t.Fatalf("expected window to start at 2024-03-03, got %s", trend[0].Date)
	}
	if trend[13].Date != "2024-03-16" {
		t.Fatalf("expected window to end at 2024-03-16, got %s", trend[13].Date)
	}
}

func TestMissedQuestionsDedupAndClearing(t *testing.T) {
	ctx := context.Background()
	service, store := analyticsFixture()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	createSession(t, store, "s1", "u1", 3, base)
	recordAttempt(t, store, "s1", "qa3", "B", false, base)
	recordAttempt(t, store, "s1", "qa1", "B", false, base.Add(time.Minute))
	recordAttempt(t, store, "s1", "qa2", "C", false, base.Add(2*time.Minute))

	createSession(t, store, "s2", "u1", 3, base.Add(time.Hour))
	recordAttempt(t, store, "s2", "qa1", "D", false, base.Add(time.Hour))
	recordAttempt(t, store, "s2", "qa2", "A", true, base.Add(time.Hour+time.Minute))
	recordAttempt(t, store, "s2", "qb1", "A", true, base.Add(time.Hour+2*time.Minute))

	missed, err := service.MissedQuestions(ctx, "u1")
	if err != nil {
		t.Fatalf("missed questions: %v", err)
	}
	// qa2 was answered correctly last, qb1 was never wrong; qa1 appears
	// once with its latest wrong selection, newest miss first.
	if len(missed) != 2 {
		t.Fatalf("expected 2 missed questions, got %d: %+v", len(missed), missed)
	}
	if missed[0].QuestionID != "qa1" || missed[0].Selected != "D" {
		t.Fatalf("expected qa1 with latest selection D first, got %+v", missed[0])
	}
	if !missed[0].LastAttempted.Equal(base.Add(time.Hour)) {
		t.Fatalf("expected lastAttempted of the newest wrong attempt, got %v", missed[0].LastAttempted)
	}
	if missed[1].QuestionID != "qa3" {
		t.Fatalf("expected qa3 second, got %+v", missed[1])
	}
	if missed[0].Answer == "" || missed[0].Explanation == "" || missed[0].Topic != "Hemodynamics" {
		t.Fatalf("review entry missing question details: %+v", missed[0])
	}
}

func TestMissedQuestionsScopedToUser(t *testing.T) {
	ctx := context.Background()
	service, store := analyticsFixture()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	createSession(t, store, "s1", "u1", 1, base)
	recordAttempt(t, store, "s1", "qa1", "B", false, base)
	createSession(t, store, "s2", "u2", 1, base)
	recordAttempt(t, store, "s2", "qa2", "C", false, base)

	missed, err := service.MissedQuestions(ctx, "u1")
	if err != nil {
		t.Fatalf("missed questions: %v", err)
	}
	if len(missed) != 1 || missed[0].QuestionID != "qa1" {
		t.Fatalf("expected only u1's misses, got %+v", missed)
	}
}
