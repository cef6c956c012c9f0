package app

import (
	"context"
	"math/rand"

	"study-quiz-service/internal/domain"
)

// CatalogRepository exposes the read side of the question catalog that the
// core depends on. The catalog itself (admin CRUD) lives outside the core.
type CatalogRepository interface {
	// GetQuestion returns the full question regardless of publication; the
	// evaluator needs the answer for questions already placed in a session.
	GetQuestion(ctx context.Context, id string) (domain.Question, error)
	// ListPublishedIDs returns ids of published questions matching the
	// filter's topic/difficulty, ignoring Count.
	ListPublishedIDs(ctx context.Context, topicID string, difficulty domain.Difficulty) ([]string, error)
}

// Selector materializes the ordered question set for a new session.
type Selector struct {
	catalog CatalogRepository
	shuffle func(n int, swap func(i, j int))
}

func NewSelector(catalog CatalogRepository) *Selector {
	// rand.Shuffle on the process-level source: uniform Fisher-Yates,
	// seeded per process, safe for concurrent callers.
	return &Selector{catalog: catalog, shuffle: rand.Shuffle}
}

// Pick returns min(filter.Count, matches) distinct published question ids
// in uniformly random order. The filter must already be validated.
func (s *Selector) Pick(ctx context.Context, filter domain.SessionFilter) ([]string, error) {
	ids, err := s.catalog.ListPublishedIDs(ctx, filter.TopicID, filter.Difficulty)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, domain.ErrEmptyCatalog
	}

	picked := make([]string, len(ids))
	copy(picked, ids)
	s.shuffle(len(picked), func(i, j int) {
		picked[i], picked[j] = picked[j], picked[i]
	})
	if len(picked) > filter.Count {
		picked = picked[:filter.Count]
	}
	return picked, nil
}
