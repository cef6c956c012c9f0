package memory

import (
	"context"
	"sync"

	"study-quiz-service/internal/domain"
)

// Catalog is an in-memory question catalog, used by tests and as the
// fallback when Postgres is not configured.
type Catalog struct {
	mu        sync.RWMutex
	topics    map[string]domain.Topic
	questions map[string]domain.Question
	order     []string // question insertion order, keeps listings stable
}

func NewCatalog(topics []domain.Topic, questions []domain.Question) *Catalog {
	c := &Catalog{
		topics:    make(map[string]domain.Topic),
		questions: make(map[string]domain.Question),
	}
	for _, t := range topics {
		c.topics[t.ID] = t
	}
	for _, q := range questions {
		c.questions[q.ID] = q
		c.order = append(c.order, q.ID)
	}
	return c
}

func (c *Catalog) GetQuestion(_ context.Context, id string) (domain.Question, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	q, ok := c.questions[id]
	if !ok {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return q, nil
}

func (c *Catalog) ListPublishedIDs(_ context.Context, topicID string, difficulty domain.Difficulty) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0)
	for _, id := range c.order {
		q := c.questions[id]
		if !q.Published {
			continue
		}
		if topicID != "" && q.TopicID != topicID {
			continue
		}
		if difficulty != "" && q.Difficulty != difficulty {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// GetDelivery returns the answer-stripped view of a published question.
func (c *Catalog) GetDelivery(_ context.Context, id string) (domain.DeliveryQuestion, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	q, ok := c.questions[id]
	if !ok || !q.Published {
		return domain.DeliveryQuestion{}, domain.ErrQuestionNotFound
	}
	topicName := ""
	if t, ok := c.topics[q.TopicID]; ok {
		topicName = t.Name
	}
	return domain.DeliveryQuestion{
		ID:         q.ID,
		Stem:       q.Stem,
		Options:    q.Options,
		Difficulty: q.Difficulty,
		TopicName:  topicName,
	}, nil
}

func (c *Catalog) question(id string) (domain.Question, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	q, ok := c.questions[id]
	return q, ok
}

func (c *Catalog) topicName(topicID string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if t, ok := c.topics[topicID]; ok {
		return t.Name
	}
	return ""
}
