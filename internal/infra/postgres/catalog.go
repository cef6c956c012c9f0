package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"study-quiz-service/internal/domain"
)

// Catalog reads topics and questions from Postgres.
type Catalog struct {
	pool *pgxpool.Pool
}

func NewCatalog(pool *pgxpool.Pool) *Catalog {
	return &Catalog{pool: pool}
}

func (c *Catalog) GetQuestion(ctx context.Context, id string) (domain.Question, error) {
	var (
		q       domain.Question
		rawOpts []byte
	)
	err := c.pool.QueryRow(ctx, `
		SELECT id, topic_id, stem, options, answer, explanation, difficulty, published
		FROM questions WHERE id = $1`, id).
		Scan(&q.ID, &q.TopicID, &q.Stem, &rawOpts, &q.Answer, &q.Explanation, &q.Difficulty, &q.Published)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	if err != nil {
		return domain.Question{}, storeErr("get question", err)
	}
	if err := json.Unmarshal(rawOpts, &q.Options); err != nil {
		return domain.Question{}, fmt.Errorf("decode options: %w", err)
	}
	return q, nil
}

func (c *Catalog) ListPublishedIDs(ctx context.Context, topicID string, difficulty domain.Difficulty) ([]string, error) {
	rows, err := c.pool.Query(ctx, `
		SELECT id FROM questions
		WHERE published
		  AND ($1 = '' OR topic_id = $1)
		  AND ($2 = '' OR difficulty = $2)`, topicID, string(difficulty))
	if err != nil {
		return nil, storeErr("list published questions", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, storeErr("scan question id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list published questions", err)
	}
	return ids, nil
}

// GetDelivery returns the answer-stripped view of a published question; the
// answer and explanation columns never leave the database here.
func (c *Catalog) GetDelivery(ctx context.Context, id string) (domain.DeliveryQuestion, error) {
	var (
		d       domain.DeliveryQuestion
		rawOpts []byte
	)
	err := c.pool.QueryRow(ctx, `
		SELECT q.id, q.stem, q.options, q.difficulty, t.name
		FROM questions q
		JOIN topics t ON t.id = q.topic_id
		WHERE q.id = $1 AND q.published`, id).
		Scan(&d.ID, &d.Stem, &rawOpts, &d.Difficulty, &d.TopicName)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.DeliveryQuestion{}, domain.ErrQuestionNotFound
	}
	if err != nil {
		return domain.DeliveryQuestion{}, storeErr("get question for delivery", err)
	}
	if err := json.Unmarshal(rawOpts, &d.Options); err != nil {
		return domain.DeliveryQuestion{}, fmt.Errorf("decode options: %w", err)
	}
	return d, nil
}

// UpsertTopic and UpsertQuestion back the seed CLI.
func (c *Catalog) UpsertTopic(ctx context.Context, topic domain.Topic) error {
	_, err := c.pool.Exec(ctx, `
		INSERT INTO topics (id, name, description) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, description = EXCLUDED.description`,
		topic.ID, topic.Name, topic.Description)
	if err != nil {
		return storeErr("upsert topic", err)
	}
	return nil
}

func (c *Catalog) UpsertQuestion(ctx context.Context, question domain.Question) error {
	opts, err := json.Marshal(question.Options)
	if err != nil {
		return fmt.Errorf("encode options: %w", err)
	}
	_, err = c.pool.Exec(ctx, `
		INSERT INTO questions (id, topic_id, stem, options, answer, explanation, difficulty, published)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			topic_id = EXCLUDED.topic_id, stem = EXCLUDED.stem,
			options = EXCLUDED.options, answer = EXCLUDED.answer,
			explanation = EXCLUDED.explanation, difficulty = EXCLUDED.difficulty,
			published = EXCLUDED.published`,
		question.ID, question.TopicID, question.Stem, opts,
		question.Answer, question.Explanation, string(question.Difficulty), question.Published)
	if err != nil {
		return storeErr("upsert question", err)
	}
	return nil
}

// storeErr tags infrastructure failures so callers can tell a transient
// store problem apart from a domain outcome.
func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
}
