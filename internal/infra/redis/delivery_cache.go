package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"study-quiz-service/internal/domain"
)

// DeliveryLoader fetches answer-stripped question views from the backing
// catalog on cache miss.
type DeliveryLoader interface {
	GetDelivery(ctx context.Context, id string) (domain.DeliveryQuestion, error)
}

// DeliveryCache is a read-through Redis cache for delivery views, stored
// as: SET question:{id}:delivery {json}. Only the stripped view is ever
// cached, so a cache leak can never expose an answer or explanation.
type DeliveryCache struct {
	client *redis.Client
	loader DeliveryLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewDeliveryCache(client *redis.Client, loader DeliveryLoader, ttl time.Duration) *DeliveryCache {
	return &DeliveryCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *DeliveryCache) GetDelivery(ctx context.Context, id string) (domain.DeliveryQuestion, error) {
	key := c.key(id)

	raw, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var view domain.DeliveryQuestion
		if err := json.Unmarshal(raw, &view); err == nil {
			return view, nil
		}
		// Unreadable entry: fall through and repopulate.
	}

	result, err, _ := c.sf.Do(id, func() (interface{}, error) {
		// Re-check in case another goroutine filled the key.
		raw, err := c.client.Get(ctx, key).Bytes()
		if err == nil {
			var view domain.DeliveryQuestion
			if err := json.Unmarshal(raw, &view); err == nil {
				return view, nil
			}
		}

		view, err := c.loader.GetDelivery(ctx, id)
		if err != nil {
			return domain.DeliveryQuestion{}, err
		}

		if data, err := json.Marshal(view); err == nil {
			// Best-effort: a failed cache write only costs the next caller
			// a loader round trip.
			_ = c.client.Set(ctx, key, data, c.ttlWithJitter()).Err()
		}
		return view, nil
	})
	if err != nil {
		return domain.DeliveryQuestion{}, err
	}
	return result.(domain.DeliveryQuestion), nil
}

func (c *DeliveryCache) key(id string) string {
	return "question:" + id + ":delivery"
}

func (c *DeliveryCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
