package redis

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"study-quiz-service/internal/domain"
	"study-quiz-service/internal/infra/memory"
)

func TestDeliveryCacheCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{DeliveryLoader: testCatalog()}
	cache := NewDeliveryCache(newClient(mr), loader, time.Minute)

	view, err := cache.GetDelivery(context.Background(), "q1")
	if err != nil {
		t.Fatalf("get delivery: %v", err)
	}
	if view.Stem == "" || view.TopicName != "Pharmacology" {
		t.Fatalf("incomplete view %+v", view)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}

	// Second call should hit Redis, loader not incremented.
	if _, err := cache.GetDelivery(context.Background(), "q1"); err != nil {
		t.Fatalf("get delivery 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
}

func TestDeliveryCacheNeverStoresAnswers(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	cache := NewDeliveryCache(newClient(mr), testCatalog(), time.Minute)
	if _, err := cache.GetDelivery(context.Background(), "q1"); err != nil {
		t.Fatalf("get delivery: %v", err)
	}

	raw, err := mr.Get("question:q1:delivery")
	if err != nil {
		t.Fatalf("expected cached key: %v", err)
	}
	for _, leak := range []string{"answer", "explanation", "the right choice"} {
		if strings.Contains(strings.ToLower(raw), leak) {
			t.Fatalf("cached payload leaks %q: %s", leak, raw)
		}
	}
}

func TestDeliveryCacheMissPropagatesNotFound(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	cache := NewDeliveryCache(newClient(mr), testCatalog(), time.Minute)
	if _, err := cache.GetDelivery(context.Background(), "missing"); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected ErrQuestionNotFound, got %v", err)
	}
	if mr.Exists("question:missing:delivery") {
		t.Fatalf("negative result must not be cached")
	}
}

type countingLoader struct {
	DeliveryLoader
	calls int
}

func (l *countingLoader) GetDelivery(ctx context.Context, id string) (domain.DeliveryQuestion, error) {
	l.calls++
	return l.DeliveryLoader.GetDelivery(ctx, id)
}

func testCatalog() *memory.Catalog {
	return memory.NewCatalog(
		[]domain.Topic{{ID: "t1", Name: "Pharmacology"}},
		[]domain.Question{{
			ID:      "q1",
			TopicID: "t1",
			Stem:    "Pick one",
			Options: domain.Options{
				A: "first", B: "second", C: "third", D: "fourth",
			},
			Answer:      "B",
			Explanation: "second is the right choice",
			Difficulty:  domain.DifficultyEasy,
			Published:   true,
		}},
	)
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
