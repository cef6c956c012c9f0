package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"study-quiz-service/internal/app"
	"study-quiz-service/internal/config"
	"study-quiz-service/internal/domain"
	"study-quiz-service/internal/infra/memory"
	pgstore "study-quiz-service/internal/infra/postgres"
	rediscache "study-quiz-service/internal/infra/redis"
	transport "study-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	cacheTTL := config.TTLDuration(cfg.Catalog.CacheTTL, 10*time.Minute)

	var (
		catalog   app.CatalogRepository
		delivery  app.DeliveryRepository
		sessions  app.SessionRepository
		analytics app.AnalyticsRepository
	)
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		pgCatalog := pgstore.NewCatalog(pool)
		pgSessions := pgstore.NewSessionStore(pool)
		catalog, delivery = pgCatalog, pgCatalog
		sessions, analytics = pgSessions, pgSessions
	} else {
		log.Printf("postgres not configured, using in-memory stores with the sample catalog")
		memCatalog := memory.NewCatalog(sampleTopics(), sampleQuestions())
		memSessions := memory.NewSessionStore(memCatalog)
		catalog, delivery = memCatalog, memCatalog
		sessions, analytics = memSessions, memSessions
	}

	if redisClient != nil {
		if loader, ok := delivery.(rediscache.DeliveryLoader); ok {
			delivery = rediscache.NewDeliveryCache(redisClient, loader, cacheTTL)
		}
	}

	progress := app.NewProgressHub()
	quizService := app.NewQuizService(sessions, catalog, delivery, progress)
	analyticsService := app.NewAnalyticsService(analytics)
	handler := transport.NewHandler(quizService, analyticsService, progress)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      handler.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting study-quiz service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleTopics and sampleQuestions provide a minimal catalog for running
// without Postgres; use the seed command for real content.
func sampleTopics() []domain.Topic {
	return []domain.Topic{
		{ID: "topic-pharm", Name: "Pharmacology"},
		{ID: "topic-phys", Name: "Physiology"},
	}
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{
			ID:      "q-pharm-1",
			TopicID: "topic-pharm",
			Stem:    "Which induction agent is most associated with adrenal suppression?",
			Options: domain.Options{
				A: "Propofol", B: "Etomidate", C: "Ketamine", D: "Midazolam",
			},
			Answer:      "B",
			Explanation: "Etomidate inhibits 11-beta-hydroxylase, suppressing cortisol synthesis.",
			Difficulty:  domain.DifficultyMedium,
			Published:   true,
		},
		{
			ID:      "q-phys-1",
			TopicID: "topic-phys",
			Stem:    "What shifts the oxyhemoglobin dissociation curve to the right?",
			Options: domain.Options{
				A: "Alkalosis", B: "Hypothermia", C: "Acidosis", D: "Decreased 2,3-DPG",
			},
			Answer:      "C",
			Explanation: "Acidosis, hyperthermia and increased 2,3-DPG all shift the curve rightward.",
			Difficulty:  domain.DifficultyEasy,
			Published:   true,
		},
	}
}
