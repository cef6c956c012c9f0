package cli

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"study-quiz-service/internal/config"
	"study-quiz-service/internal/domain"
	pgstore "study-quiz-service/internal/infra/postgres"
)

// NewSeedCmd loads a YAML catalog file into Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	var catalogPath string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load topics and questions from a YAML catalog file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), *configPath, catalogPath)
		},
	}
	cmd.Flags().StringVar(&catalogPath, "catalog", "config/catalog.yaml", "path to YAML catalog file")
	return cmd
}

type seedTopic struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type seedQuestion struct {
	ID      string `yaml:"id"`
	TopicID string `yaml:"topicId"`
	Stem    string `yaml:"stem"`
	Options struct {
		A string `yaml:"A"`
		B string `yaml:"B"`
		C string `yaml:"C"`
		D string `yaml:"D"`
	} `yaml:"options"`
	Answer      string `yaml:"answer"`
	Explanation string `yaml:"explanation"`
	Difficulty  string `yaml:"difficulty"`
	Published   bool   `yaml:"published"`
}

type seedFile struct {
	Topics    []seedTopic    `yaml:"topics"`
	Questions []seedQuestion `yaml:"questions"`
}

func runSeed(ctx context.Context, configPath, catalogPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}

	data, err := os.ReadFile(catalogPath)
	if err != nil {
		return err
	}
	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse catalog file: %w", err)
	}
	if err := validateSeed(file); err != nil {
		return err
	}

	if err := runMigrationsWithConfig(ctx, cfg); err != nil {
		return err
	}

	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	catalog := pgstore.NewCatalog(pool)
	for _, t := range file.Topics {
		if err := catalog.UpsertTopic(ctx, domain.Topic{ID: t.ID, Name: t.Name, Description: t.Description}); err != nil {
			return err
		}
	}
	for _, q := range file.Questions {
		question := domain.Question{
			ID:      q.ID,
			TopicID: q.TopicID,
			Stem:    q.Stem,
			Options: domain.Options{
				A: q.Options.A, B: q.Options.B, C: q.Options.C, D: q.Options.D,
			},
			Answer:      q.Answer,
			Explanation: q.Explanation,
			Difficulty:  domain.Difficulty(q.Difficulty),
			Published:   q.Published,
		}
		if err := catalog.UpsertQuestion(ctx, question); err != nil {
			return err
		}
	}

	log.Printf("seeded %d topics and %d questions", len(file.Topics), len(file.Questions))
	return nil
}

func validateSeed(file seedFile) error {
	topics := make(map[string]struct{}, len(file.Topics))
	for _, t := range file.Topics {
		if t.ID == "" || t.Name == "" {
			return fmt.Errorf("topic %q: id and name are required", t.ID)
		}
		topics[t.ID] = struct{}{}
	}
	for _, q := range file.Questions {
		if _, ok := topics[q.TopicID]; !ok {
			return fmt.Errorf("question %q references unknown topic %q", q.ID, q.TopicID)
		}
		if !domain.ValidLetter(q.Answer) {
			return fmt.Errorf("question %q: answer must be one of A, B, C, D", q.ID)
		}
		if !domain.Difficulty(q.Difficulty).Valid() {
			return fmt.Errorf("question %q: unknown difficulty %q", q.ID, q.Difficulty)
		}
	}
	return nil
}
