package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"railprep/internal/app"
	"railprep/internal/config"
	"railprep/internal/corpus"
	"railprep/internal/domain"
	"railprep/internal/infra/memory"
	pgcorpus "railprep/internal/infra/postgres"
	redisinfra "railprep/internal/infra/redis"
	transport "railprep/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewServeCmd builds the CLI subcommand to start the server.
func NewServeCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the quiz progress server",
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

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	source, err := corpusSource(cfg, redisClient, pool)
	if err != nil {
		return err
	}

	var kv app.KV = memory.NewKV()
	var archive app.SessionArchive = memory.NewSessionArchive()
	if redisClient != nil {
		prefix := cfg.Redis.KeyPrefix
		if prefix == "" {
			prefix = "quiz:"
		}
		kv = redisinfra.NewKV(redisClient, prefix)
		archive = redisinfra.NewSessionArchive(redisClient)
	}

	store := app.NewProgressStore(kv)
	bank, err := app.NewQuestionBank(ctx, source, kv, cfg.SubjectGroups())
	if err != nil {
		return err
	}
	service := app.NewService(store, bank, archive, cfg.Rules(), cfg.SubjectGroups())
	handler := transport.NewHandler(service, bank, store)

	mux := http.NewServeMux()
	handler.Register(mux)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting railprep on :%s", finalPort)
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

// corpusSource picks the question corpus backing store: Postgres when
// configured, otherwise a corpus file, otherwise a bundled sample. Redis
// fronts whichever loader is chosen; without Redis an in-process TTL cache
// does.
func corpusSource(cfg config.Config, redisClient *redis.Client, pool *pgxpool.Pool) (app.CorpusSource, error) {
	ttl := config.TTLDuration(cfg.Quiz.CorpusTTL, 10*time.Minute)

	var loader memory.CorpusLoader
	switch {
	case pool != nil:
		loader = pgcorpus.NewCorpusLoader(pool)
	case cfg.Quiz.CorpusFile != "":
		questions, err := corpus.LoadFile(cfg.Quiz.CorpusFile)
		if err != nil {
			return nil, err
		}
		loader = memory.NewStaticCorpus(questions)
	default:
		loader = memory.NewStaticCorpus(sampleCorpus())
	}

	if redisClient != nil {
		return redisinfra.NewCorpusCache(redisClient, loader, ttl), nil
	}
	return memory.NewCorpusCache(loader, ttl), nil
}

// sampleCorpus provides a minimal question set so the server runs without
// any backing store configured.
func sampleCorpus() []domain.Question {
	return []domain.Question{
		{
			Subject:    "Railway Safety Act",
			Difficulty: domain.VeryEasy,
			Question:   "Which authority approves a railway operator's safety management system?",
			Options: []string{
				"The transport ministry",
				"The operator's board",
				"The station master",
				"The rolling stock vendor",
			},
			CorrectAnswer: 0,
			Explanation:   "Safety management systems require ministry approval before operations begin.",
		},
		{
			Subject:    "Railway Safety Act Decree",
			Difficulty: domain.VeryEasy,
			Question:   "How often must the safety management system be reviewed?",
			Options: []string{
				"Never",
				"Annually",
				"Every ten years",
				"Only after an accident",
			},
			CorrectAnswer: 1,
			Explanation:   "The decree prescribes an annual review cycle.",
		},
	}
}
