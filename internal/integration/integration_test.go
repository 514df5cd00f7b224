package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"railprep/internal/app"
	"railprep/internal/domain"
	pgcorpus "railprep/internal/infra/postgres"
	pgmigrations "railprep/internal/infra/postgres/migrations"
	infraredis "railprep/internal/infra/redis"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

func TestQuizFlowEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	runMigrations(t, ctx, pgURL)
	if _, err := pgcorpus.Seed(ctx, pool, sampleCorpus()); err != nil {
		t.Fatalf("seed corpus: %v", err)
	}
	// Re-seeding the same bank must be idempotent.
	if _, err := pgcorpus.Seed(ctx, pool, sampleCorpus()); err != nil {
		t.Fatalf("re-seed corpus: %v", err)
	}

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}

	cache := infraredis.NewCorpusCache(redisClient, pgcorpus.NewCorpusLoader(pool), 5*time.Minute)
	kv := infraredis.NewKV(redisClient, "quiz:")
	store := app.NewProgressStore(kv)
	bank, err := app.NewQuestionBank(ctx, cache, kv, domain.DefaultSubjectGroups())
	if err != nil {
		t.Fatalf("new bank: %v", err)
	}
	rules := domain.Rules{
		QuestionsPerQuiz: 2,
		PassScore:        60,
		UnlockConditions: map[domain.Difficulty]domain.UnlockCondition{
			domain.EasyTier: {MinAttempts: 1, MinAverage: 60},
		},
	}
	service := app.NewService(store, bank, infraredis.NewSessionArchive(redisClient), rules, domain.DefaultSubjectGroups())

	session, err := service.Draw(ctx, "railway-safety", domain.VeryEasy)
	if err != nil {
		t.Fatalf("draw: %v", err)
	}
	if len(session.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(session.Questions))
	}

	answers := make([]int, len(session.Questions))
	for i, q := range session.Questions {
		answers[i] = q.CorrectAnswer
	}
	result, err := service.Submit(ctx, session, answers)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Score != 100 || result.IsDuplicate {
		t.Fatalf("unexpected result %+v", result)
	}
	if !result.Progress.HasUnlocked(domain.EasyTier) {
		t.Fatalf("expected easy tier unlocked, got %v", result.Progress.UnlockedDifficulties)
	}

	// A replay against the same redis-backed record stays a no-op.
	replay, err := service.Submit(ctx, session, answers)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if !replay.IsDuplicate || replay.Score != 100 {
		t.Fatalf("expected duplicate replay, got %+v", replay)
	}
	progress := service.Progress(ctx)
	if len(progress.QuestionHistory) != 1 {
		t.Fatalf("expected 1 history entry after replay, got %d", len(progress.QuestionHistory))
	}

	archived, err := service.Session(ctx, session.ID)
	if err != nil {
		t.Fatalf("archived session: %v", err)
	}
	if !archived.IsCompleted || archived.Score != 100 {
		t.Fatalf("unexpected archived session %+v", archived)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func runMigrations(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func sampleCorpus() []domain.Question {
	return []domain.Question{
		{
			Subject:       "Railway Safety Act",
			Difficulty:    domain.VeryEasy,
			Question:      "Which body issues a railway safety approval?",
			Options:       []string{"The transport ministry", "The operator", "A municipality", "Any carrier"},
			CorrectAnswer: 0,
			Explanation:   "Approvals are issued by the transport ministry.",
		},
		{
			Subject:       "Railway Safety Act Decree",
			Difficulty:    domain.VeryEasy,
			Question:      "How often is a comprehensive safety audit required?",
			Options:       []string{"Monthly", "Every year", "Every five years", "Never"},
			CorrectAnswer: 1,
			Explanation:   "The decree requires an annual comprehensive audit.",
		},
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
