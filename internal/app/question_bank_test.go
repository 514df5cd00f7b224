package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"railprep/internal/domain"
	"railprep/internal/infra/memory"
)

func TestQuestionsBySubjectResolvesGroupAliases(t *testing.T) {
	ctx := context.Background()
	bank := newTestBank(t)

	questions := bank.QuestionsBySubject(ctx, "railway-safety")
	if len(questions) != 4 {
		t.Fatalf("expected 4 safety questions across act and decree, got %d", len(questions))
	}

	// Raw subject strings keep working as query keys.
	raw := bank.QuestionsBySubject(ctx, "Railway Safety Act Decree")
	if len(raw) != 2 {
		t.Fatalf("expected 2 decree questions, got %d", len(raw))
	}

	tiered := bank.QuestionsBySubjectAndDifficulty(ctx, "railway-safety", domain.EasyTier)
	if len(tiered) != 1 {
		t.Fatalf("expected 1 easy safety question, got %d", len(tiered))
	}

	all := bank.QuestionsBySubject(ctx, "railway-all")
	if len(all) != 5 {
		t.Fatalf("expected the combined group to match everything, got %d", len(all))
	}
}

func TestRandomQuestionsIsAPermutationDraw(t *testing.T) {
	ctx := context.Background()
	bank := newTestBank(t)

	drawn := bank.RandomQuestions(ctx, "railway-all", "", 3)
	if len(drawn) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(drawn))
	}
	seen := make(map[string]bool)
	for _, q := range drawn {
		if seen[q.Question] {
			t.Fatalf("question drawn twice: %q", q.Question)
		}
		seen[q.Question] = true
	}

	// A pool smaller than the requested count is returned in full.
	short := bank.RandomQuestions(ctx, "railway-development", "", 10)
	if len(short) != 1 {
		t.Fatalf("expected the whole 1-question pool, got %d", len(short))
	}

	empty := bank.RandomQuestions(ctx, "railway-corporation", "", 5)
	if empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", empty)
	}
}

func TestUserQuestionLifecycle(t *testing.T) {
	ctx := context.Background()
	bank := newTestBank(t)

	added, ok := bank.AddQuestion(ctx, domain.Question{
		Subject:       "Railway Corporation Act",
		Difficulty:    domain.Medium,
		Question:      "Who appoints the corporation president?",
		Options:       []string{"The board", "The transport minister", "Shareholders", "Parliament"},
		CorrectAnswer: 1,
		Explanation:   "Appointment is made by the transport minister.",
	})
	if !ok {
		t.Fatalf("add failed")
	}
	if !strings.HasPrefix(added.ID, "q_") || added.CreatedAt == "" || added.UpdatedAt != added.CreatedAt {
		t.Fatalf("expected assigned id and timestamps, got %+v", added)
	}

	got, ok := bank.QuestionByID(ctx, added.ID)
	if !ok || got.Question != added.Question {
		t.Fatalf("expected to find added question, got ok=%v %+v", ok, got)
	}

	// User questions join the draw pool for their group.
	pool := bank.QuestionsBySubject(ctx, "railway-corporation")
	if len(pool) != 1 {
		t.Fatalf("expected user question in corporation pool, got %d", len(pool))
	}

	updated := added
	updated.Question = "Who appoints the president of the corporation?"
	if !bank.UpdateQuestion(ctx, added.ID, updated) {
		t.Fatalf("update failed")
	}
	got, _ = bank.QuestionByID(ctx, added.ID)
	if got.Question != updated.Question || got.CreatedAt != added.CreatedAt {
		t.Fatalf("expected updated text with original createdAt, got %+v", got)
	}

	if bank.UpdateQuestion(ctx, "q_unknown", updated) {
		t.Fatalf("updating an unknown id must be a no-op")
	}
	if bank.DeleteQuestion(ctx, "q_unknown") {
		t.Fatalf("deleting an unknown id must be a no-op")
	}

	if !bank.DeleteQuestion(ctx, added.ID) {
		t.Fatalf("delete failed")
	}
	if _, ok := bank.QuestionByID(ctx, added.ID); ok {
		t.Fatalf("expected question gone after delete")
	}
}

func TestUserQuestionWritesAbortOnReadError(t *testing.T) {
	ctx := context.Background()
	kv := &failingGetKV{KV: memory.NewKV()}
	bank, err := NewQuestionBank(ctx, memory.NewStaticCorpus(bankCorpus()), kv, domain.DefaultSubjectGroups())
	if err != nil {
		t.Fatalf("new bank: %v", err)
	}

	added, ok := bank.AddQuestion(ctx, domain.Question{
		Subject:       "Railway Corporation Act",
		Question:      "Who appoints the corporation president?",
		Options:       opts(),
		CorrectAnswer: 1,
		Explanation:   "x",
	})
	if !ok {
		t.Fatalf("add failed: %+v", added)
	}

	// While the medium is unreadable, writes must not replace the record.
	kv.failReads = true
	if _, ok := bank.AddQuestion(ctx, domain.Question{Subject: "Railway Safety Act", Question: "q", Options: opts()}); ok {
		t.Fatalf("expected add to abort on read error")
	}
	if bank.DeleteQuestion(ctx, added.ID) {
		t.Fatalf("expected delete to abort on read error")
	}

	kv.failReads = false
	if _, ok := bank.QuestionByID(ctx, added.ID); !ok {
		t.Fatalf("expected existing question preserved through the outage")
	}
}

type failingGetKV struct {
	*memory.KV
	failReads bool
}

func (f *failingGetKV) Get(ctx context.Context, key string) (string, bool, error) {
	if f.failReads {
		return "", false, errors.New("connection refused")
	}
	return f.KV.Get(ctx, key)
}

func TestMalformedUserRecordDegrades(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKV()
	_ = kv.Set(ctx, keyQuestions, "{broken")
	bank, err := NewQuestionBank(ctx, memory.NewStaticCorpus(bankCorpus()), kv, domain.DefaultSubjectGroups())
	if err != nil {
		t.Fatalf("new bank: %v", err)
	}

	if got := bank.QuestionsBySubject(ctx, "railway-all"); len(got) != 5 {
		t.Fatalf("expected corpus still served, got %d", len(got))
	}
}

func TestStatisticsCountGroupsAndTiers(t *testing.T) {
	ctx := context.Background()
	bank := newTestBank(t)

	stats := bank.Statistics(ctx)
	if stats.TotalQuestions != 5 {
		t.Fatalf("expected 5 questions total, got %d", stats.TotalQuestions)
	}
	if stats.BySubjectGroup["railway-safety"] != 4 || stats.BySubjectGroup["railway-all"] != 5 {
		t.Fatalf("unexpected group counts: %v", stats.BySubjectGroup)
	}
	if stats.ByDifficulty[domain.VeryEasy] != 3 || stats.ByDifficulty[domain.EasyTier] != 2 {
		t.Fatalf("unexpected tier counts: %v", stats.ByDifficulty)
	}
	if stats.ByDifficulty[domain.VeryHard] != 0 {
		t.Fatalf("expected zeroed very-hard count, got %d", stats.ByDifficulty[domain.VeryHard])
	}
}

func newTestBank(t *testing.T) *QuestionBank {
	t.Helper()
	now := func() time.Time { return time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC) }
	bank, err := newQuestionBankDeterministic(context.Background(), memory.NewStaticCorpus(bankCorpus()), memory.NewKV(), domain.DefaultSubjectGroups(), now, 1)
	if err != nil {
		t.Fatalf("new bank: %v", err)
	}
	return bank
}

func bankCorpus() []domain.Question {
	return []domain.Question{
		{Subject: "Railway Safety Act", Difficulty: domain.VeryEasy, Question: "safety act q1", Options: opts(), CorrectAnswer: 0},
		{Subject: "Railway Safety Act", Difficulty: domain.EasyTier, Question: "safety act q2", Options: opts(), CorrectAnswer: 1},
		{Subject: "Railway Safety Act Decree", Difficulty: domain.VeryEasy, Question: "decree q1", Options: opts(), CorrectAnswer: 2},
		{Subject: "Railway Safety Act Decree", Difficulty: domain.VeryEasy, Question: "decree q2", Options: opts(), CorrectAnswer: 3},
		{Subject: "Railway Industry Development Act", Difficulty: domain.EasyTier, Question: "development q1", Options: opts(), CorrectAnswer: 0},
	}
}

func opts() []string {
	return []string{"a", "b", "c", "d"}
}
