package app

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"railprep/internal/domain"
)

// CorpusSource loads the static question corpus (from Postgres, a cache
// layer, or a bundled file).
type CorpusSource interface {
	LoadAll(ctx context.Context) ([]domain.Question, error)
}

// QuestionBank serves questions by subject group and difficulty. The static
// corpus is loaded eagerly at construction and indexed immutably by raw
// subject; user-authored questions live under the "questions" KV record and
// are re-read on each call so external writers stay visible.
type QuestionBank struct {
	groups domain.SubjectGroups
	kv     KV

	corpus   map[string][]domain.Question
	subjects []string
	total    int

	mu  sync.Mutex
	rnd *rand.Rand
	now func() time.Time
}

func NewQuestionBank(ctx context.Context, source CorpusSource, kv KV, groups domain.SubjectGroups) (*QuestionBank, error) {
	questions, err := source.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}
	bank := &QuestionBank{
		groups: groups,
		kv:     kv,
		corpus: make(map[string][]domain.Question),
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		now:    time.Now,
	}
	for _, q := range questions {
		if _, ok := bank.corpus[q.Subject]; !ok {
			bank.subjects = append(bank.subjects, q.Subject)
		}
		bank.corpus[q.Subject] = append(bank.corpus[q.Subject], q)
		bank.total++
	}
	return bank, nil
}

// newQuestionBankDeterministic pins the clock and shuffle seed for tests.
func newQuestionBankDeterministic(ctx context.Context, source CorpusSource, kv KV, groups domain.SubjectGroups, now func() time.Time, seed int64) (*QuestionBank, error) {
	bank, err := NewQuestionBank(ctx, source, kv, groups)
	if err != nil {
		return nil, err
	}
	bank.now = now
	bank.rnd = rand.New(rand.NewSource(seed))
	return bank, nil
}

// QuestionsBySubject resolves the subject key through the alias table and
// returns every matching question, corpus and user-authored alike.
func (b *QuestionBank) QuestionsBySubject(ctx context.Context, subjectKey string) []domain.Question {
	return b.filter(ctx, subjectKey, "")
}

// QuestionsBySubjectAndDifficulty additionally filters by tier.
func (b *QuestionBank) QuestionsBySubjectAndDifficulty(ctx context.Context, subjectKey string, tier domain.Difficulty) []domain.Question {
	return b.filter(ctx, subjectKey, tier)
}

func (b *QuestionBank) filter(ctx context.Context, subjectKey string, tier domain.Difficulty) []domain.Question {
	var out []domain.Question
	for _, subject := range b.subjects {
		if !b.groups.Matches(subjectKey, subject) {
			continue
		}
		for _, q := range b.corpus[subject] {
			if tier == "" || q.Difficulty == tier {
				out = append(out, q)
			}
		}
	}
	for _, q := range b.userQuestions(ctx) {
		if b.groups.Matches(subjectKey, q.Subject) && (tier == "" || q.Difficulty == tier) {
			out = append(out, q)
		}
	}
	return out
}

// RandomQuestions draws up to count questions for a quiz attempt using a
// uniform Fisher-Yates shuffle. A pool smaller than count is returned in
// full, still shuffled; an empty pool yields an empty slice, never an error.
func (b *QuestionBank) RandomQuestions(ctx context.Context, subjectKey string, tier domain.Difficulty, count int) []domain.Question {
	pool := b.filter(ctx, subjectKey, tier)
	if len(pool) == 0 || count <= 0 {
		return []domain.Question{}
	}
	shuffled := b.shuffle(pool)
	if count < len(shuffled) {
		return shuffled[:count]
	}
	return shuffled
}

func (b *QuestionBank) shuffle(questions []domain.Question) []domain.Question {
	out := append([]domain.Question(nil), questions...)
	b.mu.Lock()
	for i := len(out) - 1; i > 0; i-- {
		j := b.rnd.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	b.mu.Unlock()
	return out
}

// QuestionByID finds a question across the corpus and user records.
func (b *QuestionBank) QuestionByID(ctx context.Context, id string) (domain.Question, bool) {
	if id == "" {
		return domain.Question{}, false
	}
	for _, subject := range b.subjects {
		for _, q := range b.corpus[subject] {
			if q.ID == id {
				return q, true
			}
		}
	}
	for _, q := range b.userQuestions(ctx) {
		if q.ID == id {
			return q, true
		}
	}
	return domain.Question{}, false
}

// AddQuestion persists a user-authored question, assigning its id and
// timestamps. It reports false only when the medium rejects the write.
func (b *QuestionBank) AddQuestion(ctx context.Context, q domain.Question) (domain.Question, bool) {
	existing, ok := b.userQuestionsForUpdate(ctx)
	if !ok {
		return domain.Question{}, false
	}

	now := b.now().UTC()
	b.mu.Lock()
	suffix := b.rnd.Int63n(1 << 30)
	b.mu.Unlock()
	q.ID = fmt.Sprintf("q_%d_%06x", now.UnixMilli(), suffix)
	q.CreatedAt = now.Format(time.RFC3339)
	q.UpdatedAt = q.CreatedAt

	if !b.saveUserQuestions(ctx, append(existing, q)) {
		return domain.Question{}, false
	}
	return q, true
}

// UpdateQuestion replaces a user-authored question in place. Updating an
// unknown id is a no-op returning false.
func (b *QuestionBank) UpdateQuestion(ctx context.Context, id string, updated domain.Question) bool {
	questions, ok := b.userQuestionsForUpdate(ctx)
	if !ok {
		return false
	}
	for i, q := range questions {
		if q.ID == id {
			updated.ID = id
			updated.CreatedAt = q.CreatedAt
			updated.UpdatedAt = b.now().UTC().Format(time.RFC3339)
			questions[i] = updated
			return b.saveUserQuestions(ctx, questions)
		}
	}
	return false
}

// DeleteQuestion removes a user-authored question. Deleting an unknown id
// is a no-op returning false.
func (b *QuestionBank) DeleteQuestion(ctx context.Context, id string) bool {
	questions, ok := b.userQuestionsForUpdate(ctx)
	if !ok {
		return false
	}
	for i, q := range questions {
		if q.ID == id {
			questions = append(questions[:i], questions[i+1:]...)
			return b.saveUserQuestions(ctx, questions)
		}
	}
	return false
}

// Statistics summarizes the corpus per subject group and per tier.
func (b *QuestionBank) Statistics(ctx context.Context) domain.CorpusStats {
	stats := domain.CorpusStats{
		BySubjectGroup: make(map[string]int),
		ByDifficulty:   make(map[domain.Difficulty]int),
	}
	all := make([]domain.Question, 0, b.total)
	for _, subject := range b.subjects {
		all = append(all, b.corpus[subject]...)
	}
	all = append(all, b.userQuestions(ctx)...)

	stats.TotalQuestions = len(all)
	for _, tier := range domain.DifficultyOrder {
		stats.ByDifficulty[tier] = 0
	}
	for _, q := range all {
		if q.Difficulty != "" {
			stats.ByDifficulty[q.Difficulty]++
		}
	}
	for _, g := range b.groups {
		n := 0
		for _, q := range all {
			if g.Matches(q.Subject) {
				n++
			}
		}
		stats.BySubjectGroup[g.Key] = n
	}
	return stats
}

// userQuestions reads the "questions" record for display. Malformed stored
// data or a medium failure degrades to an empty collection.
func (b *QuestionBank) userQuestions(ctx context.Context) []domain.Question {
	questions, _ := b.userQuestionsForUpdate(ctx)
	return questions
}

// userQuestionsForUpdate reads the record ahead of a rewrite. A medium read
// failure reports false so a write cannot clobber a record it failed to
// read; malformed stored data still degrades, the next save heals it.
func (b *QuestionBank) userQuestionsForUpdate(ctx context.Context) ([]domain.Question, bool) {
	raw, ok, err := b.kv.Get(ctx, keyQuestions)
	if err != nil {
		return nil, false
	}
	if !ok {
		return nil, true
	}
	var questions []domain.Question
	if err := json.Unmarshal([]byte(raw), &questions); err != nil {
		return nil, true
	}
	return questions, true
}

func (b *QuestionBank) saveUserQuestions(ctx context.Context, questions []domain.Question) bool {
	data, err := json.Marshal(questions)
	if err != nil {
		return false
	}
	return b.kv.Set(ctx, keyQuestions, string(data)) == nil
}
