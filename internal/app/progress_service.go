package app

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"railprep/internal/domain"
)

// Service bundles the quiz use cases: drawing a session, merging a
// finalized attempt into the progress record, and the read-side queries.
// Configuration (rules, subject groups) is injected at construction; the
// engine never resolves configuration at call time.
type Service struct {
	store   *ProgressStore
	bank    *QuestionBank
	archive SessionArchive
	rules   domain.Rules
	groups  domain.SubjectGroups

	now func() time.Time
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewService(store *ProgressStore, bank *QuestionBank, archive SessionArchive, rules domain.Rules, groups domain.SubjectGroups) *Service {
	return &Service{
		store:   store,
		bank:    bank,
		archive: archive,
		rules:   rules,
		groups:  groups,
		now:     time.Now,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// NewServiceWithClock pins the clock for deterministic timestamps in tests.
func NewServiceWithClock(store *ProgressStore, bank *QuestionBank, archive SessionArchive, rules domain.Rules, groups domain.SubjectGroups, now func() time.Time) *Service {
	s := NewService(store, bank, archive, rules, groups)
	s.now = now
	return s
}

// Draw builds a fresh quiz session for a subject group. The session id is
// assigned here, once, from time plus a random suffix; it is the
// idempotence key for the whole lifetime of the attempt.
func (s *Service) Draw(ctx context.Context, subjectKey string, tier domain.Difficulty) (domain.QuizSession, error) {
	if tier != "" {
		if !tier.Valid() {
			return domain.QuizSession{}, domain.ErrNoQuestions
		}
		if !s.store.Load(ctx).HasUnlocked(tier) {
			return domain.QuizSession{}, domain.ErrDifficultyLocked
		}
	}
	questions := s.bank.RandomQuestions(ctx, subjectKey, tier, s.rules.QuestionsPerQuiz)
	if len(questions) == 0 {
		return domain.QuizSession{}, domain.ErrNoQuestions
	}
	return s.newSession(subjectKey, tier, questions), nil
}

// DrawFrom builds a session over an explicit question list, e.g. a redo
// round over the questions missed in a previous attempt.
func (s *Service) DrawFrom(subjectKey string, tier domain.Difficulty, questions []domain.Question) (domain.QuizSession, error) {
	if len(questions) == 0 {
		return domain.QuizSession{}, domain.ErrNoQuestions
	}
	return s.newSession(subjectKey, tier, questions), nil
}

func (s *Service) newSession(subjectKey string, tier domain.Difficulty, questions []domain.Question) domain.QuizSession {
	now := s.now()
	s.mu.Lock()
	suffix := s.rnd.Int63n(1 << 31)
	s.mu.Unlock()

	answers := make([]int, len(questions))
	for i := range answers {
		answers[i] = -1
	}
	return domain.QuizSession{
		ID:          fmt.Sprintf("qs_%d_%08x", now.UnixMilli(), suffix),
		Subject:     subjectKey,
		Difficulty:  tier,
		Questions:   questions,
		UserAnswers: answers,
		StartTime:   now,
	}
}

// Submit finalizes a session with the collected answers, merges it into the
// progress record, and archives the finalized session for later review.
func (s *Service) Submit(ctx context.Context, session domain.QuizSession, answers []int) (domain.QuizResult, error) {
	result, err := s.ProcessQuizResult(ctx, session, answers, session.Questions)
	if err != nil {
		return domain.QuizResult{}, err
	}

	session.UserAnswers = answers
	session.EndTime = s.now()
	session.Score = result.Score
	session.IsCompleted = true
	// best-effort: a lost archive entry only degrades history detail views
	_ = s.archive.Put(ctx, session)

	return result, nil
}

// ProcessQuizResult merges one finalized attempt into the durable progress
// record. A session id already present in the history is returned as a
// duplicate without touching any aggregate: replays contribute exactly once.
func (s *Service) ProcessQuizResult(ctx context.Context, session domain.QuizSession, answers []int, questions []domain.Question) (domain.QuizResult, error) {
	if len(answers) != len(questions) {
		return domain.QuizResult{}, domain.ErrAnswerCountMismatch
	}

	progress, err := s.store.LoadForUpdate(ctx)
	if err != nil {
		return domain.QuizResult{}, err
	}

	for _, entry := range progress.QuestionHistory {
		if entry.QuestionID == session.ID {
			return domain.QuizResult{
				Progress:    progress,
				Score:       entry.Score,
				IsDuplicate: true,
			}, nil
		}
	}

	score, correct := Score(questions, answers)

	entry := domain.QuestionHistory{
		QuestionID:    session.ID,
		IsCorrect:     score >= s.rules.PassThreshold(session.Difficulty),
		Score:         score,
		CompletedAt:   s.now(),
		Difficulty:    session.Difficulty,
		Subject:       session.Subject,
		QuestionCount: len(questions),
	}
	progress.QuestionHistory = append(progress.QuestionHistory, entry)

	// Both totals are derived in full from the history so the maintenance
	// operations and this path can never disagree.
	progress.TotalPoints = derivedPoints(progress.QuestionHistory, s.rules.QuestionsPerQuiz)
	progress.AverageScore = historyAverage(progress.QuestionHistory)

	// A zero-score session (e.g. expired with no answers) must not unlock
	// anything.
	if score > 0 {
		progress.UnlockedDifficulties = s.applyUnlocks(progress, session.Subject)
	}

	if !containsString(progress.CompletedSubjects, session.Subject) {
		progress.CompletedSubjects = append(progress.CompletedSubjects, session.Subject)
	}

	if err := s.store.Save(ctx, progress); err != nil {
		return domain.QuizResult{}, err
	}

	return domain.QuizResult{
		Progress:     progress,
		PointsEarned: correct,
		Score:        score,
	}, nil
}

// applyUnlocks grows the unlocked set monotonically. A tier unlocks when
// the prerequisite tier's per-subject stats meet its attempt and average
// requirements.
func (s *Service) applyUnlocks(progress domain.UserProgress, subjectKey string) []domain.Difficulty {
	stats := difficultyStatsFor(filterHistory(progress.QuestionHistory, s.groups, subjectKey))
	unlocked := progress.UnlockedDifficulties
	for _, tier := range domain.DifficultyOrder[1:] {
		cond, ok := s.rules.UnlockConditions[tier]
		if !ok {
			continue
		}
		prereq, ok := tier.Prev()
		if !ok {
			continue
		}
		st := stats[prereq]
		if st.Attempts >= cond.MinAttempts && st.AverageScore >= cond.MinAverage && !progress.HasUnlocked(tier) {
			unlocked = append(unlocked, tier)
			progress.UnlockedDifficulties = unlocked
		}
	}
	return unlocked
}

// Progress returns the current durable record.
func (s *Service) Progress(ctx context.Context) domain.UserProgress {
	return s.store.Load(ctx)
}

// Session retrieves an archived finalized session by id.
func (s *Service) Session(ctx context.Context, id string) (domain.QuizSession, error) {
	return s.archive.Get(ctx, id)
}

// SubjectProgress derives the summary for one subject group.
func (s *Service) SubjectProgress(ctx context.Context, subjectKey string) domain.SubjectProgress {
	progress := s.store.Load(ctx)
	return subjectProgressFor(filterHistory(progress.QuestionHistory, s.groups, subjectKey))
}

// DifficultyStats derives per-tier stats, optionally filtered by subject
// group. Every tier is present in the result, zeroed when unattempted.
func (s *Service) DifficultyStats(ctx context.Context, subjectKey string) map[domain.Difficulty]domain.DifficultyStat {
	progress := s.store.Load(ctx)
	return difficultyStatsFor(filterHistory(progress.QuestionHistory, s.groups, subjectKey))
}

// SubjectStats derives the fixed per-group breakdown for every configured
// subject group.
func (s *Service) SubjectStats(ctx context.Context) []domain.SubjectGroupStat {
	progress := s.store.Load(ctx)
	out := make([]domain.SubjectGroupStat, 0, len(s.groups))
	for _, g := range s.groups {
		out = append(out, domain.SubjectGroupStat{
			Key:             g.Key,
			Label:           g.Label,
			SubjectProgress: subjectProgressFor(filterHistory(progress.QuestionHistory, s.groups, g.Key)),
		})
	}
	return out
}

// Groups exposes the configured alias table for transport layers.
func (s *Service) Groups() domain.SubjectGroups {
	return s.groups
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
