package app

import (
	"context"
	"time"

	"railprep/internal/domain"
)

// dedupeWindow is the span within which identical (subject, difficulty,
// score) records are considered accidental double-writes.
const dedupeWindow = 5 * time.Minute

// DeduplicateHistory collapses history entries sharing subject, difficulty
// and score whose timestamps fall within five minutes of a kept entry,
// keeping the earliest. Totals are recomputed in full from the survivors.
func (s *Service) DeduplicateHistory(ctx context.Context) (domain.UserProgress, error) {
	progress, err := s.store.LoadForUpdate(ctx)
	if err != nil {
		return domain.UserProgress{}, err
	}

	type dedupeKey struct {
		subject    string
		difficulty domain.Difficulty
		score      int
	}
	kept := make([]domain.QuestionHistory, 0, len(progress.QuestionHistory))
	keptByKey := make(map[dedupeKey][]domain.QuestionHistory)

	// History is append-only, so iteration order is completion order and
	// the first record of a burst is the earliest.
	for _, entry := range progress.QuestionHistory {
		key := dedupeKey{entry.Subject, entry.Difficulty, entry.Score}
		duplicate := false
		for _, prior := range keptByKey[key] {
			delta := entry.CompletedAt.Sub(prior.CompletedAt)
			if delta < 0 {
				delta = -delta
			}
			if delta < dedupeWindow {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}
		kept = append(kept, entry)
		keptByKey[key] = append(keptByKey[key], entry)
	}

	progress.QuestionHistory = kept
	return s.persistRederived(ctx, progress)
}

// ResetSubject removes all history for a subject group, drops the matching
// subjects from completedSubjects, and recomputes the totals from what
// remains. Unlocked tiers are untouched: they only shrink on a full reset.
func (s *Service) ResetSubject(ctx context.Context, subjectKey string) (domain.UserProgress, error) {
	progress, err := s.store.LoadForUpdate(ctx)
	if err != nil {
		return domain.UserProgress{}, err
	}

	kept := make([]domain.QuestionHistory, 0, len(progress.QuestionHistory))
	for _, entry := range progress.QuestionHistory {
		if !s.groups.Matches(subjectKey, entry.Subject) {
			kept = append(kept, entry)
		}
	}
	progress.QuestionHistory = kept

	subjects := make([]string, 0, len(progress.CompletedSubjects))
	for _, subject := range progress.CompletedSubjects {
		if !s.groups.Matches(subjectKey, subject) {
			subjects = append(subjects, subject)
		}
	}
	progress.CompletedSubjects = subjects

	return s.persistRederived(ctx, progress)
}

// ResetAll removes the stored record; the next load sees the zero-value
// default.
func (s *Service) ResetAll(ctx context.Context) (domain.UserProgress, error) {
	if err := s.store.Reset(ctx); err != nil {
		return domain.UserProgress{}, err
	}
	return domain.NewUserProgress(), nil
}

// persistRederived recomputes both totals from the (possibly trimmed)
// history and saves, keeping questionHistory the sole ground truth.
func (s *Service) persistRederived(ctx context.Context, progress domain.UserProgress) (domain.UserProgress, error) {
	progress.TotalPoints = derivedPoints(progress.QuestionHistory, s.rules.QuestionsPerQuiz)
	progress.AverageScore = historyAverage(progress.QuestionHistory)
	if err := s.store.Save(ctx, progress); err != nil {
		return domain.UserProgress{}, err
	}
	return progress, nil
}
