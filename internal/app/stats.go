package app

import (
	"math"

	"railprep/internal/domain"
)

// Pure read-side derivations over questionHistory. Every aggregate stored
// on UserProgress must be reproducible by these helpers; the reconciler and
// the maintenance operations both recompute through them so the two write
// paths cannot drift apart.

// historyAverage is the rounded arithmetic mean of all stored scores; an
// empty history averages 0.
func historyAverage(entries []domain.QuestionHistory) int {
	if len(entries) == 0 {
		return 0
	}
	sum := 0
	for _, e := range entries {
		sum += e.Score
	}
	return int(math.Round(float64(sum) / float64(len(entries))))
}

// derivedPoints reconstructs the cumulative correct-answer count from
// stored percentage scores. Entries record their session's actual question
// count; legacy entries without one fall back to the configured quiz size.
func derivedPoints(entries []domain.QuestionHistory, perQuiz int) int {
	total := 0
	for _, e := range entries {
		n := e.QuestionCount
		if n == 0 {
			n = perQuiz
		}
		total += int(math.Round(float64(e.Score) / 100 * float64(n)))
	}
	return total
}

// filterHistory keeps the entries whose subject belongs to the group named
// by subjectKey; an empty key keeps everything.
func filterHistory(entries []domain.QuestionHistory, groups domain.SubjectGroups, subjectKey string) []domain.QuestionHistory {
	if subjectKey == "" {
		return entries
	}
	var out []domain.QuestionHistory
	for _, e := range entries {
		if groups.Matches(subjectKey, e.Subject) {
			out = append(out, e)
		}
	}
	return out
}

// difficultyStatsFor buckets entries per tier. Every tier is present in the
// result; tiers without attempts report all-zero stats.
func difficultyStatsFor(entries []domain.QuestionHistory) map[domain.Difficulty]domain.DifficultyStat {
	stats := make(map[domain.Difficulty]domain.DifficultyStat, len(domain.DifficultyOrder))
	for _, tier := range domain.DifficultyOrder {
		stats[tier] = domain.DifficultyStat{}
	}
	for _, e := range entries {
		st, ok := stats[e.Difficulty]
		if !ok {
			// Unknown tier labels from old records are ignored.
			continue
		}
		st.Attempts++
		st.TotalScore += e.Score
		stats[e.Difficulty] = st
	}
	for tier, st := range stats {
		if st.Attempts > 0 {
			st.AverageScore = int(math.Round(float64(st.TotalScore) / float64(st.Attempts)))
			stats[tier] = st
		}
	}
	return stats
}

// subjectProgressFor summarizes an already-filtered slice of history.
func subjectProgressFor(entries []domain.QuestionHistory) domain.SubjectProgress {
	progress := domain.SubjectProgress{DifficultiesSeen: []domain.Difficulty{}}
	progress.TotalAttempts = len(entries)
	sum := 0
	seen := make(map[domain.Difficulty]bool)
	for _, e := range entries {
		if e.IsCorrect {
			progress.CorrectCount++
		}
		sum += e.Score
		if e.Difficulty != "" && !seen[e.Difficulty] {
			seen[e.Difficulty] = true
			progress.DifficultiesSeen = append(progress.DifficultiesSeen, e.Difficulty)
		}
	}
	if progress.TotalAttempts > 0 {
		progress.AverageScore = int(math.Round(float64(sum) / float64(progress.TotalAttempts)))
	}
	return progress
}
