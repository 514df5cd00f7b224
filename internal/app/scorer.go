package app

import (
	"math"

	"railprep/internal/domain"
)

// Score grades a finished attempt. It is a pure function: the reconciler
// and any redo flow reuse it without touching persisted state.
//
// The score is round(correct/total*100) with halves rounded away from zero.
// An empty question list scores 0 rather than dividing by zero. Positions
// beyond the answer slice, or holding -1, count as unanswered.
func Score(questions []domain.Question, answers []int) (score, correct int) {
	if len(questions) == 0 {
		return 0, 0
	}
	for i, q := range questions {
		if i >= len(answers) {
			break
		}
		if answers[i] == q.CorrectAnswer {
			correct++
		}
	}
	score = int(math.Round(float64(correct) / float64(len(questions)) * 100))
	return score, correct
}
