package domain

// UnlockCondition gates access to a tier: the prerequisite tier must have
// been attempted MinAttempts times with an average of at least MinAverage,
// per subject.
type UnlockCondition struct {
	MinAttempts int `json:"minAttempts" yaml:"min_attempts"`
	MinAverage  int `json:"minAverage" yaml:"min_average"`
}

// Rules carries the scoring and unlock configuration. It is injected at
// construction time; nothing in the engine resolves configuration at call
// time.
type Rules struct {
	// QuestionsPerQuiz is the number of questions drawn per attempt, and
	// the divisor used when deriving points from stored scores.
	QuestionsPerQuiz int
	// PassScore is the global pass threshold applied when a tier has no
	// entry in PassThresholds.
	PassScore int
	// PassThresholds optionally overrides the pass score per tier.
	PassThresholds map[Difficulty]int
	// UnlockConditions is keyed by the tier being unlocked.
	UnlockConditions map[Difficulty]UnlockCondition
}

// PassThreshold returns the pass score applicable to a tier.
func (r Rules) PassThreshold(tier Difficulty) int {
	if score, ok := r.PassThresholds[tier]; ok {
		return score
	}
	return r.PassScore
}

// DefaultRules mirrors the stock configuration: 10 questions per quiz,
// a 60-point global pass score, and progressively stricter unlocks.
func DefaultRules() Rules {
	return Rules{
		QuestionsPerQuiz: 10,
		PassScore:        60,
		UnlockConditions: map[Difficulty]UnlockCondition{
			EasyTier: {MinAttempts: 5, MinAverage: 60},
			Medium:   {MinAttempts: 10, MinAverage: 70},
			Hard:     {MinAttempts: 15, MinAverage: 80},
			VeryHard: {MinAttempts: 20, MinAverage: 90},
		},
	}
}
