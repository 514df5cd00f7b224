package domain

// Difficulty is an ordered tier gating question difficulty.
type Difficulty string

const (
	VeryEasy Difficulty = "very-easy"
	EasyTier Difficulty = "easy"
	Medium   Difficulty = "medium"
	Hard     Difficulty = "hard"
	VeryHard Difficulty = "very-hard"
)

// DifficultyOrder lists tiers from easiest to hardest. The first entry is
// unlocked from the start; every other tier is gated by an unlock condition.
var DifficultyOrder = []Difficulty{VeryEasy, EasyTier, Medium, Hard, VeryHard}

// BaseDifficulty is the tier available without any prior attempts.
func BaseDifficulty() Difficulty {
	return DifficultyOrder[0]
}

// Valid reports whether d is a known tier.
func (d Difficulty) Valid() bool {
	for _, tier := range DifficultyOrder {
		if tier == d {
			return true
		}
	}
	return false
}

// Prev returns the prerequisite tier, or false for the base tier and for
// unknown values.
func (d Difficulty) Prev() (Difficulty, bool) {
	for i, tier := range DifficultyOrder {
		if tier == d {
			if i == 0 {
				return "", false
			}
			return DifficultyOrder[i-1], true
		}
	}
	return "", false
}
