package domain

import "time"

// Question is a single multiple-choice item. Corpus questions are immutable
// and may omit ID and timestamps; user-authored questions carry all fields.
type Question struct {
	ID            string     `json:"id,omitempty"`
	Subject       string     `json:"subject"`
	Difficulty    Difficulty `json:"difficulty,omitempty"`
	Question      string     `json:"question"`
	Options       []string   `json:"options"`
	CorrectAnswer int        `json:"correctAnswer"`
	Explanation   string     `json:"explanation"`
	CreatedAt     string     `json:"createdAt,omitempty"`
	UpdatedAt     string     `json:"updatedAt,omitempty"`
}

// QuizSession is one attempt at a fixed set of questions, from draw to
// finalization. UserAnswers holds a selected option index per question,
// -1 meaning unanswered.
type QuizSession struct {
	ID          string     `json:"id"`
	Subject     string     `json:"subject"`
	Difficulty  Difficulty `json:"difficulty,omitempty"`
	Questions   []Question `json:"questions"`
	UserAnswers []int      `json:"userAnswers"`
	StartTime   time.Time  `json:"startTime"`
	EndTime     time.Time  `json:"endTime,omitempty"`
	Score       int        `json:"score"`
	IsCompleted bool       `json:"isCompleted"`
}

// QuestionHistory is the durable record of one finalized session. The
// session id is stored as QuestionID and doubles as the dedup key; at most
// one entry may exist per session id. UserAnswer is an unused placeholder
// kept for stored-shape compatibility with per-question records.
// QuestionCount is the session's actual size; sessions drawn from a small
// pool or a redo round can be shorter than the configured quiz length.
type QuestionHistory struct {
	QuestionID    string     `json:"questionId"`
	UserAnswer    int        `json:"userAnswer"`
	IsCorrect     bool       `json:"isCorrect"`
	Score         int        `json:"score"`
	CompletedAt   time.Time  `json:"completedAt"`
	Difficulty    Difficulty `json:"difficulty"`
	Subject       string     `json:"subject"`
	QuestionCount int        `json:"questionCount,omitempty"`
}

// UserProgress is the single durable aggregate root. QuestionHistory is the
// ground truth; AverageScore and TotalPoints are recomputed from it on every
// write and must never diverge.
type UserProgress struct {
	AverageScore         int               `json:"averageScore"`
	TotalPoints          int               `json:"totalPoints"`
	UnlockedDifficulties []Difficulty      `json:"unlockedDifficulties"`
	CompletedSubjects    []string          `json:"completedSubjects"`
	QuestionHistory      []QuestionHistory `json:"questionHistory"`
}

// NewUserProgress returns the zero-value default: empty history, zero
// totals, only the base tier unlocked.
func NewUserProgress() UserProgress {
	return UserProgress{
		UnlockedDifficulties: []Difficulty{BaseDifficulty()},
		CompletedSubjects:    []string{},
		QuestionHistory:      []QuestionHistory{},
	}
}

// Clone returns a deep copy so callers can hand snapshots out without
// sharing slices with the stored record.
func (p UserProgress) Clone() UserProgress {
	out := p
	out.UnlockedDifficulties = append([]Difficulty(nil), p.UnlockedDifficulties...)
	out.CompletedSubjects = append([]string(nil), p.CompletedSubjects...)
	out.QuestionHistory = append([]QuestionHistory(nil), p.QuestionHistory...)
	return out
}

// HasUnlocked reports whether tier is currently accessible.
func (p UserProgress) HasUnlocked(tier Difficulty) bool {
	for _, d := range p.UnlockedDifficulties {
		if d == tier {
			return true
		}
	}
	return false
}

// QuizResult is the outcome of merging one finalized session into the
// progress record. IsDuplicate marks a replayed submission: the session was
// already accounted for and Progress is returned unmodified.
type QuizResult struct {
	Progress     UserProgress `json:"progress"`
	PointsEarned int          `json:"pointsEarned"`
	Score        int          `json:"score"`
	IsDuplicate  bool         `json:"isDuplicate"`
}

// SubjectProgress summarizes the history of one subject group.
type SubjectProgress struct {
	TotalAttempts    int          `json:"totalAttempts"`
	CorrectCount     int          `json:"correctCount"`
	AverageScore     int          `json:"averageScore"`
	DifficultiesSeen []Difficulty `json:"difficultiesSeen"`
}

// DifficultyStat aggregates attempts for one tier.
type DifficultyStat struct {
	Attempts     int `json:"attempts"`
	TotalScore   int `json:"totalScore"`
	AverageScore int `json:"averageScore"`
}

// SubjectGroupStat pairs a configured subject group with its progress.
type SubjectGroupStat struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	SubjectProgress
}

// CorpusStats counts available questions per subject group and tier.
type CorpusStats struct {
	TotalQuestions int                `json:"totalQuestions"`
	BySubjectGroup map[string]int     `json:"bySubjectGroup"`
	ByDifficulty   map[Difficulty]int `json:"byDifficulty"`
}
