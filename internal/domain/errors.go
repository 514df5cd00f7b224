package domain

import "errors"

var (
	// ErrAnswerCountMismatch flags a caller passing answer and question
	// slices of different lengths. This is a programming error, not a
	// data-shape problem, so it fails loudly.
	ErrAnswerCountMismatch = errors.New("answer count does not match question count")
	// ErrSessionNotFound is returned when an archived session id is unknown.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrNoQuestions indicates a draw request matched no questions at all.
	ErrNoQuestions = errors.New("no questions available for selection")
	// ErrDifficultyLocked indicates a draw request for a tier that has not
	// been unlocked yet.
	ErrDifficultyLocked = errors.New("difficulty tier is locked")
)
