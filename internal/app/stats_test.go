package app

import (
	"testing"
	"time"

	"railprep/internal/domain"
)

func TestHistoryAverageRounds(t *testing.T) {
	if got := historyAverage(nil); got != 0 {
		t.Fatalf("expected 0 for empty history, got %d", got)
	}
	entries := []domain.QuestionHistory{
		{QuestionID: "a", Score: 100},
		{QuestionID: "b", Score: 100},
		{QuestionID: "c", Score: 50},
	}
	// 250/3 = 83.33 rounds to 83.
	if got := historyAverage(entries); got != 83 {
		t.Fatalf("expected 83, got %d", got)
	}
	// Halves round away from zero.
	half := []domain.QuestionHistory{
		{QuestionID: "a", Score: 70},
		{QuestionID: "b", Score: 81},
	}
	if got := historyAverage(half); got != 76 {
		t.Fatalf("expected 75.5 to round to 76, got %d", got)
	}
}

func TestDerivedPointsReconstructsCorrectCounts(t *testing.T) {
	// Legacy entries without a question count use the configured quiz size.
	entries := []domain.QuestionHistory{
		{QuestionID: "a", Score: 100}, // 10/10
		{QuestionID: "b", Score: 70},  // 7/10
		{QuestionID: "c", Score: 0},   // 0/10
	}
	if got := derivedPoints(entries, 10); got != 17 {
		t.Fatalf("expected 17 points, got %d", got)
	}
	// With 3-question quizzes a 67 maps back to 2 correct.
	if got := derivedPoints([]domain.QuestionHistory{{QuestionID: "a", Score: 67}}, 3); got != 2 {
		t.Fatalf("expected 2 points, got %d", got)
	}
	// Entries carrying their session size are credited exactly, even when
	// the session was shorter than the configured quiz length.
	mixed := []domain.QuestionHistory{
		{QuestionID: "a", Score: 100, QuestionCount: 1},
		{QuestionID: "b", Score: 50, QuestionCount: 4},
	}
	if got := derivedPoints(mixed, 10); got != 3 {
		t.Fatalf("expected 3 points from session sizes, got %d", got)
	}
}

func TestFilterHistoryKeepsEverythingForEmptyKey(t *testing.T) {
	entries := []domain.QuestionHistory{
		{QuestionID: "a", Subject: "railway-safety"},
		{QuestionID: "b", Subject: "railway-development"},
	}
	groups := domain.DefaultSubjectGroups()
	if got := filterHistory(entries, groups, ""); len(got) != 2 {
		t.Fatalf("expected all entries for empty key, got %d", len(got))
	}
	if got := filterHistory(entries, groups, "railway-safety"); len(got) != 1 || got[0].QuestionID != "a" {
		t.Fatalf("expected only safety entries, got %v", got)
	}
}

func TestSubjectProgressForTracksSeenTiers(t *testing.T) {
	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	entries := []domain.QuestionHistory{
		{QuestionID: "a", Score: 80, IsCorrect: true, Difficulty: domain.VeryEasy, CompletedAt: at},
		{QuestionID: "b", Score: 40, IsCorrect: false, Difficulty: domain.VeryEasy, CompletedAt: at},
		{QuestionID: "c", Score: 90, IsCorrect: true, Difficulty: domain.EasyTier, CompletedAt: at},
	}
	got := subjectProgressFor(entries)
	if got.TotalAttempts != 3 || got.CorrectCount != 2 || got.AverageScore != 70 {
		t.Fatalf("unexpected progress %+v", got)
	}
	if len(got.DifficultiesSeen) != 2 {
		t.Fatalf("expected 2 tiers seen, got %v", got.DifficultiesSeen)
	}
}
