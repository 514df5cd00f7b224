package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"railprep/internal/domain"
	miniredis "github.com/alicebob/miniredis/v2"
)

func TestSessionArchiveRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	archive := NewSessionArchive(newClient(mr))

	session := domain.QuizSession{
		ID:          "qs_1709283600000_0000abcd",
		Subject:     "railway-safety",
		Difficulty:  domain.VeryEasy,
		Questions:   sampleCorpus(),
		UserAnswers: []int{0, 1},
		StartTime:   time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		EndTime:     time.Date(2024, 3, 1, 9, 10, 0, 0, time.UTC),
		Score:       100,
		IsCompleted: true,
	}
	if err := archive.Put(ctx, session); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	got, err := archive.Get(ctx, session.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.ID != session.ID || got.Score != 100 || !got.IsCompleted {
		t.Fatalf("unexpected session %+v", got)
	}
	if len(got.Questions) != 2 || got.UserAnswers[1] != 1 {
		t.Fatalf("expected full session detail preserved, got %+v", got)
	}
}

func TestSessionArchiveUnknownID(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	archive := NewSessionArchive(newClient(mr))
	_, err = archive.Get(context.Background(), "qs_missing")
	if !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session not found, got %v", err)
	}
}
