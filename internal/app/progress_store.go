package app

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"

	"railprep/internal/domain"
)

// ProgressStore owns the durable UserProgress record. It layers schema,
// defensive parsing, and self-healing on top of a plain KV medium, and
// notifies watchers after every save so the UI never has to mirror state.
type ProgressStore struct {
	kv KV

	mu       sync.Mutex
	watchers map[chan domain.UserProgress]struct{}
}

func NewProgressStore(kv KV) *ProgressStore {
	return &ProgressStore{
		kv:       kv,
		watchers: make(map[chan domain.UserProgress]struct{}),
	}
}

// Load reads the current progress record for display. Missing, unparsable,
// or structurally invalid data degrades to the zero-value default; a
// partially corrupt record only loses its invalid fields. A record whose
// history is empty is rewritten as the default immediately, so stale totals
// cannot survive a cleared history.
func (s *ProgressStore) Load(ctx context.Context) domain.UserProgress {
	progress, err := s.LoadForUpdate(ctx)
	if err != nil {
		return domain.NewUserProgress()
	}
	return progress
}

// LoadForUpdate reads the record at the start of a read-modify-write cycle.
// Malformed stored data degrades the same way Load does, but a medium read
// failure is returned as an error: a caller that saved a default built from
// a failed read would wipe the history.
func (s *ProgressStore) LoadForUpdate(ctx context.Context) (domain.UserProgress, error) {
	raw, ok, err := s.kv.Get(ctx, keyUserProgress)
	if err != nil {
		return domain.UserProgress{}, fmt.Errorf("load progress: %w", err)
	}
	if !ok {
		return domain.NewUserProgress(), nil
	}

	progress := decodeProgress(raw)
	if len(progress.QuestionHistory) == 0 {
		healed := domain.NewUserProgress()
		if progress.TotalPoints != 0 || progress.AverageScore != 0 ||
			len(progress.UnlockedDifficulties) != 1 || len(progress.CompletedSubjects) != 0 {
			_ = s.Save(ctx, healed)
		}
		return healed, nil
	}
	return progress, nil
}

// Save serializes and writes the whole record in a single call, then hands
// a snapshot to every watcher. Callers follow a read-modify-write cycle;
// partial updates are not supported.
func (s *ProgressStore) Save(ctx context.Context, progress domain.UserProgress) error {
	data, err := json.Marshal(progress)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, keyUserProgress, string(data)); err != nil {
		return err
	}
	s.broadcast(progress)
	return nil
}

// Reset removes the stored record entirely; subsequent loads see the
// zero-value default. Watchers receive the default snapshot.
func (s *ProgressStore) Reset(ctx context.Context) error {
	if err := s.kv.Delete(ctx, keyUserProgress); err != nil {
		return err
	}
	s.broadcast(domain.NewUserProgress())
	return nil
}

// Watch returns a channel receiving a progress snapshot after every save,
// starting with nothing. The caller must invoke cancel to avoid leaks.
func (s *ProgressStore) Watch() (<-chan domain.UserProgress, func()) {
	ch := make(chan domain.UserProgress, 8)

	s.mu.Lock()
	s.watchers[ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.watchers[ch]; ok {
			delete(s.watchers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *ProgressStore) broadcast(progress domain.UserProgress) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.watchers {
		snapshot := progress.Clone()
		select {
		case ch <- snapshot:
		default:
			// Drop the stale snapshot so a slow watcher never blocks a save.
			select {
			case <-ch:
			default:
			}
			ch <- snapshot
		}
	}
}

// decodeProgress type-checks every field independently so one corrupt field
// cannot contaminate the rest of the record.
func decodeProgress(raw string) domain.UserProgress {
	progress := domain.NewUserProgress()

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return progress
	}

	if n, ok := decodeNumber(fields["averageScore"]); ok {
		progress.AverageScore = n
	}
	if n, ok := decodeNumber(fields["totalPoints"]); ok {
		progress.TotalPoints = n
	}
	if raw, ok := fields["unlockedDifficulties"]; ok {
		var tiers []domain.Difficulty
		if err := json.Unmarshal(raw, &tiers); err == nil {
			progress.UnlockedDifficulties = sanitizeTiers(tiers)
		}
	}
	if raw, ok := fields["completedSubjects"]; ok {
		var subjects []string
		if err := json.Unmarshal(raw, &subjects); err == nil && subjects != nil {
			progress.CompletedSubjects = subjects
		}
	}
	if raw, ok := fields["questionHistory"]; ok {
		var entries []json.RawMessage
		if err := json.Unmarshal(raw, &entries); err == nil {
			history := make([]domain.QuestionHistory, 0, len(entries))
			for _, item := range entries {
				var entry domain.QuestionHistory
				if err := json.Unmarshal(item, &entry); err == nil && entry.QuestionID != "" {
					history = append(history, entry)
				}
			}
			progress.QuestionHistory = history
		}
	}
	return progress
}

// decodeNumber accepts both integer and float encodings of a stored count.
func decodeNumber(raw json.RawMessage) (int, bool) {
	if raw == nil {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, false
	}
	return int(math.Round(f)), true
}

// sanitizeTiers drops unknown tiers and duplicates, and guarantees the base
// tier is always present.
func sanitizeTiers(tiers []domain.Difficulty) []domain.Difficulty {
	out := []domain.Difficulty{domain.BaseDifficulty()}
	for _, tier := range tiers {
		if !tier.Valid() {
			continue
		}
		seen := false
		for _, have := range out {
			if have == tier {
				seen = true
				break
			}
		}
		if !seen {
			out = append(out, tier)
		}
	}
	return out
}
