package app

import (
	"context"

	"railprep/internal/domain"
)

// Storage record names. The engine owns the schema layered on top of these
// keys; the medium itself only stores strings.
const (
	keyUserProgress = "userProgress"
	keyQuestions    = "questions"
)

// KV abstracts the persistence medium as a synchronous get/set string
// store. Implementations live under internal/infra.
type KV interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set replaces the value under key in a single write.
	Set(ctx context.Context, key, value string) error
	// Delete removes the key; deleting a missing key is a no-op.
	Delete(ctx context.Context, key string) error
}

// SessionArchive keeps finalized sessions retrievable by id so past
// attempts can be re-displayed in full detail.
type SessionArchive interface {
	Put(ctx context.Context, session domain.QuizSession) error
	Get(ctx context.Context, id string) (domain.QuizSession, error)
}
