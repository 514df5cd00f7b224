package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"railprep/internal/domain"
	"github.com/redis/go-redis/v9"
)

// SessionArchive stores finalized quiz sessions in a Redis hash keyed by
// session id, so the UI can re-display a past attempt in full detail.
type SessionArchive struct {
	client *redis.Client
}

const sessionsKey = "quiz:sessions"

func NewSessionArchive(client *redis.Client) *SessionArchive {
	return &SessionArchive{client: client}
}

func (a *SessionArchive) Put(ctx context.Context, session domain.QuizSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := a.client.HSet(ctx, sessionsKey, session.ID, data).Err(); err != nil {
		return fmt.Errorf("archive session %q: %w", session.ID, err)
	}
	return nil
}

func (a *SessionArchive) Get(ctx context.Context, id string) (domain.QuizSession, error) {
	raw, err := a.client.HGet(ctx, sessionsKey, id).Result()
	if errors.Is(err, redis.Nil) {
		return domain.QuizSession{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.QuizSession{}, fmt.Errorf("load session %q: %w", id, err)
	}
	var session domain.QuizSession
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return domain.QuizSession{}, fmt.Errorf("unmarshal session %q: %w", id, err)
	}
	return session, nil
}
