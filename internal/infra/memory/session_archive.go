package memory

import (
	"context"
	"sync"

	"railprep/internal/domain"
)

// SessionArchive is an in-memory implementation of app.SessionArchive.
type SessionArchive struct {
	mu       sync.RWMutex
	sessions map[string]domain.QuizSession
}

func NewSessionArchive() *SessionArchive {
	return &SessionArchive{sessions: make(map[string]domain.QuizSession)}
}

func (a *SessionArchive) Put(_ context.Context, session domain.QuizSession) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sessions[session.ID] = session
	return nil
}

func (a *SessionArchive) Get(_ context.Context, id string) (domain.QuizSession, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	session, ok := a.sessions[id]
	if !ok {
		return domain.QuizSession{}, domain.ErrSessionNotFound
	}
	return session, nil
}
