package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rahulsamant37/rag-foundation/internal/config"
	"github.com/rahulsamant37/rag-foundation/internal/domain/commonModels"
	"github.com/rahulsamant37/rag-foundation/internal/domain/jobModel"
)

type InMemorySessionStore struct {
	sessionLock *sync.RWMutex
	sessionMap  map[string]commonModels.Session
	maxMessages int
}

func InitInMemorySessionStore() *InMemorySessionStore {
	return &InMemorySessionStore{
		sessionLock: new(sync.RWMutex),
		sessionMap:  make(map[string]commonModels.Session),
		maxMessages: config.MaxSessionMessages,
	}
}

// GetOrCreate returns the existing session for sessionId or creates a fresh
// one. An empty or unknown id always yields a new session; the caller reads
// the id off the returned value.
func (store *InMemorySessionStore) GetOrCreate(ctx context.Context, sessionId string) (commonModels.Session, error) {
	store.sessionLock.Lock()
	defer store.sessionLock.Unlock()

	if sessionId != "" {
		if session, found := store.sessionMap[sessionId]; found {
			session.LastActive = time.Now()
			store.sessionMap[sessionId] = session
			return session, nil
		}
	}

	now := time.Now()
	session := commonModels.Session{
		Id:         uuid.NewString(),
		CreatedAt:  now,
		LastActive: now,
	}
	store.sessionMap[session.Id] = session
	return session, nil
}

// Append adds a message, dropping the oldest ones beyond the bound.
func (store *InMemorySessionStore) Append(ctx context.Context, sessionId string, role commonModels.Role, text string) error {
	store.sessionLock.Lock()
	defer store.sessionLock.Unlock()

	session, found := store.sessionMap[sessionId]
	if !found {
		return jobModel.ErrSessionNotFound
	}
	session.Messages = append(session.Messages, commonModels.Message{
		Role: role,
		Text: text,
		At:   time.Now(),
	})
	if over := len(session.Messages) - store.maxMessages; over > 0 {
		session.Messages = append([]commonModels.Message(nil), session.Messages[over:]...)
	}
	session.LastActive = time.Now()
	store.sessionMap[sessionId] = session
	return nil
}

// History returns the newest limit messages, oldest first. limit <= 0 means
// everything retained.
func (store *InMemorySessionStore) History(ctx context.Context, sessionId string, limit int) ([]commonModels.Message, error) {
	store.sessionLock.RLock()
	defer store.sessionLock.RUnlock()

	session, found := store.sessionMap[sessionId]
	if !found {
		return nil, jobModel.ErrSessionNotFound
	}
	messages := session.Messages
	if limit > 0 && len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}
	out := make([]commonModels.Message, len(messages))
	copy(out, messages)
	return out, nil
}

// ExpireIdle drops sessions whose last activity is older than olderThan and
// reports how many were removed.
func (store *InMemorySessionStore) ExpireIdle(ctx context.Context, olderThan time.Duration) (int, error) {
	store.sessionLock.Lock()
	defer store.sessionLock.Unlock()

	cutoff := time.Now().Add(-olderThan)
	removed := 0
	for id, session := range store.sessionMap {
		if session.LastActive.Before(cutoff) {
			delete(store.sessionMap, id)
			removed++
		}
	}
	return removed, nil
}
