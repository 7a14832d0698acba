package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rahulsamant37/rag-foundation/internal/config"
	"github.com/rahulsamant37/rag-foundation/internal/data/redisStore"
	"github.com/rahulsamant37/rag-foundation/internal/domain/commonModels"
	"github.com/rahulsamant37/rag-foundation/internal/domain/jobModel"
	"github.com/rahulsamant37/rag-foundation/pkg/logger_i"
)

const sessionKeyPrefix = "session:"
const sessionMessagesSuffix = ":messages"

// RedisSessionStore keeps session metadata as JSON and the message history
// as a list, both expiring after config.SessionIdleTTL of inactivity. Every
// touch refreshes the TTL, so idle expiry is Redis's job.
type RedisSessionStore struct {
	store  *redisStore.Store
	logger *logger_i.Logger
}

func GetRedisSessionStore(ctx context.Context) *RedisSessionStore {
	rs := redisStore.GetRedisStore(ctx, config.RedisSessionStore)
	if rs == nil {
		return nil
	}
	return &RedisSessionStore{
		store:  rs,
		logger: logger_i.NewLogger("SessionStore"),
	}
}

func (s *RedisSessionStore) GetOrCreate(ctx context.Context, sessionId string) (commonModels.Session, error) {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	if sessionId != "" {
		val, err := s.store.Get(ctx, sessionKeyPrefix+sessionId)
		if err == nil {
			var session commonModels.Session
			if err := json.Unmarshal([]byte(val), &session); err == nil {
				session.LastActive = time.Now()
				return session, s.save(ctx, session)
			}
			log.Error("corrupt session record", "sessionId", sessionId, "error", err)
		} else if !s.store.IsNil(err) {
			return commonModels.Session{}, err
		}
	}

	now := time.Now()
	session := commonModels.Session{
		Id:         uuid.NewString(),
		CreatedAt:  now,
		LastActive: now,
	}
	log.Debug("created session", "sessionId", session.Id)
	return session, s.save(ctx, session)
}

func (s *RedisSessionStore) save(ctx context.Context, session commonModels.Session) error {
	session.Messages = nil //history lives in its own list
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, sessionKeyPrefix+session.Id, data, config.SessionIdleTTL); err != nil {
		return err
	}
	return s.touchMessages(ctx, session.Id)
}

func (s *RedisSessionStore) touchMessages(ctx context.Context, sessionId string) error {
	key := sessionKeyPrefix + sessionId + sessionMessagesSuffix
	exists, err := s.store.Exists(ctx, key)
	if err != nil || !exists {
		return err
	}
	return s.store.Expire(ctx, key, config.SessionIdleTTL)
}

func (s *RedisSessionStore) Append(ctx context.Context, sessionId string, role commonModels.Role, text string) error {
	exists, err := s.store.Exists(ctx, sessionKeyPrefix+sessionId)
	if err != nil {
		return err
	}
	if !exists {
		return jobModel.ErrSessionNotFound
	}

	message := commonModels.Message{Role: role, Text: text, At: time.Now()}
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	key := sessionKeyPrefix + sessionId + sessionMessagesSuffix
	if err := s.store.ListPush(ctx, key, data); err != nil {
		return err
	}
	if err := s.store.ListTrimLast(ctx, key, config.MaxSessionMessages); err != nil {
		return err
	}
	if err := s.store.Expire(ctx, key, config.SessionIdleTTL); err != nil {
		return err
	}

	session, err := s.GetOrCreate(ctx, sessionId)
	if err != nil {
		return err
	}
	if session.Id != sessionId {
		// meta expired between the check and the refresh
		return jobModel.ErrSessionNotFound
	}
	return nil
}

func (s *RedisSessionStore) History(ctx context.Context, sessionId string, limit int) ([]commonModels.Message, error) {
	exists, err := s.store.Exists(ctx, sessionKeyPrefix+sessionId)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, jobModel.ErrSessionNotFound
	}

	key := sessionKeyPrefix + sessionId + sessionMessagesSuffix
	raw, err := s.store.ListGetLast(ctx, key, int64(limit))
	if err != nil {
		return nil, err
	}

	messages := make([]commonModels.Message, 0, len(raw))
	for _, r := range raw {
		var m commonModels.Message
		if err := json.Unmarshal([]byte(r), &m); err != nil {
			s.logger.Error("corrupt message record", "sessionId", sessionId, "error", err)
			continue
		}
		messages = append(messages, m)
	}
	return messages, nil
}

// ExpireIdle is a no-op: the per-key TTL already removes idle sessions.
func (s *RedisSessionStore) ExpireIdle(ctx context.Context, olderThan time.Duration) (int, error) {
	return 0, nil
}

func TestSessionStore(store *redisStore.Store) *RedisSessionStore {
	return &RedisSessionStore{
		store:  store,
		logger: logger_i.NewLogger("test redis"),
	}
}
