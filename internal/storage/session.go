package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/scene-engine/pkg/storage"
	"github.com/redis/go-redis/v9"
)

func sessionKey(id uuid.UUID) string {
	return "session:" + id.String()
}

func sessionLockKey(id uuid.UUID) string {
	return "session-lock:" + id.String()
}

// unlockScript deletes the lock only if the caller still owns it.
var unlockScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// Session operations (Redis-backed)

func (r *RedisStorage) SaveSession(ctx context.Context, id uuid.UUID, s *storage.SavedSession) error {
	if s == nil {
		return errors.New("session cannot be nil")
	}
	s.UpdatedAt = time.Now()

	data, err := json.Marshal(s)
	if err != nil {
		r.logger.Error("Failed to marshal session", "session_id", id, "error", err)
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := r.client.Set(ctx, sessionKey(id), data, r.sessionTTL).Err(); err != nil {
		r.logger.Error("Failed to save session", "session_id", id, "error", err)
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (r *RedisStorage) LoadSession(ctx context.Context, id uuid.UUID) (*storage.SavedSession, error) {
	data, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			r.logger.Warn("Session not found", "session_id", id)
			return nil, nil // Return nil for not found
		}
		r.logger.Error("Failed to load session", "session_id", id, "error", err)
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if len(data) == 0 {
		r.logger.Warn("Session not found", "session_id", id)
		return nil, nil
	}

	var s storage.SavedSession
	if err := json.Unmarshal(data, &s); err != nil {
		r.logger.Error("Failed to unmarshal session", "session_id", id, "error", err)
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &s, nil
}

func (r *RedisStorage) DeleteSession(ctx context.Context, id uuid.UUID) error {
	if err := r.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		r.logger.Error("Failed to delete session", "session_id", id, "error", err)
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// LockSession attempts to acquire the action lock for a session
// Returns true if the lock was acquired, false if already locked
func (r *RedisStorage) LockSession(ctx context.Context, id uuid.UUID, owner string, ttl time.Duration) (bool, error) {
	locked, err := r.client.SetNX(ctx, sessionLockKey(id), owner, ttl).Result()
	if err != nil {
		r.logger.Error("Failed to acquire session lock", "session_id", id, "error", err)
		return false, fmt.Errorf("failed to acquire session lock: %w", err)
	}
	return locked, nil
}

// UnlockSession releases the action lock if owner holds it
func (r *RedisStorage) UnlockSession(ctx context.Context, id uuid.UUID, owner string) error {
	if err := unlockScript.Run(ctx, r.client, []string{sessionLockKey(id)}, owner).Err(); err != nil {
		r.logger.Error("Failed to release session lock", "session_id", id, "error", err)
		return fmt.Errorf("failed to release session lock: %w", err)
	}
	return nil
}
