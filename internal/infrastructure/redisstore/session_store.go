package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/go-account-service/internal/application"
)

// SessionStore keeps one session hash per user at user:session:<id>.
type SessionStore struct {
	rdb redis.Cmdable
}

func NewSessionStore(rdb redis.Cmdable) *SessionStore {
	return &SessionStore{rdb: rdb}
}

func sessionKey(userID string) string {
	return "user:session:" + userID
}

// Save replaces the user's session, so a new login invalidates the old sid.
func (s *SessionStore) Save(ctx context.Context, sess application.Session, ttl time.Duration) error {
	key := sessionKey(sess.UserID)
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, map[string]any{
		"user_id":    sess.UserID,
		"sid":        sess.SessionID,
		"email":      sess.Email,
		"username":   sess.Username,
		"role":       sess.Role,
		"created_at": sess.CreatedAt.UTC().Format(time.RFC3339Nano),
	})
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, userID string) (*application.Session, error) {
	data, err := s.rdb.HGetAll(ctx, sessionKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	created, _ := time.Parse(time.RFC3339Nano, data["created_at"])
	return &application.Session{
		UserID:    data["user_id"],
		SessionID: data["sid"],
		Email:     data["email"],
		Username:  data["username"],
		Role:      data["role"],
		CreatedAt: created,
	}, nil
}

func (s *SessionStore) Delete(ctx context.Context, userID string) error {
	return s.rdb.Del(ctx, sessionKey(userID)).Err()
}

var _ application.SessionStore = (*SessionStore)(nil)
