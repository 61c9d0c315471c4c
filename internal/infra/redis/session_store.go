package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// StoredSession is what the session store keeps per Telegram user.
type StoredSession struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

type SessionStore struct {
	client RedisClient
}

func NewSessionStore(client RedisClient) *SessionStore {
	return &SessionStore{client: client}
}

func sessionKey(tgID int64) string { return fmt.Sprintf("session:%d", tgID) }

func (s *SessionStore) Put(ctx context.Context, tgID int64, sess StoredSession) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session for %d already expired", tgID)
	}
	return s.client.Set(ctx, sessionKey(tgID), data, ttl)
}

// Get returns domain.ErrNotFound when no session is stored.
func (s *SessionStore) Get(ctx context.Context, tgID int64) (*StoredSession, error) {
	data, err := s.client.Get(ctx, sessionKey(tgID))
	if err != nil {
		return nil, err
	}
	var sess StoredSession
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *SessionStore) Delete(ctx context.Context, tgID int64) error {
	return s.client.Del(ctx, sessionKey(tgID))
}
