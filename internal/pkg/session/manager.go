// internal/pkg/session/manager.go
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Manager stores staff sessions in Redis, keyed by (staff id, jti). Redis is
// the single source of truth; an evicted session simply forces a new login.
type Manager struct {
	client *redis.Client
}

func NewManager(client *redis.Client) *Manager {
	return &Manager{client: client}
}

// CreateSession stores a new session with a TTL matching the token expiry.
func (m *Manager) CreateSession(ctx context.Context, s *SessionData) error {
	key := m.sessionKey(s.StaffID, s.JTI)

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session already expired")
	}

	if err := m.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session in redis: %w", err)
	}

	return nil
}

// GetSession retrieves a session or fails if it no longer exists.
func (m *Manager) GetSession(ctx context.Context, staffID int64, jti string) (*SessionData, error) {
	key := m.sessionKey(staffID, jti)

	data, err := m.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("session not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var s SessionData
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &s, nil
}

// DeleteSession removes a single session (logout).
func (m *Manager) DeleteSession(ctx context.Context, staffID int64, jti string) error {
	return m.client.Del(ctx, m.sessionKey(staffID, jti)).Err()
}

// DeleteAllSessions removes every session for a staff member (logout-all,
// account deactivation).
func (m *Manager) DeleteAllSessions(ctx context.Context, staffID int64) error {
	pattern := fmt.Sprintf("session:%d:*", staffID)

	iter := m.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := m.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to delete session %s: %w", iter.Val(), err)
		}
	}
	return iter.Err()
}

// BlacklistToken marks a JTI as revoked until its natural expiry.
func (m *Manager) BlacklistToken(ctx context.Context, jti string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	return m.client.Set(ctx, m.blacklistKey(jti), "1", ttl).Err()
}

// IsTokenBlacklisted reports whether a JTI has been revoked.
func (m *Manager) IsTokenBlacklisted(ctx context.Context, jti string) (bool, error) {
	n, err := m.client.Exists(ctx, m.blacklistKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check blacklist: %w", err)
	}
	return n > 0, nil
}

func (m *Manager) sessionKey(staffID int64, jti string) string {
	return fmt.Sprintf("session:%d:%s", staffID, jti)
}

func (m *Manager) blacklistKey(jti string) string {
	return fmt.Sprintf("blacklist:jti:%s", jti)
}
