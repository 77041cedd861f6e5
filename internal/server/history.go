// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// MaxTurnsPerSession bounds the history kept for one session.
const MaxTurnsPerSession = 100

// Turn is one question/answer exchange of a session.
type Turn struct {
	User    string    `json:"user"`
	Bot     string    `json:"bot"`
	Subject string    `json:"subject"`
	Mode    string    `json:"mode"`
	Image   bool      `json:"image,omitempty"`
	At      time.Time `json:"at"`
}

// HistoryStore keeps per-session conversation history.
type HistoryStore interface {
	Append(ctx context.Context, sessionID string, turn Turn) error
	List(ctx context.Context, sessionID string) ([]Turn, error)
	Clear(ctx context.Context, sessionID string) error
	Name() string
	Close() error
}

// ============================================================================
// MEMORY STORE
// ============================================================================

type memorySession struct {
	turns   []Turn
	touched time.Time
}

// MemoryStore keeps history in process memory. Sessions idle for longer
// than the TTL are dropped; a zero TTL keeps them forever.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*memorySession
	ttl      time.Duration
	now      func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*memorySession),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Append adds a turn, trimming the oldest beyond MaxTurnsPerSession.
func (m *MemoryStore) Append(_ context.Context, sessionID string, turn Turn) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.sweep(now)

	s, ok := m.sessions[sessionID]
	if !ok {
		s = &memorySession{}
		m.sessions[sessionID] = s
	}
	s.turns = append(s.turns, turn)
	if len(s.turns) > MaxTurnsPerSession {
		s.turns = append([]Turn(nil), s.turns[len(s.turns)-MaxTurnsPerSession:]...)
	}
	s.touched = now
	return nil
}

// List returns a copy of the session's turns, oldest first.
func (m *MemoryStore) List(_ context.Context, sessionID string) ([]Turn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok || m.expired(s, m.now()) {
		return nil, nil
	}
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out, nil
}

// Clear forgets a session.
func (m *MemoryStore) Clear(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}

// Sessions returns the number of live sessions.
func (m *MemoryStore) Sessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweep(m.now())
	return len(m.sessions)
}

// Name identifies the store in logs and /health.
func (m *MemoryStore) Name() string { return "memory" }

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) expired(s *memorySession, now time.Time) bool {
	return m.ttl > 0 && now.Sub(s.touched) > m.ttl
}

func (m *MemoryStore) sweep(now time.Time) {
	for id, s := range m.sessions {
		if m.expired(s, now) {
			delete(m.sessions, id)
		}
	}
}

// ============================================================================
// REDIS STORE
// ============================================================================

// redisKeyPrefix namespaces history lists in a shared Redis.
const redisKeyPrefix = "giasu:history:"

// RedisStore keeps each session's history in a Redis list of JSON turns.
// The list expires after the TTL of inactivity.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to redisURL and verifies the connection with PING.
func NewRedisStore(ctx context.Context, redisURL string, ttl time.Duration) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client := redis.NewClient(opt)
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

func (s *RedisStore) key(sessionID string) string {
	return redisKeyPrefix + sessionID
}

// Append pushes a turn and refreshes the session's expiry.
func (s *RedisStore) Append(ctx context.Context, sessionID string, turn Turn) error {
	data, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("encode turn: %w", err)
	}

	key := s.key(sessionID)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.LTrim(ctx, key, -MaxTurnsPerSession, -1)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis append: %w", err)
	}
	return nil
}

// List returns the session's turns, oldest first. Undecodable entries are skipped.
func (s *RedisStore) List(ctx context.Context, sessionID string) ([]Turn, error) {
	raw, err := s.client.LRange(ctx, s.key(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list: %w", err)
	}
	turns := make([]Turn, 0, len(raw))
	for _, item := range raw {
		var t Turn
		if err := json.Unmarshal([]byte(item), &t); err != nil {
			continue
		}
		turns = append(turns, t)
	}
	return turns, nil
}

// Clear deletes the session's list.
func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis clear: %w", err)
	}
	return nil
}

// Name identifies the store in logs and /health.
func (s *RedisStore) Name() string { return "redis" }

// Close closes the Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
