package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/coretrack/backend/internal/domain/datasync"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const sessionPrefix = "coretrack:sync:sessions:"

// sessionRetention is how long a silent tenant's sessions are kept
const sessionRetention = 7 * 24 * time.Hour

// RedisSessionStore keeps one hash per tenant: client id -> session JSON
type RedisSessionStore struct {
	client redis.UniversalClient
}

// NewRedisSessionStore wraps an existing client
func NewRedisSessionStore(client redis.UniversalClient) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

var _ datasync.SessionStore = (*RedisSessionStore)(nil)

// Touch records a heartbeat
func (s *RedisSessionStore) Touch(ctx context.Context, session datasync.ClientSession) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	key := sessionPrefix + session.TenantID.String()
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, session.ClientID, raw)
	pipe.Expire(ctx, key, sessionRetention)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

// List returns the tenant's sessions ordered by client id
func (s *RedisSessionStore) List(ctx context.Context, tenantID uuid.UUID) ([]datasync.ClientSession, error) {
	values, err := s.client.HGetAll(ctx, sessionPrefix+tenantID.String()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}
	sessions := make([]datasync.ClientSession, 0, len(values))
	for _, raw := range values {
		var session datasync.ClientSession
		if err := json.Unmarshal([]byte(raw), &session); err != nil {
			continue
		}
		sessions = append(sessions, session)
	}
	sortSessions(sessions)
	return sessions, nil
}

// InMemorySessionStore is the single-instance session store
type InMemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]map[string]datasync.ClientSession
}

// NewInMemorySessionStore creates an empty store
func NewInMemorySessionStore() *InMemorySessionStore {
	return &InMemorySessionStore{sessions: make(map[uuid.UUID]map[string]datasync.ClientSession)}
}

var _ datasync.SessionStore = (*InMemorySessionStore)(nil)

// Touch records a heartbeat
func (s *InMemorySessionStore) Touch(_ context.Context, session datasync.ClientSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byClient, ok := s.sessions[session.TenantID]
	if !ok {
		byClient = make(map[string]datasync.ClientSession)
		s.sessions[session.TenantID] = byClient
	}
	byClient[session.ClientID] = session
	return nil
}

// List returns the tenant's sessions ordered by client id
func (s *InMemorySessionStore) List(_ context.Context, tenantID uuid.UUID) ([]datasync.ClientSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sessions := make([]datasync.ClientSession, 0, len(s.sessions[tenantID]))
	for _, session := range s.sessions[tenantID] {
		sessions = append(sessions, session)
	}
	sortSessions(sessions)
	return sessions, nil
}

func sortSessions(sessions []datasync.ClientSession) {
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].ClientID < sessions[j].ClientID })
}

// NewSessionStore picks the redis store when a client is available
func NewSessionStore(client redis.UniversalClient) datasync.SessionStore {
	if client != nil {
		return NewRedisSessionStore(client)
	}
	return NewInMemorySessionStore()
}
