package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	id "ivory/pkg/domain"
	"ivory/pkg/platform/sentinel"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// InMemoryStore is a process-local Store for development and tests.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[id.SessionID]map[string]memoryEntry
	now     func() time.Time
}

// InMemoryOption configures an InMemoryStore.
type InMemoryOption func(*InMemoryStore)

// WithClock overrides the time source used for expiry.
func WithClock(now func() time.Time) InMemoryOption {
	return func(s *InMemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewInMemory constructs an empty in-memory store.
func NewInMemory(opts ...InMemoryOption) *InMemoryStore {
	s := &InMemoryStore{
		entries: make(map[id.SessionID]map[string]memoryEntry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InMemoryStore) Get(_ context.Context, sessionID id.SessionID, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[sessionID][key]
	if !ok || !s.now().Before(entry.expiresAt) {
		return "", fmt.Errorf("answer %s: %w", key, sentinel.ErrNotFound)
	}
	return entry.value, nil
}

func (s *InMemoryStore) Set(_ context.Context, sessionID id.SessionID, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive: %w", sentinel.ErrInvalidState)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	bucket, ok := s.entries[sessionID]
	if !ok {
		bucket = make(map[string]memoryEntry)
		s.entries[sessionID] = bucket
	}
	bucket[key] = memoryEntry{value: value, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, sessionID id.SessionID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries[sessionID], key)
	return nil
}

// Keys lists the live keys of one session (tests and diagnostics).
func (s *InMemoryStore) Keys(sessionID id.SessionID) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := s.now()
	var keys []string
	for k, e := range s.entries[sessionID] {
		if now.Before(e.expiresAt) {
			keys = append(keys, k)
		}
	}
	return keys
}
