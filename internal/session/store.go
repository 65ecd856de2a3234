// Package session holds the per-browser key-value store the wizard reads and
// writes through. Keys are namespaced by session ID; each key carries its own
// TTL refreshed on write.
package session

import (
	"context"
	"time"

	id "ivory/pkg/domain"
)

// Store is the session store port.
//
// Get returns sentinel.ErrNotFound (wrapped) when the key is unset or expired.
// Failures to reach the backing store wrap sentinel.ErrUnavailable; callers must
// treat them as fatal for the request.
type Store interface {
	Get(ctx context.Context, sessionID id.SessionID, key string) (string, error)
	Set(ctx context.Context, sessionID id.SessionID, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, sessionID id.SessionID, key string) error
}
