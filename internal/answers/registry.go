package answers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"ivory/internal/platform/config"
	"ivory/internal/session"
	id "ivory/pkg/domain"
	"ivory/pkg/platform/sentinel"
)

// Registry reads and writes answers for one session through the store.
// Every write uses config.AnswerTTL.
type Registry struct {
	store session.Store
	ttl   time.Duration
}

// NewRegistry wraps a session store.
func NewRegistry(store session.Store) *Registry {
	return &Registry{store: store, ttl: config.AnswerTTL}
}

// Get returns ("", false, nil) when the key is unset or expired. Any other
// error means the store is unavailable.
func (r *Registry) Get(ctx context.Context, sid id.SessionID, key Key) (string, bool, error) {
	v, err := r.store.Get(ctx, sid, string(key))
	if errors.Is(err, sentinel.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (r *Registry) Set(ctx context.Context, sid id.SessionID, key Key, value string) error {
	return r.store.Set(ctx, sid, string(key), value, r.ttl)
}

func (r *Registry) Delete(ctx context.Context, sid id.SessionID, key Key) error {
	return r.store.Delete(ctx, sid, string(key))
}

// Snapshot reads the given keys concurrently. The reads are independent so
// the first store failure cancels the rest.
func (r *Registry) Snapshot(ctx context.Context, sid id.SessionID, keys ...Key) (Snapshot, error) {
	snap := Snapshot{values: make(map[Key]string, len(keys))}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, key := range keys {
		g.Go(func() error {
			v, ok, err := r.Get(gctx, sid, key)
			if err != nil {
				return fmt.Errorf("snapshot %s: %w", key, err)
			}
			if ok {
				mu.Lock()
				snap.values[key] = v
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}
