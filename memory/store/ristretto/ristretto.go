// Package ristretto implements the short-term memory store in process, on a
// ristretto TTL cache. It mirrors the Redis store's window and expiry
// semantics so local development and tests exercise the same contract
// without a network dependency.
package ristretto

import (
	"context"
	"sync"
	"time"

	rist "github.com/dgraph-io/ristretto"

	"github.com/finchat/hybridmem/memory"
)

const (
	// DefaultTTL matches the Redis store's expiry.
	DefaultTTL = 24 * time.Hour

	// DefaultWindow matches the Redis store's per-user cap.
	DefaultWindow = 10
)

// Config configures the store.
type Config struct {
	// TTL is the per-user expiry. Default: DefaultTTL.
	TTL time.Duration

	// Window is the per-user interaction cap. Default: DefaultWindow.
	Window int
}

// Store implements memory.ShortTermStore.
//
// Appends are read-modify-write against the cache, so they serialize behind
// one mutex; this store targets single-process development use where that is
// not a bottleneck.
type Store struct {
	cache  *rist.Cache
	ttl    time.Duration
	window int

	mu    sync.Mutex
	users map[string]struct{} // for Stats; ristretto cannot enumerate keys
}

// New creates the in-process store.
func New(cfg Config) (*Store, error) {
	if cfg.TTL == 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Window == 0 {
		cfg.Window = DefaultWindow
	}

	cache, err := rist.NewCache(&rist.Config{
		NumCounters: 1e5,
		MaxCost:     1 << 24,
		BufferItems: 64,
	})
	if err != nil {
		return nil, memory.WrapError("create cache", err)
	}

	return &Store{
		cache:  cache,
		ttl:    cfg.TTL,
		window: cfg.Window,
		users:  make(map[string]struct{}),
	}, nil
}

func conversationKey(userID string) string { return "conversation:" + userID }
func sessionKey(userID string) string      { return "session:" + userID }

// Append prepends the interaction and trims to the window.
func (s *Store) Append(ctx context.Context, userID string, it memory.Interaction) error {
	entry := memory.ShortTermEntry{
		UserID:      userID,
		Interaction: it,
		InsertedAt:  time.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries := append([]memory.ShortTermEntry{entry}, s.liveEntries(userID)...)
	if len(entries) > s.window {
		entries = entries[:s.window]
	}

	s.cache.SetWithTTL(conversationKey(userID), entries, 1, s.ttl)
	// Sets are buffered; flush so readers observe this append.
	s.cache.Wait()
	s.users[userID] = struct{}{}
	return nil
}

// Recent returns up to limit interactions, most recent first.
func (s *Store) Recent(ctx context.Context, userID string, limit int) ([]memory.Interaction, error) {
	if limit <= 0 {
		return nil, nil
	}

	s.mu.Lock()
	entries := s.liveEntries(userID)
	s.mu.Unlock()

	if len(entries) > limit {
		entries = entries[:limit]
	}
	interactions := make([]memory.Interaction, 0, len(entries))
	for _, e := range entries {
		interactions = append(interactions, e.Interaction)
	}
	return interactions, nil
}

// liveEntries returns the user's window with expired entries filtered out.
// Callers must hold s.mu.
func (s *Store) liveEntries(userID string) []memory.ShortTermEntry {
	value, ok := s.cache.Get(conversationKey(userID))
	if !ok {
		return nil
	}
	entries, ok := value.([]memory.ShortTermEntry)
	if !ok {
		return nil
	}

	cutoff := time.Now().UTC().Add(-s.ttl)
	live := make([]memory.ShortTermEntry, 0, len(entries))
	for _, e := range entries {
		if e.InsertedAt.Before(cutoff) {
			break // newest first, the rest is older still
		}
		live = append(live, e)
	}
	return live
}

// SessionState returns the user's session bag, empty for unknown users.
func (s *Store) SessionState(ctx context.Context, userID string) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, ok := s.cache.Get(sessionKey(userID))
	if !ok {
		return map[string]any{}, nil
	}
	stored, ok := value.(map[string]any)
	if !ok {
		return map[string]any{}, nil
	}

	state := make(map[string]any, len(stored))
	for k, v := range stored {
		state[k] = v
	}
	return state, nil
}

// SetSessionState shallow-merges state into the user's bag and refreshes its
// TTL.
func (s *Store) SetSessionState(ctx context.Context, userID string, state map[string]any) error {
	if len(state) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	merged := make(map[string]any, len(state))
	if value, ok := s.cache.Get(sessionKey(userID)); ok {
		if stored, ok := value.(map[string]any); ok {
			for k, v := range stored {
				merged[k] = v
			}
		}
	}
	for k, v := range state {
		merged[k] = v
	}

	s.cache.SetWithTTL(sessionKey(userID), merged, 1, s.ttl)
	s.cache.Wait()
	s.users[userID] = struct{}{}
	return nil
}

// ClearUser drops the user's conversation window and session state.
func (s *Store) ClearUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache.Del(conversationKey(userID))
	s.cache.Del(sessionKey(userID))
	delete(s.users, userID)
	return nil
}

// Stats counts users with a live conversation window or session.
func (s *Store) Stats(ctx context.Context) (memory.ShortTermStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stats memory.ShortTermStats
	for userID := range s.users {
		if _, ok := s.cache.Get(conversationKey(userID)); ok {
			stats.ActiveConversations++
		}
		if _, ok := s.cache.Get(sessionKey(userID)); ok {
			stats.ActiveSessions++
		}
	}
	return stats, nil
}

// Close releases the cache.
func (s *Store) Close() error {
	s.cache.Close()
	return nil
}
