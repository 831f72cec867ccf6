// Package redisstore implements the short-term memory store on Redis.
//
// Layout follows the conventional per-user keys:
//
//	conversation:<user_id>  LPUSH/LTRIM window of JSON-encoded entries
//	session:<user_id>       hash of JSON-encoded session state values
//
// Both keys carry a TTL that is refreshed on write, and reads additionally
// filter entries older than the TTL so an expired entry is never observed
// even between Redis expiry cycles.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/finchat/hybridmem/memory"
)

var logger = log.With().Str("component", "redis-store").Logger()

const (
	// DefaultTTL expires inactive users' short-term memory after a day.
	DefaultTTL = 24 * time.Hour

	// DefaultWindow caps how many interactions are kept per user.
	DefaultWindow = 10
)

// Config configures the store.
type Config struct {
	// URL is a redis:// connection URL. Required.
	URL string

	// TTL is the per-user expiry. Default: DefaultTTL.
	TTL time.Duration

	// Window is the per-user interaction cap. Default: DefaultWindow.
	Window int
}

// Store implements memory.ShortTermStore.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	window int
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.URL == "" {
		return nil, errors.New("redisstore: URL is required")
	}
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redisstore: parse URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", memory.ErrStoreUnavailable, err)
	}

	if cfg.TTL == 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Window == 0 {
		cfg.Window = DefaultWindow
	}

	logger.Info().Dur("ttl", cfg.TTL).Int("window", cfg.Window).
		Msg("short-term store connected")
	return &Store{client: client, ttl: cfg.TTL, window: cfg.Window}, nil
}

func conversationKey(userID string) string { return "conversation:" + userID }
func sessionKey(userID string) string      { return "session:" + userID }

// Append prepends the interaction, trims to the window and refreshes the
// TTL. The three commands run in one pipeline so a concurrent append for the
// same user cannot observe an untrimmed window.
func (s *Store) Append(ctx context.Context, userID string, it memory.Interaction) error {
	entry := memory.ShortTermEntry{
		UserID:      userID,
		Interaction: it,
		InsertedAt:  time.Now().UTC(),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return memory.WrapError("append", err)
	}

	key := conversationKey(userID)
	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, int64(s.window-1))
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", memory.ErrStoreUnavailable, err)
	}
	return nil
}

// Recent returns up to limit interactions, most recent first.
func (s *Store) Recent(ctx context.Context, userID string, limit int) ([]memory.Interaction, error) {
	if limit <= 0 {
		return nil, nil
	}

	raw, err := s.client.LRange(ctx, conversationKey(userID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", memory.ErrStoreUnavailable, err)
	}

	cutoff := time.Now().UTC().Add(-s.ttl)
	interactions := make([]memory.Interaction, 0, len(raw))
	for _, item := range raw {
		var entry memory.ShortTermEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			logger.Warn().Err(err).Str("user_id", userID).
				Msg("skipping undecodable short-term entry")
			continue
		}
		// Entries are newest first, so everything past the first expired
		// entry is expired too.
		if entry.InsertedAt.Before(cutoff) {
			break
		}
		interactions = append(interactions, entry.Interaction)
	}
	return interactions, nil
}

// SessionState returns the user's session bag, empty for unknown users.
func (s *Store) SessionState(ctx context.Context, userID string) (map[string]any, error) {
	values, err := s.client.HGetAll(ctx, sessionKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", memory.ErrStoreUnavailable, err)
	}

	state := make(map[string]any, len(values))
	for k, raw := range values {
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			// Pre-JSON values written by other clients stay readable.
			v = raw
		}
		state[k] = v
	}
	return state, nil
}

// SetSessionState shallow-merges state into the user's session hash and
// refreshes its TTL.
func (s *Store) SetSessionState(ctx context.Context, userID string, state map[string]any) error {
	if len(state) == 0 {
		return nil
	}

	fields := make(map[string]any, len(state))
	for k, v := range state {
		raw, err := json.Marshal(v)
		if err != nil {
			return memory.WrapError("set session state", err)
		}
		fields[k] = string(raw)
	}

	key := sessionKey(userID)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", memory.ErrStoreUnavailable, err)
	}
	return nil
}

// ClearUser drops the user's conversation window and session state.
func (s *Store) ClearUser(ctx context.Context, userID string) error {
	err := s.client.Del(ctx, conversationKey(userID), sessionKey(userID)).Err()
	if err != nil {
		return fmt.Errorf("%w: %v", memory.ErrStoreUnavailable, err)
	}
	return nil
}

// Stats counts active conversation and session keys via SCAN.
func (s *Store) Stats(ctx context.Context) (memory.ShortTermStats, error) {
	var stats memory.ShortTermStats

	conversations, err := s.countKeys(ctx, "conversation:*")
	if err != nil {
		return stats, err
	}
	sessions, err := s.countKeys(ctx, "session:*")
	if err != nil {
		return stats, err
	}

	stats.ActiveConversations = conversations
	stats.ActiveSessions = sessions
	return stats, nil
}

func (s *Store) countKeys(ctx context.Context, pattern string) (int, error) {
	iter := s.client.Scan(ctx, 0, pattern, 100).Iterator()
	n := 0
	for iter.Next(ctx) {
		n++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("%w: %v", memory.ErrStoreUnavailable, err)
	}
	return n, nil
}

// Ping verifies the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}
