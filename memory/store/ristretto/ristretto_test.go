package ristretto

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/finchat/hybridmem/memory"
)

func newTestStore(t *testing.T, cfg Config) *Store {
	t.Helper()
	store, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func appendTurn(t *testing.T, store *Store, userID, msg string) {
	t.Helper()
	it := memory.NewInteraction(userID, msg, "Noted.", nil)
	if err := store.Append(context.Background(), userID, it); err != nil {
		t.Fatalf("Append(%q): %v", msg, err)
	}
}

func TestAppendTrimsToWindow(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, Config{Window: 3})

	for i := 0; i < 4; i++ {
		appendTurn(t, store, "user1", fmt.Sprintf("message %d", i))
	}

	recent, err := store.Recent(ctx, "user1", 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("expected window of 3, got %d", len(recent))
	}
	if recent[0].UserMessage != "message 3" {
		t.Errorf("expected most recent first, got %q", recent[0].UserMessage)
	}
	if recent[2].UserMessage != "message 1" {
		t.Errorf("expected oldest surviving message last, got %q", recent[2].UserMessage)
	}
}

func TestRecentHonorsLimit(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, Config{})

	appendTurn(t, store, "user1", "first")
	appendTurn(t, store, "user1", "second")

	recent, err := store.Recent(ctx, "user1", 1)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 1 || recent[0].UserMessage != "second" {
		t.Errorf("expected only the latest message, got %v", recent)
	}

	recent, err = store.Recent(ctx, "user1", 0)
	if err != nil {
		t.Fatalf("Recent with zero limit: %v", err)
	}
	if len(recent) != 0 {
		t.Errorf("zero limit must return nothing, got %d", len(recent))
	}
}

func TestEntriesExpire(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, Config{TTL: 30 * time.Millisecond})

	appendTurn(t, store, "user1", "short lived")
	time.Sleep(50 * time.Millisecond)

	recent, err := store.Recent(ctx, "user1", 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 0 {
		t.Errorf("expected expired entries to be filtered, got %d", len(recent))
	}
}

func TestSessionStateMerges(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, Config{})

	if err := store.SetSessionState(ctx, "user1", map[string]any{"topic": "stocks", "step": 1}); err != nil {
		t.Fatalf("SetSessionState: %v", err)
	}
	if err := store.SetSessionState(ctx, "user1", map[string]any{"step": 2}); err != nil {
		t.Fatalf("SetSessionState update: %v", err)
	}

	state, err := store.SessionState(ctx, "user1")
	if err != nil {
		t.Fatalf("SessionState: %v", err)
	}
	if state["topic"] != "stocks" {
		t.Errorf("expected merged state to keep topic, got %v", state["topic"])
	}
	if state["step"] != 2 {
		t.Errorf("expected updated step 2, got %v", state["step"])
	}

	empty, err := store.SessionState(ctx, "stranger")
	if err != nil {
		t.Fatalf("SessionState unknown user: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected empty state for unknown user, got %v", empty)
	}
}

func TestClearUser(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, Config{})

	appendTurn(t, store, "user1", "hello")
	if err := store.SetSessionState(ctx, "user1", map[string]any{"topic": "stocks"}); err != nil {
		t.Fatalf("SetSessionState: %v", err)
	}

	if err := store.ClearUser(ctx, "user1"); err != nil {
		t.Fatalf("ClearUser: %v", err)
	}

	recent, err := store.Recent(ctx, "user1", 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 0 {
		t.Errorf("expected no interactions after ClearUser, got %d", len(recent))
	}
	state, err := store.SessionState(ctx, "user1")
	if err != nil {
		t.Fatalf("SessionState: %v", err)
	}
	if len(state) != 0 {
		t.Errorf("expected no session state after ClearUser, got %v", state)
	}
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, Config{})

	appendTurn(t, store, "user1", "hello")
	appendTurn(t, store, "user2", "hi")
	if err := store.SetSessionState(ctx, "user1", map[string]any{"topic": "stocks"}); err != nil {
		t.Fatalf("SetSessionState: %v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.ActiveConversations != 2 {
		t.Errorf("expected 2 active conversations, got %d", stats.ActiveConversations)
	}
	if stats.ActiveSessions != 1 {
		t.Errorf("expected 1 active session, got %d", stats.ActiveSessions)
	}
}
