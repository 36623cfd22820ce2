package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/xiaot623/chatrelay/internal/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return store
}

func TestSQLiteStoreSessions(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	defer store.Close()

	expires := time.Now().Add(time.Hour).Truncate(time.Millisecond)
	session, err := domain.NewChatSession("s1", "u1", "a@x.com", "tok-1", expires)
	if err != nil {
		t.Fatalf("NewChatSession failed: %v", err)
	}
	if err := store.SaveSession(ctx, session); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	got, err := store.GetSession(ctx, "s1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got == nil || got.UserID() != "u1" || got.BackendToken() != "tok-1" || !got.ExpiresAt().Equal(expires) {
		t.Fatalf("unexpected session: %v", got)
	}

	missing, err := store.GetSession(ctx, "nope")
	if err != nil || missing != nil {
		t.Fatalf("expected nil session, got %v %v", missing, err)
	}

	if err := store.DeleteSession(ctx, "s1"); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	if got, _ := store.GetSession(ctx, "s1"); got != nil {
		t.Fatalf("session still present after delete")
	}
	if err := store.DeleteSession(ctx, "s1"); err != nil {
		t.Fatalf("repeated DeleteSession failed: %v", err)
	}
}

func TestSQLiteStoreDeleteExpiredSessions(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	defer store.Close()

	now := time.Now()
	live, _ := domain.NewChatSession("live", "u1", "", "tok", now.Add(time.Hour))
	dead, _ := domain.NewChatSession("dead", "u2", "", "tok", now.Add(-time.Minute))
	for _, s := range []*domain.ChatSession{live, dead} {
		if err := store.SaveSession(ctx, s); err != nil {
			t.Fatalf("SaveSession failed: %v", err)
		}
	}

	n, err := store.DeleteExpiredSessions(ctx, now)
	if err != nil {
		t.Fatalf("DeleteExpiredSessions failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 expired session removed, got %d", n)
	}
	if got, _ := store.GetSession(ctx, "live"); got == nil {
		t.Fatalf("live session removed")
	}
}

func TestSQLiteStoreEvents(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	defer store.Close()

	events := []domain.Event{
		{EventID: "e1", RequestID: "r1", ChatID: "c1", UserID: "u1", Ts: 1, Type: domain.EventTypeStreamStarted, Payload: json.RawMessage(`{"message_id":"m1"}`)},
		{EventID: "e2", ChatID: "c1", UserID: "u1", Ts: 2, Type: domain.EventTypeStreamCompleted},
		{EventID: "e3", ChatID: "c2", UserID: "u1", Ts: 3, Type: domain.EventTypeStreamStarted},
	}
	for i := range events {
		if err := store.CreateEvent(ctx, &events[i]); err != nil {
			t.Fatalf("CreateEvent failed: %v", err)
		}
	}

	got, err := store.GetEvents(ctx, "c1", nil, 0)
	if err != nil {
		t.Fatalf("GetEvents failed: %v", err)
	}
	if len(got) != 2 || got[0].EventID != "e1" || got[1].EventID != "e2" {
		t.Fatalf("unexpected events: %+v", got)
	}
	if got[0].RequestID != "r1" || string(got[0].Payload) != `{"message_id":"m1"}` {
		t.Fatalf("unexpected first event: %+v", got[0])
	}
	if got[1].Payload != nil {
		t.Fatalf("expected empty payload, got %s", got[1].Payload)
	}

	filtered, err := store.GetEvents(ctx, "c1", []domain.EventType{domain.EventTypeStreamCompleted}, 10)
	if err != nil {
		t.Fatalf("GetEvents failed: %v", err)
	}
	if len(filtered) != 1 || filtered[0].Type != domain.EventTypeStreamCompleted {
		t.Fatalf("unexpected filtered events: %+v", filtered)
	}
}
