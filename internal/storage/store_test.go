package storage

import (
	"context"
	"testing"
)

func TestSessionLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	session, err := store.LoadSession(ctx)
	if err != nil {
		t.Fatalf("LoadSession: %v", err)
	}
	if session != nil {
		t.Fatalf("expected no saved session, got %+v", session)
	}

	saved := SavedSession{Token: "tok-1", UserID: "42", DisplayName: "alice", Admin: true}
	if err := store.SaveSession(ctx, saved); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	session, err = store.LoadSession(ctx)
	if err != nil {
		t.Fatalf("LoadSession: %v", err)
	}
	if session == nil || session.Token != "tok-1" || session.UserID != "42" || session.DisplayName != "alice" || !session.Admin {
		t.Fatalf("unexpected session: %+v", session)
	}

	// Saving again replaces rather than duplicates.
	saved.Token = "tok-2"
	saved.Admin = false
	if err := store.SaveSession(ctx, saved); err != nil {
		t.Fatalf("SaveSession replace: %v", err)
	}
	session, err = store.LoadSession(ctx)
	if err != nil {
		t.Fatalf("LoadSession after replace: %v", err)
	}
	if session == nil || session.Token != "tok-2" || session.Admin {
		t.Fatalf("expected replaced session, got %+v", session)
	}

	if err := store.ClearSession(ctx); err != nil {
		t.Fatalf("ClearSession: %v", err)
	}
	session, err = store.LoadSession(ctx)
	if err != nil {
		t.Fatalf("LoadSession after clear: %v", err)
	}
	if session != nil {
		t.Fatalf("expected nil session after clear")
	}
}

func TestRoomCache(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	first := []CachedRoom{{ID: "r1", Name: "general"}, {ID: "r2", Name: "random"}}
	if err := store.ReplaceRooms(ctx, first); err != nil {
		t.Fatalf("ReplaceRooms: %v", err)
	}
	rooms, err := store.ListRooms(ctx)
	if err != nil {
		t.Fatalf("ListRooms: %v", err)
	}
	if len(rooms) != 2 || rooms[0].ID != "r1" || rooms[1].ID != "r2" {
		t.Fatalf("unexpected rooms: %+v", rooms)
	}

	// A fresh fetch replaces the cache wholesale and keeps server order.
	second := []CachedRoom{{ID: "r3", Name: "labs"}, {ID: "r1", Name: "general"}}
	if err := store.ReplaceRooms(ctx, second); err != nil {
		t.Fatalf("ReplaceRooms second: %v", err)
	}
	rooms, err = store.ListRooms(ctx)
	if err != nil {
		t.Fatalf("ListRooms second: %v", err)
	}
	if len(rooms) != 2 || rooms[0].ID != "r3" || rooms[1].ID != "r1" {
		t.Fatalf("unexpected rooms after replace: %+v", rooms)
	}
}

func TestLastRoom(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	last, err := store.LastRoom(ctx)
	if err != nil {
		t.Fatalf("LastRoom: %v", err)
	}
	if last != "" {
		t.Fatalf("expected empty last room, got %q", last)
	}
	if err := store.SetLastRoom(ctx, "r1"); err != nil {
		t.Fatalf("SetLastRoom: %v", err)
	}
	if err := store.SetLastRoom(ctx, "r2"); err != nil {
		t.Fatalf("SetLastRoom update: %v", err)
	}
	last, err = store.LastRoom(ctx)
	if err != nil {
		t.Fatalf("LastRoom after set: %v", err)
	}
	if last != "r2" {
		t.Fatalf("expected r2, got %q", last)
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := "sqlite://file:" + t.Name() + "?mode=memory&cache=shared"
	store, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
