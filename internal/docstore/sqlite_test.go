package docstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func testStore(t *testing.T) *SQLite {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestMigrateIdempotent(t *testing.T) {
	s := testStore(t)

	// testStore already ran Migrate; a second run must be a no-op.
	result, err := s.Migrate()
	if err != nil {
		t.Fatal(err)
	}
	if result.Changed {
		t.Error("second Migrate() should report Changed=false")
	}
	if result.Version != 1 {
		t.Errorf("version = %d, want 1", result.Version)
	}
}

func TestCreateAndGet(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	id, err := s.Create(ctx, "events", map[string]any{"title": "Meetup", "location": "Hamburg"})
	if err != nil {
		t.Fatal(err)
	}
	if id == "" {
		t.Fatal("Create() returned empty id")
	}

	doc, err := s.Get(ctx, "events", id)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Fields["title"] != "Meetup" || doc.Fields["location"] != "Hamburg" {
		t.Errorf("fields = %v, want title/location preserved", doc.Fields)
	}
}

func TestCreateGeneratesDistinctIDs(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	id1, err := s.Create(ctx, "chats", map[string]any{"group": false})
	if err != nil {
		t.Fatal(err)
	}
	id2, err := s.Create(ctx, "chats", map[string]any{"group": false})
	if err != nil {
		t.Fatal(err)
	}
	if id1 == id2 {
		t.Errorf("two creates produced the same id %q", id1)
	}
}

func TestGetMissing(t *testing.T) {
	s := testStore(t)
	_, err := s.Get(context.Background(), "events", "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestSetReplacesWholeDocument(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.Set(ctx, "user", "u1", map[string]any{"email": "a@x.com", "userName": "old"}); err != nil {
		t.Fatal(err)
	}
	// Re-provisioning is a full replace, not a merge.
	if err := s.Set(ctx, "user", "u1", map[string]any{"email": "a@x.com"}); err != nil {
		t.Fatal(err)
	}

	doc, err := s.Get(ctx, "user", "u1")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := doc.Fields["userName"]; ok {
		t.Error("Set() should have dropped the userName field")
	}
}

func TestUpdateMergesFields(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	id, err := s.Create(ctx, "events", map[string]any{"title": "Meetup", "date": "02.02.24"})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Update(ctx, "events", id, map[string]any{"date": "03.02.24"}); err != nil {
		t.Fatal(err)
	}

	doc, err := s.Get(ctx, "events", id)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Fields["date"] != "03.02.24" {
		t.Errorf("date = %v, want 03.02.24", doc.Fields["date"])
	}
	if doc.Fields["title"] != "Meetup" {
		t.Errorf("title = %v, want untouched Meetup", doc.Fields["title"])
	}
}

func TestUpdateMissing(t *testing.T) {
	s := testStore(t)
	err := s.Update(context.Background(), "user", "missing", map[string]any{"userName": "x"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Update() error = %v, want ErrNotFound", err)
	}
}

func TestAppendRequiresParent(t *testing.T) {
	s := testStore(t)
	_, err := s.Append(context.Background(), "chats", "missing", "messages", map[string]any{"content": "hi"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Append() error = %v, want ErrNotFound", err)
	}
}

func TestAppendOrderIsStrict(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	chatID, err := s.Create(ctx, "chats", map[string]any{"group": false})
	if err != nil {
		t.Fatal(err)
	}

	// Appends land within the same millisecond; seq must still order them.
	for i := 0; i < 5; i++ {
		if _, err := s.Append(ctx, "chats", chatID, "messages", map[string]any{"content": "m"}); err != nil {
			t.Fatal(err)
		}
	}

	docs, err := s.ListSub(ctx, "chats", chatID, "messages")
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 5 {
		t.Fatalf("got %d messages, want 5", len(docs))
	}
	for i := 1; i < len(docs); i++ {
		if docs[i].Seq <= docs[i-1].Seq {
			t.Errorf("seq[%d]=%d not strictly after seq[%d]=%d", i, docs[i].Seq, i-1, docs[i-1].Seq)
		}
	}
}

func TestListSubEmpty(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	chatID, err := s.Create(ctx, "chats", map[string]any{"group": false})
	if err != nil {
		t.Fatal(err)
	}
	docs, err := s.ListSub(ctx, "chats", chatID, "messages")
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 0 {
		t.Errorf("got %d messages, want 0", len(docs))
	}
}

func TestSubCollectionsAreScopedToParent(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	c1, _ := s.Create(ctx, "chats", map[string]any{})
	c2, _ := s.Create(ctx, "chats", map[string]any{})

	if _, err := s.Append(ctx, "chats", c1, "messages", map[string]any{"content": "for c1"}); err != nil {
		t.Fatal(err)
	}

	docs, err := s.ListSub(ctx, "chats", c2, "messages")
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 0 {
		t.Errorf("chat %s sees %d foreign messages", c2, len(docs))
	}
}
