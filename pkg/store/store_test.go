package store

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func TestMemoryStoreDocuments(t *testing.T) {
	runDocumentsContract(t, func(t *testing.T) Documents {
		return NewMemoryStore()
	})
}

func TestRedisStoreDocuments(t *testing.T) {
	runDocumentsContract(t, func(t *testing.T) Documents {
		redis := miniredis.RunT(t)
		return NewRedisStore(redis.Addr(), "", "test")
	})
}

func TestRedisStoreFailsWhenServerDown(t *testing.T) {
	redis := miniredis.RunT(t)
	s := NewRedisStore(redis.Addr(), "", "test")
	redis.Close()
	if _, _, err := s.Get(context.Background(), "articles", "a1"); err == nil {
		t.Fatalf("expected get to fail with redis down")
	}
	if err := s.Set(context.Background(), "articles", "a1", Document{"title": "x"}); err == nil {
		t.Fatalf("expected set to fail with redis down")
	}
}

func runDocumentsContract(t *testing.T, newStore func(*testing.T) Documents) {
	ctx := context.Background()

	t.Run("get missing", func(t *testing.T) {
		s := newStore(t)
		if _, ok, err := s.Get(ctx, "articles", "missing"); err != nil || ok {
			t.Fatalf("expected missing document, ok=%v err=%v", ok, err)
		}
	})

	t.Run("set replaces", func(t *testing.T) {
		s := newStore(t)
		if err := s.Set(ctx, "articles", "a1", Document{"title": "one", "content": "c"}); err != nil {
			t.Fatalf("set: %v", err)
		}
		if err := s.Set(ctx, "articles", "a1", Document{"title": "two"}); err != nil {
			t.Fatalf("replace: %v", err)
		}
		doc, ok, err := s.Get(ctx, "articles", "a1")
		if err != nil || !ok {
			t.Fatalf("get: ok=%v err=%v", ok, err)
		}
		if doc["title"] != "two" {
			t.Fatalf("unexpected title: %q", doc["title"])
		}
		if _, ok := doc["content"]; ok {
			t.Fatalf("expected replace to drop content, got %v", doc)
		}
	})

	t.Run("merge keeps unspecified fields", func(t *testing.T) {
		s := newStore(t)
		if err := s.Set(ctx, "articles", "a1", Document{"title": "one", "description": "d"}); err != nil {
			t.Fatalf("set: %v", err)
		}
		if err := s.Set(ctx, "articles", "a1", Document{"title": "two"}, Merge()); err != nil {
			t.Fatalf("merge: %v", err)
		}
		doc, _, err := s.Get(ctx, "articles", "a1")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if doc["title"] != "two" || doc["description"] != "d" {
			t.Fatalf("unexpected merged doc: %v", doc)
		}
	})

	t.Run("merge creates missing document", func(t *testing.T) {
		s := newStore(t)
		if err := s.Set(ctx, "articles", "new", Document{"title": "t"}, Merge()); err != nil {
			t.Fatalf("merge: %v", err)
		}
		doc, ok, err := s.Get(ctx, "articles", "new")
		if err != nil || !ok {
			t.Fatalf("expected merge to create document, ok=%v err=%v", ok, err)
		}
		if doc["title"] != "t" {
			t.Fatalf("unexpected doc: %v", doc)
		}
	})

	t.Run("list in creation order and delete", func(t *testing.T) {
		s := newStore(t)
		list, err := s.List(ctx, "articles")
		if err != nil {
			t.Fatalf("list empty: %v", err)
		}
		if len(list) != 0 {
			t.Fatalf("expected empty list, got %d", len(list))
		}
		for _, key := range []string{"a", "b", "c"} {
			if err := s.Set(ctx, "articles", key, Document{"title": key}); err != nil {
				t.Fatalf("set %s: %v", key, err)
			}
		}
		if err := s.Set(ctx, "articles", "a", Document{"title": "a2"}, Merge()); err != nil {
			t.Fatalf("re-set a: %v", err)
		}
		if err := s.Delete(ctx, "articles", "b"); err != nil {
			t.Fatalf("delete: %v", err)
		}
		list, err = s.List(ctx, "articles")
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(list) != 2 || list[0].Key != "a" || list[1].Key != "c" {
			t.Fatalf("unexpected list: %+v", list)
		}
		if list[0].Data["title"] != "a2" {
			t.Fatalf("unexpected data: %v", list[0].Data)
		}
		if _, ok, _ := s.Get(ctx, "articles", "b"); ok {
			t.Fatalf("expected deleted document to be gone")
		}
	})

	t.Run("collections are isolated", func(t *testing.T) {
		s := newStore(t)
		if err := s.Set(ctx, "users", "k", Document{"email": "k"}); err != nil {
			t.Fatalf("set: %v", err)
		}
		if _, ok, _ := s.Get(ctx, "articles", "k"); ok {
			t.Fatalf("expected key to be scoped to its collection")
		}
	})

	t.Run("returned documents are copies", func(t *testing.T) {
		s := newStore(t)
		if err := s.Set(ctx, "articles", "a1", Document{"title": "one"}); err != nil {
			t.Fatalf("set: %v", err)
		}
		doc, _, _ := s.Get(ctx, "articles", "a1")
		doc["title"] = "mutated"
		again, _, _ := s.Get(ctx, "articles", "a1")
		if again["title"] != "one" {
			t.Fatalf("store leaked internal map: %v", again)
		}
	})

	t.Run("empty key rejected", func(t *testing.T) {
		s := newStore(t)
		if err := s.Set(ctx, "articles", "", Document{}); !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("expected invalid key error, got %v", err)
		}
	})
}
