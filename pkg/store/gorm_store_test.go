package store

import (
	"context"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newDryRunGormStore(t *testing.T) *GormStore {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=127.0.0.1 user=test dbname=test sslmode=disable",
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	if err != nil {
		t.Fatalf("open dry-run db: %v", err)
	}
	return NewGormStoreFromDB(db)
}

func TestGormUpsertSQL(t *testing.T) {
	s := newDryRunGormStore(t)
	model, err := documentToModel(ArticlesCollection, "a1", Document{"title": "T"}, time.Now())
	if err != nil {
		t.Fatalf("to model: %v", err)
	}

	replace := s.upsert(context.Background(), false).Create(&model).Statement.SQL.String()
	if !strings.Contains(replace, `ON CONFLICT ("collection","doc_key") DO UPDATE SET "data"="excluded"."data"`) {
		t.Fatalf("unexpected replace sql: %s", replace)
	}

	model2 := model
	merge := s.upsert(context.Background(), true).Create(&model2).Statement.SQL.String()
	if !strings.Contains(merge, "documents.data || excluded.data") {
		t.Fatalf("unexpected merge sql: %s", merge)
	}
}

func TestDocumentModelRoundTrip(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m, err := documentToModel(UsersCollection, "a@x.com", Document{"id": "u1", "email": "a@x.com"}, now)
	if err != nil {
		t.Fatalf("to model: %v", err)
	}
	if m.Collection != UsersCollection || m.DocKey != "a@x.com" || !m.CreatedAt.Equal(now) {
		t.Fatalf("unexpected model: %+v", m)
	}
	doc, err := documentFromModel(m)
	if err != nil {
		t.Fatalf("from model: %v", err)
	}
	if doc["id"] != "u1" || doc["email"] != "a@x.com" || len(doc) != 2 {
		t.Fatalf("unexpected doc: %v", doc)
	}
	if _, err := documentFromModel(DocumentModel{Data: []byte("{bad")}); err == nil {
		t.Fatalf("expected decode error")
	}
}
