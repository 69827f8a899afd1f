package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

const migrateLockID int64 = 73217322

// GormStore implements Documents on Postgres, one jsonb row per document.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := withMigrationLock(db, func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(&DocumentModel{}); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

// NewGormStoreFromDB wraps an already migrated connection.
func NewGormStoreFromDB(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func withMigrationLock(db *gorm.DB, fn func(*gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("open sql conn: %w", err)
	}
	defer conn.Close()
	if err := execAdvisory(ctx, conn, "SELECT pg_advisory_lock($1)", migrateLockID); err != nil {
		return fmt.Errorf("acquire migrate lock: %w", err)
	}
	defer func() {
		_ = execAdvisory(ctx, conn, "SELECT pg_advisory_unlock($1)", migrateLockID)
	}()
	return fn(db)
}

func execAdvisory(ctx context.Context, conn *sql.Conn, query string, lockID int64) error {
	_, err := conn.ExecContext(ctx, query, lockID)
	return err
}

// Get looks up one document.
func (s *GormStore) Get(ctx context.Context, collection, key string) (Document, bool, error) {
	if err := validKey(collection, key); err != nil {
		return nil, false, err
	}
	var model DocumentModel
	err := s.db.WithContext(ctx).
		First(&model, "collection = ? AND doc_key = ?", collection, key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	doc, err := documentFromModel(model)
	if err != nil {
		return nil, false, err
	}
	return doc, true, nil
}

// Set upserts a document. With Merge the stored jsonb is combined with the
// supplied fields using the `||` operator, so absent fields keep their value.
func (s *GormStore) Set(ctx context.Context, collection, key string, doc Document, opts ...SetOption) error {
	if err := validKey(collection, key); err != nil {
		return err
	}
	model, err := documentToModel(collection, key, doc, time.Now().UTC())
	if err != nil {
		return err
	}
	return s.upsert(ctx, applySetOptions(opts).Merge).Create(&model).Error
}

func (s *GormStore) upsert(ctx context.Context, merge bool) *gorm.DB {
	updates := clause.AssignmentColumns([]string{"data", "updated_at"})
	if merge {
		updates = clause.Set{
			{Column: clause.Column{Name: "data"}, Value: gorm.Expr("documents.data || excluded.data")},
			{Column: clause.Column{Name: "updated_at"}, Value: gorm.Expr("excluded.updated_at")},
		}
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "collection"}, {Name: "doc_key"}},
		DoUpdates: updates,
	})
}

// Delete removes one document.
func (s *GormStore) Delete(ctx context.Context, collection, key string) error {
	if err := validKey(collection, key); err != nil {
		return err
	}
	return s.db.WithContext(ctx).
		Delete(&DocumentModel{}, "collection = ? AND doc_key = ?", collection, key).Error
}

// List returns a collection ordered by created_at.
func (s *GormStore) List(ctx context.Context, collection string) ([]KeyedDocument, error) {
	var models []DocumentModel
	if err := s.db.WithContext(ctx).
		Where("collection = ?", collection).
		Order("created_at ASC").
		Order("doc_key ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]KeyedDocument, 0, len(models))
	for _, m := range models {
		doc, err := documentFromModel(m)
		if err != nil {
			return nil, err
		}
		res = append(res, KeyedDocument{Key: m.DocKey, Data: doc})
	}
	return res, nil
}
