package store

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// DocumentModel is the GORM row backing one document.
type DocumentModel struct {
	Collection string         `gorm:"primaryKey;size:64"`
	DocKey     string         `gorm:"primaryKey;size:320"`
	Data       datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt  time.Time      `gorm:"not null;index"`
	UpdatedAt  time.Time      `gorm:"not null"`
}

// TableName pins the table name used by merge expressions.
func (DocumentModel) TableName() string {
	return "documents"
}

func documentToModel(collection, key string, doc Document, now time.Time) (DocumentModel, error) {
	if doc == nil {
		doc = Document{}
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return DocumentModel{}, fmt.Errorf("encode document: %w", err)
	}
	return DocumentModel{
		Collection: collection,
		DocKey:     key,
		Data:       datatypes.JSON(raw),
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func documentFromModel(m DocumentModel) (Document, error) {
	doc := Document{}
	if len(m.Data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(m.Data, &doc); err != nil {
		return nil, fmt.Errorf("decode document %s/%s: %w", m.Collection, m.DocKey, err)
	}
	return doc, nil
}
