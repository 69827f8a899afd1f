package events

import (
	"context"
	"encoding/json"
	"time"
)

// Event types emitted after successful article writes.
const (
	ArticleCreated = "article.created"
	ArticleUpdated = "article.updated"
	ArticleDeleted = "article.deleted"
)

// Event describes a committed article change.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	ArticleID  string    `json:"articleId"`
	Title      string    `json:"title,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Publisher delivers events to downstream consumers. Delivery is best effort;
// callers log failures and never roll back the write that produced the event.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
	Close() error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                          { return nil }

func encode(evt Event) ([]byte, error) {
	return json.Marshal(evt)
}
