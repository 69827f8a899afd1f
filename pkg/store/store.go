package store

import (
	"context"
	"errors"
)

// Collections used by the service.
const (
	UsersCollection    = "users"
	ArticlesCollection = "articles"
)

// ErrInvalidKey is returned for an empty collection or document key.
var ErrInvalidKey = errors.New("collection and key required")

// Document is a flat record. A missing field means null.
type Document map[string]string

// Clone returns a copy that does not share the underlying map.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// KeyedDocument is a document together with its key.
type KeyedDocument struct {
	Key  string
	Data Document
}

// SetOptions configures a Set call.
type SetOptions struct {
	Merge bool
}

// SetOption mutates SetOptions.
type SetOption func(*SetOptions)

// Merge makes Set update only the supplied fields, creating the document when absent.
func Merge() SetOption {
	return func(o *SetOptions) {
		o.Merge = true
	}
}

func applySetOptions(opts []SetOption) SetOptions {
	out := SetOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(&out)
		}
	}
	return out
}

// Documents is a key-value document store grouped by collection.
// Implementations must be safe for concurrent use. Writes are last-writer-wins.
type Documents interface {
	Get(ctx context.Context, collection, key string) (Document, bool, error)
	Set(ctx context.Context, collection, key string, doc Document, opts ...SetOption) error
	Delete(ctx context.Context, collection, key string) error
	// List returns every document of a collection in creation order.
	List(ctx context.Context, collection string) ([]KeyedDocument, error)
}

func validKey(collection, key string) error {
	if collection == "" || key == "" {
		return ErrInvalidKey
	}
	return nil
}
