package store

import (
	"context"
	"fmt"

	"articlehub/pkg/domain"
)

// ArticleStore persists articles keyed by id.
type ArticleStore struct {
	docs Documents
}

// NewArticleStore builds an article store on top of docs.
func NewArticleStore(docs Documents) *ArticleStore {
	return &ArticleStore{docs: docs}
}

// Get retrieves an article.
func (s *ArticleStore) Get(ctx context.Context, id string) (domain.Article, bool, error) {
	doc, ok, err := s.docs.Get(ctx, ArticlesCollection, id)
	if err != nil || !ok {
		return domain.Article{}, false, err
	}
	return articleFromDocument(id, doc), true, nil
}

// List returns all articles in creation order.
func (s *ArticleStore) List(ctx context.Context) ([]domain.Article, error) {
	docs, err := s.docs.List(ctx, ArticlesCollection)
	if err != nil {
		return nil, err
	}
	res := make([]domain.Article, 0, len(docs))
	for _, d := range docs {
		res = append(res, articleFromDocument(d.Key, d.Data))
	}
	return res, nil
}

// Save writes the full article record.
func (s *ArticleStore) Save(ctx context.Context, a domain.Article) error {
	return s.docs.Set(ctx, ArticlesCollection, a.ID, articleToDocument(a))
}

// Merge writes only the fields present in patch, creating the article when
// it does not exist, and returns the stored result.
func (s *ArticleStore) Merge(ctx context.Context, id string, patch domain.ArticlePatch) (domain.Article, error) {
	doc := Document{"id": id}
	putOptional(doc, "title", patch.Title)
	putOptional(doc, "content", patch.Content)
	putOptional(doc, "image", patch.Image)
	if err := s.docs.Set(ctx, ArticlesCollection, id, doc, Merge()); err != nil {
		return domain.Article{}, err
	}
	merged, ok, err := s.Get(ctx, id)
	if err != nil {
		return domain.Article{}, fmt.Errorf("read merged article: %w", err)
	}
	if !ok {
		return domain.Article{}, fmt.Errorf("article %s vanished after merge", id)
	}
	return merged, nil
}

// Delete removes an article.
func (s *ArticleStore) Delete(ctx context.Context, id string) error {
	return s.docs.Delete(ctx, ArticlesCollection, id)
}

func articleToDocument(a domain.Article) Document {
	doc := Document{
		"id":          a.ID,
		"title":       a.Title,
		"description": a.Description,
		"content":     a.Content,
		"createdAt":   a.CreatedAt,
	}
	putOptional(doc, "image", a.Image)
	if a.SourceURL != "" {
		doc["sourceUrl"] = a.SourceURL
	}
	return doc
}

func articleFromDocument(key string, doc Document) domain.Article {
	return domain.Article{
		ID:          key,
		Title:       doc["title"],
		Description: doc["description"],
		Content:     doc["content"],
		Image:       optional(doc, "image"),
		SourceURL:   doc["sourceUrl"],
		CreatedAt:   doc["createdAt"],
	}
}
