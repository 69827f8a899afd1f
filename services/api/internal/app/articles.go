package app

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"articlehub/internal/util"
	"articlehub/pkg/domain"
	"articlehub/pkg/events"
	"articlehub/pkg/storage"
)

// ArticleRepository persists article records keyed by id.
type ArticleRepository interface {
	Get(ctx context.Context, id string) (domain.Article, bool, error)
	List(ctx context.Context) ([]domain.Article, error)
	Save(ctx context.Context, a domain.Article) error
	Merge(ctx context.Context, id string, patch domain.ArticlePatch) (domain.Article, error)
	Delete(ctx context.Context, id string) error
}

// Observer records upload and event outcomes.
type Observer interface {
	ObserveUpload(err error)
	EventFailed(eventType string)
}

// ArticleInput carries the fields accepted on create.
type ArticleInput struct {
	Title       string
	Description string
	Content     string
	SourceURL   string
}

// ArticleUpdate carries the fields accepted on update. Empty means untouched.
type ArticleUpdate struct {
	Title   string
	Content string
}

// Upload is an image already spooled to local disk.
type Upload struct {
	LocalPath   string
	Filename    string
	ContentType string
}

// ArticleServiceConfig wires an ArticleService.
type ArticleServiceConfig struct {
	Articles ArticleRepository
	Objects  storage.ObjectStore
	Events   events.Publisher
	Observer Observer
	Now      func() time.Time
}

// ArticleService manages articles and their cover images.
type ArticleService struct {
	articles ArticleRepository
	objects  storage.ObjectStore
	events   events.Publisher
	observer Observer
	now      func() time.Time
	newID    func() string
}

func NewArticleService(cfg ArticleServiceConfig) *ArticleService {
	s := &ArticleService{
		articles: cfg.Articles,
		objects:  cfg.Objects,
		events:   cfg.Events,
		observer: cfg.Observer,
		now:      cfg.Now,
		newID:    util.NewID,
	}
	if s.events == nil {
		s.events = events.NopPublisher{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// List returns every article. An empty collection is reported as ErrNoArticles.
func (s *ArticleService) List(ctx context.Context) ([]domain.Article, error) {
	articles, err := s.articles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	if len(articles) == 0 {
		return nil, ErrNoArticles
	}
	return articles, nil
}

func (s *ArticleService) Get(ctx context.Context, id string) (domain.Article, error) {
	article, ok, err := s.articles.Get(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.Article{}, fmt.Errorf("get article: %w", err)
	}
	if !ok {
		return domain.Article{}, ErrArticleNotFound
	}
	return article, nil
}

// Create stores a new article. The image, if any, is uploaded before the record
// is written; a failed upload persists nothing.
func (s *ArticleService) Create(ctx context.Context, in ArticleInput, upload *Upload) (domain.Article, error) {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Description) == "" || strings.TrimSpace(in.Content) == "" {
		return domain.Article{}, ErrArticleFieldsRequired
	}
	article := domain.Article{
		ID:          s.newID(),
		Title:       in.Title,
		Description: in.Description,
		Content:     in.Content,
		SourceURL:   strings.TrimSpace(in.SourceURL),
		CreatedAt:   FormatCreatedAt(s.now()),
	}
	if upload != nil {
		url, err := s.uploadImage(ctx, article.ID, upload)
		if err != nil {
			return domain.Article{}, err
		}
		article.Image = &url
	}
	if err := s.articles.Save(ctx, article); err != nil {
		s.logOrphan(ctx, article.ID, article.Image, err)
		return domain.Article{}, fmt.Errorf("save article: %w", err)
	}
	s.publish(ctx, events.ArticleCreated, article)
	return article, nil
}

// Update merges title, content and image into the record with the given id.
// The record is created when missing. Description and source URL are never
// changed here.
func (s *ArticleService) Update(ctx context.Context, id string, in ArticleUpdate, upload *Upload) (domain.Article, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Article{}, ErrArticleNotFound
	}
	patch := domain.ArticlePatch{
		Title:   domain.StringPtr(in.Title),
		Content: domain.StringPtr(in.Content),
	}
	if upload != nil {
		url, err := s.uploadImage(ctx, id, upload)
		if err != nil {
			return domain.Article{}, err
		}
		patch.Image = &url
	}
	article, err := s.articles.Merge(ctx, id, patch)
	if err != nil {
		s.logOrphan(ctx, id, patch.Image, err)
		return domain.Article{}, fmt.Errorf("update article: %w", err)
	}
	s.publish(ctx, events.ArticleUpdated, article)
	return article, nil
}

// Delete removes an existing article. Its image is left in the object store.
func (s *ArticleService) Delete(ctx context.Context, id string) error {
	article, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.articles.Delete(ctx, article.ID); err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	util.LoggerFromContext(ctx).Info("article deleted", "article_id", article.ID)
	s.publish(ctx, events.ArticleDeleted, article)
	return nil
}

func (s *ArticleService) uploadImage(ctx context.Context, articleID string, upload *Upload) (string, error) {
	destination := buildImageDestination(articleID, upload.Filename)
	stored, err := s.objects.Put(ctx, upload.LocalPath, destination, storage.PutOptions{
		CacheControl: storage.LongLivedCacheControl,
		ContentType:  upload.ContentType,
	})
	if s.observer != nil {
		s.observer.ObserveUpload(err)
	}
	if err != nil {
		util.LoggerFromContext(ctx).Error("image upload failed",
			"article_id", articleID, "destination", destination, "err", err)
		return "", uploadFailed(err)
	}
	return s.objects.PublicURL(stored), nil
}

// logOrphan reports an uploaded image whose record was never written.
func (s *ArticleService) logOrphan(ctx context.Context, articleID string, image *string, err error) {
	if image == nil {
		return
	}
	util.LoggerFromContext(ctx).Warn("uploaded image left without article",
		"article_id", articleID, "image", *image, "err", err)
}

func (s *ArticleService) publish(ctx context.Context, eventType string, article domain.Article) {
	evt := events.Event{
		ID:         util.NewID(),
		Type:       eventType,
		ArticleID:  article.ID,
		Title:      article.Title,
		OccurredAt: s.now().UTC(),
	}
	if err := s.events.Publish(ctx, evt); err != nil {
		if s.observer != nil {
			s.observer.EventFailed(eventType)
		}
		util.LoggerFromContext(ctx).Warn("publish article event failed",
			"type", eventType, "article_id", article.ID, "err", err)
	}
}

func buildImageDestination(articleID, filename string) string {
	name := sanitizeFilename(filepath.Base(strings.ReplaceAll(filename, "\\", "/")))
	if name == "" || name == "." {
		name = "image"
	}
	return path.Join("images", articleID, name)
}

func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	var b strings.Builder
	b.Grow(len(name))
	lastUnderscore := false
	for _, r := range name {
		if r <= 0x7f && ((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_') {
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	return strings.Trim(b.String(), "_.")
}
