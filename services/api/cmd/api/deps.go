package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"articlehub/internal/ratelimit"
	"articlehub/pkg/events"
	"articlehub/pkg/storage"
	"articlehub/pkg/store"
	"articlehub/services/api/internal/config"
)

// deps holds the long-lived backend clients shared by all requests.
type deps struct {
	redis   *redis.Client
	docs    store.Documents
	objects storage.ObjectStore
	events  events.Publisher
}

func buildDeps(ctx context.Context, cfg config.FileConfig) (*deps, error) {
	d := &deps{}
	if cfg.RedisAddr != "" {
		d.redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := d.redis.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
	}

	var err error
	if d.docs, err = buildDocuments(cfg, d.redis); err != nil {
		d.Close()
		return nil, err
	}
	if d.objects, err = buildObjectStore(ctx, cfg.Storage); err != nil {
		d.Close()
		return nil, err
	}
	publisher, err := buildPublisher(cfg.Events, d.redis)
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("init %s events: %w", cfg.Events.Driver, err)
	}
	d.events = publisher
	return d, nil
}

func (d *deps) Close() {
	if d.events != nil {
		if err := d.events.Close(); err != nil {
			slog.Warn("close event publisher", "err", err)
		}
	}
	if d.redis != nil {
		_ = d.redis.Close()
	}
}

func buildDocuments(cfg config.FileConfig, client *redis.Client) (store.Documents, error) {
	switch cfg.Store.Driver {
	case "redis":
		return store.NewRedisStoreFromClient(client, cfg.Store.RedisPrefix), nil
	case "postgres":
		s, err := store.NewGormStore(cfg.Store.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
		return s, nil
	default:
		return store.NewMemoryStore(), nil
	}
}

func buildObjectStore(ctx context.Context, cfg config.StorageConfig) (storage.ObjectStore, error) {
	switch cfg.Driver {
	case "minio":
		s, err := storage.NewMinioStore(storage.MinioConfig{
			Endpoint:      cfg.Endpoint,
			AccessKey:     cfg.AccessKey,
			SecretKey:     cfg.SecretKey,
			Bucket:        cfg.Bucket,
			UseSSL:        cfg.UseSSL,
			PublicBaseURL: cfg.PublicBaseURL,
		})
		if err != nil {
			return nil, fmt.Errorf("init minio storage: %w", err)
		}
		return s, nil
	case "s3":
		s, err := storage.NewS3Store(ctx, storage.S3Config{
			Region:        cfg.Region,
			AccessKey:     cfg.AccessKey,
			SecretKey:     cfg.SecretKey,
			Bucket:        cfg.Bucket,
			BaseEndpoint:  cfg.Endpoint,
			PublicBaseURL: cfg.PublicBaseURL,
		})
		if err != nil {
			return nil, fmt.Errorf("init s3 storage: %w", err)
		}
		return s, nil
	default:
		base := cfg.PublicBaseURL
		if base == "" {
			base = "localhost"
		}
		s, err := storage.NewFileStore(cfg.LocalPath, cfg.Bucket, base)
		if err != nil {
			return nil, fmt.Errorf("init local storage: %w", err)
		}
		return s, nil
	}
}

func buildPublisher(cfg config.EventsConfig, client *redis.Client) (events.Publisher, error) {
	switch cfg.Driver {
	case "redis":
		return events.NewRedisStreamPublisher(client, events.RedisStreamConfig{Stream: cfg.Stream, MaxLen: cfg.MaxLen})
	case "amqp":
		return events.NewAMQPPublisher(events.AMQPConfig{URL: cfg.AMQPURL, Exchange: cfg.Exchange})
	default:
		return events.NopPublisher{}, nil
	}
}

// buildLimiters returns nil limiters for limits set to 0. Redis is used when
// configured so limits hold across instances.
func buildLimiters(cfg config.FileConfig, client *redis.Client) (ratelimit.Limiter, ratelimit.Limiter, error) {
	newLimiter := func(name string, perMinute int) (ratelimit.Limiter, error) {
		if perMinute <= 0 {
			return nil, nil
		}
		if client != nil {
			return ratelimit.NewRedisLimiter(client, "articlehub:ratelimit:"+name, perMinute, time.Minute)
		}
		return ratelimit.NewMemoryLimiter(perMinute, time.Minute)
	}
	signup, err := newLimiter("signup", cfg.SignupRateLimitPerMinute)
	if err != nil {
		return nil, nil, err
	}
	login, err := newLimiter("login", cfg.LoginRateLimitPerMinute)
	if err != nil {
		return nil, nil, err
	}
	return signup, login, nil
}
