package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "articlehub"

// RedisStore keeps each document in a hash and tracks collection membership
// in a sorted set scored by first-insert time.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to Redis at addr.
func NewRedisStore(addr, password, prefix string) *RedisStore {
	return NewRedisStoreFromClient(redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	}), prefix)
}

// NewRedisStoreFromClient reuses an existing client.
func NewRedisStoreFromClient(client *redis.Client, prefix string) *RedisStore {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

// Get returns a document. Existence is decided by the collection index so
// that documents without fields still exist.
func (s *RedisStore) Get(ctx context.Context, collection, key string) (Document, bool, error) {
	if err := validKey(collection, key); err != nil {
		return nil, false, err
	}
	var (
		scoreCmd *redis.FloatCmd
		dataCmd  *redis.MapStringStringCmd
	)
	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		scoreCmd = pipe.ZScore(ctx, s.indexKey(collection), key)
		dataCmd = pipe.HGetAll(ctx, s.docKey(collection, key))
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, false, fmt.Errorf("redis get %s/%s: %w", collection, key, err)
	}
	if err := scoreCmd.Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis index lookup: %w", err)
	}
	data, err := dataCmd.Result()
	if err != nil {
		return nil, false, fmt.Errorf("redis hgetall: %w", err)
	}
	return Document(data), true, nil
}

// Set writes a document atomically (MULTI/EXEC).
func (s *RedisStore) Set(ctx context.Context, collection, key string, doc Document, opts ...SetOption) error {
	if err := validKey(collection, key); err != nil {
		return err
	}
	options := applySetOptions(opts)
	docKey := s.docKey(collection, key)
	fields := make(map[string]any, len(doc))
	for k, v := range doc {
		fields[k] = v
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if !options.Merge {
			pipe.Del(ctx, docKey)
		}
		if len(fields) > 0 {
			pipe.HSet(ctx, docKey, fields)
		}
		pipe.ZAddNX(ctx, s.indexKey(collection), redis.Z{
			Score:  float64(time.Now().UTC().UnixMicro()),
			Member: key,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis set %s/%s: %w", collection, key, err)
	}
	return nil
}

// Delete removes a document and its index entry.
func (s *RedisStore) Delete(ctx context.Context, collection, key string) error {
	if err := validKey(collection, key); err != nil {
		return err
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.docKey(collection, key))
		pipe.ZRem(ctx, s.indexKey(collection), key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis delete %s/%s: %w", collection, key, err)
	}
	return nil
}

// List returns all documents of a collection ordered by first insert.
func (s *RedisStore) List(ctx context.Context, collection string) ([]KeyedDocument, error) {
	keys, err := s.client.ZRange(ctx, s.indexKey(collection), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list %s: %w", collection, err)
	}
	if len(keys) == 0 {
		return []KeyedDocument{}, nil
	}
	cmds := make([]*redis.MapStringStringCmd, len(keys))
	_, err = s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, key := range keys {
			cmds[i] = pipe.HGetAll(ctx, s.docKey(collection, key))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("redis list %s: %w", collection, err)
	}
	res := make([]KeyedDocument, 0, len(keys))
	for i, key := range keys {
		data, err := cmds[i].Result()
		if err != nil {
			return nil, fmt.Errorf("redis hgetall %s: %w", key, err)
		}
		res = append(res, KeyedDocument{Key: key, Data: Document(data)})
	}
	return res, nil
}

func (s *RedisStore) docKey(collection, key string) string {
	return fmt.Sprintf("%s:%s:doc:%s", s.prefix, collection, key)
}

func (s *RedisStore) indexKey(collection string) string {
	return fmt.Sprintf("%s:%s:index", s.prefix, collection)
}
