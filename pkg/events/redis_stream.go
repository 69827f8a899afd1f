package events

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultStreamMaxLen = 10000

// RedisStreamConfig configures a RedisStreamPublisher.
type RedisStreamConfig struct {
	Stream string
	MaxLen int64
}

// RedisStreamPublisher appends events to a capped Redis stream.
type RedisStreamPublisher struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewRedisStreamPublisher publishes through an existing client. Close does not
// close the shared client.
func NewRedisStreamPublisher(client *redis.Client, cfg RedisStreamConfig) (*RedisStreamPublisher, error) {
	if client == nil {
		return nil, errors.New("redis client required")
	}
	stream := strings.TrimSpace(cfg.Stream)
	if stream == "" {
		return nil, errors.New("event stream required")
	}
	maxLen := cfg.MaxLen
	if maxLen <= 0 {
		maxLen = defaultStreamMaxLen
	}
	return &RedisStreamPublisher{client: client, stream: stream, maxLen: maxLen}, nil
}

func (p *RedisStreamPublisher) Publish(ctx context.Context, evt Event) error {
	payload, err := encode(evt)
	if err != nil {
		return err
	}
	return p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]any{
			"type":       evt.Type,
			"article_id": evt.ArticleID,
			"payload":    string(payload),
		},
	}).Err()
}

// Recent returns up to count events, oldest first.
func (p *RedisStreamPublisher) Recent(ctx context.Context, count int64) ([]Event, error) {
	msgs, err := p.client.XRangeN(ctx, p.stream, "-", "+", count).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Event, 0, len(msgs))
	for _, msg := range msgs {
		out = append(out, decodeMessage(msg))
	}
	return out, nil
}

func (p *RedisStreamPublisher) Close() error { return nil }

func decodeMessage(msg redis.XMessage) Event {
	evt := Event{}
	if raw, _ := msg.Values["payload"].(string); raw != "" {
		_ = json.Unmarshal([]byte(raw), &evt)
	}
	if evt.Type == "" {
		evt.Type, _ = msg.Values["type"].(string)
	}
	if evt.ArticleID == "" {
		evt.ArticleID, _ = msg.Values["article_id"].(string)
	}
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = streamIDTime(msg.ID)
	}
	return evt
}

// streamIDTime extracts the millisecond timestamp from a stream entry id.
func streamIDTime(id string) time.Time {
	ms, _, _ := strings.Cut(id, "-")
	n, err := strconv.ParseInt(ms, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(n).UTC()
}
