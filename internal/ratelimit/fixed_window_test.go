package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisLimiter(t *testing.T, limit int) (*RedisLimiter, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	limiter, err := NewRedisLimiter(client, "test:ratelimit", limit, time.Minute)
	if err != nil {
		t.Fatalf("new redis limiter: %v", err)
	}
	return limiter, srv
}

func TestRedisLimiter(t *testing.T) {
	limiter, _ := newRedisLimiter(t, 2)
	ctx := context.Background()

	first := limiter.Allow(ctx, "ip-1")
	if !first.Allowed || first.Remaining != 1 {
		t.Fatalf("first request should pass with 1 remaining, got %+v", first)
	}
	if !limiter.Allow(ctx, "ip-1").Allowed {
		t.Fatalf("second request should pass")
	}
	third := limiter.Allow(ctx, "ip-1")
	if third.Allowed {
		t.Fatalf("third request should be blocked")
	}
	if third.RetryAfter <= 0 || third.RetryAfter > time.Minute {
		t.Fatalf("unexpected retry after: %v", third.RetryAfter)
	}
	if !limiter.Allow(ctx, "ip-2").Allowed {
		t.Fatalf("other keys keep their own quota")
	}
}

func TestRedisLimiterFailClosed(t *testing.T) {
	limiter, srv := newRedisLimiter(t, 1)
	srv.Close()
	if limiter.Allow(context.Background(), "ip-1").Allowed {
		t.Fatalf("limiter should fail closed on redis errors")
	}
}

func TestRedisLimiterRequiresClient(t *testing.T) {
	if _, err := NewRedisLimiter(nil, "p", 1, time.Second); err == nil {
		t.Fatalf("expected constructor error for nil client")
	}
	if _, err := NewRedisLimiter(redis.NewClient(&redis.Options{}), "p", 0, time.Second); err == nil {
		t.Fatalf("expected constructor error for zero limit")
	}
}

func TestMemoryLimiterWindowResets(t *testing.T) {
	limiter, err := NewMemoryLimiter(1, time.Second)
	if err != nil {
		t.Fatalf("new memory limiter: %v", err)
	}
	now := time.Unix(1700000000, 0)
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	if !limiter.Allow(ctx, "k").Allowed {
		t.Fatalf("first request should pass")
	}
	blocked := limiter.Allow(ctx, "k")
	if blocked.Allowed || blocked.RetryAfter != time.Second {
		t.Fatalf("expected block with 1s retry, got %+v", blocked)
	}
	now = now.Add(time.Second)
	if !limiter.Allow(ctx, "k").Allowed {
		t.Fatalf("new window should pass")
	}
}
