package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestLoadDefaults(t *testing.T) {
	p := writeConfig(t, `
port: "8080"
jwtSecret: s3cret
storage:
  bucket: articles
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store.Driver != "memory" || cfg.Storage.Driver != "local" || cfg.Events.Driver != "none" {
		t.Fatalf("unexpected drivers: %+v %+v %+v", cfg.Store, cfg.Storage, cfg.Events)
	}
	if cfg.MaxUploadBytes != 10<<20 {
		t.Fatalf("unexpected max upload: %d", cfg.MaxUploadBytes)
	}
	if cfg.RequireAuthForWrites == nil || !*cfg.RequireAuthForWrites {
		t.Fatalf("expected auth for writes to default on")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	p := writeConfig(t, `
port: "8080"
jwtSecret: from-file
requireAuthForWrites: true
storage:
  driver: minio
  bucket: articles
  endpoint: file-endpoint:9000
  accessKey: a
  secretKey: b
`)
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("MINIO_ENDPOINT", "minio:9000")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("REQUIRE_AUTH_FOR_WRITES", "false")
	t.Setenv("AUTH_LOGIN_RATE_LIMIT_PER_MINUTE", "7")

	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.JWTSecret != "from-env" || cfg.Storage.Endpoint != "minio:9000" || !cfg.Storage.UseSSL {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
	if *cfg.RequireAuthForWrites || cfg.LoginRateLimitPerMinute != 7 {
		t.Fatalf("unexpected overrides: auth=%v login=%d", *cfg.RequireAuthForWrites, cfg.LoginRateLimitPerMinute)
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing port", "jwtSecret: s\nstorage: {bucket: b}\n", "port is required"},
		{"missing secret", "port: \"1\"\nstorage: {bucket: b}\n", "jwtSecret is required"},
		{"redis store without addr", "port: \"1\"\njwtSecret: s\nstore: {driver: redis}\nstorage: {bucket: b}\n", "redisAddr is required"},
		{"postgres without url", "port: \"1\"\njwtSecret: s\nstore: {driver: postgres}\nstorage: {bucket: b}\n", "databaseURL is required"},
		{"unknown storage", "port: \"1\"\njwtSecret: s\nstorage: {driver: gcs, bucket: b}\n", "unknown storage.driver"},
		{"missing bucket", "port: \"1\"\njwtSecret: s\n", "storage.bucket is required"},
		{"amqp without url", "port: \"1\"\njwtSecret: s\nstorage: {bucket: b}\nevents: {driver: amqp}\n", "amqpURL is required"},
		{"bad leeway", "port: \"1\"\njwtSecret: s\njwtLeeway: soon\nstorage: {bucket: b}\n", "invalid jwtLeeway"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected read error")
	}
}
