package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default config location.
const ConfigPath = "config.yaml"

const defaultMaxUploadBytes = 10 << 20

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port                     string        `yaml:"port"`
	LogLevel                 string        `yaml:"logLevel"`
	LogFormat                string        `yaml:"logFormat"`
	JWTSecret                string        `yaml:"jwtSecret"`
	JWTLeeway                string        `yaml:"jwtLeeway"`
	RequireAuthForWrites     *bool         `yaml:"requireAuthForWrites"`
	MaxUploadBytes           int64         `yaml:"maxUploadBytes"`
	CORSAllowedOrigins       []string      `yaml:"corsAllowedOrigins"`
	TrustedProxies           []string      `yaml:"trustedProxies"`
	SignupRateLimitPerMinute int           `yaml:"signupRateLimitPerMinute"`
	LoginRateLimitPerMinute  int           `yaml:"loginRateLimitPerMinute"`
	ShutdownTimeout          string        `yaml:"shutdownTimeout"`
	RedisAddr                string        `yaml:"redisAddr"`
	RedisPassword            string        `yaml:"redisPassword"`
	Store                    StoreConfig   `yaml:"store"`
	Storage                  StorageConfig `yaml:"storage"`
	Events                   EventsConfig  `yaml:"events"`
}

// StoreConfig selects the document store backend: memory, redis or postgres.
type StoreConfig struct {
	Driver      string `yaml:"driver"`
	DatabaseURL string `yaml:"databaseURL"`
	RedisPrefix string `yaml:"redisPrefix"`
}

// StorageConfig selects the object store backend: minio, s3 or local.
type StorageConfig struct {
	Driver        string `yaml:"driver"`
	Bucket        string `yaml:"bucket"`
	PublicBaseURL string `yaml:"publicBaseURL"`
	Endpoint      string `yaml:"endpoint"`
	AccessKey     string `yaml:"accessKey"`
	SecretKey     string `yaml:"secretKey"`
	UseSSL        bool   `yaml:"useSSL"`
	Region        string `yaml:"region"`
	LocalPath     string `yaml:"localPath"`
}

// EventsConfig selects where article events go: none, redis or amqp.
type EventsConfig struct {
	Driver   string `yaml:"driver"`
	Stream   string `yaml:"stream"`
	MaxLen   int64  `yaml:"maxLen"`
	AMQPURL  string `yaml:"amqpURL"`
	Exchange string `yaml:"exchange"`
}

// Load reads config from path (defaults to config.yaml), applies environment
// overrides and validates the result.
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *FileConfig) {
	setString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString(&cfg.Port, "PORT")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.JWTSecret, "JWT_SECRET")
	setString(&cfg.RedisAddr, "REDIS_ADDR")
	setString(&cfg.RedisPassword, "REDIS_PASSWORD")
	setString(&cfg.Store.Driver, "STORE_DRIVER")
	setString(&cfg.Store.DatabaseURL, "DATABASE_URL")
	setString(&cfg.Storage.Driver, "STORAGE_DRIVER")
	setString(&cfg.Storage.Bucket, "STORAGE_BUCKET")
	setString(&cfg.Storage.PublicBaseURL, "STORAGE_PUBLIC_BASE_URL")
	setString(&cfg.Storage.LocalPath, "STORAGE_LOCAL_PATH")
	setString(&cfg.Events.Driver, "EVENTS_DRIVER")
	setString(&cfg.Events.AMQPURL, "AMQP_URL")

	switch strings.ToLower(cfg.Storage.Driver) {
	case "minio":
		setString(&cfg.Storage.Endpoint, "MINIO_ENDPOINT")
		setString(&cfg.Storage.AccessKey, "MINIO_ACCESS_KEY")
		setString(&cfg.Storage.SecretKey, "MINIO_SECRET_KEY")
		if v := os.Getenv("MINIO_USE_SSL"); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				cfg.Storage.UseSSL = b
			}
		}
	case "s3":
		setString(&cfg.Storage.Endpoint, "S3_ENDPOINT")
		setString(&cfg.Storage.Region, "S3_REGION")
		setString(&cfg.Storage.AccessKey, "S3_ACCESS_KEY")
		setString(&cfg.Storage.SecretKey, "S3_SECRET_KEY")
	}

	if v := os.Getenv("REQUIRE_AUTH_FOR_WRITES"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.RequireAuthForWrites = &b
		}
	}
	if v := os.Getenv("AUTH_SIGNUP_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.SignupRateLimitPerMinute = n
		}
	}
	if v := os.Getenv("AUTH_LOGIN_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.LoginRateLimitPerMinute = n
		}
	}
}

func applyDefaults(cfg *FileConfig) {
	cfg.Store.Driver = strings.ToLower(strings.TrimSpace(cfg.Store.Driver))
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = "memory"
	}
	cfg.Storage.Driver = strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "local"
	}
	if cfg.Storage.Driver == "local" && cfg.Storage.LocalPath == "" {
		cfg.Storage.LocalPath = "data/objects"
	}
	cfg.Events.Driver = strings.ToLower(strings.TrimSpace(cfg.Events.Driver))
	if cfg.Events.Driver == "" {
		cfg.Events.Driver = "none"
	}
	if cfg.Events.Driver == "redis" && cfg.Events.Stream == "" {
		cfg.Events.Stream = "articlehub:events"
	}
	if cfg.MaxUploadBytes == 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}
	if cfg.RequireAuthForWrites == nil {
		on := true
		cfg.RequireAuthForWrites = &on
	}
}

func validateConfig(cfg FileConfig) error {
	if cfg.Port == "" {
		return errors.New("config: port is required (set in config.yaml)")
	}
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return errors.New("config: jwtSecret is required (set JWT_SECRET)")
	}
	if _, err := ParseDuration(cfg.JWTLeeway, "jwtLeeway"); err != nil {
		return err
	}
	if _, err := ParseDuration(cfg.ShutdownTimeout, "shutdownTimeout"); err != nil {
		return err
	}
	if cfg.MaxUploadBytes < 0 {
		return errors.New("config: maxUploadBytes must be >= 0")
	}
	if cfg.SignupRateLimitPerMinute < 0 || cfg.LoginRateLimitPerMinute < 0 {
		return errors.New("config: rate limits must be >= 0")
	}

	switch cfg.Store.Driver {
	case "memory":
	case "redis":
		if strings.TrimSpace(cfg.RedisAddr) == "" {
			return errors.New("config: redisAddr is required for the redis store")
		}
	case "postgres":
		if cfg.Store.DatabaseURL == "" {
			return errors.New("config: store.databaseURL is required for the postgres store")
		}
	default:
		return fmt.Errorf("config: unknown store.driver %q", cfg.Store.Driver)
	}

	switch cfg.Storage.Driver {
	case "local":
	case "minio":
		if cfg.Storage.Endpoint == "" || cfg.Storage.AccessKey == "" || cfg.Storage.SecretKey == "" {
			return errors.New("config: storage endpoint, accessKey and secretKey are required for minio")
		}
	case "s3":
		if cfg.Storage.Region == "" {
			return errors.New("config: storage.region is required for s3")
		}
	default:
		return fmt.Errorf("config: unknown storage.driver %q", cfg.Storage.Driver)
	}
	if strings.TrimSpace(cfg.Storage.Bucket) == "" {
		return errors.New("config: storage.bucket is required")
	}

	switch cfg.Events.Driver {
	case "none":
	case "redis":
		if strings.TrimSpace(cfg.RedisAddr) == "" {
			return errors.New("config: redisAddr is required for redis events")
		}
	case "amqp":
		if cfg.Events.AMQPURL == "" {
			return errors.New("config: events.amqpURL is required for amqp events (set AMQP_URL)")
		}
	default:
		return fmt.Errorf("config: unknown events.driver %q", cfg.Events.Driver)
	}
	return nil
}

// ParseDuration parses an optional duration setting; empty yields zero.
func ParseDuration(raw, name string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", name, err)
	}
	return d, nil
}
