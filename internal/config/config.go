package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration values.
type Config struct {
	// HTTP server
	HTTPAddr string

	// Redis
	RedisMode          string // "standalone" (default), "sentinel", "cluster"
	RedisAddr          string // standalone: host:port
	RedisPassword      string
	RedisDB            int
	RedisMasterName    string   // sentinel: master name
	RedisSentinelAddrs []string // sentinel: sentinel node addresses
	RedisClusterAddrs  []string // cluster: cluster node addresses

	// Kafka
	KafkaBrokers      []string
	NotificationTopic string

	// Publisher webhooks
	WebhookSecret  string // signs webhook bodies; empty disables signing
	WebhookTimeout time.Duration

	// Mail API used by bulk email jobs
	MailAPIURL string
	MailAPIKey string
	MailFrom   string

	// S3-compatible object storage used by uploads
	ObjectStoreURL             string // endpoint, e.g. https://<account>.r2.cloudflarestorage.com
	ObjectStoreBucket          string
	ObjectStoreRegion          string
	ObjectStoreAccessKeyID     string
	ObjectStoreSecretAccessKey string
	ObjectStorePublicURL       string

	// Job queue
	QueueMaxAttempts    int
	QueueRetryBaseDelay time.Duration
	QueueRetryMaxDelay  time.Duration
	QueueDispatchPause  time.Duration

	// Upload coordinator
	UploadMaxConcurrent int
	UploadTimeout       time.Duration

	// Worker
	StatsInterval time.Duration

	// HTTP rate limiting
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Application
	Environment string
	LogLevel    string
}

// New creates a Config populated from environment variables with sensible defaults.
func New() *Config {
	cfg := &Config{
		HTTPAddr:             getEnv("HTTP_ADDR", ":8080"),
		RedisMode:            getEnv("REDIS_MODE", "standalone"),
		RedisAddr:            getEnv("REDIS_HOST", "localhost") + ":" + getEnv("REDIS_PORT", "6379"),
		RedisPassword:        getEnv("REDIS_PASSWORD", ""),
		RedisDB:              getEnvInt("REDIS_DB", 0),
		KafkaBrokers:         splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
		NotificationTopic:    getEnv("NOTIFICATION_TOPIC", "publisher-notifications"),
		WebhookSecret:        getEnv("WEBHOOK_SECRET", ""),
		WebhookTimeout:       getEnvDuration("WEBHOOK_TIMEOUT", 10*time.Second),
		MailAPIURL:           getEnv("MAIL_API_URL", ""),
		MailAPIKey:           getEnv("MAIL_API_KEY", ""),
		MailFrom:             getEnv("MAIL_FROM", "no-reply@localhost"),
		ObjectStoreURL:       strings.TrimRight(getEnv("OBJECT_STORE_URL", ""), "/"),
		ObjectStoreBucket:    getEnv("OBJECT_STORE_BUCKET", ""),
		ObjectStoreRegion:    getEnv("OBJECT_STORE_REGION", "auto"),
		ObjectStorePublicURL: strings.TrimRight(getEnv("OBJECT_STORE_PUBLIC_URL", ""), "/"),
		QueueMaxAttempts:     getEnvInt("QUEUE_MAX_ATTEMPTS", 3),
		QueueRetryBaseDelay:  getEnvDuration("QUEUE_RETRY_BASE_DELAY", 1*time.Second),
		QueueRetryMaxDelay:   getEnvDuration("QUEUE_RETRY_MAX_DELAY", 1*time.Minute),
		QueueDispatchPause:   getEnvDuration("QUEUE_DISPATCH_PAUSE", 100*time.Millisecond),
		UploadMaxConcurrent:  getEnvInt("UPLOAD_MAX_CONCURRENT", 3),
		UploadTimeout:        getEnvDuration("UPLOAD_TIMEOUT", 2*time.Minute),
		StatsInterval:        getEnvDuration("STATS_INTERVAL", 30*time.Second),
		RateLimitRequests:    getEnvInt("RATE_LIMIT_REQUESTS", 10),
		RateLimitWindow:      getEnvDuration("RATE_LIMIT_WINDOW", 1*time.Minute),
		Environment:          getEnv("ENVIRONMENT", "local"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
	}

	cfg.ObjectStoreAccessKeyID = getEnv("OBJECT_STORE_ACCESS_KEY_ID", "")
	cfg.ObjectStoreSecretAccessKey = getEnv("OBJECT_STORE_SECRET_ACCESS_KEY", "")

	if v := getEnv("REDIS_MASTER_NAME", ""); v != "" {
		cfg.RedisMasterName = v
	}
	if v := getEnv("REDIS_SENTINEL_ADDRS", ""); v != "" {
		cfg.RedisSentinelAddrs = splitList(v)
	}
	if v := getEnv("REDIS_CLUSTER_ADDRS", ""); v != "" {
		cfg.RedisClusterAddrs = splitList(v)
	}

	return cfg
}

// LoadEnvFile loads variables from the given .env files (".env" when none
// are given) without overriding variables already set in the environment.
// Missing files are ignored.
func LoadEnvFile(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading env file %q: %w", path, err)
		}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fallback
	}
	return n
}

// getEnvDuration accepts Go duration strings ("250ms", "2s") or a bare
// integer interpreted as milliseconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	v = strings.TrimSpace(v)
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return fallback
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
