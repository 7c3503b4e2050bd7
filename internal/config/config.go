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

const minJWTSecretLength = 32

var ErrJWTSecretRequired = errors.New("JWT_SECRET is required")

type Config struct {
	HTTPAddr    string
	ServiceName string

	// Empty DatabaseURL selects the in-memory event and read stores.
	DatabaseURL string

	// Empty KafkaBrokers selects synchronous in-process projection.
	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroup   string

	// Empty RedisAddr disables checkout idempotency and token revocation.
	RedisAddr string

	JWTSecret  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	SMTPHost   string
	SMTPPort   string
	SMTPFrom   string
	StoreEmail string

	LogLevel  string
	LogFormat string
	Currency  string

	// ReplayOnStart rebuilds read models from the event store at boot.
	ReplayOnStart bool
}

// Load reads .env (when present) and the process environment.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		HTTPAddr:      getenv("HTTP_ADDR", ":8080"),
		ServiceName:   getenv("SERVICE_NAME", "retail-pos-api"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		KafkaBrokers:  splitCSV(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:    getenv("KAFKA_TOPIC", "retail-events"),
		KafkaGroup:    getenv("KAFKA_GROUP", "retail-projector"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		AccessTTL:     getDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTTL:    getDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		SMTPHost:      getenv("SMTP_HOST", "localhost"),
		SMTPPort:      getenv("SMTP_PORT", "1025"),
		SMTPFrom:      getenv("SMTP_FROM", "noreply@retail-pos.local"),
		StoreEmail:    os.Getenv("STORE_EMAIL"),
		LogLevel:      getenv("LOG_LEVEL", "info"),
		LogFormat:     getenv("LOG_FORMAT", "text"),
		Currency:      getenv("CURRENCY", "BRL"),
		ReplayOnStart: getBool("REPLAY_ON_START", true),
	}
}

// Validate checks the settings the API cannot run without.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return ErrJWTSecretRequired
	}
	if len(c.JWTSecret) < minJWTSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters long", minJWTSecretLength)
	}
	if c.AccessTTL <= 0 || c.RefreshTTL <= 0 {
		return errors.New("token TTLs must be positive")
	}
	return nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func getBool(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
