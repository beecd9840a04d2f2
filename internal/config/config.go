package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const (
	DefaultPort                = "8080"
	DefaultMapLinkBaseURL      = "https://www.google.com/maps?q="
	DefaultMessageTemplate     = "EMERGENCY ALERT: Your contact needs immediate assistance! Their current location: {{.MapLink}}"
	DefaultDispatchConcurrency = 8
	DefaultHistoryBackend      = "postgres"
	DefaultRedisURL            = "redis://127.0.0.1:6379"
	DefaultHistoryRedisMax     = 100
	DefaultKafkaAlertTopic     = "sos-alerts"
	DefaultLogLevel            = "info"
)

// Config is the service configuration, read from the environment once at start.
type Config struct {
	Port        string
	DatabaseURL string
	LogLevel    string

	Gateway  GatewayConfig
	Message  MessageConfig
	Dispatch DispatchConfig
	History  HistoryConfig
	Kafka    KafkaConfig
}

// Credentials and sender identity for the SMS gateway.
type GatewayConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
	// Empty selects the gateway's public API root.
	BaseURL string
}

type MessageConfig struct {
	Template       string
	MapLinkBaseURL string
}

type DispatchConfig struct {
	Concurrency int
}

type HistoryConfig struct {
	Backend  string
	RedisURL string
	RedisMax int
}

// Alert events are only published when Brokers is non-empty.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Get returns the trimmed value of key, or fallback when unset or blank.
func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// GetInt returns key parsed as an int, or fallback when unset or unparsable.
func GetInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// Load reads an optional .env file and builds a Config from the environment.
// Missing gateway credentials are not reported here; the gateway and dispatcher
// constructors reject them.
func Load(envFiles ...string) (Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load(envFiles...)

	cfg := Config{
		Port:        Get("PORT", DefaultPort),
		DatabaseURL: Get("DATABASE_URL", ""),
		LogLevel:    Get("LOG_LEVEL", DefaultLogLevel),
		Gateway: GatewayConfig{
			AccountSID: Get("TWILIO_ACCOUNT_SID", ""),
			AuthToken:  Get("TWILIO_AUTH_TOKEN", ""),
			FromNumber: Get("TWILIO_PHONE_NUMBER", ""),
			BaseURL:    Get("TWILIO_BASE_URL", ""),
		},
		Message: MessageConfig{
			Template:       Get("ALERT_MESSAGE_TEMPLATE", DefaultMessageTemplate),
			MapLinkBaseURL: Get("MAP_LINK_BASE_URL", DefaultMapLinkBaseURL),
		},
		Dispatch: DispatchConfig{
			Concurrency: GetInt("DISPATCH_CONCURRENCY", DefaultDispatchConcurrency),
		},
		History: HistoryConfig{
			Backend:  strings.ToLower(Get("HISTORY_BACKEND", DefaultHistoryBackend)),
			RedisURL: Get("REDIS_URL", DefaultRedisURL),
			RedisMax: GetInt("HISTORY_REDIS_MAX", DefaultHistoryRedisMax),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(Get("KAFKA_BROKERS", "")),
			Topic:   Get("KAFKA_ALERT_TOPIC", DefaultKafkaAlertTopic),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks settings that do not belong to the gateway.
func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("must specify DATABASE_URL")
	}
	if p, err := strconv.Atoi(c.Port); err != nil || p <= 0 || p > 65535 {
		return errors.Errorf("invalid PORT %q", c.Port)
	}
	if c.Dispatch.Concurrency < 1 {
		return errors.Errorf("DISPATCH_CONCURRENCY must be >= 1 (got %d)", c.Dispatch.Concurrency)
	}
	switch c.History.Backend {
	case "postgres":
	case "redis":
		if c.History.RedisURL == "" {
			return errors.New("must specify REDIS_URL for the redis history backend")
		}
		if c.History.RedisMax < 1 {
			return errors.Errorf("HISTORY_REDIS_MAX must be >= 1 (got %d)", c.History.RedisMax)
		}
	default:
		return errors.Errorf("HISTORY_BACKEND must be postgres or redis (got %q)", c.History.Backend)
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		return errors.New("must specify KAFKA_ALERT_TOPIC when KAFKA_BROKERS is set")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return errors.Errorf("LOG_LEVEL must be one of debug, info, warn, error (got %q)", c.LogLevel)
	}
	return nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
