package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds push service configuration loaded from the environment.
type Config struct {
	AppName  string
	LogLevel string
	HTTPPort string

	RabbitURL       string
	PushQueue       string
	DeadLetterQueue string
	PrefetchCount   int
	WorkerCount     int
	MaxDeliveries   int

	DatabaseURL string
	TokenTable  string

	RedisURL       string
	SuppressionTTL time.Duration

	FCMServerKey string
	FCMEndpoint  string

	BreakerThreshold int
	BreakerOpenFor   time.Duration

	LoadTimeout     time.Duration
	SendTimeout     time.Duration
	CallSendTimeout time.Duration

	MessageRetryAttempts int
	MessageRetryBase     time.Duration
	CallRetryAttempts    int
	CallRetryBase        time.Duration
}

// Load loads configuration and performs basic validation.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AppName:  getEnv("APP_NAME", "push_service"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		HTTPPort: getEnv("HTTP_PORT", "8082"),

		RabbitURL:       getEnv("RABBITMQ_URL", ""),
		PushQueue:       getEnv("PUSH_QUEUE", "push.queue"),
		DeadLetterQueue: getEnv("PUSH_DLQ", "push.failed"),
		PrefetchCount:   getEnvAsInt("PUSH_PREFETCH", 100),
		WorkerCount:     getEnvAsInt("WORKER_COUNT", 5),
		MaxDeliveries:   getEnvAsInt("MAX_DELIVERIES", 5),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		TokenTable:  getEnv("TOKEN_TABLE", "push_tokens"),

		RedisURL:       getEnv("REDIS_URL", ""),
		SuppressionTTL: getEnvAsDuration("SUPPRESSION_TTL", 24*time.Hour),

		FCMServerKey: getEnv("FCM_SERVER_KEY", ""),
		FCMEndpoint:  getEnv("FCM_ENDPOINT", "https://fcm.googleapis.com/v1/projects/flirty/messages:send"),

		BreakerThreshold: getEnvAsInt("BREAKER_THRESHOLD", 5),
		BreakerOpenFor:   getEnvAsDuration("BREAKER_OPEN_FOR", 60*time.Second),

		LoadTimeout:     getEnvAsDuration("TOKEN_LOAD_TIMEOUT", 5*time.Second),
		SendTimeout:     getEnvAsDuration("SEND_TIMEOUT", 10*time.Second),
		CallSendTimeout: getEnvAsDuration("CALL_SEND_TIMEOUT", 12*time.Second),

		MessageRetryAttempts: getEnvAsInt("MESSAGE_RETRY_ATTEMPTS", 3),
		MessageRetryBase:     getEnvAsDuration("MESSAGE_RETRY_BASE", 100*time.Millisecond),
		CallRetryAttempts:    getEnvAsInt("CALL_RETRY_ATTEMPTS", 2),
		CallRetryBase:        getEnvAsDuration("CALL_RETRY_BASE", 50*time.Millisecond),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var missing []string
	if c.RabbitURL == "" {
		missing = append(missing, "RABBITMQ_URL")
	}
	if c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.FCMServerKey == "" {
		missing = append(missing, "FCM_SERVER_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %v", missing)
	}
	return nil
}

func getEnv(key, def string) string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	return value
}

func getEnvAsInt(key string, def int) int {
	if value, ok := os.LookupEnv(key); ok {
		i, err := strconv.Atoi(value)
		if err != nil {
			log.Printf("invalid int for %s, using default %d: %v", key, def, err)
			return def
		}
		return i
	}
	return def
}

func getEnvAsDuration(key string, def time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		d, err := time.ParseDuration(value)
		if err != nil {
			log.Printf("invalid duration for %s, using default %s: %v", key, def, err)
			return def
		}
		return d
	}
	return def
}
