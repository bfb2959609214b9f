package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort      string `mapstructure:"APP_PORT"`
	Env          string `mapstructure:"ENV"`
	LogLevel     string `mapstructure:"LOG_LEVEL"`
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`
	JWTSecret    string `mapstructure:"JWT_SECRET"`
	AdminAPIKey  string `mapstructure:"ADMIN_API_KEY"`

	// Redis configuration.
	RedisAddr      string `mapstructure:"REDIS_ADDR"`
	RedisPassword  string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB   int    `mapstructure:"REDIS_CACHE_DB"`
	RedisSessionDB int    `mapstructure:"REDIS_SESSION_DB"`
	RedisQueueDB   int    `mapstructure:"REDIS_QUEUE_DB"`

	// Gateway knobs.
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`
	PilotPropertyID   string `mapstructure:"PILOT_PROPERTY_ID"`

	// Negotiation knobs.
	MaxNegotiationRounds int     `mapstructure:"MAX_NEGOTIATION_ROUNDS"`
	SessionTTLMinutes    int     `mapstructure:"SESSION_TTL_MINUTES"`
	MinReputation        float64 `mapstructure:"MIN_REPUTATION"`

	// Inventory cache and circuit breaker knobs.
	InventoryTTLSeconds     int `mapstructure:"INVENTORY_TTL_SECONDS"`
	BreakerFailureThreshold int `mapstructure:"BREAKER_FAILURE_THRESHOLD"`
	BreakerCooldownSeconds  int `mapstructure:"BREAKER_COOLDOWN_SECONDS"`

	// Domain adapter knobs.
	AdapterBaseURL        string `mapstructure:"ADAPTER_BASE_URL"`
	AdapterTimeoutSeconds int    `mapstructure:"ADAPTER_TIMEOUT_SECONDS"`
	RetryMaxAttempts      int    `mapstructure:"RETRY_MAX_ATTEMPTS"`
	RetryBackoffMillis    int    `mapstructure:"RETRY_BACKOFF_MILLIS"`

	// RabbitMQ audit fan-out (optional; disabled when URL is empty).
	RabbitURL      string `mapstructure:"RABBIT_URL"`
	RabbitExchange string `mapstructure:"RABBIT_EXCHANGE"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "stayloom")
	viper.SetDefault("JWT_SECRET", "stayloom-dev-secret")
	viper.SetDefault("ADMIN_API_KEY", "")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_SESSION_DB", 1)
	viper.SetDefault("REDIS_QUEUE_DB", 2)
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 60)
	viper.SetDefault("PILOT_PROPERTY_ID", "")
	viper.SetDefault("MAX_NEGOTIATION_ROUNDS", 5)
	viper.SetDefault("SESSION_TTL_MINUTES", 15)
	viper.SetDefault("MIN_REPUTATION", 0.2)
	viper.SetDefault("INVENTORY_TTL_SECONDS", 120)
	viper.SetDefault("BREAKER_FAILURE_THRESHOLD", 3)
	viper.SetDefault("BREAKER_COOLDOWN_SECONDS", 60)
	viper.SetDefault("ADAPTER_BASE_URL", "http://localhost:9090")
	viper.SetDefault("ADAPTER_TIMEOUT_SECONDS", 5)
	viper.SetDefault("RETRY_MAX_ATTEMPTS", 3)
	viper.SetDefault("RETRY_BACKOFF_MILLIS", 200)
	viper.SetDefault("RABBIT_URL", "")
	viper.SetDefault("RABBIT_EXCHANGE", "acp.audit")

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// SessionTTL returns the negotiation inactivity window as a duration.
func SessionTTL() time.Duration {
	return time.Duration(AppConfig.SessionTTLMinutes) * time.Minute
}

// InventoryTTL returns the availability cache freshness window.
func InventoryTTL() time.Duration {
	return time.Duration(AppConfig.InventoryTTLSeconds) * time.Second
}

// AdapterTimeout returns the per-call domain adapter timeout.
func AdapterTimeout() time.Duration {
	return time.Duration(AppConfig.AdapterTimeoutSeconds) * time.Second
}
