package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port      int
	LogLevel  string
	Env       string
	DB        DBConfig
	Kafka     KafkaConfig
	Redis     RedisConfig
	Sources   SourcesConfig
	Processor ProcessorConfig
	RateLimit RateLimitConfig
}

// DBConfig holds the database configuration
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// KafkaConfig holds the Kafka broker and topic configuration
type KafkaConfig struct {
	Brokers       []string
	EventsTopic   string
	ConsumerGroup string
}

// RedisConfig holds the analytics cache configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	CacheTTL time.Duration
}

// SourcesConfig holds the base URLs of the two upstream order platforms
type SourcesConfig struct {
	SourceAURL string
	SourceBURL string
}

// ProcessorConfig holds the task processor settings
type ProcessorConfig struct {
	PollingInterval time.Duration
	BatchSize       int
	MaxAttempts     int
}

// RateLimitConfig holds the per-IP rate limiting settings
type RateLimitConfig struct {
	IPMaxTokens       float64
	IPRefillRate      float64
	TrustForwardedFor bool
}

// getEnv retrieves the value of an environment variable or returns a default value if not set.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}

	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := getEnv(key, strconv.Itoa(defaultValue))
	value, err := strconv.Atoi(raw)

	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	return value, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := getEnv(key, defaultValue.String())
	value, err := time.ParseDuration(raw)

	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	return value, nil
}

// Load reads the configuration from environment variables and returns a Config struct.
// A .env file in the working directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := getEnvInt("PORT", 8080)

	if err != nil {
		return nil, err
	}

	dbPort, err := getEnvInt("DB_PORT", 5432)

	if err != nil {
		return nil, err
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)

	if err != nil {
		return nil, err
	}

	cacheTTL, err := getEnvDuration("CACHE_TTL", 5*time.Minute)

	if err != nil {
		return nil, err
	}

	pollInterval, err := getEnvDuration("TASK_POLL_INTERVAL", 5*time.Second)

	if err != nil {
		return nil, err
	}

	batchSize, err := getEnvInt("TASK_BATCH_SIZE", 5)

	if err != nil {
		return nil, err
	}

	maxAttempts, err := getEnvInt("TASK_MAX_ATTEMPTS", 3)

	if err != nil {
		return nil, err
	}

	return &Config{
		Port:     port,
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Env:      getEnv("APP_ENV", "development"),
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Name:     getEnv("DB_NAME", "orderanalytics"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Kafka: KafkaConfig{
			Brokers:       strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
			EventsTopic:   getEnv("KAFKA_EVENTS_TOPIC", "task-events"),
			ConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "order-analytics"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
			CacheTTL: cacheTTL,
		},
		Sources: SourcesConfig{
			SourceAURL: getEnv("SOURCE_A_URL", "http://localhost:9001"),
			SourceBURL: getEnv("SOURCE_B_URL", "http://localhost:9002"),
		},
		Processor: ProcessorConfig{
			PollingInterval: pollInterval,
			BatchSize:       batchSize,
			MaxAttempts:     maxAttempts,
		},
		RateLimit: RateLimitConfig{
			IPMaxTokens:       getEnvFloat("RATE_LIMIT_BURST", 20),
			IPRefillRate:      getEnvFloat("RATE_LIMIT_RATE", 10),
			TrustForwardedFor: getEnv("RATE_LIMIT_TRUST_FORWARDED", "false") == "true",
		},
	}, nil
}

func getEnvFloat(key string, defaultValue float64) float64 {
	raw := getEnv(key, "")

	if raw == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(raw, 64)

	if err != nil {
		return defaultValue
	}

	return value
}

// GetDBConnString returns the database connection string
func (c *Config) GetDBConnString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Name, c.DB.SSLMode)
}
