package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds application configuration
type Config struct {
	ServerPort     string
	DatabaseType   string
	DatabasePath   string
	DatabaseURL    string
	MigrationsPath string

	LogLevel  string
	LogFormat string

	SessionIdleTimeout time.Duration
	AdminPasswordHash  string
	TokenSecret        string
	TokenTTL           time.Duration
	CSRFSecret         string
	RateLimitRPS       int
	RateLimitBurst     int

	PublishTimeout time.Duration
	Sheets         SheetsConfig
	Email          EmailConfig
	AMQP           AMQPConfig
	S3             S3Config
	ResultsDir     string

	WordProvider WordProviderConfig
	Redis        RedisConfig
}

// SheetsConfig points at the spreadsheet-backed ingestion endpoint
type SheetsConfig struct {
	Endpoint string
}

// EmailConfig configures the SES email relay collector
type EmailConfig struct {
	Region    string
	FromEmail string
	FromName  string
	To        string
	Debug     bool
}

// AMQPConfig configures the queue collector
type AMQPConfig struct {
	URL   string
	Queue string
}

// S3Config configures the object storage collector
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// WordProviderConfig configures a remote word provider
type WordProviderConfig struct {
	URL          string
	ClientID     string
	ClientSecret string
	TokenURL     string
	CacheTTL     time.Duration
}

// RedisConfig configures the word cache
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is loaded first when present.
func Load() *Config {
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("Loaded environment from .env")
	}

	return &Config{
		ServerPort:     getEnv("PORT", "8080"),
		DatabaseType:   getEnv("DB_TYPE", "sqlite"),
		DatabasePath:   getEnv("DB_PATH", "./hangman.db"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "./migrations"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		SessionIdleTimeout: getEnvDuration("SESSION_IDLE_TIMEOUT", 2*time.Hour),
		AdminPasswordHash:  getEnv("ADMIN_PASSWORD_HASH", ""),
		TokenSecret:        getEnv("TOKEN_SECRET", ""),
		TokenTTL:           getEnvDuration("TOKEN_TTL", 4*time.Hour),
		CSRFSecret:         getEnv("CSRF_SECRET", ""),
		RateLimitRPS:       getEnvInt("RATE_LIMIT_RPS", 10),
		RateLimitBurst:     getEnvInt("RATE_LIMIT_BURST", 20),

		PublishTimeout: getEnvDuration("PUBLISH_TIMEOUT", 10*time.Second),
		Sheets: SheetsConfig{
			Endpoint: getEnv("SHEETS_ENDPOINT", ""),
		},
		Email: EmailConfig{
			Region:    getEnv("SES_REGION", "us-east-1"),
			FromEmail: getEnv("SES_FROM_EMAIL", ""),
			FromName:  getEnv("SES_FROM_NAME", "Hangman Trainer"),
			To:        getEnv("RESULTS_EMAIL_TO", ""),
			Debug:     getEnvBool("EMAIL_DEBUG", false),
		},
		AMQP: AMQPConfig{
			URL:   getEnv("AMQP_URL", ""),
			Queue: getEnv("AMQP_QUEUE", "hangman.results"),
		},
		S3: S3Config{
			Endpoint:  getEnv("S3_ENDPOINT", ""),
			AccessKey: getEnv("S3_ACCESS_KEY", ""),
			SecretKey: getEnv("S3_SECRET_KEY", ""),
			Bucket:    getEnv("S3_BUCKET", "hangman-results"),
			UseSSL:    getEnvBool("S3_USE_SSL", false),
		},
		ResultsDir: getEnv("RESULTS_DIR", ""),

		WordProvider: WordProviderConfig{
			URL:          getEnv("WORD_PROVIDER_URL", ""),
			ClientID:     getEnv("WORD_PROVIDER_CLIENT_ID", ""),
			ClientSecret: getEnv("WORD_PROVIDER_CLIENT_SECRET", ""),
			TokenURL:     getEnv("WORD_PROVIDER_TOKEN_URL", ""),
			CacheTTL:     getEnvDuration("WORD_CACHE_TTL", 15*time.Minute),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		log.Warn().Str("key", key).Str("value", value).Msg("Invalid int, using default")
		return defaultValue
	}
	return i
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		log.Warn().Str("key", key).Str("value", value).Msg("Invalid bool, using default")
		return defaultValue
	}
	return b
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Warn().Str("key", key).Str("value", value).Msg("Invalid duration, using default")
		return defaultValue
	}
	return d
}
