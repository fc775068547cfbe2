package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	PostgresURI          string
	RedisURI             string
	Environment          string
	WebhookSecret        string
	CronSecret           string
	SecretKey            string
	ProviderBaseURL      string
	ProviderAPIKey       string
	MaxExecutionAttempts int
	RetryBaseDelay       time.Duration
	RetryMaxDelay        time.Duration
	JitterMin            time.Duration
	JitterMax            time.Duration
	InvitationBatchSize  int
	ExecutionTimeout     time.Duration
}

func LoadConfig() *Config {
	return &Config{
		PostgresURI:          getEnv("POSTGRES_URI", ""),
		RedisURI:             getEnv("REDIS_URI", ""),
		Environment:          getEnv("ENVIRONMENT", "development"),
		WebhookSecret:        getEnv("WEBHOOK_SECRET", ""),
		CronSecret:           getEnv("CRON_SECRET", ""),
		SecretKey:            getEnv("SECRET_KEY", ""),
		ProviderBaseURL:      getEnv("PROVIDER_BASE_URL", "https://api.unipost.dev"),
		ProviderAPIKey:       getEnv("PROVIDER_API_KEY", ""),
		MaxExecutionAttempts: getEnvInt("MAX_EXECUTION_ATTEMPTS", 5),
		RetryBaseDelay:       getEnvDuration("RETRY_BASE_DELAY", 1*time.Minute),
		RetryMaxDelay:        getEnvDuration("RETRY_MAX_DELAY", 30*time.Minute),
		JitterMin:            getEnvDuration("JITTER_MIN", 2*time.Minute),
		JitterMax:            getEnvDuration("JITTER_MAX", 15*time.Minute),
		InvitationBatchSize:  getEnvInt("INVITATION_BATCH_SIZE", 50),
		ExecutionTimeout:     getEnvDuration("EXECUTION_TIMEOUT", 30*time.Second),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
