package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreFirestore = "firestore"
	StoreMemory    = "memory"
)

type Config struct {
	ServerPort  string
	Environment string

	FirebaseProject        string
	ServiceAccountJSON     string
	ServiceAccountPath     string
	StorageBucket          string
	StoreBackend           string
	TransactionMaxAttempts int

	LogFormat string
	LogLevel  string

	MaxInterests        int
	MaxQueryInterests   int
	CandidateFetchLimit int
	AutoMatchAttempts   int
	MessagePageSize     int

	QueueWriteInterval    time.Duration
	QueueAutoReleaseAfter time.Duration
	QueueReleaseSweep     time.Duration

	OTLPEndpoint string
}

func Load() (*Config, error) {
	godotenv.Load()

	config := &Config{
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),

		FirebaseProject:        getEnv("FIREBASE_PROJECT_ID", ""),
		ServiceAccountJSON:     getEnv("FIREBASE_SERVICE_ACCOUNT_JSON", ""),
		ServiceAccountPath:     getEnv("FIREBASE_SERVICE_ACCOUNT_PATH", ""),
		StorageBucket:          getEnv("STORAGE_BUCKET", ""),
		StoreBackend:           getEnv("STORE_BACKEND", StoreFirestore),
		TransactionMaxAttempts: getEnvAsInt("TX_MAX_ATTEMPTS", 5),

		LogFormat: getEnv("LOG_FORMAT", "text"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),

		MaxInterests:        getEnvAsInt("MAX_INTERESTS", 30),
		MaxQueryInterests:   getEnvAsInt("MAX_QUERY_INTERESTS", 10), // array-contains-any cap
		CandidateFetchLimit: getEnvAsInt("CANDIDATE_FETCH_LIMIT", 40),
		AutoMatchAttempts:   getEnvAsInt("AUTO_MATCH_ATTEMPTS", 3),
		MessagePageSize:     getEnvAsInt("MESSAGE_PAGE_SIZE", 50),

		QueueWriteInterval:    getEnvAsDuration("QUEUE_WRITE_INTERVAL", 5*time.Second),
		QueueAutoReleaseAfter: getEnvAsDuration("QUEUE_AUTO_RELEASE_AFTER", 0),
		QueueReleaseSweep:     getEnvAsDuration("QUEUE_RELEASE_SWEEP", time.Minute),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	return config, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.Atoi(value)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return defaultValue
}
