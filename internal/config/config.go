package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Storage driver names
const (
	StorageDriverMongo  = "mongo"
	StorageDriverMemory = "memory"
)

// Config holds all application configuration
type Config struct {
	// Storage Configuration
	StorageDriver string
	MongoURI      string
	MongoDatabase string
	MongoTimeout  time.Duration

	// HTTP Server Configuration
	HTTPPort         string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration

	// Logging Configuration
	LogLevel  string
	LogFormat string

	// Catalog Configuration
	CatalogPath string

	// Claim Configuration
	ClaimMinMinutes  int
	ClaimMaxMinutes  int
	ClaimStepMinutes int

	// Notification Configuration
	AlertLeadMinutes     int
	NotifyWebhookURL     string
	NotifyWebhookTimeout time.Duration
	NotifyWorkers        int
	NotifyQueueSize      int

	// Sweep Configuration
	SweepEnabled  bool
	SweepSchedule string

	// CORS Configuration
	CORSAllowedOrigins   string
	CORSAllowedMethods   string
	CORSAllowedHeaders   string
	CORSAllowCredentials bool
	CORSMaxAge           int
}

// Load reads configuration from environment variables with sensible defaults
func Load() *Config {
	return &Config{
		// Storage
		StorageDriver: getEnv("STORAGE_DRIVER", StorageDriverMongo),
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017/laundromat?authSource=admin"),
		MongoDatabase: getEnv("MONGO_DATABASE", "laundromat"),
		MongoTimeout:  getDurationEnv("MONGO_TIMEOUT_SEC", 10) * time.Second,

		// HTTP Server
		HTTPPort:         getEnv("HTTP_PORT", "8080"),
		HTTPReadTimeout:  getDurationEnv("HTTP_READ_TIMEOUT_SEC", 30) * time.Second,
		HTTPWriteTimeout: getDurationEnv("HTTP_WRITE_TIMEOUT_SEC", 30) * time.Second,

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		// Catalog: built-in reference catalog when unset
		CatalogPath: getEnv("CATALOG_PATH", ""),

		// Claims
		ClaimMinMinutes:  getIntEnv("CLAIM_MIN_MINUTES", 5),
		ClaimMaxMinutes:  getIntEnv("CLAIM_MAX_MINUTES", 90),
		ClaimStepMinutes: getIntEnv("CLAIM_STEP_MINUTES", 5),

		// Notifications
		AlertLeadMinutes:     getIntEnv("ALERT_LEAD_MINUTES", 10),
		NotifyWebhookURL:     getEnv("NOTIFY_WEBHOOK_URL", ""),
		NotifyWebhookTimeout: getDurationEnv("NOTIFY_WEBHOOK_TIMEOUT_SEC", 10) * time.Second,
		NotifyWorkers:        getIntEnv("NOTIFY_WORKERS", 2),
		NotifyQueueSize:      getIntEnv("NOTIFY_QUEUE_SIZE", 64),

		// Sweep
		SweepEnabled:  getBoolEnv("SWEEP_ENABLED", true),
		SweepSchedule: getEnv("SWEEP_SCHEDULE", "* * * * *"),

		// CORS
		CORSAllowedOrigins:   getEnv("CORS_ALLOWED_ORIGINS", "*"),
		CORSAllowedMethods:   getEnv("CORS_ALLOWED_METHODS", "GET, POST, DELETE, OPTIONS"),
		CORSAllowedHeaders:   getEnv("CORS_ALLOWED_HEADERS", "*"),
		CORSAllowCredentials: getBoolEnv("CORS_ALLOW_CREDENTIALS", true),
		CORSMaxAge:           getIntEnv("CORS_MAX_AGE", 3600),
	}
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		log.Printf("Warning: Invalid integer value for %s, using default %d", key, defaultValue)
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue int) time.Duration {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return time.Duration(intVal)
		}
		log.Printf("Warning: Invalid duration value for %s, using default %d", key, defaultValue)
	}
	return time.Duration(defaultValue)
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
		log.Printf("Warning: Invalid boolean value for %s, using default %t", key, defaultValue)
	}
	return defaultValue
}
