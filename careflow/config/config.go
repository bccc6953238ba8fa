package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string
	JWTSecret  string

	// Intent classification
	IntentModelURL   string
	IntentModel      string
	IntentThreshold  float64
	IntentTimeout    time.Duration
	IntentConfigPath string

	// Conversational engines
	PrimaryEngineURL   string
	SecondaryEngineURL string
	EngineModel        string
	EngineTimeout      time.Duration

	// Notification dispatcher
	DispatchInterval time.Duration
	DispatchWorkers  int
	DeliveryTimeout  time.Duration
	RetryBackoff     time.Duration
	ProviderBaseURL  string
	TemplatePath     string

	// MinIO (transcript archive)
	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
}

func LoadConfig() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	return Config{
		DBUser:     getEnv("DB_USER", ""),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBHost:     getEnv("DB_HOST", ""),
		DBPort:     getEnv("DB_PORT", ""),
		DBName:     getEnv("DB_NAME", ""),
		JWTSecret:  getEnv("JWT_SECRET", ""),

		IntentModelURL:   getEnv("INTENT_MODEL_URL", "http://localhost:11434/api"),
		IntentModel:      getEnv("INTENT_MODEL", "llama3:8b"),
		IntentThreshold:  getEnvFloat("INTENT_THRESHOLD", 0.6),
		IntentTimeout:    getEnvDuration("INTENT_TIMEOUT", 10*time.Second),
		IntentConfigPath: getEnv("INTENT_CONFIG_PATH", "careflow/services/intent/configs/intent.properties"),

		PrimaryEngineURL:   getEnv("PRIMARY_ENGINE_URL", "http://localhost:11434/api"),
		SecondaryEngineURL: getEnv("SECONDARY_ENGINE_URL", "http://localhost:11434/api"),
		EngineModel:        getEnv("ENGINE_MODEL", "llama3:8b"),
		EngineTimeout:      getEnvDuration("ENGINE_TIMEOUT", 30*time.Second),

		DispatchInterval: getEnvDuration("DISPATCH_INTERVAL", 30*time.Second),
		DispatchWorkers:  getEnvInt("DISPATCH_WORKERS", 4),
		DeliveryTimeout:  getEnvDuration("DELIVERY_TIMEOUT", 10*time.Second),
		RetryBackoff:     getEnvDuration("RETRY_BACKOFF", 5*time.Minute),
		ProviderBaseURL:  getEnv("PROVIDER_BASE_URL", "http://localhost:9500"),
		TemplatePath:     getEnv("TEMPLATE_PATH", "careflow/services/notify/templates.yaml"),

		MinIOEndpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinIOAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinIOBucket:    getEnv("MINIO_BUCKET", "careflow-transcripts"),
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
