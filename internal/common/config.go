package common

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database   DatabaseConfig
	Server     ServerConfig
	Agent      AgentConfig
	Extraction ExtractionConfig
	Recipes    RecipesConfig
	Storage    StorageConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver           string // postgres | sqlite
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
	AutoMigrate      bool
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr        string
	GRPCAddr        string
	ShutdownTimeout time.Duration
}

// AgentConfig holds generative agent configuration
type AgentConfig struct {
	AgentID          string
	AliasID          string
	Region           string
	Timeout          time.Duration
	AttachmentFormat string // image | pdf
}

// ExtractionConfig holds the ingredient extraction retry policy
type ExtractionConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// RecipesConfig holds the background recipe workers configuration
type RecipesConfig struct {
	Workers   int
	QueueSize int
	Timeout   time.Duration
}

// StorageConfig holds optional image archive configuration. Archive is disabled when Endpoint is empty.
type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:           strings.ToLower(getEnv("DB_DRIVER", "postgres")),
			DSN:              getEnv("DB_URL", ""),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 5),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
			AutoMigrate:      getEnvAsBool("DB_AUTO_MIGRATE", false),
		},
		Server: ServerConfig{
			HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
			GRPCAddr:        getEnv("GRPC_ADDR", ":9090"),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Agent: AgentConfig{
			AgentID:          getEnv("BEDROCK_AGENT_ID", ""),
			AliasID:          getEnv("BEDROCK_AGENT_ALIAS_ID", ""),
			Region:           getEnv("AWS_REGION", "ap-northeast-1"),
			Timeout:          getEnvAsDuration("AGENT_TIMEOUT", 90*time.Second),
			AttachmentFormat: strings.ToLower(getEnv("ATTACHMENT_FORMAT", "image")),
		},
		Extraction: ExtractionConfig{
			MaxAttempts: getEnvAsInt("EXTRACT_MAX_ATTEMPTS", 3),
			BaseDelay:   getEnvAsDuration("EXTRACT_BASE_DELAY", time.Second),
		},
		Recipes: RecipesConfig{
			Workers:   getEnvAsInt("RECIPE_WORKERS", 4),
			QueueSize: getEnvAsInt("RECIPE_QUEUE_SIZE", 64),
			Timeout:   getEnvAsDuration("RECIPE_TIMEOUT", 3*time.Minute),
		},
		Storage: StorageConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", "pantry-images"),
			UseSSL:    getEnvAsBool("MINIO_USE_SSL", false),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return NewAppError("CONFIG_ERROR", "DB_DRIVER must be postgres or sqlite", ErrInvalidInput)
	}
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	if c.Agent.AgentID == "" || c.Agent.AliasID == "" {
		return NewAppError("CONFIG_ERROR", "BEDROCK_AGENT_ID and BEDROCK_AGENT_ALIAS_ID are required", ErrInvalidInput)
	}
	if c.Agent.AttachmentFormat != "image" && c.Agent.AttachmentFormat != "pdf" {
		return NewAppError("CONFIG_ERROR", "ATTACHMENT_FORMAT must be image or pdf", ErrInvalidInput)
	}
	if c.Extraction.MaxAttempts < 1 {
		return NewAppError("CONFIG_ERROR", "EXTRACT_MAX_ATTEMPTS must be at least 1", ErrInvalidInput)
	}
	if c.Server.HTTPAddr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	return nil
}
