package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port         string
	Environment  string
	LogLevel     string
	StoreDriver  string // STORE_DRIVER: postgres, mongo or memory
	Database     DatabaseConfig
	Mongo        MongoConfig
	Redis        RedisConfig
	Admission    AdmissionConfig
	Auth         AuthConfig
	SMTP         SMTPConfig
	WhatsApp     WhatsAppConfig
	Notification NotificationConfig
	Kafka        KafkaConfig
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type MongoConfig struct {
	URI      string
	Database string
}

// RedisConfig enables the cross-instance admission lock when Addr is set
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AdmissionConfig struct {
	ActiveLimit int           // ADMISSION_ACTIVE_LIMIT
	LockTTL     time.Duration // ADMISSION_LOCK_TTL
	LockWait    time.Duration // ADMISSION_LOCK_WAIT
}

type AuthConfig struct {
	JWTSecret       string
	AdminAPIKeyHash string // bcrypt hash of the operator key accepted in X-Admin-Key
}

// SMTPConfig: empty Host means emails are only logged
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// WhatsAppConfig: empty APIURL means WhatsApp messages are only logged
type WhatsAppConfig struct {
	APIURL       string
	APIToken     string
	StaffNumbers []string
}

type NotificationConfig struct {
	CompanyName string
	StaffEmails []string
	Workers     int
	QueueSize   int
	Timeout     time.Duration
}

// KafkaConfig: no brokers means order events are not published
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMongo    = "mongo"
	StoreDriverMemory   = "memory"
)

func Load() (*Config, error) {
	// .env is optional; real environment variables win over it
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("STORE_DRIVER", StoreDriverPostgres)
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("ADMISSION_ACTIVE_LIMIT", 3)
	viper.SetDefault("ADMISSION_LOCK_TTL", "10s")
	viper.SetDefault("ADMISSION_LOCK_WAIT", "5s")
	viper.SetDefault("NOTIFY_WORKERS", 4)
	viper.SetDefault("NOTIFY_QUEUE_SIZE", 256)
	viper.SetDefault("NOTIFY_TIMEOUT", "15s")
	viper.SetDefault("KAFKA_ORDER_EVENTS_TOPIC", "order-events")

	// Read from environment variables
	viper.AutomaticEnv()

	// Optional YAML file for deployments that prefer files over env
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{
		Port:        getEnvOrViper("PORT", "8080"),
		Environment: getEnvOrViper("ENVIRONMENT", "development"),
		LogLevel:    getEnvOrViper("LOG_LEVEL", "info"),
		StoreDriver: strings.ToLower(getEnvOrViper("STORE_DRIVER", StoreDriverPostgres)),
		Database: DatabaseConfig{
			Host:     getEnvOrViper("DB_HOST", "localhost"),
			Port:     getEnvOrViper("DB_PORT", "5432"),
			User:     getEnvOrViper("DB_USER", "postgres"),
			Password: getEnvOrViper("DB_PASSWORD", "postgres"),
			DBName:   getEnvOrViper("DB_NAME", "orderapi"),
			SSLMode:  getEnvOrViper("DB_SSLMODE", "disable"),
		},
		Mongo: MongoConfig{
			URI:      strings.TrimSpace(getEnvOrViper("MONGO_URI", "mongodb://localhost:27017")),
			Database: getEnvOrViper("MONGO_DB", "orderapi"),
		},
		Redis: RedisConfig{
			Addr:     strings.TrimSpace(getEnvOrViper("REDIS_ADDR", "")),
			Password: getEnvOrViper("REDIS_PASSWORD", ""),
			DB:       getIntOrViper("REDIS_DB", 0),
		},
		Admission: AdmissionConfig{
			ActiveLimit: getIntOrViper("ADMISSION_ACTIVE_LIMIT", 3),
			LockTTL:     getDurationOrViper("ADMISSION_LOCK_TTL", 10*time.Second),
			LockWait:    getDurationOrViper("ADMISSION_LOCK_WAIT", 5*time.Second),
		},
		Auth: AuthConfig{
			JWTSecret:       strings.TrimSpace(getEnvOrViper("JWT_SECRET", "")),
			AdminAPIKeyHash: strings.TrimSpace(getEnvOrViper("ADMIN_API_KEY_HASH", "")),
		},
		SMTP: SMTPConfig{
			Host:     strings.TrimSpace(getEnvOrViper("SMTP_HOST", "")),
			Port:     getEnvOrViper("SMTP_PORT", "587"),
			Username: getEnvOrViper("SMTP_USERNAME", ""),
			Password: getEnvOrViper("SMTP_PASSWORD", ""),
			From:     getEnvOrViper("SMTP_FROM", ""),
		},
		WhatsApp: WhatsAppConfig{
			APIURL:       strings.TrimSpace(getEnvOrViper("WHATSAPP_API_URL", "")),
			APIToken:     strings.TrimSpace(getEnvOrViper("WHATSAPP_API_TOKEN", "")),
			StaffNumbers: splitList(getEnvOrViper("WHATSAPP_STAFF_NUMBERS", "")),
		},
		Notification: NotificationConfig{
			CompanyName: getEnvOrViper("COMPANY_NAME", "Fabworks"),
			StaffEmails: splitList(getEnvOrViper("NOTIFY_STAFF_EMAILS", "")),
			Workers:     getIntOrViper("NOTIFY_WORKERS", 4),
			QueueSize:   getIntOrViper("NOTIFY_QUEUE_SIZE", 256),
			Timeout:     getDurationOrViper("NOTIFY_TIMEOUT", 15*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(getEnvOrViper("KAFKA_BROKERS", "")),
			Topic:   getEnvOrViper("KAFKA_ORDER_EVENTS_TOPIC", "order-events"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects configurations the server cannot run with
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreDriverPostgres, StoreDriverMongo, StoreDriverMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be one of postgres, mongo, memory (got %q)", c.StoreDriver)
	}
	if c.Admission.ActiveLimit < 1 {
		return fmt.Errorf("ADMISSION_ACTIVE_LIMIT must be at least 1")
	}
	if c.Notification.Workers < 1 {
		return fmt.Errorf("NOTIFY_WORKERS must be at least 1")
	}
	if c.Notification.QueueSize < 1 {
		return fmt.Errorf("NOTIFY_QUEUE_SIZE must be at least 1")
	}
	if c.Environment == "production" {
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		if c.StoreDriver == StoreDriverMemory {
			return fmt.Errorf("STORE_DRIVER=memory is not allowed in production")
		}
	}
	if c.SMTP.Host != "" && c.SMTP.From == "" {
		return fmt.Errorf("SMTP_FROM is required when SMTP_HOST is set")
	}
	return nil
}

func getEnvOrViper(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return defaultValue
}

func getIntOrViper(key string, defaultValue int) int {
	raw := getEnvOrViper(key, "")
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return defaultValue
	}
	return n
}

func getDurationOrViper(key string, defaultValue time.Duration) time.Duration {
	raw := getEnvOrViper(key, "")
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return defaultValue
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
