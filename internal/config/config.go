package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Gateway  GatewayConfig
	Payment  PaymentConfig
	Ledger   LedgerConfig
	Email    EmailConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Database DatabaseConfig
	Auth     AuthConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type GatewayConfig struct {
	BaseURL         string
	AccessToken     string
	NotificationURL string
	PollAttempts    int
	PollDelay       time.Duration
}

type PaymentConfig struct {
	Amount      float64
	Description string
}

type LedgerConfig struct {
	URL         string
	MaxAttempts int
	Delay       time.Duration
}

type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	From         string
}

type RedisConfig struct {
	Addr      string
	StatusTTL time.Duration
}

type KafkaConfig struct {
	Brokers []string
	Enabled bool
}

type DatabaseConfig struct {
	DSN         string
	AutoMigrate bool
}

type AuthConfig struct {
	JWTSecret string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", ":3000"),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Gateway: GatewayConfig{
			BaseURL:         getEnv("GATEWAY_BASE_URL", "https://api.mercadopago.com"),
			AccessToken:     getEnv("GATEWAY_ACCESS_TOKEN", ""),
			NotificationURL: getEnv("NOTIFICATION_URL", ""),
			PollAttempts:    getEnvInt("GATEWAY_POLL_ATTEMPTS", 5),
			PollDelay:       time.Duration(getEnvInt("GATEWAY_POLL_DELAY_SECONDS", 2)) * time.Second,
		},
		Payment: PaymentConfig{
			Amount:      getEnvFloat("PAYMENT_AMOUNT", 12.99),
			Description: getEnv("PAYMENT_DESCRIPTION", "Inscrição - Grupo de Corredores"),
		},
		Ledger: LedgerConfig{
			URL:         getEnv("LEDGER_URL", ""),
			MaxAttempts: getEnvInt("LEDGER_MAX_ATTEMPTS", 3),
			Delay:       time.Duration(getEnvInt("LEDGER_RETRY_DELAY_SECONDS", 1)) * time.Second,
		},
		Email: EmailConfig{
			SMTPHost:     getEnv("SMTP_HOST", "smtp.gmail.com"),
			SMTPPort:     getEnvInt("SMTP_PORT", 587),
			SMTPUsername: getEnv("SMTP_USERNAME", ""),
			SMTPPassword: getEnv("SMTP_PASSWORD", ""),
			From:         getEnv("SMTP_FROM", ""),
		},
		Redis: RedisConfig{
			Addr:      getEnv("REDIS_ADDR", "localhost:6379"),
			StatusTTL: time.Duration(getEnvInt("STATUS_CACHE_TTL_MINUTES", 30)) * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers: strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
			Enabled: getEnvBool("KAFKA_ENABLED", false),
		},
		Database: DatabaseConfig{
			DSN:         getEnv("POSTGRES_DSN", ""),
			AutoMigrate: getEnvBool("AUTO_MIGRATE", false),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
