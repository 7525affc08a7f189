package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"ms-payment/internal/models"
)

type Config struct {
	Server        ServerConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
	Database      DatabaseConfig
	Adyen         AdyenConfig
	Auth          AuthConfig
	PublicBaseURL string
	MigrationsDir string
}

type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MaxWebhookBytes int64
}

type RedisConfig struct {
	Addr    string
	LockTTL time.Duration
}

type KafkaConfig struct {
	Brokers []string
	GroupID string
	Topics  TopicConfig
	Enabled bool
}

type TopicConfig struct {
	PaymentEvents   string
	PaymentCommands string
}

type DatabaseConfig struct {
	Host         string
	Port         string
	Username     string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

// DSN builds a lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		url.QueryEscape(d.Username), url.QueryEscape(d.Password), d.Host, d.Port, d.Database, d.SSLMode)
}

// AdyenConfig is the payment method seeded at startup.
type AdyenConfig struct {
	Method        models.PaymentMethod
	Timeout       time.Duration
	SeedOnStartup bool
}

type AuthConfig struct {
	OIDCIssuer   string
	OIDCClientID string
	JWTSecret    string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", ":8080"),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			MaxWebhookBytes: int64(getEnvInt("WEBHOOK_MAX_BYTES", 1<<20)),
		},
		Redis: RedisConfig{
			Addr:    getEnv("REDIS_ADDR", "localhost:6379"),
			LockTTL: getEnvDuration("PAYMENT_LOCK_TTL", 30*time.Second),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			Username:     getEnv("DB_USERNAME", "payment_user"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "payments"),
			SSLMode:      getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  time.Duration(getEnvInt("DB_MAX_LIFETIME_MINUTES", 5)) * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers: splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
			GroupID: getEnv("KAFKA_GROUP_ID", "payment-service-group"),
			Enabled: getEnvBool("KAFKA_ENABLED", true),
			Topics: TopicConfig{
				PaymentEvents:   getEnv("KAFKA_TOPIC_EVENTS", "payment.events"),
				PaymentCommands: getEnv("KAFKA_TOPIC_COMMANDS", "payment.commands"),
			},
		},
		Adyen: AdyenConfig{
			Method: models.PaymentMethod{
				ID:              getEnv("ADYEN_METHOD_ID", "adyen"),
				Name:            getEnv("ADYEN_METHOD_NAME", "Adyen"),
				MerchantAccount: os.Getenv("ADYEN_MERCHANT_ACCOUNT"),
				HmacKey:         os.Getenv("ADYEN_HMAC_KEY"),
				APIKey:          os.Getenv("ADYEN_API_KEY"),
				Environment:     getEnv("ADYEN_ENVIRONMENT", models.EnvironmentTest),
				LiveURLPrefix:   os.Getenv("ADYEN_LIVE_URL_PREFIX"),
				ReturnURL:       getEnv("ADYEN_RETURN_URL", "/checkout/return?reference={reference}"),
			},
			Timeout:       getEnvDuration("ADYEN_TIMEOUT", 30*time.Second),
			SeedOnStartup: getEnvBool("ADYEN_SEED_METHOD", true),
		},
		Auth: AuthConfig{
			OIDCIssuer:   os.Getenv("OIDC_ISSUER"),
			OIDCClientID: getEnv("OIDC_CLIENT_ID", "payment-service"),
			JWTSecret:    os.Getenv("JWT_SECRET"),
		},
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),
		MigrationsDir: getEnv("MIGRATIONS_DIR", "migrations"),
	}
}

// Validate fails fast on settings that would otherwise surface as empty values
// at transaction time.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port == "" {
		errs = append(errs, errors.New("PORT is required"))
	}
	if c.Database.Host == "" || c.Database.Database == "" {
		errs = append(errs, errors.New("DB_HOST and DB_NAME are required"))
	}
	if c.Redis.Addr == "" {
		errs = append(errs, errors.New("REDIS_ADDR is required"))
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		errs = append(errs, errors.New("KAFKA_BROKERS is required when kafka is enabled"))
	}
	if u, err := url.Parse(c.PublicBaseURL); err != nil || !u.IsAbs() {
		errs = append(errs, fmt.Errorf("PUBLIC_BASE_URL must be absolute, got %q", c.PublicBaseURL))
	}
	if c.Auth.OIDCIssuer == "" && c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("one of OIDC_ISSUER or JWT_SECRET is required"))
	}
	if c.Adyen.SeedOnStartup {
		if err := c.Adyen.Method.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
