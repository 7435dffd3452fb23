package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates the settings read from the environment at startup.
type Config struct {
	Env  string
	Port string

	DB      DBConfig
	Redis   RedisConfig
	Auth    AuthConfig
	Sweep   SweepConfig
	Logging LoggingConfig

	StripeSecretKey string
	IdempotencyTTL  time.Duration
}

type DBConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret         string
	TokenTTL          time.Duration
	AdminEmail        string
	AdminPasswordHash string
}

// SweepConfig controls the pending transfer sweep schedule.
type SweepConfig struct {
	Interval    time.Duration
	LockTTL     time.Duration
	ErrorPolicy string // "abort" or "isolate"
	Disabled    bool
}

type LoggingConfig struct {
	Level  string
	Format string
}

// defaultJWTSecret only exists so development runs without setup.
const defaultJWTSecret = "your-secret-key"

// ErrInsecureJWTSecret is returned by Validate when production would sign
// tokens with the development secret.
var ErrInsecureJWTSecret = errors.New("JWT_SECRET must be set in production")

// LoadEnv loads variables from a .env file if present.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file found: %v", err)
	}
}

// Load reads the full configuration, falling back to development defaults.
func Load() Config {
	return Config{
		Env:  GetEnv("ENV", "development"),
		Port: GetEnv("PORT", "3000"),
		DB: DBConfig{
			Host:            GetEnv("DB_HOST", "localhost"),
			Port:            GetEnv("DB_PORT", "5432"),
			User:            GetEnv("DB_USER", "postgres"),
			Password:        GetEnv("DB_PASSWORD", "postgres"),
			Name:            GetEnv("DB_NAME", "transactx"),
			SSLMode:         GetEnv("DB_SSLMODE", "disable"),
			MaxIdleConns:    GetIntEnv("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    GetIntEnv("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: GetDurationEnv("DB_CONN_MAX_LIFETIME", time.Hour),
			ConnMaxIdleTime: GetDurationEnv("DB_CONN_MAX_IDLE_TIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			Host:     GetEnv("REDIS_HOST", "localhost"),
			Port:     GetEnv("REDIS_PORT", "6379"),
			Password: GetEnv("REDIS_PASSWORD", ""),
			DB:       GetIntEnv("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			JWTSecret:         GetEnv("JWT_SECRET", defaultJWTSecret),
			TokenTTL:          GetDurationEnv("JWT_TTL", 15*time.Minute),
			AdminEmail:        GetEnv("ADMIN_EMAIL", "admin@transactx.local"),
			AdminPasswordHash: GetEnv("ADMIN_PASSWORD_HASH", ""),
		},
		Sweep: SweepConfig{
			Interval:    GetDurationEnv("SWEEP_INTERVAL", time.Minute),
			LockTTL:     GetDurationEnv("SWEEP_LOCK_TTL", 5*time.Minute),
			ErrorPolicy: GetEnv("SWEEP_ERROR_POLICY", "abort"),
			Disabled:    GetBoolEnv("SWEEP_DISABLED", false),
		},
		Logging: LoggingConfig{
			Level:  GetEnv("LOG_LEVEL", "info"),
			Format: GetEnv("LOG_FORMAT", "text"),
		},
		StripeSecretKey: GetEnv("STRIPE_SECRET_KEY", ""),
		IdempotencyTTL:  GetDurationEnv("IDEMPOTENCY_TTL", 24*time.Hour),
	}
}

// GetEnv returns an environment variable or a default value.
func GetEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return defaultVal
}

// GetIntEnv returns an int environment variable or a default value.
func GetIntEnv(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func GetDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
		log.Printf("invalid duration for %s=%q, using default %s", key, val, defaultVal)
	}
	return defaultVal
}

func GetBoolEnv(key string, defaultVal bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

// IsProduction checks if the app runs in production mode.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate rejects settings that are only acceptable outside production.
func (c Config) Validate() error {
	if c.IsProduction() && (c.Auth.JWTSecret == "" || c.Auth.JWTSecret == defaultJWTSecret) {
		return ErrInsecureJWTSecret
	}
	return nil
}
