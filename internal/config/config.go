// Package config loads process-wide settings from the environment once at start.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Weights are the fractional multipliers applied to the time, demand and
// inventory adjustments. They are fixed for the life of the process.
type Weights struct {
	Time      float64
	Demand    float64
	Inventory float64
}

// DefaultWeights are used when the environment does not override them.
var DefaultWeights = Weights{Time: 0.30, Demand: 0.40, Inventory: 0.30}

// Config holds every runtime setting of the service.
type Config struct {
	Env      string
	Port     string
	LogLevel string

	// Postgres
	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string

	// Redis; empty disables the price cache.
	RedisURL string

	// RabbitMQ; empty disables booking events.
	RabbitMQURL string

	Weights        Weights
	PriceCacheTTL  time.Duration
	BookingTimeout time.Duration
	NotifyTimeout  time.Duration

	RunMigrations bool
	CORSOrigin    string
}

// Load reads an optional .env file and then the process environment.
// Values that fail to parse fall back to their defaults.
func Load() Config {
	// A missing .env file is the normal case outside local development.
	_ = godotenv.Load()

	return Config{
		Env:      getEnv("APP_ENV", "development"),
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBUser:      getEnv("DB_USER", "postgres"),
		DBPassword:  getEnv("DB_PASSWORD", "postgres"),
		DBName:      getEnv("DB_NAME", "ticketing"),
		DBSSLMode:   getEnv("DB_SSLMODE", "disable"),

		RedisURL:    getEnv("REDIS_URL", ""),
		RabbitMQURL: getEnv("RABBITMQ_URL", ""),

		Weights: Weights{
			Time:      getEnvAsFloat("TIME_WEIGHT", DefaultWeights.Time),
			Demand:    getEnvAsFloat("DEMAND_WEIGHT", DefaultWeights.Demand),
			Inventory: getEnvAsFloat("INVENTORY_WEIGHT", DefaultWeights.Inventory),
		},
		PriceCacheTTL:  getEnvAsDuration("PRICE_CACHE_TTL", 15*time.Second),
		BookingTimeout: getEnvAsDuration("BOOKING_TIMEOUT", 10*time.Second),
		NotifyTimeout:  getEnvAsDuration("NOTIFY_TIMEOUT", 2*time.Second),

		RunMigrations: getEnvAsBool("RUN_MIGRATIONS", true),
		CORSOrigin:    getEnv("CORS_ORIGIN", "http://localhost:3000"),
	}
}

// DSN returns DATABASE_URL when set, otherwise a libpq keyword string built
// from the DB_* variables.
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

// IsProduction reports whether APP_ENV names a production deployment.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production") || strings.EqualFold(c.Env, "prod")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return v
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return v
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(getEnv(key, "")); err == nil && d > 0 {
		return d
	}
	return fallback
}
