package config

import (
	"fmt"
	"os"
)

type Config struct {
	HTTPAddr     string
	DBHost       string
	DBPort       string
	DBUser       string
	DBPass       string
	DBName       string
	RedisAddr    string
	KafkaBrokers string
	JWTSecret    string
}

// FromEnv loads the configuration from environment variables, applying local
// development defaults where a value is optional.
func FromEnv() (*Config, error) {
	cfg := &Config{
		HTTPAddr:     envOr("HTTP_ADDR", ":8080"),
		DBHost:       envOr("DB_HOST", "127.0.0.1"),
		DBPort:       envOr("DB_PORT", "3306"),
		DBUser:       envOr("DB_USER", "root"),
		DBPass:       os.Getenv("DB_PASS"),
		DBName:       envOr("DB_NAME", "shopsphere"),
		RedisAddr:    envOr("REDIS_ADDR", "localhost:6379"),
		KafkaBrokers: os.Getenv("KAFKA_BROKERS"),
		JWTSecret:    os.Getenv("JWT_SECRET"),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	return cfg, nil
}

// DSN builds the MySQL data source name. parseTime is required so TIMESTAMP
// columns scan into time.Time.
func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true", c.DBUser, c.DBPass, c.DBHost, c.DBPort, c.DBName)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
