package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config holds every runtime knob; values come from the environment, with
// `_FILE` indirection for secrets so container secret mounts work.
type Config struct {
	HTTPPort int    `env:"HTTP_PORT" envDefault:"3000"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	Dev      bool   `env:"DEV_MODE" envDefault:"false"`

	Database Database
	RabbitMQ RabbitMQ

	JWTSecret string `env:"JWT_SECRET" envDefault:"dev-secret"`

	// TaxRateBps is the tax rate in basis points applied on top of the item
	// subtotal (1000 = 10%).
	TaxRateBps int `env:"TAX_RATE_BPS" envDefault:"0"`

	// CashVarianceThreshold is the absolute cash variance, in minor units,
	// above which shift close requires manager approval.
	CashVarianceThreshold int64 `env:"CASH_VARIANCE_THRESHOLD" envDefault:"5000"`

	MigrationsDir string `env:"MIGRATIONS_DIR" envDefault:"migrations"`
}

type Database struct {
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     int    `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
	Name     string `env:"DB_NAME" envDefault:"restaurant_pos"`
}

func (d Database) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

type RabbitMQ struct {
	Host     string `env:"RABBITMQ_HOST" envDefault:"localhost"`
	Port     int    `env:"RABBITMQ_PORT" envDefault:"5672"`
	User     string `env:"RABBITMQ_USER" envDefault:"guest"`
	Password string `env:"RABBITMQ_PASSWORD" envDefault:"guest"`
	VHost    string `env:"RABBITMQ_VHOST" envDefault:"/"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.Database.Password = fromFileOr("DB_PASSWORD_FILE", cfg.Database.Password)
	cfg.RabbitMQ.Password = fromFileOr("RABBITMQ_PASSWORD_FILE", cfg.RabbitMQ.Password)
	cfg.JWTSecret = fromFileOr("JWT_SECRET_FILE", cfg.JWTSecret)
	return cfg, nil
}

func fromFileOr(fileEnv, fallback string) string {
	path := os.Getenv(fileEnv)
	if path == "" {
		return fallback
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return fallback
	}
	return strings.TrimSpace(string(b))
}
