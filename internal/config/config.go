// Package config loads process configuration from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Prefix namespaces every variable read by Load.
const Prefix = "BTO_"

// Config is the root configuration consumed by btoctl and the service wiring.
type Config struct {
	Storage Storage `envPrefix:"STORAGE_"`
	Blob    Blob    `envPrefix:"BLOB_"`
	AMQP    AMQP    `envPrefix:"AMQP_"`
	Log     Log     `envPrefix:"LOG_"`
	Metrics Metrics `envPrefix:"METRICS_"`
	OTel    OTel    `envPrefix:"OTEL_"`
}

// Storage selects the persistent store backend.
type Storage struct {
	Driver      string `env:"DRIVER" envDefault:"sqlite"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"bto.db"`
	PostgresDSN string `env:"POSTGRES_DSN" envDefault:"postgres://localhost/bto?sslmode=disable"`
}

// Blob selects the receipt archive backend.
type Blob struct {
	Driver string `env:"DRIVER" envDefault:"fs"`
	FSRoot string `env:"FS_ROOT" envDefault:"./blobdata"`
	S3     S3     `envPrefix:"S3_"`
}

// S3 configures the S3 / MinIO blob driver.
type S3 struct {
	Bucket          string `env:"BUCKET"`
	Region          string `env:"REGION" envDefault:"us-east-1"`
	Endpoint        string `env:"ENDPOINT"`
	PathStyle       bool   `env:"PATH_STYLE"`
	AccessKeyID     string `env:"ACCESS_KEY_ID"`
	SecretAccessKey string `env:"SECRET_ACCESS_KEY"`
}

// AMQP configures allocation event publishing. Events are disabled when URL is empty.
type AMQP struct {
	URL   string `env:"URL"`
	Queue string `env:"QUEUE" envDefault:"bto.allocation"`
}

// Log configures the slog handler.
type Log struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
}

// Metrics configures the Prometheus recorder. Collected metrics are pushed to
// PushGateway after each command when it is set.
type Metrics struct {
	Namespace   string `env:"NAMESPACE" envDefault:"bto"`
	PushGateway string `env:"PUSH_GATEWAY"`
	Job         string `env:"JOB" envDefault:"btoctl"`
}

// OTel configures trace export. Tracing stays disabled when Endpoint is empty.
type OTel struct {
	Endpoint    string        `env:"ENDPOINT"`
	Insecure    bool          `env:"INSECURE"`
	ServiceName string        `env:"SERVICE_NAME" envDefault:"btoctl"`
	Timeout     time.Duration `env:"TIMEOUT" envDefault:"5s"`
}

// Load reads the optional dotenv files (default ".env") and parses the environment.
// Missing dotenv files are ignored; variables already set win over file values.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return Parse()
}

// Parse reads the configuration from the current environment only.
func Parse() (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: Prefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// SlogLevel maps Log.Level to a slog level, defaulting to info.
func (l Log) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(l.Level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
