package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is read from SYMBIO_ prefixed environment variables.
type Config struct {
	LogLevel    slog.Level `env:"LOG_LEVEL" envDefault:"info"`
	MetricsAddr string     `env:"METRICS_ADDR" envDefault:":2121"`

	// NatsURL enables the JetStream publisher and the KV backed pending set.
	// Without it dispatchables are only logged.
	NatsURL    string `env:"NATS_URL"`
	Subject    string `env:"SUBJECT" envDefault:"symbio.dispatch"`
	StreamName string `env:"STREAM" envDefault:"SYMBIO_DISPATCH"`
	KVBucket   string `env:"KV_BUCKET" envDefault:"symbio_dispatch"`

	Accounts      int           `env:"ACCOUNTS" envDefault:"10"`
	Writes        int           `env:"WRITES" envDefault:"100"`
	WriteInterval time.Duration `env:"WRITE_INTERVAL" envDefault:"50ms"`

	ConfirmationExpiration time.Duration `env:"CONFIRMATION_EXPIRATION" envDefault:"1s"`
	CheckInterval          time.Duration `env:"CHECK_INTERVAL" envDefault:"1s"`
}

func LoadConfig(environ map[string]string) (Config, error) {
	opts := env.Options{Prefix: "SYMBIO_"}
	if environ != nil {
		opts.Environment = environ
	}
	cfg, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Accounts < 1 {
		return Config{}, fmt.Errorf("SYMBIO_ACCOUNTS must be positive, got %d", cfg.Accounts)
	}
	return cfg, nil
}
