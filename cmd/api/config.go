package main

import (
	"log/slog"
	"time"

	"github.com/fastprodman/payments-engine/internal/config"
)

type apiConfig struct {
	Port            uint16        `env:"APP_PORT"             envDefault:"8080"`
	LogLevel        slog.Level    `env:"APP_LOG_LEVEL"        envDefault:"INFO"`
	ShutdownTimeout time.Duration `env:"APP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	MaxBodyBytes    int64         `env:"APP_MAX_BODY_BYTES"   envDefault:"10485760"`
	Postgres        config.PostgresConfig
	Kafka           config.KafkaConfig
}
