package main

import (
	"log/slog"
	"time"

	"github.com/fastprodman/payments-engine/internal/config"
)

type cliConfig struct {
	LogLevel        slog.Level    `env:"APP_LOG_LEVEL"        envDefault:"WARN"`
	ShutdownTimeout time.Duration `env:"APP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	Postgres        config.PostgresConfig
	Kafka           config.KafkaConfig
}
