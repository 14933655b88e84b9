package config

import "time"

// PostgresConfig configures the optional account summary export. An empty
// DSN disables it.
type PostgresConfig struct {
	DSN             string        `env:"PG_DSN"                envDefault:""`
	MaxOpenConns    int           `env:"PG_MAX_OPEN_CONNS"     envDefault:"4"`
	MaxIdleConns    int           `env:"PG_MAX_IDLE_CONNS"     envDefault:"2"`
	ConnMaxIdleTime time.Duration `env:"PG_CONN_MAX_IDLE_TIME" envDefault:"1m"`
	ConnMaxLifetime time.Duration `env:"PG_CONN_MAX_LIFETIME"  envDefault:"30m"`
}

func (c PostgresConfig) Enabled() bool { return c.DSN != "" }

// KafkaConfig configures the optional summary event publisher. No brokers
// disables it.
type KafkaConfig struct {
	Brokers []string `env:"KAFKA_BROKERS" envDefault:""`
	Topic   string   `env:"KAFKA_TOPIC"   envDefault:"account_summarized"`
}

func (c KafkaConfig) Enabled() bool { return len(c.Brokers) > 0 }
