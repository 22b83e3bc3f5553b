package config

import (
	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration.
type Config struct {
	// Ingestion
	QueueCapacity int  `env:"LEDGER_QUEUE_CAPACITY" envDefault:"100"`
	SortOutput    bool `env:"LEDGER_SORT_OUTPUT"    envDefault:"true"`

	// Metrics textfile, written after a successful run (empty to disable)
	MetricsFile string `env:"LEDGER_METRICS_FILE" envDefault:""`

	// Logging
	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	err := env.Parse(cfg)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}
