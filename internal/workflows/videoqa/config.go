package videoqa

import (
	"fmt"
	"time"
)

type Config struct {
	IngestTimeout time.Duration `mapstructure:"ingest_timeout"`
	QueryTimeout  time.Duration `mapstructure:"query_timeout"`
}

func DefaultConfig() *Config {
	return &Config{
		IngestTimeout: 120 * time.Second,
		QueryTimeout:  60 * time.Second,
	}
}

func (c *Config) Validate() error {
	if c.IngestTimeout <= 0 {
		return fmt.Errorf("ingest_timeout must be positive")
	}
	if c.QueryTimeout <= 0 {
		return fmt.Errorf("query_timeout must be positive")
	}
	return nil
}
