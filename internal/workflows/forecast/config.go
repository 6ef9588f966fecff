package forecast

import (
	"fmt"
	"time"

	"marketing-studio/internal/common/validation"
)

type Config struct {
	Timeout time.Duration     `mapstructure:"timeout"`
	Policy  validation.Policy `mapstructure:"-"`
}

func DefaultConfig() *Config {
	return &Config{
		Timeout: 120 * time.Second,
		Policy:  validation.DefaultCSVPolicy(),
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.Policy.MaxBytes <= 0 {
		return fmt.Errorf("policy max bytes must be positive")
	}
	return nil
}
