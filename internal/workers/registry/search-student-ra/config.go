// internal/workers/registry/search-student-ra/config.go
package searchstudentra

import (
	"fmt"
	"time"
)

type Config struct {
	Timeout time.Duration
	// MaxLines caps the size of one requested line range.
	MaxLines int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:  5 * time.Minute,
		MaxLines: 500,
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxLines <= 0 {
		return fmt.Errorf("max_lines must be positive")
	}
	return nil
}
