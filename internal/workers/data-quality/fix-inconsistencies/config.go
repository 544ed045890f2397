// internal/workers/data-quality/fix-inconsistencies/config.go
package fixinconsistencies

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{Timeout: 2 * time.Minute}
}
