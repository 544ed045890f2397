// internal/workers/registry/sync-vacancies/config.go
package syncvacancies

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 5 * time.Minute,
	}
}
