// internal/workers/pipeline/map-vacancies/config.go
package mapvacancies

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 2 * time.Minute,
	}
}
