// internal/workers/reporting/vacancy-statistics/config.go
package vacancystatistics

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{Timeout: 30 * time.Second}
}
