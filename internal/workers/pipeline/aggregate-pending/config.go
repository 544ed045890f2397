// internal/workers/pipeline/aggregate-pending/config.go
package aggregatepending

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: time.Minute,
	}
}
