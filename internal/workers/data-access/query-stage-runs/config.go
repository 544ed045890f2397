// internal/workers/data-access/query-stage-runs/config.go
package querystageruns

import "time"

type Config struct {
	Timeout      time.Duration
	DefaultLimit int
	MaxLimit     int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      10 * time.Second,
		DefaultLimit: 20,
		MaxLimit:     200,
	}
}
