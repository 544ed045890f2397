// internal/workers/pipeline/save-compatibilization/config.go
package savecompatibilization

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 2 * time.Minute,
	}
}
