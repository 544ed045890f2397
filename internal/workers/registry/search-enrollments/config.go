// internal/workers/registry/search-enrollments/config.go
package searchenrollments

import "time"

type Config struct {
	Timeout  time.Duration
	MaxLines int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:  5 * time.Minute,
		MaxLines: 500,
	}
}
