// internal/workers/pipeline/compatibilize-vacancies/config.go
package compatibilizevacancies

import "time"

type Config struct {
	Timeout time.Duration
	// NotifyOnComplete publishes a completion notice after each persisted run.
	NotifyOnComplete bool
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 3 * time.Minute,
	}
}
