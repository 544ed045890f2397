// internal/workers/reporting/dashboard-metrics/config.go
package dashboardmetrics

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{Timeout: 30 * time.Second}
}
