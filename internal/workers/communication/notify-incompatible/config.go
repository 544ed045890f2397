// internal/workers/communication/notify-incompatible/config.go
package notifyincompatible

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{Timeout: time.Minute}
}
