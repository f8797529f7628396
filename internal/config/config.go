// Package config loads and validates the spyglass configuration file.
package config

import "fmt"

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	return Config{
		App: AppConfig{
			Name: "spyglass",
		},
		Bridge: BridgeConfig{
			Host:               "127.0.0.1",
			Port:               8089,
			DialTimeoutSeconds: 10,
			OutboxSize:         256,
		},
		Logging: LoggingConfig{
			Level: "info",
			Style: "console",
		},
	}
}
