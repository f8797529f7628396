package config

import "fmt"

// Config is the root configuration for the spyglass bridge client.
type Config struct {
	App     AppConfig     `yaml:"app,omitempty"`
	Bridge  BridgeConfig  `yaml:"bridge,omitempty"`
	Logging LoggingConfig `yaml:"logging,omitempty"`
	State   StateConfig   `yaml:"state,omitempty"`
}

// AppConfig identifies the instrumented application to the inspector.
type AppConfig struct {
	Name     string `yaml:"name,omitempty"`
	DeviceID string `yaml:"deviceId,omitempty"`
}

// BridgeConfig controls the inspector connection.
type BridgeConfig struct {
	Host               string `yaml:"host,omitempty"`
	Port               int    `yaml:"port,omitempty"`
	Secure             bool   `yaml:"secure,omitempty"`
	Token              string `yaml:"token,omitempty"` // supports ${ENV_VAR} references
	DialTimeoutSeconds int    `yaml:"dialTimeoutSeconds,omitempty"`
	OutboxSize         int    `yaml:"outboxSize,omitempty"`
}

// URL returns the WebSocket endpoint for the configured inspector.
func (b BridgeConfig) URL() string {
	scheme := "ws"
	if b.Secure {
		scheme = "wss"
	}
	return fmt.Sprintf("%s://%s:%d/ws", scheme, b.Host, b.Port)
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"` // trace..fatal, silent
	Style string `yaml:"style,omitempty"` // "console" | "json"
}

// StateConfig controls persistence of the diagnostics trail.
type StateConfig struct {
	Persist bool   `yaml:"persist,omitempty"`
	Path    string `yaml:"path,omitempty"` // defaults to <home>/data/steps.db
}
