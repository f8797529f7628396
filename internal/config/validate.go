package config

import (
	"fmt"
	"slices"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	if cfg.Bridge.Port < 1 || cfg.Bridge.Port > 65535 {
		issues = append(issues, ValidationIssue{
			Path:    "bridge.port",
			Message: fmt.Sprintf("port must be 1-65535, got %d", cfg.Bridge.Port),
		})
	}
	if cfg.Bridge.Host == "" {
		issues = append(issues, ValidationIssue{
			Path:    "bridge.host",
			Message: "host is required",
		})
	}
	if cfg.Bridge.DialTimeoutSeconds < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "bridge.dialTimeoutSeconds",
			Message: fmt.Sprintf("must not be negative, got %d", cfg.Bridge.DialTimeoutSeconds),
		})
	}
	if cfg.Bridge.OutboxSize < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "bridge.outboxSize",
			Message: fmt.Sprintf("must not be negative, got %d", cfg.Bridge.OutboxSize),
		})
	}

	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got %q", validLogLevels, cfg.Logging.Level),
		})
	}

	validStyles := []string{"console", "json"}
	if cfg.Logging.Style != "" && !slices.Contains(validStyles, cfg.Logging.Style) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.style",
			Message: fmt.Sprintf("must be one of %v, got %q", validStyles, cfg.Logging.Style),
		})
	}

	return issues
}
