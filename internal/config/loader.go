package config

import (
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} patterns in strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars replaces ${VAR} patterns with environment variable values.
// Unset variables are left unchanged.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

// Load reads the config file, applies environment overrides, and returns a
// merged Config. A missing file produces defaults only.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			finalize(&cfg)
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}

	applyDefaults(&cfg)
	finalize(&cfg)
	return cfg, nil
}

func finalize(cfg *Config) {
	applyEnvOverrides(cfg)
	cfg.Bridge.Token = expandEnvVars(cfg.Bridge.Token)
	if cfg.App.DeviceID == "" {
		cfg.App.DeviceID = uuid.NewString()
	}
}

// applyDefaults fills zero-value fields after a partial YAML file.
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "spyglass"
	}
	if cfg.Bridge.Host == "" {
		cfg.Bridge.Host = "127.0.0.1"
	}
	if cfg.Bridge.Port == 0 {
		cfg.Bridge.Port = 8089
	}
	if cfg.Bridge.DialTimeoutSeconds == 0 {
		cfg.Bridge.DialTimeoutSeconds = 10
	}
	if cfg.Bridge.OutboxSize == 0 {
		cfg.Bridge.OutboxSize = 256
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Style == "" {
		cfg.Logging.Style = "console"
	}
}

// applyEnvOverrides reads SPYGLASS_* environment variables over config values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SPYGLASS_BRIDGE_HOST"); v != "" {
		cfg.Bridge.Host = v
	}
	if v := os.Getenv("SPYGLASS_BRIDGE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Bridge.Port = port
		}
	}
	if v := os.Getenv("SPYGLASS_BRIDGE_TOKEN"); v != "" {
		cfg.Bridge.Token = v
	}
	if v := os.Getenv("SPYGLASS_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("SPYGLASS_LOG_STYLE"); v != "" {
		cfg.Logging.Style = strings.ToLower(v)
	}
	if v := os.Getenv("SPYGLASS_STATE_PERSIST"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.State.Persist = b
		}
	}
	if v := os.Getenv("SPYGLASS_STATE_PATH"); v != "" {
		cfg.State.Path = v
	}
}
