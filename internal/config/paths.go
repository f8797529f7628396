package config

import (
	"os"
	"path/filepath"
)

const defaultBaseDir = ".spyglass"

// Paths holds resolved filesystem paths for spyglass data.
type Paths struct {
	Base   string // ~/.spyglass
	Config string // ~/.spyglass/config.yaml
	Data   string // ~/.spyglass/data
	Logs   string // ~/.spyglass/logs
}

// ResolvePaths computes all standard paths from the home directory.
// If SPYGLASS_HOME is set, it overrides the default base directory.
func ResolvePaths() (Paths, error) {
	base := os.Getenv("SPYGLASS_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Paths{}, err
		}
		base = filepath.Join(home, defaultBaseDir)
	}

	return Paths{
		Base:   base,
		Config: filepath.Join(base, "config.yaml"),
		Data:   filepath.Join(base, "data"),
		Logs:   filepath.Join(base, "logs"),
	}, nil
}

// EnsureDirs creates all standard directories if they don't exist.
func (p Paths) EnsureDirs() error {
	for _, d := range []string{p.Base, p.Data, p.Logs} {
		if err := os.MkdirAll(d, 0o700); err != nil {
			return err
		}
	}
	return nil
}

// StepDBPath returns the default path of the persistent step log.
func (p Paths) StepDBPath() string {
	return filepath.Join(p.Data, "steps.db")
}
