package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePathsHonorsHomeOverride(t *testing.T) {
	base := t.TempDir()
	t.Setenv("SPYGLASS_HOME", base)

	p, err := ResolvePaths()
	require.NoError(t, err)

	assert.Equal(t, base, p.Base)
	assert.Equal(t, filepath.Join(base, "config.yaml"), p.Config)
	assert.Equal(t, filepath.Join(base, "data"), p.Data)
}

func TestEnsureDirs(t *testing.T) {
	t.Setenv("SPYGLASS_HOME", filepath.Join(t.TempDir(), "sg"))

	p, err := ResolvePaths()
	require.NoError(t, err)
	require.NoError(t, p.EnsureDirs())

	for _, d := range []string{p.Base, p.Data, p.Logs} {
		info, err := os.Stat(d)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestStepDBPath(t *testing.T) {
	p := Paths{Data: "/tmp/sg/data"}
	assert.Equal(t, filepath.Join("/tmp/sg/data", "steps.db"), p.StepDBPath())
}
