package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load("", false)
	require.NoError(t, err)
	assert.Equal(t, "ubuntu", cfg.TargetUser)
	assert.Equal(t, "sudo", cfg.Elevate)
	assert.Equal(t, ModeVibe, cfg.Mode)
	assert.Equal(t, "/", cfg.HostRoot)
	assert.Equal(t, DefaultSudoersFile, cfg.SudoersFile)
	assert.True(t, cfg.Frictionless())
}

func TestFileOverridesDefaults(t *testing.T) {
	p := filepath.Join(t.TempDir(), "hostprep.yaml")
	require.NoError(t, os.WriteFile(p, []byte("target_user: deploy\nmode: careful\n"), 0644))

	cfg, err := Load(p, true)
	require.NoError(t, err)
	assert.Equal(t, "deploy", cfg.TargetUser)
	assert.Equal(t, "careful", cfg.Mode)
	assert.False(t, cfg.Frictionless())
	// Untouched fields keep their defaults.
	assert.Equal(t, "sudo", cfg.Elevate)
}

func TestEnvOverridesFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "hostprep.yaml")
	require.NoError(t, os.WriteFile(p, []byte("target_user: deploy\n"), 0644))

	t.Setenv("ACFS_TARGET_USER", "operator")
	t.Setenv("ACFS_SUDO", "") // set-but-empty means unelevated
	t.Setenv("ACFS_MODE", "careful")

	cfg, err := Load(p, true)
	require.NoError(t, err)
	assert.Equal(t, "operator", cfg.TargetUser)
	assert.Equal(t, "", cfg.Elevate)
	assert.Equal(t, "careful", cfg.Mode)
}

func TestStrictDecodeRejectsUnknownKeys(t *testing.T) {
	p := filepath.Join(t.TempDir(), "hostprep.yaml")
	require.NoError(t, os.WriteFile(p, []byte("target_usr: deploy\n"), 0644))

	_, err := Load(p, true)
	assert.Error(t, err)
}

func TestExplicitMissingFileFails(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")

	_, err := Load(missing, true)
	assert.Error(t, err)

	// The same path used as the non-explicit default is tolerated.
	cfg, err := Load(missing, false)
	require.NoError(t, err)
	assert.Equal(t, "ubuntu", cfg.TargetUser)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.TargetUser = "Not Valid!"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.HostRoot = ""
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.SudoersFile = ""
	assert.Error(t, cfg.Validate())

	assert.NoError(t, Default().Validate())
}
