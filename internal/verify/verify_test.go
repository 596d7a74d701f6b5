package verify

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acfs-dev/hostprep/internal/config"
	"github.com/acfs-dev/hostprep/internal/hostfs"
	"github.com/acfs-dev/hostprep/internal/runner"
	"github.com/acfs-dev/hostprep/internal/sysuser"
)

// hostRoot builds a fake host filesystem under a temp dir and returns the
// config, database and runner pointed at it.
func hostRoot(t *testing.T) (config.Config, *sysuser.DB, *runner.Runner, string) {
	t.Helper()
	root := t.TempDir()
	etc := filepath.Join(root, "etc")
	require.NoError(t, os.MkdirAll(filepath.Join(etc, "sudoers.d"), 0755))

	shell := filepath.Join(root, "bin", "bash")
	require.NoError(t, os.MkdirAll(filepath.Dir(shell), 0755))
	require.NoError(t, os.WriteFile(shell, []byte("#!/bin/sh\n"), 0755))

	home := filepath.Join(root, "home", "ubuntu")
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".ssh"), 0700))
	require.NoError(t, os.WriteFile(filepath.Join(home, ".ssh", "authorized_keys"),
		[]byte("ssh-ed25519 AAAA ops@laptop\n"), 0600))

	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(etc, name), []byte(content), 0644))
	}
	write("passwd", "root:x:0:0::/root:/bin/bash\nubuntu:x:1000:1000::/home/ubuntu:/bin/bash\n")
	write("shadow", "root:*:19000:0:99999:7:::\nubuntu:!:19000:0:99999:7:::\n")
	write("group", "root:x:0:\nsudo:x:27:ubuntu\n")
	require.NoError(t, os.WriteFile(
		filepath.Join(etc, "sudoers.d", "90-acfs-operator"),
		[]byte("ubuntu ALL=(ALL) NOPASSWD:ALL\n"), 0440))

	fs := hostfs.New(root)
	db, err := sysuser.NewDB(fs)
	require.NoError(t, err)

	cfg := config.Default()
	cfg.HostRoot = root
	return cfg, db, runner.New("", fs), root
}

func byName(checks []Check, name string) *Check {
	for i := range checks {
		if checks[i].Name == name {
			return &checks[i]
		}
	}
	return nil
}

func TestStaticAllGreen(t *testing.T) {
	cfg, db, r, _ := hostRoot(t)

	checks := Static(cfg, db, r)
	require.NotEmpty(t, checks)
	for _, c := range checks {
		assert.True(t, c.OK, "%s: %s", c.Name, c.Detail)
	}
	assert.False(t, Failed(checks))
}

func TestStaticMissingAccount(t *testing.T) {
	cfg, db, r, _ := hostRoot(t)
	cfg.TargetUser = "deploy"

	checks := Static(cfg, db, r)
	require.Len(t, checks, 1)
	assert.False(t, checks[0].OK)
	assert.True(t, Failed(checks))
}

func TestStaticFlagsBadPermissions(t *testing.T) {
	cfg, db, r, root := hostRoot(t)

	keys := filepath.Join(root, "home", "ubuntu", ".ssh", "authorized_keys")
	require.NoError(t, os.Chmod(keys, 0644))
	sudoers := filepath.Join(root, "etc", "sudoers.d", "90-acfs-operator")
	require.NoError(t, os.Chmod(sudoers, 0644))

	checks := Static(cfg, db, r)
	assert.False(t, byName(checks, "ssh keys").OK)
	assert.False(t, byName(checks, "sudo policy").OK)
	assert.True(t, Failed(checks))
}

func TestStaticConservativeModeSkipsSudoers(t *testing.T) {
	cfg, db, r, root := hostRoot(t)
	cfg.Mode = "careful"
	require.NoError(t, os.Remove(filepath.Join(root, "etc", "sudoers.d", "90-acfs-operator")))

	checks := Static(cfg, db, r)
	assert.Nil(t, byName(checks, "sudo policy"))
	assert.False(t, Failed(checks))
}

func TestStaticAbsentKeysAreInformational(t *testing.T) {
	cfg, db, r, root := hostRoot(t)
	require.NoError(t, os.Remove(filepath.Join(root, "home", "ubuntu", ".ssh", "authorized_keys")))

	checks := Static(cfg, db, r)
	c := byName(checks, "ssh keys")
	require.NotNil(t, c)
	assert.True(t, c.OK)
}
