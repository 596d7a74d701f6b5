// Package config holds the explicit configuration every normalization step
// receives. Nothing in internal/ reads the environment on its own; the
// environment is resolved once, here, so tests can inject fakes.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/acfs-dev/hostprep/internal/sysuser"
)

// ModeVibe is the frictionless default: passwordless sudo is installed.
// Any other mode value skips the sudo policy step entirely.
const ModeVibe = "vibe"

// DefaultSudoersFile is the fixed drop-in path for the passwordless policy.
const DefaultSudoersFile = "/etc/sudoers.d/90-acfs-operator"

type Config struct {
	// TargetUser is the operator account all steps converge on.
	TargetUser string `yaml:"target_user"`
	// Elevate prefixes every privileged command; empty runs unelevated.
	Elevate string `yaml:"elevate"`
	Mode    string `yaml:"mode"`
	// Shell is the login shell for the shell step; empty discovers zsh.
	Shell string `yaml:"shell"`
	// HostRoot is "/" on the host itself, or the bind-mount point when
	// driving a host from a management container.
	HostRoot    string `yaml:"host_root"`
	SudoersFile string `yaml:"sudoers_file"`
	// LogDir enables the daily-rotated log file mirror when set.
	LogDir string `yaml:"log_dir"`
}

func Default() Config {
	return Config{
		TargetUser:  "ubuntu",
		Elevate:     "sudo",
		Mode:        ModeVibe,
		HostRoot:    "/",
		SudoersFile: DefaultSudoersFile,
	}
}

// Frictionless reports whether the passwordless-sudo step should run.
func (c Config) Frictionless() bool {
	return c.Mode == ModeVibe
}

func (c Config) Validate() error {
	if !sysuser.ValidUsername(c.TargetUser) {
		return fmt.Errorf("invalid target user %q", c.TargetUser)
	}
	if c.HostRoot == "" {
		return errors.New("host root must not be empty")
	}
	if c.SudoersFile == "" {
		return errors.New("sudoers file path must not be empty")
	}
	return nil
}

// Load builds the effective configuration: defaults, then the YAML file at
// path (optional unless explicitly requested), then ACFS_* environment
// variables on top.
func Load(path string, explicit bool) (Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := decodeStrict(b, &cfg); err != nil {
				return Config{}, fmt.Errorf("config %s: %w", path, err)
			}
		case os.IsNotExist(err) && !explicit:
			// Default location, absent: fine.
		default:
			return Config{}, err
		}
	}

	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// decodeStrict rejects unknown YAML keys so a typo in a config file fails
// loudly instead of silently keeping a default.
func decodeStrict(b []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// applyEnv overlays the recognized ACFS_* variables. Set-but-empty matters
// for ACFS_SUDO: an empty string means "run unelevated", so LookupEnv is
// used instead of Getenv throughout.
func applyEnv(cfg *Config) {
	if v, ok := os.LookupEnv("ACFS_TARGET_USER"); ok {
		cfg.TargetUser = v
	}
	if v, ok := os.LookupEnv("ACFS_SUDO"); ok {
		cfg.Elevate = v
	}
	if v, ok := os.LookupEnv("ACFS_MODE"); ok {
		cfg.Mode = v
	}
	if v, ok := os.LookupEnv("ACFS_SHELL"); ok {
		cfg.Shell = v
	}
	if v, ok := os.LookupEnv("ACFS_HOST_ROOT"); ok {
		cfg.HostRoot = v
	}
	if v, ok := os.LookupEnv("ACFS_LOG_DIR"); ok {
		cfg.LogDir = v
	}
}
