// Package normalize brings a host's primary operator account into a
// known-good state: existence, administrative group membership, passwordless
// sudo policy, SSH key access and login shell. Every step is idempotent and
// individually callable; the orchestrator runs the fixed sequence and never
// aborts early, because a partially normalized host is better than an
// abandoned provisioning run.
package normalize

import (
	"context"
	"errors"
	"os"
	"os/user"

	"github.com/acfs-dev/hostprep/internal/config"
	"github.com/acfs-dev/hostprep/internal/hostfs"
	"github.com/acfs-dev/hostprep/internal/logger"
	"github.com/acfs-dev/hostprep/internal/password"
	"github.com/acfs-dev/hostprep/internal/runner"
	"github.com/acfs-dev/hostprep/internal/sysuser"
)

// CommandRunner is the slice of runner.Runner the steps need. Tests inject a
// recording fake; production wires the real elevation-prefixed runner.
type CommandRunner interface {
	Useradd(ctx context.Context, username, shell string) error
	UsermodAppendGroup(ctx context.Context, username, group string) error
	ChpasswdEncrypted(ctx context.Context, username, hash string) error
	Chsh(ctx context.Context, username, shell string) error
	VisudoCheck(ctx context.Context, path string) error
	WriteFile(ctx context.Context, path string, data []byte, mode os.FileMode) error
	Remove(ctx context.Context, path string) error
	MkdirAll(ctx context.Context, path string, mode os.FileMode) error
	CopyFile(ctx context.Context, src, dst string) error
	Chmod(ctx context.Context, path string, mode os.FileMode) error
	ChownRecursive(ctx context.Context, path, owner string) error
	CheckExecutable(path string) error
	ReadFile(path string) ([]byte, error)
	Stat(path string) (os.FileInfo, error)
	LookPath(name string) (string, error)
}

type Normalizer struct {
	Cfg       config.Config
	Run       CommandRunner
	DB        *sysuser.DB
	Passwords *password.Chain

	// InvokingUser is the account driving this process (SUDO_USER when
	// elevated through sudo); SSH keys migrate from it to the target.
	InvokingUser string
	// Privileged is true when the effective UID is 0, which lets root's
	// authorized_keys take precedence as a migration source.
	Privileged bool
}

func New(cfg config.Config) (*Normalizer, error) {
	fs := hostfs.New(cfg.HostRoot)
	db, err := sysuser.NewDB(fs)
	if err != nil {
		return nil, err
	}
	inv := os.Getenv("SUDO_USER")
	if inv == "" {
		u, err := user.Current()
		if err != nil {
			return nil, err
		}
		inv = u.Username
	}
	return &Normalizer{
		Cfg:          cfg,
		Run:          runner.New(cfg.Elevate, fs),
		DB:           db,
		Passwords:    password.DefaultChain(),
		InvokingUser: inv,
		Privileged:   os.Geteuid() == 0,
	}, nil
}

// Normalize runs the fixed sequence. A failing step is reported and the
// sequence continues; the joined error (if any) is for the caller's exit
// status, not for flow control.
func (n *Normalizer) Normalize(ctx context.Context) error {
	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"ensure operator account", n.EnsureUser},
		{"install sudo policy", n.WriteSudoPolicy},
		{"migrate ssh keys", n.MigrateSSHKeys},
	}

	var errs []error
	for i, s := range steps {
		logger.Step(i+1, len(steps), "%s", s.name)
		if err := s.fn(ctx); err != nil {
			logger.Error("%s: %v", s.name, err)
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		logger.Success("normalization of %s complete", n.Cfg.TargetUser)
	}
	return errors.Join(errs...)
}
