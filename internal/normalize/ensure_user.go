package normalize

import (
	"context"
	"fmt"

	"github.com/acfs-dev/hostprep/internal/logger"
	"github.com/acfs-dev/hostprep/internal/password"
	"github.com/acfs-dev/hostprep/internal/sysuser"
)

const defaultCreateShell = "/bin/bash"

// containerRuntimeGroup gets the target added only when it already exists on
// the host.
const containerRuntimeGroup = "docker"

// EnsureUser guarantees the target account exists with a home directory and
// an interactive shell, then reconciles group memberships. Creation happens
// at most once; group reconciliation is re-asserted on every run.
func (n *Normalizer) EnsureUser(ctx context.Context) error {
	target := n.Cfg.TargetUser
	if !sysuser.ValidUsername(target) {
		return fmt.Errorf("invalid target username %q", target)
	}

	exists, err := n.DB.Exists(target)
	if err != nil {
		return err
	}
	if exists {
		logger.Detail("account %s already exists; skipping creation", target)
	} else {
		logger.Detail("creating account %s", target)
		if err := n.Run.Useradd(ctx, target, defaultCreateShell); err != nil {
			return fmt.Errorf("useradd %s: %w", target, err)
		}
		n.assignPassword(ctx, target)
		logger.Success("account %s created", target)
	}

	n.reconcileGroups(ctx, target)
	return nil
}

// assignPassword sets a random emergency console password. SSH-key login is
// the intended access path, so every failure here is a warning, not an
// error: a passwordless account is an accepted outcome.
func (n *Normalizer) assignPassword(ctx context.Context, target string) {
	pw, source, err := n.Passwords.Generate(password.DefaultLength)
	if err != nil {
		logger.Warn("no random password source available; %s is left without a password (SSH key login only)", target)
		return
	}
	if n.Passwords.IsWeak(source) {
		logger.Warn("password for %s came from weak source %q; rotate it once the host has entropy", target, source)
	}
	hash, err := password.Hash(pw)
	if err != nil {
		logger.Warn("could not hash generated password for %s: %v", target, err)
		return
	}
	if err := n.Run.ChpasswdEncrypted(ctx, target, hash); err != nil {
		logger.Warn("could not set password for %s: %v", target, err)
		return
	}
	logger.Detail("emergency console password set for %s (source: %s)", target, source)
}

// reconcileGroups adds the target to the administrative group and, when the
// host has one, the container runtime group. Membership is best-effort
// hardening: failures are observed, logged and discarded.
func (n *Normalizer) reconcileGroups(ctx context.Context, target string) {
	admin, err := n.DB.AdminGroup()
	switch {
	case err != nil:
		logger.Warn("could not determine administrative group: %v", err)
	case admin == "":
		logger.Warn("host has neither a sudo nor a wheel group; administrative membership skipped")
	default:
		n.ensureMembership(ctx, target, admin)
	}

	if ok, err := n.DB.GroupExists(containerRuntimeGroup); err == nil && ok {
		n.ensureMembership(ctx, target, containerRuntimeGroup)
	}
}

func (n *Normalizer) ensureMembership(ctx context.Context, target, group string) {
	if member, err := n.DB.IsMember(group, target); err == nil && member {
		logger.Detail("%s is already a member of %s", target, group)
		return
	}
	if err := n.Run.UsermodAppendGroup(ctx, target, group); err != nil {
		logger.Warn("could not add %s to group %s: %v", target, group, err)
		return
	}
	logger.Detail("added %s to group %s", target, group)
}
