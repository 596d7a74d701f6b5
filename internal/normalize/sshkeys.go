package normalize

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/ssh"

	"github.com/acfs-dev/hostprep/internal/logger"
)

const rootAuthorizedKeys = "/root/.ssh/authorized_keys"

// MigrateSSHKeys copies the invoking account's authorized_keys to the target
// account, overwriting any existing destination, then unconditionally resets
// ownership and the strict 700/600 permission bits. No source is a warning,
// not a failure: a host may rely on out-of-band key provisioning.
func (n *Normalizer) MigrateSSHKeys(ctx context.Context) error {
	target := n.Cfg.TargetUser
	if n.InvokingUser == target {
		logger.Detail("already operating as %s; ssh keys need no migration", target)
		return nil
	}

	src := n.sshKeySource()
	if src == "" {
		logger.Warn("no authorized_keys source found for %s; ssh key migration skipped", n.InvokingUser)
		return nil
	}
	n.auditAuthorizedKeys(src)

	pe, err := n.DB.Lookup(target)
	if err != nil {
		return fmt.Errorf("resolve home of %s: %w", target, err)
	}
	sshDir := filepath.Join(pe.Home, ".ssh")
	dst := filepath.Join(sshDir, "authorized_keys")

	if err := n.Run.MkdirAll(ctx, sshDir, 0700); err != nil {
		return err
	}
	if err := n.Run.CopyFile(ctx, src, dst); err != nil {
		return fmt.Errorf("copy %s -> %s: %w", src, dst, err)
	}
	if err := n.Run.ChownRecursive(ctx, sshDir, target); err != nil {
		return err
	}
	if err := n.Run.Chmod(ctx, sshDir, 0700); err != nil {
		return err
	}
	if err := n.Run.Chmod(ctx, dst, 0600); err != nil {
		return err
	}

	logger.Success("ssh keys migrated: %s -> %s", src, dst)
	return nil
}

// sshKeySource picks the file to migrate from: the invoking user's own
// authorized_keys, overridden by root's when the process is privileged and
// root has one. Empty means no source.
func (n *Normalizer) sshKeySource() string {
	var src string
	if pe, err := n.DB.Lookup(n.InvokingUser); err == nil {
		p := filepath.Join(pe.Home, ".ssh", "authorized_keys")
		if _, err := n.Run.Stat(p); err == nil {
			src = p
		}
	}
	if n.Privileged {
		if _, err := n.Run.Stat(rootAuthorizedKeys); err == nil {
			src = rootAuthorizedKeys
		}
	}
	return src
}

// auditAuthorizedKeys reports what the source contains. Unparseable lines
// are still copied; the operator may carry options or key formats we do not
// understand, and sshd is the final arbiter.
func (n *Normalizer) auditAuthorizedKeys(src string) {
	b, err := n.Run.ReadFile(src)
	if err != nil {
		return
	}
	count := 0
	for i, line := range strings.Split(string(b), "\n") {
		trim := strings.TrimSpace(line)
		if trim == "" || strings.HasPrefix(trim, "#") {
			continue
		}
		if _, _, _, _, err := ssh.ParseAuthorizedKey([]byte(trim)); err != nil {
			logger.Warn("%s line %d did not parse as an authorized key; copying it anyway", src, i+1)
			continue
		}
		count++
	}
	logger.Detail("%d authorized key(s) in %s", count, src)
}
