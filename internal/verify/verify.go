// Package verify checks that a normalized account actually works: the static
// half inspects host state, the live half drives su(1) behind a PTY and
// confirms passwordless sudo without ever typing a password.
package verify

import (
	"fmt"
	"path/filepath"

	"github.com/acfs-dev/hostprep/internal/config"
	"github.com/acfs-dev/hostprep/internal/runner"
	"github.com/acfs-dev/hostprep/internal/sysuser"
)

type Check struct {
	Name   string
	OK     bool
	Detail string
}

func check(name string, ok bool, format string, args ...interface{}) Check {
	return Check{Name: name, OK: ok, Detail: fmt.Sprintf(format, args...)}
}

// Static inspects the host without running anything as the target account.
func Static(cfg config.Config, db *sysuser.DB, r *runner.Runner) []Check {
	var out []Check
	target := cfg.TargetUser

	pe, err := db.Lookup(target)
	if err != nil {
		out = append(out, check("account", false, "account %s: %v", target, err))
		return out
	}
	out = append(out, check("account", true, "%s uid=%d home=%s", target, pe.UID, pe.Home))

	out = append(out, adminMembership(db, target))

	if cfg.Frictionless() {
		out = append(out, sudoersFile(cfg.SudoersFile, r))
	}

	out = append(out, sshPerms(pe.Home, r)...)
	out = append(out, loginShell(pe.Shell, r))
	return out
}

func adminMembership(db *sysuser.DB, target string) Check {
	admin, err := db.AdminGroup()
	if err != nil {
		return check("admin group", false, "%v", err)
	}
	if admin == "" {
		return check("admin group", false, "host has neither sudo nor wheel")
	}
	member, err := db.IsMember(admin, target)
	if err != nil || !member {
		return check("admin group", false, "%s is not in %s", target, admin)
	}
	return check("admin group", true, "%s is in %s", target, admin)
}

func sudoersFile(path string, r *runner.Runner) Check {
	st, err := r.Stat(path)
	if err != nil {
		return check("sudo policy", false, "%s: %v", path, err)
	}
	if mode := st.Mode().Perm(); mode != 0440 {
		return check("sudo policy", false, "%s has mode %o, want 440", path, mode)
	}
	return check("sudo policy", true, "%s present with mode 440", path)
}

func sshPerms(home string, r *runner.Runner) []Check {
	sshDir := filepath.Join(home, ".ssh")
	keys := filepath.Join(sshDir, "authorized_keys")

	st, err := r.Stat(keys)
	if err != nil {
		// Key provisioning may be out-of-band; absence is informational.
		return []Check{check("ssh keys", true, "%s absent", keys)}
	}
	var out []Check
	if mode := st.Mode().Perm(); mode != 0600 {
		out = append(out, check("ssh keys", false, "%s has mode %o, want 600", keys, mode))
	} else {
		out = append(out, check("ssh keys", true, "%s mode 600", keys))
	}
	if st, err := r.Stat(sshDir); err == nil {
		if mode := st.Mode().Perm(); mode != 0700 {
			out = append(out, check("ssh dir", false, "%s has mode %o, want 700", sshDir, mode))
		} else {
			out = append(out, check("ssh dir", true, "%s mode 700", sshDir))
		}
	}
	return out
}

func loginShell(shell string, r *runner.Runner) Check {
	if err := r.CheckExecutable(shell); err != nil {
		return check("login shell", false, "%v", err)
	}
	return check("login shell", true, "%s is executable", shell)
}

// Failed reports whether any check in the set failed.
func Failed(checks []Check) bool {
	for _, c := range checks {
		if !c.OK {
			return true
		}
	}
	return false
}
