package runner

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"github.com/acfs-dev/hostprep/internal/hostfs"
)

// Runner executes system-administration commands on the host. Every command
// is prefixed with the configured elevation command (e.g. "sudo"); an empty
// Elevate runs commands directly, for processes that are already privileged.
//
// File operations take host-absolute paths. When unelevated they are served
// in-process through the hostfs mapping; when elevated they shell out to the
// usual coreutils so that the elevation prefix applies to them too.
type Runner struct {
	Elevate string
	Timeout time.Duration
	FS      *hostfs.FS
}

func New(elevate string, fs *hostfs.FS) *Runner {
	return &Runner{Elevate: elevate, Timeout: 30 * time.Second, FS: fs}
}

func (r *Runner) elevated() bool {
	return strings.TrimSpace(r.Elevate) != ""
}

// argv prepends the elevation prefix. "sudo -n" style prefixes split into
// multiple argv entries.
func (r *Runner) argv(name string, args ...string) (string, []string) {
	prefix := strings.Fields(r.Elevate)
	if len(prefix) == 0 {
		return name, args
	}
	full := append(prefix[1:], name)
	return prefix[0], append(full, args...)
}

func (r *Runner) run(ctx context.Context, stdin []byte, name string, args ...string) error {
	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()
	bin, argv := r.argv(name, args...)
	cmd := exec.CommandContext(ctx, bin, argv...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		s := strings.TrimSpace(stderr.String())
		if s == "" {
			return fmt.Errorf("%s %v: %w", name, args, err)
		}
		return fmt.Errorf("%s %v: %s", name, args, s)
	}
	return nil
}

func (r *Runner) Useradd(ctx context.Context, username, shell string) error {
	return r.run(ctx, nil, "useradd", "-m", "-s", shell, username)
}

func (r *Runner) UsermodAppendGroup(ctx context.Context, username, group string) error {
	return r.run(ctx, nil, "usermod", "-aG", group, username)
}

// ChpasswdEncrypted sets a pre-hashed password. chpasswd -e reads
// "user:hash" lines from stdin, so the plaintext never appears in argv.
func (r *Runner) ChpasswdEncrypted(ctx context.Context, username, hash string) error {
	line := fmt.Sprintf("%s:%s\n", username, hash)
	return r.run(ctx, []byte(line), "chpasswd", "-e")
}

func (r *Runner) Chsh(ctx context.Context, username, shell string) error {
	return r.run(ctx, nil, "chsh", "-s", shell, username)
}

func (r *Runner) VisudoCheck(ctx context.Context, path string) error {
	return r.run(ctx, nil, "visudo", "-cf", path)
}

func (r *Runner) WriteFile(ctx context.Context, path string, data []byte, mode os.FileMode) error {
	if r.elevated() {
		if err := r.run(ctx, data, "tee", path); err != nil {
			return err
		}
		return r.Chmod(ctx, path, mode)
	}
	real, err := r.FS.Abs(path)
	if err != nil {
		return err
	}
	return hostfs.WriteFileAtomic(real, data, mode)
}

func (r *Runner) Remove(ctx context.Context, path string) error {
	if r.elevated() {
		return r.run(ctx, nil, "rm", "-f", path)
	}
	real, err := r.FS.Abs(path)
	if err != nil {
		return err
	}
	if err := os.Remove(real); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (r *Runner) MkdirAll(ctx context.Context, path string, mode os.FileMode) error {
	if r.elevated() {
		if err := r.run(ctx, nil, "mkdir", "-p", path); err != nil {
			return err
		}
		return r.Chmod(ctx, path, mode)
	}
	real, err := r.FS.Abs(path)
	if err != nil {
		return err
	}
	if err := hostfs.EnsureDir(real, mode); err != nil {
		return err
	}
	// MkdirAll applies the mode only to created directories.
	return os.Chmod(real, mode)
}

func (r *Runner) CopyFile(ctx context.Context, src, dst string) error {
	if r.elevated() {
		return r.run(ctx, nil, "cp", src, dst)
	}
	realSrc, err := r.FS.Abs(src)
	if err != nil {
		return err
	}
	realDst, err := r.FS.Abs(dst)
	if err != nil {
		return err
	}
	b, err := os.ReadFile(realSrc)
	if err != nil {
		return err
	}
	return hostfs.WriteFileAtomic(realDst, b, 0600)
}

func (r *Runner) Chmod(ctx context.Context, path string, mode os.FileMode) error {
	if r.elevated() {
		return r.run(ctx, nil, "chmod", fmt.Sprintf("%o", mode.Perm()), path)
	}
	real, err := r.FS.Abs(path)
	if err != nil {
		return err
	}
	return os.Chmod(real, mode)
}

// ChownRecursive hands ownership of path (and everything under it) to owner,
// both user and group. chown resolves the names against the host databases,
// which is exactly what we want.
func (r *Runner) ChownRecursive(ctx context.Context, path, owner string) error {
	return r.run(ctx, nil, "chown", "-R", fmt.Sprintf("%s:%s", owner, owner), path)
}

// ReadFile reads a host file without elevation; sources that need privilege
// to read (e.g. /root/.ssh) require the process itself to be privileged.
func (r *Runner) ReadFile(path string) ([]byte, error) {
	real, err := r.FS.Abs(path)
	if err != nil {
		return nil, err
	}
	return hostfs.ReadFile(real)
}

// Stat maps path through the host root before calling os.Stat.
func (r *Runner) Stat(path string) (os.FileInfo, error) {
	real, err := r.FS.Abs(path)
	if err != nil {
		return nil, err
	}
	return os.Stat(real)
}

// CheckExecutable verifies path names an executable regular file.
func (r *Runner) CheckExecutable(path string) error {
	real, err := r.FS.Abs(path)
	if err != nil {
		return err
	}
	st, err := os.Stat(real)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if st.IsDir() {
		return fmt.Errorf("%s is a directory, not a shell", path)
	}
	if err := unix.Access(real, unix.X_OK); err != nil {
		return fmt.Errorf("%s is not executable: %w", path, err)
	}
	return nil
}

func (r *Runner) LookPath(name string) (string, error) {
	if filepath.IsAbs(name) {
		return name, nil
	}
	return exec.LookPath(name)
}
