package normalize

import (
	"context"
	"fmt"

	"github.com/acfs-dev/hostprep/internal/logger"
)

// SetLoginShell points the target account's login shell at shell. An empty
// argument falls back to the configured shell, then to the first zsh on the
// search path. An invalid or missing shell is reported and the account is
// left unchanged.
func (n *Normalizer) SetLoginShell(ctx context.Context, shell string) error {
	if shell == "" {
		shell = n.Cfg.Shell
	}
	if shell == "" {
		p, err := n.Run.LookPath("zsh")
		if err != nil {
			logger.Warn("zsh not found on the search path; login shell unchanged")
			return fmt.Errorf("discover shell: %w", err)
		}
		shell = p
	}

	if err := n.Run.CheckExecutable(shell); err != nil {
		logger.Warn("%v; login shell unchanged", err)
		return err
	}

	target := n.Cfg.TargetUser
	if err := n.Run.Chsh(ctx, target, shell); err != nil {
		return fmt.Errorf("chsh %s: %w", target, err)
	}
	logger.Success("login shell for %s set to %s", target, shell)
	return nil
}
