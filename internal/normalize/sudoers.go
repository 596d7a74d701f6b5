package normalize

import (
	"context"
	"errors"
	"fmt"

	"github.com/acfs-dev/hostprep/internal/logger"
)

// WriteSudoPolicy installs the passwordless-sudo drop-in when the mode is
// frictionless. Any other mode leaves sudo configuration entirely alone,
// including a drop-in left behind by an earlier frictionless run.
//
// The written file is validated with visudo before it is trusted; a file
// that fails validation is removed again. An invalid policy must never
// survive the step.
func (n *Normalizer) WriteSudoPolicy(ctx context.Context) error {
	if !n.Cfg.Frictionless() {
		logger.Detail("mode %q: leaving sudo configuration untouched", n.Cfg.Mode)
		return nil
	}

	target := n.Cfg.TargetUser
	path := n.Cfg.SudoersFile
	policy := fmt.Sprintf("%s ALL=(ALL) NOPASSWD:ALL\n", target)

	if err := n.Run.WriteFile(ctx, path, []byte(policy), 0440); err != nil {
		return fmt.Errorf("write sudo policy %s: %w", path, err)
	}
	if err := n.Run.VisudoCheck(ctx, path); err != nil {
		if rmErr := n.Run.Remove(ctx, path); rmErr != nil {
			err = errors.Join(err, rmErr)
		}
		return fmt.Errorf("sudo policy rejected by visudo, removed %s: %w", path, err)
	}

	logger.Success("passwordless sudo enabled for %s (%s)", target, path)
	return nil
}
