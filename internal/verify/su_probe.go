package verify

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/creack/pty"
)

var (
	ErrProbeBackend  = errors.New("sudo probe backend error")
	ErrPasswordAsked = errors.New("sudo asked for a password")
)

// ProbeSudo switches into the target account with su(1) behind a PTY and
// runs "sudo -n true". The PTY matters: su and sudo only prompt when they
// see a terminal, and a prompt is exactly the failure we are probing for.
// The caller must already be privileged (root does not need a password to su).
func ProbeSudo(ctx context.Context, username string) error {
	if strings.TrimSpace(username) == "" {
		return fmt.Errorf("%w: empty username", ErrProbeBackend)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "su", "-s", "/bin/sh", "-c", "sudo -n true", username)
	f, err := pty.Start(cmd)
	if err != nil {
		return fmt.Errorf("%w: start su: %v", ErrProbeBackend, err)
	}
	defer func() { _ = f.Close() }()

	prompted := false
	var out bytes.Buffer
	readerDone := make(chan struct{})

	go func() {
		defer close(readerDone)
		br := bufio.NewReader(f)
		buf := make([]byte, 4096)
		for {
			_ = f.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
			n, rerr := br.Read(buf)
			if n > 0 {
				out.Write(buf[:n])
				if strings.Contains(strings.ToLower(out.String()), "password") {
					prompted = true
				}
			}
			if rerr != nil {
				return
			}
		}
	}()

	err = cmd.Wait()
	<-readerDone

	if prompted {
		return ErrPasswordAsked
	}
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return fmt.Errorf("%w: su timed out", ErrProbeBackend)
	}
	return fmt.Errorf("sudo -n true failed as %s: %w", username, err)
}
