// Package password generates the emergency console password assigned to a
// freshly created operator account. SSH keys are the intended login path;
// the password only has to exist and be unguessable, so generation is a
// ranked chain of sources and the caller decides how loudly to complain
// when only the weak terminal source is available.
package password

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/GehirnInc/crypt/sha512_crypt"
)

const DefaultLength = 24

var ErrNoSource = errors.New("no random password source available")

// Provider produces n characters of printable random text.
type Provider interface {
	Name() string
	Generate(n int) (string, error)
}

// Weak marks providers whose output is predictable; callers warn when the
// chain had to fall through to one.
type Weak interface {
	Weak() bool
}

// Chain tries providers in rank order and returns the first success along
// with the name of the provider that produced it.
type Chain struct {
	providers []Provider
}

func NewChain(providers ...Provider) *Chain {
	return &Chain{providers: providers}
}

// DefaultChain ranks sources strongest-first: the openssl utility, the
// runtime CSPRNG, raw kernel entropy, and a timestamp hash as the
// guaranteed-success terminal strategy.
func DefaultChain() *Chain {
	return NewChain(
		OpenSSL{},
		CryptoRand{},
		Urandom{},
		TimestampHash{},
	)
}

func (c *Chain) Generate(n int) (pw, source string, err error) {
	if len(c.providers) == 0 {
		return "", "", ErrNoSource
	}
	var last error
	for _, p := range c.providers {
		s, err := p.Generate(n)
		if err != nil {
			last = err
			continue
		}
		return s, p.Name(), nil
	}
	return "", "", fmt.Errorf("%w: %v", ErrNoSource, last)
}

// IsWeak reports whether the named provider in the chain is a weak source.
func (c *Chain) IsWeak(name string) bool {
	for _, p := range c.providers {
		if p.Name() != name {
			continue
		}
		w, ok := p.(Weak)
		return ok && w.Weak()
	}
	return false
}

// OpenSSL shells out to the openssl utility.
type OpenSSL struct{}

func (OpenSSL) Name() string { return "openssl" }

func (OpenSSL) Generate(n int) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	out, err := exec.CommandContext(ctx, "openssl", "rand", "-base64", fmt.Sprintf("%d", n)).Output()
	if err != nil {
		return "", fmt.Errorf("openssl rand: %w", err)
	}
	s := strings.TrimSpace(string(out))
	if len(s) < n {
		return "", fmt.Errorf("openssl rand: short output")
	}
	return s[:n], nil
}

// CryptoRand uses the runtime's CSPRNG.
type CryptoRand struct{}

func (CryptoRand) Name() string { return "crypto/rand" }

func (CryptoRand) Generate(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	s := base64.RawURLEncoding.EncodeToString(b)
	return s[:n], nil
}

// Urandom reads kernel entropy directly and keeps only alphanumerics.
type Urandom struct{}

func (Urandom) Name() string { return "urandom" }

func (Urandom) Generate(n int) (string, error) {
	f, err := os.Open("/dev/urandom")
	if err != nil {
		return "", err
	}
	defer f.Close()

	var b strings.Builder
	buf := make([]byte, 256)
	for b.Len() < n {
		k, err := f.Read(buf)
		if err != nil {
			return "", err
		}
		for _, c := range buf[:k] {
			if isAlnum(c) {
				b.WriteByte(c)
				if b.Len() == n {
					break
				}
			}
		}
	}
	return b.String(), nil
}

func isAlnum(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

// TimestampHash is the terminal strategy: a hex SHA-256 of the current
// nanosecond clock. Predictable, but never fails.
type TimestampHash struct{}

func (TimestampHash) Name() string { return "timestamp" }

func (TimestampHash) Weak() bool { return true }

func (TimestampHash) Generate(n int) (string, error) {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d", time.Now().UnixNano())))
	s := hex.EncodeToString(sum[:])
	if n > len(s) {
		n = len(s)
	}
	return s[:n], nil
}

// Hash produces a sha512-crypt shadow hash suitable for chpasswd -e, so the
// plaintext never has to reach the host tools.
func Hash(plaintext string) (string, error) {
	return sha512_crypt.New().Generate([]byte(plaintext), nil)
}
