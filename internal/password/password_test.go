package password

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	name string
	out  string
	err  error
	weak bool
}

func (f fakeProvider) Name() string { return f.name }
func (f fakeProvider) Weak() bool   { return f.weak }
func (f fakeProvider) Generate(n int) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.out, nil
}

func TestChainRankOrder(t *testing.T) {
	c := NewChain(
		fakeProvider{name: "first", err: errors.New("unavailable")},
		fakeProvider{name: "second", out: "s3cret"},
		fakeProvider{name: "third", out: "never-reached"},
	)
	pw, source, err := c.Generate(6)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", pw)
	assert.Equal(t, "second", source)
}

func TestChainExhausted(t *testing.T) {
	c := NewChain(fakeProvider{name: "only", err: errors.New("boom")})
	_, _, err := c.Generate(8)
	assert.ErrorIs(t, err, ErrNoSource)

	_, _, err = NewChain().Generate(8)
	assert.ErrorIs(t, err, ErrNoSource)
}

func TestChainIsWeak(t *testing.T) {
	c := NewChain(
		fakeProvider{name: "strong", out: "x"},
		fakeProvider{name: "feeble", out: "y", weak: true},
	)
	assert.False(t, c.IsWeak("strong"))
	assert.True(t, c.IsWeak("feeble"))
	assert.False(t, c.IsWeak("unknown"))
}

func TestDefaultChainTerminalStrategy(t *testing.T) {
	// The terminal provider guarantees the default chain never fails.
	pw, source, err := DefaultChain().Generate(DefaultLength)
	require.NoError(t, err)
	assert.Len(t, pw, DefaultLength)
	assert.NotEmpty(t, source)
}

func TestCryptoRandLengthAndCharset(t *testing.T) {
	pw, err := CryptoRand{}.Generate(32)
	require.NoError(t, err)
	assert.Len(t, pw, 32)
	assert.NotContains(t, pw, "\n")
}

func TestUrandomAlnumOnly(t *testing.T) {
	pw, err := Urandom{}.Generate(40)
	require.NoError(t, err)
	require.Len(t, pw, 40)
	for i := 0; i < len(pw); i++ {
		assert.True(t, isAlnum(pw[i]), "non-alnum byte %q", pw[i])
	}
}

func TestTimestampHashAlwaysSucceeds(t *testing.T) {
	p := TimestampHash{}
	pw, err := p.Generate(24)
	require.NoError(t, err)
	assert.Len(t, pw, 24)
	assert.True(t, p.Weak())

	// Longer than a sha256 hex digest: clamped, not failed.
	pw, err = p.Generate(100)
	require.NoError(t, err)
	assert.Len(t, pw, 64)
}

func TestHashShape(t *testing.T) {
	h, err := Hash("correct horse battery staple")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(h, "$6$"), "want sha512-crypt hash, got %q", h)

	h2, err := Hash("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, h, h2, "salts must differ")
}
