package generator

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	randv2 "math/rand/v2"
	"strings"
)

const (
	Letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	Digits  = "0123456789"
	Symbols = "!@#$%^&*-_+=[]{}~`"

	MinLength     = 6
	MaxLength     = 100
	DefaultLength = 8
)

// Config selects the length and character classes of a generated password.
type Config struct {
	Length       int  `json:"length" yaml:"length"`
	AllowNumbers bool `json:"allowNumbers" yaml:"allowNumbers"`
	AllowSymbols bool `json:"allowSymbols" yaml:"allowSymbols"`
}

// DefaultConfig mirrors the initial state of the generator panel.
func DefaultConfig() Config {
	return Config{Length: DefaultLength}
}

// Validate reports whether the length lies within [MinLength, MaxLength].
// Generate does not call it; bounds are enforced by the callers.
func (c Config) Validate() error {
	if c.Length < MinLength || c.Length > MaxLength {
		return fmt.Errorf("length %d out of range [%d,%d]", c.Length, MinLength, MaxLength)
	}
	return nil
}

// Alphabet returns the characters eligible for c. Letters are always present.
func Alphabet(c Config) string {
	var b strings.Builder
	b.WriteString(Letters)
	if c.AllowNumbers {
		b.WriteString(Digits)
	}
	if c.AllowSymbols {
		b.WriteString(Symbols)
	}
	return b.String()
}

// Source yields uniform integers in [0, n).
type Source interface {
	IntN(n int) int
}

type mathSource struct{}

func (mathSource) IntN(n int) int {
	return randv2.IntN(n)
}

type cryptoSource struct{}

// IntN falls back to math/rand, with a warning, when the system entropy pool
// cannot be read.
func (cryptoSource) IntN(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		slog.Warn("crypto/rand unavailable, falling back to math/rand", "error", err)
		return randv2.IntN(n)
	}
	return int(v.Int64())
}

// MathSource returns a source backed by the math/rand/v2 global generator.
func MathSource() Source { return mathSource{} }

// CryptoSource returns a source backed by crypto/rand.
func CryptoSource() Source { return cryptoSource{} }

type Generator struct {
	source Source
}

// NewGenerator creates a generator drawing from source; a nil source uses MathSource.
func NewGenerator(source Source) *Generator {
	if source == nil {
		source = MathSource()
	}
	return &Generator{source: source}
}

// Generate returns exactly c.Length characters, each drawn independently from
// Alphabet(c). A non-positive length yields the empty string.
func (g *Generator) Generate(c Config) string {
	if c.Length <= 0 {
		return ""
	}
	alphabet := Alphabet(c)

	var sb strings.Builder
	sb.Grow(c.Length)
	for i := 0; i < c.Length; i++ {
		sb.WriteByte(alphabet[g.source.IntN(len(alphabet))])
	}
	return sb.String()
}

// Generate uses the default math/rand source.
func Generate(c Config) string {
	return NewGenerator(nil).Generate(c)
}
