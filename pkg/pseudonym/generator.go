// Package pseudonym mints substitute identifiers that land in a chosen hue bucket.
//
// A pseudonym has the shape <prefix><2-digit bucket><random suffix>. The
// generator searches by rejection sampling: it synthesizes candidates until
// one both classifies into the target bucket and is absent from the set of
// already issued pseudonyms. The search is capped; a saturated bucket fails
// with ErrGenerationExhausted instead of spinning.
package pseudonym

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/dyluth/veil/pkg/hue"
	log "github.com/sirupsen/logrus"
)

const (
	// DefaultPrefix marks a key as already pseudonymized.
	DefaultPrefix = "anon_"

	// DefaultSuffixLength is the random suffix length used when none is configured.
	DefaultSuffixLength = 10

	// MinSuffixLength is the smallest suffix that keeps the search practical.
	MinSuffixLength = 3

	// DefaultMaxAttempts caps the rejection search.
	DefaultMaxAttempts = 10000

	alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

var (
	// ErrInvalidParameter is returned for an out-of-range bucket or a too-short suffix.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrGenerationExhausted is returned when the attempt cap is reached.
	ErrGenerationExhausted = errors.New("pseudonym generation exhausted")
)

// Set is a read-only view of pseudonyms that have already been issued.
type Set interface {
	Contains(pseudonym string) bool
}

// MapSet adapts a plain map to Set.
type MapSet map[string]struct{}

// Contains reports whether p is in the set.
func (s MapSet) Contains(p string) bool {
	_, ok := s[p]
	return ok
}

// Add inserts p into the set.
func (s MapSet) Add(p string) {
	s[p] = struct{}{}
}

// Generator mints pseudonyms. The zero value is not usable; use NewGenerator.
// A Generator is not safe for concurrent use unless its random source is.
type Generator struct {
	rng         *rand.Rand
	maxAttempts int
}

// Option configures a Generator.
type Option func(*Generator)

// WithRand sets the random source. Tests use a seeded source for reproducibility.
func WithRand(r *rand.Rand) Option {
	return func(g *Generator) {
		g.rng = r
	}
}

// WithMaxAttempts overrides DefaultMaxAttempts. Values below 1 are ignored.
func WithMaxAttempts(n int) Option {
	return func(g *Generator) {
		if n >= 1 {
			g.maxAttempts = n
		}
	}
}

// NewGenerator creates a Generator seeded from the runtime's random source.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		rng:         rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		maxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// MaxAttempts returns the configured attempt cap.
func (g *Generator) MaxAttempts() int {
	return g.maxAttempts
}

// Generate returns a new pseudonym p with hue.Classify(p) == target and
// p absent from existing. existing may be nil. The caller records the result.
func (g *Generator) Generate(target hue.Bucket, existing Set, suffixLength int, prefix string) (string, error) {
	if err := target.Validate(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidParameter, err)
	}
	if suffixLength < MinSuffixLength {
		return "", fmt.Errorf("%w: suffix length must be >= %d, got %d", ErrInvalidParameter, MinSuffixLength, suffixLength)
	}

	head := prefix + fmt.Sprintf("%02d", int(target))
	buf := make([]byte, len(head)+suffixLength)
	copy(buf, head)

	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		for i := len(head); i < len(buf); i++ {
			buf[i] = alphabet[g.rng.IntN(len(alphabet))]
		}
		candidate := string(buf)

		if existing != nil && existing.Contains(candidate) {
			continue
		}
		if hue.Classify(candidate) != target {
			continue
		}

		log.WithFields(log.Fields{
			"bucket":   int(target),
			"attempts": attempt,
		}).Debug("pseudonym minted")
		return candidate, nil
	}

	log.WithFields(log.Fields{
		"bucket":       int(target),
		"max_attempts": g.maxAttempts,
	}).Warn("pseudonym search exhausted")
	return "", fmt.Errorf("%w: no candidate for bucket %d after %d attempts", ErrGenerationExhausted, int(target), g.maxAttempts)
}

// HasPrefix reports whether s is already a pseudonym under prefix.
// An empty prefix never matches, so unprefixed deployments do not treat
// every key as processed.
func HasPrefix(s, prefix string) bool {
	return prefix != "" && strings.HasPrefix(s, prefix)
}

// BucketOf decodes the 2-digit bucket marker that follows prefix.
func BucketOf(p, prefix string) (hue.Bucket, error) {
	if !HasPrefix(p, prefix) || len(p) < len(prefix)+2 {
		return 0, fmt.Errorf("%q is not a pseudonym with prefix %q", p, prefix)
	}
	n, err := strconv.Atoi(p[len(prefix) : len(prefix)+2])
	if err != nil {
		return 0, fmt.Errorf("invalid bucket marker in %q: %w", p, err)
	}
	b := hue.Bucket(n)
	if err := b.Validate(); err != nil {
		return 0, err
	}
	return b, nil
}

// Generate mints a pseudonym with a freshly seeded Generator and default attempt cap.
func Generate(target hue.Bucket, existing Set, suffixLength int, prefix string) (string, error) {
	return NewGenerator().Generate(target, existing, suffixLength, prefix)
}
