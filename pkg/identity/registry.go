// Package identity maintains the session-scoped mapping between participant
// identities and their pseudonyms.
//
// A Registry is a bijection: every identity maps to exactly one pseudonym and
// no pseudonym is shared. Assignments are created once, never mutated and
// never deleted for the lifetime of the Registry. There is no expiry; a
// collaboration session is short-lived and its population small, so the
// registry is allowed to grow for as long as the session lasts.
package identity

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dyluth/veil/pkg/hue"
	"github.com/dyluth/veil/pkg/pseudonym"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// ErrNotFound is returned by ReverseLookup for an unknown pseudonym.
var ErrNotFound = errors.New("pseudonym not found")

// Assignment records the pseudonym minted for one identity.
type Assignment struct {
	ID        string     `json:"id"`         // UUID of this record
	Identity  string     `json:"identity"`   // Raw participant key
	Pseudonym string     `json:"pseudonym"`  // Substitute key
	Bucket    hue.Bucket `json:"bucket"`     // Target bucket at mint time
	CreatedAt time.Time  `json:"created_at"` // When the identity was first seen
}

// Options configures a Registry.
type Options struct {
	TargetBucket hue.Bucket
	Prefix       string
	SuffixLength int
	Generator    *pseudonym.Generator // nil uses pseudonym.NewGenerator()
	Clock        func() time.Time     // nil uses time.Now
}

// Validate checks the options without minting anything, so misconfiguration
// surfaces when the registry is constructed rather than on first write.
func (o Options) Validate() error {
	if err := o.TargetBucket.Validate(); err != nil {
		return fmt.Errorf("%w: %v", pseudonym.ErrInvalidParameter, err)
	}
	if o.SuffixLength < pseudonym.MinSuffixLength {
		return fmt.Errorf("%w: suffix length must be >= %d, got %d",
			pseudonym.ErrInvalidParameter, pseudonym.MinSuffixLength, o.SuffixLength)
	}
	return nil
}

// Registry is safe for concurrent use.
type Registry struct {
	opts Options

	mu          sync.Mutex
	byIdentity  map[string]*Assignment
	byPseudonym map[string]*Assignment
	issued      pseudonym.MapSet
}

// NewRegistry creates an empty registry. Returns an error wrapping
// pseudonym.ErrInvalidParameter if the options are out of range.
func NewRegistry(opts Options) (*Registry, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.Generator == nil {
		opts.Generator = pseudonym.NewGenerator()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	return &Registry{
		opts:        opts,
		byIdentity:  make(map[string]*Assignment),
		byPseudonym: make(map[string]*Assignment),
		issued:      pseudonym.MapSet{},
	}, nil
}

// Prefix returns the pseudonym prefix this registry mints with.
func (r *Registry) Prefix() string {
	return r.opts.Prefix
}

// TargetBucket returns the bucket every new pseudonym lands in.
func (r *Registry) TargetBucket() hue.Bucket {
	return r.opts.TargetBucket
}

// IsPseudonym reports whether key already carries the pseudonym prefix.
func (r *Registry) IsPseudonym(key string) bool {
	return pseudonym.HasPrefix(key, r.opts.Prefix)
}

// Resolve returns the pseudonym for identity, minting one on first sight.
// A key that already carries the prefix, or that this registry minted, is
// returned unchanged and creates no assignment. Generation errors are returned as-is and leave the registry
// unchanged.
func (r *Registry) Resolve(identity string) (string, error) {
	if r.IsPseudonym(identity) {
		return identity, nil
	}

	// The lookup-miss, generate, insert sequence must be atomic or two callers
	// could mint different pseudonyms for the same identity.
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byPseudonym[identity]; ok {
		return identity, nil
	}
	if a, ok := r.byIdentity[identity]; ok {
		return a.Pseudonym, nil
	}

	p, err := r.opts.Generator.Generate(r.opts.TargetBucket, r.issued, r.opts.SuffixLength, r.opts.Prefix)
	if err != nil {
		return "", fmt.Errorf("failed to assign pseudonym: %w", err)
	}

	a := &Assignment{
		ID:        uuid.New().String(),
		Identity:  identity,
		Pseudonym: p,
		Bucket:    r.opts.TargetBucket,
		CreatedAt: r.opts.Clock(),
	}
	r.byIdentity[identity] = a
	r.byPseudonym[p] = a
	r.issued.Add(p)

	log.WithFields(log.Fields{
		"assignment_id": a.ID,
		"pseudonym":     p,
		"bucket":        int(a.Bucket),
	}).Debug("identity assigned")

	return p, nil
}

// Lookup returns the pseudonym already assigned to identity without minting.
func (r *Registry) Lookup(identity string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byIdentity[identity]
	if !ok {
		return "", false
	}
	return a.Pseudonym, true
}

// ReverseLookup returns a copy of the assignment for pseudonym, or ErrNotFound.
func (r *Registry) ReverseLookup(p string) (*Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byPseudonym[p]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	cp := *a
	return &cp, nil
}

// Len returns the number of assignments.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byIdentity)
}

// Snapshot returns copies of all assignments ordered by creation time.
func (r *Registry) Snapshot() []Assignment {
	r.mu.Lock()
	out := make([]Assignment, 0, len(r.byIdentity))
	for _, a := range r.byIdentity {
		out = append(out, *a)
	}
	r.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Pseudonym < out[j].Pseudonym
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// IsNotFound reports whether err is a reverse lookup miss.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
