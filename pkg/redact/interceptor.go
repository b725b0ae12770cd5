// Package redact wraps a presence collection so that every consumer sees
// pseudonymized keys and stripped values without changing how it calls the
// collection.
//
// Writes and enumeration are treated differently:
//
//   - Set rewrites a participant key to its pseudonym and strips the fields
//     selected by the Policy before the value reaches the backing store. The
//     rewrite is persisted and the caller's value is modified in place.
//   - ForEach (and Entries, when enabled) only changes the key handed to the
//     callback. The backing store and the values are left untouched.
//
// Deciding which enumerated entries are participants is heuristic: the key
// must be at least MinimumIdentityLength long and the value must carry one of
// presence.PresenceFields. Unrelated entries that happen to satisfy both
// will be pseudonymized too.
package redact

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/dyluth/veil/pkg/presence"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

// Resolver maps an identity to its pseudonym. *identity.Registry implements it.
type Resolver interface {
	Resolve(identity string) (string, error)
}

// Interceptor is a presence.Collection decorator.
type Interceptor struct {
	backing  presence.Collection
	resolver Resolver
	policy   Policy
}

var _ presence.Collection = (*Interceptor)(nil)

// New wraps backing. resolver may only be nil when the policy does not pseudonymize.
func New(backing presence.Collection, resolver Resolver, policy Policy) (*Interceptor, error) {
	if backing == nil {
		return nil, fmt.Errorf("backing collection cannot be nil")
	}
	if policy.Pseudonymize && resolver == nil {
		return nil, fmt.Errorf("pseudonymizing policy requires a resolver")
	}

	return &Interceptor{
		backing:  backing,
		resolver: resolver,
		policy:   policy,
	}, nil
}

// Policy returns the policy in effect.
func (i *Interceptor) Policy() Policy {
	return i.policy
}

// Unwrap returns the backing collection.
func (i *Interceptor) Unwrap() presence.Collection {
	return i.backing
}

// Set stores value, pseudonymizing key when the value is a presence record
// carrying a pointer, and deleting the fields the policy strips.
// If the key cannot be resolved nothing is written and value is unchanged.
func (i *Interceptor) Set(ctx context.Context, key string, value any) error {
	rec, ok := presence.AsRecord(value)
	if !ok {
		return i.backing.Set(ctx, key, value)
	}

	if i.policy.Pseudonymize && rec.Has(presence.FieldPointer) {
		p, err := i.resolver.Resolve(key)
		if err != nil {
			return fmt.Errorf("failed to pseudonymize presence key: %w", err)
		}
		key = p
	}

	for _, field := range i.policy.strippedFields() {
		delete(rec, field)
	}

	return i.backing.Set(ctx, key, value)
}

// Get is a passthrough.
func (i *Interceptor) Get(ctx context.Context, key string) (any, bool, error) {
	return i.backing.Get(ctx, key)
}

// Delete is a passthrough.
func (i *Interceptor) Delete(ctx context.Context, key string) error {
	return i.backing.Delete(ctx, key)
}

// Len is a passthrough.
func (i *Interceptor) Len(ctx context.Context) (int, error) {
	return i.backing.Len(ctx)
}

// ForEach traverses the backing store, handing fn the presented key for
// each entry. Values are passed through unmodified.
func (i *Interceptor) ForEach(ctx context.Context, fn func(key string, value any) error) error {
	return i.backing.ForEach(ctx, func(key string, value any) error {
		presented, err := i.Present(key, value)
		if err != nil {
			return err
		}
		return fn(presented, value)
	})
}

// Entries returns a snapshot of the collection. Keys are presented as in
// ForEach when the policy sets InterceptEntries; otherwise they are raw.
func (i *Interceptor) Entries(ctx context.Context) ([]presence.Entry, error) {
	if !i.policy.InterceptEntries {
		return presence.Entries(ctx, i.backing)
	}
	return presence.Entries(ctx, i)
}

// Present returns the key under which an enumerated entry is shown.
func (i *Interceptor) Present(key string, value any) (string, error) {
	if !i.policy.Pseudonymize || !i.isParticipant(key, value) {
		return key, nil
	}

	p, err := i.resolver.Resolve(key)
	if err != nil {
		return "", fmt.Errorf("failed to pseudonymize presence key: %w", err)
	}

	if i.policy.EnumerationDebug {
		rec, _ := presence.AsRecord(value)
		log.WithFields(log.Fields{
			"key":    p,
			"fields": lo.Keys(rec),
		}).Info("presence entry enumerated")
	}

	return p, nil
}

func (i *Interceptor) isParticipant(key string, value any) bool {
	if utf8.RuneCountInString(key) < i.policy.IdentityLength() {
		return false
	}
	rec, ok := presence.AsRecord(value)
	return ok && rec.HasAny(presence.PresenceFields...)
}
