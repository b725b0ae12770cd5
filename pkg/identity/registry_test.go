package identity

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/dyluth/veil/pkg/hue"
	"github.com/dyluth/veil/pkg/pseudonym"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T, bucket hue.Bucket, genOpts ...pseudonym.Option) *Registry {
	t.Helper()
	genOpts = append([]pseudonym.Option{pseudonym.WithRand(rand.New(rand.NewPCG(11, 13)))}, genOpts...)
	reg, err := NewRegistry(Options{
		TargetBucket: bucket,
		Prefix:       pseudonym.DefaultPrefix,
		SuffixLength: pseudonym.DefaultSuffixLength,
		Generator:    pseudonym.NewGenerator(genOpts...),
	})
	require.NoError(t, err)
	return reg
}

func TestNewRegistry(t *testing.T) {
	t.Run("rejects out of range bucket", func(t *testing.T) {
		_, err := NewRegistry(Options{TargetBucket: 37, Prefix: "p_", SuffixLength: 5})
		assert.ErrorIs(t, err, pseudonym.ErrInvalidParameter)
	})

	t.Run("rejects short suffix", func(t *testing.T) {
		_, err := NewRegistry(Options{TargetBucket: 3, Prefix: "p_", SuffixLength: 2})
		assert.ErrorIs(t, err, pseudonym.ErrInvalidParameter)
	})

	t.Run("applies defaults", func(t *testing.T) {
		reg, err := NewRegistry(Options{TargetBucket: 3, Prefix: "p_", SuffixLength: 5})
		require.NoError(t, err)
		assert.Equal(t, "p_", reg.Prefix())
		assert.Equal(t, hue.Bucket(3), reg.TargetBucket())
		assert.Equal(t, 0, reg.Len())
	})
}

func TestResolve(t *testing.T) {
	t.Run("mints into the target bucket", func(t *testing.T) {
		reg := newTestRegistry(t, 21)
		p, err := reg.Resolve("participant-0000000000000001")
		require.NoError(t, err)
		assert.True(t, reg.IsPseudonym(p))
		assert.Equal(t, hue.Bucket(21), hue.Classify(p))
	})

	t.Run("is stable for the same identity", func(t *testing.T) {
		reg := newTestRegistry(t, 4)
		first, err := reg.Resolve("participant-0000000000000001")
		require.NoError(t, err)
		second, err := reg.Resolve("participant-0000000000000001")
		require.NoError(t, err)
		assert.Equal(t, first, second)
		assert.Equal(t, 1, reg.Len())
	})

	t.Run("distinct identities get distinct pseudonyms", func(t *testing.T) {
		reg := newTestRegistry(t, 30)
		seen := make(map[string]string)
		for i := 0; i < 100; i++ {
			identity := uuid.New().String()
			p, err := reg.Resolve(identity)
			require.NoError(t, err)
			if other, dup := seen[p]; dup {
				t.Fatalf("pseudonym %s shared by %s and %s", p, other, identity)
			}
			seen[p] = identity
		}
		assert.Equal(t, 100, reg.Len())
	})

	t.Run("passes through existing pseudonyms", func(t *testing.T) {
		reg := newTestRegistry(t, 8)
		p, err := reg.Resolve("anon_08alreadydone")
		require.NoError(t, err)
		assert.Equal(t, "anon_08alreadydone", p)
		assert.Equal(t, 0, reg.Len())

		minted, err := reg.Resolve("participant-0000000000000002")
		require.NoError(t, err)
		again, err := reg.Resolve(minted)
		require.NoError(t, err)
		assert.Equal(t, minted, again)
		assert.Equal(t, 1, reg.Len())
	})

	t.Run("minted pseudonym passes through with empty prefix", func(t *testing.T) {
		reg, err := NewRegistry(Options{
			TargetBucket: 4,
			SuffixLength: 16,
			Generator:    pseudonym.NewGenerator(pseudonym.WithRand(rand.New(rand.NewPCG(3, 5)))),
		})
		require.NoError(t, err)

		minted, err := reg.Resolve("participant-0000000000000003")
		require.NoError(t, err)
		assert.False(t, reg.IsPseudonym(minted))

		again, err := reg.Resolve(minted)
		require.NoError(t, err)
		assert.Equal(t, minted, again)
		assert.Equal(t, 1, reg.Len())
	})

	t.Run("records creation time from the clock", func(t *testing.T) {
		fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		reg, err := NewRegistry(Options{
			TargetBucket: 1,
			Prefix:       "p_",
			SuffixLength: 6,
			Clock:        func() time.Time { return fixed },
		})
		require.NoError(t, err)

		p, err := reg.Resolve("participant-0000000000000003")
		require.NoError(t, err)

		a, err := reg.ReverseLookup(p)
		require.NoError(t, err)
		assert.Equal(t, fixed, a.CreatedAt)
		assert.Equal(t, "participant-0000000000000003", a.Identity)
		assert.Equal(t, hue.Bucket(1), a.Bucket)
		_, err = uuid.Parse(a.ID)
		assert.NoError(t, err)
	})

	t.Run("generation failure leaves registry unchanged", func(t *testing.T) {
		reg := newTestRegistry(t, 17, pseudonym.WithMaxAttempts(1))

		failures := 0
		for i := 0; i < 100; i++ {
			identity := fmt.Sprintf("participant-%016d", i)
			_, err := reg.Resolve(identity)
			if err != nil {
				assert.ErrorIs(t, err, pseudonym.ErrGenerationExhausted)
				_, ok := reg.Lookup(identity)
				assert.False(t, ok)
				failures++
			}
		}
		assert.Positive(t, failures)
		assert.Equal(t, 100-failures, reg.Len())
	})

	t.Run("concurrent first sight mints once", func(t *testing.T) {
		reg, err := NewRegistry(Options{TargetBucket: 12, Prefix: "p_", SuffixLength: 8})
		require.NoError(t, err)

		const workers = 32
		results := make([]string, workers)
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				p, err := reg.Resolve("participant-concurrent-000001")
				assert.NoError(t, err)
				results[i] = p
			}(i)
		}
		wg.Wait()

		for _, p := range results {
			assert.Equal(t, results[0], p)
		}
		assert.Equal(t, 1, reg.Len())
	})
}

func TestReverseLookup(t *testing.T) {
	reg := newTestRegistry(t, 2)

	p, err := reg.Resolve("participant-0000000000000009")
	require.NoError(t, err)

	a, err := reg.ReverseLookup(p)
	require.NoError(t, err)
	assert.Equal(t, "participant-0000000000000009", a.Identity)
	assert.Equal(t, p, a.Pseudonym)

	// returned record is a copy
	a.Identity = "tampered"
	again, err := reg.ReverseLookup(p)
	require.NoError(t, err)
	assert.Equal(t, "participant-0000000000000009", again.Identity)

	_, err = reg.ReverseLookup("anon_02unknown")
	assert.True(t, IsNotFound(err))
}

func TestLookup(t *testing.T) {
	reg := newTestRegistry(t, 2)

	_, ok := reg.Lookup("participant-0000000000000010")
	assert.False(t, ok)
	assert.Equal(t, 0, reg.Len())

	p, err := reg.Resolve("participant-0000000000000010")
	require.NoError(t, err)

	got, ok := reg.Lookup("participant-0000000000000010")
	assert.True(t, ok)
	assert.Equal(t, p, got)
}

func TestSnapshot(t *testing.T) {
	tick := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	reg, err := NewRegistry(Options{
		TargetBucket: 5,
		Prefix:       "p_",
		SuffixLength: 6,
		Clock: func() time.Time {
			tick = tick.Add(time.Second)
			return tick
		},
	})
	require.NoError(t, err)

	ids := []string{"participant-c-0000000001", "participant-a-0000000002", "participant-b-0000000003"}
	for _, id := range ids {
		_, err := reg.Resolve(id)
		require.NoError(t, err)
	}

	snap := reg.Snapshot()
	require.Len(t, snap, 3)
	for i, a := range snap {
		assert.Equal(t, ids[i], a.Identity)
	}
}
