package hue

import (
	"strings"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/assert"
)

// reference hashes the UTF-16 code units with 64-bit arithmetic and truncates
// each step, which is what a two's complement int32 accumulator must reproduce.
func reference(s string) Bucket {
	var acc int64
	for _, u := range utf16.Encode([]rune(s)) {
		acc = int64(int32(acc*31 + int64(u)))
	}
	if acc < 0 {
		acc = -acc
	}
	return Bucket(acc % BucketCount)
}

func TestClassify(t *testing.T) {
	t.Run("empty string is bucket zero", func(t *testing.T) {
		assert.Equal(t, Bucket(0), Classify(""))
	})

	t.Run("single character", func(t *testing.T) {
		// 'a' = 97, 97 % 37 = 23
		assert.Equal(t, Bucket(23), Classify("a"))
	})

	t.Run("short string without wraparound", func(t *testing.T) {
		// "ab" = 97*31 + 98 = 3105, 3105 % 37 = 34
		assert.Equal(t, Bucket(34), Classify("ab"))
	})

	t.Run("is deterministic", func(t *testing.T) {
		ids := []string{"participant-0000000000000001", "x", "socket-id-abcdefghijkl", strings.Repeat("z", 200)}
		for _, id := range ids {
			assert.Equal(t, Classify(id), Classify(id), id)
		}
	})

	t.Run("wraps at 32 bits for long strings", func(t *testing.T) {
		ids := []string{
			"participant-0000000000000001",
			"KJH8923hjkfd-asdjkh2389fh23",
			strings.Repeat("Z", 64),
			"anon_07abcdefghij",
		}
		for _, id := range ids {
			got := Classify(id)
			assert.Equal(t, reference(id), got, id)
			assert.True(t, got.Valid())
		}
	})

	t.Run("hashes UTF-16 code units", func(t *testing.T) {
		// U+1F600 is a surrogate pair 0xD83D 0xDE00
		want := Bucket((int64(0xD83D)*31 + 0xDE00) % BucketCount)
		assert.Equal(t, want, Classify("\U0001F600"))
		assert.Equal(t, reference("\U0001F600"), want)

		for _, id := range []string{"participant-\U0001F600-0001", "zoë-\U0001F47B-ghost", "日本語テキスト"} {
			assert.Equal(t, reference(id), Classify(id), id)
		}
	})
}

func TestBucket(t *testing.T) {
	assert.True(t, Bucket(0).Valid())
	assert.True(t, Bucket(36).Valid())
	assert.False(t, Bucket(-1).Valid())
	assert.False(t, Bucket(37).Valid())

	assert.NoError(t, Bucket(12).Validate())
	err := Bucket(40).Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "bucket must be in [0,36]")

	assert.Equal(t, 0, Bucket(0).Hue())
	assert.Equal(t, 360, Bucket(36).Hue())
}
