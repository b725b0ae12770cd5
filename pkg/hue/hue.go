// Package hue classifies strings into one of 37 color buckets.
//
// The classification mirrors the collaborator-color scheme of the host
// application: a 31-multiplier rolling hash over the string's UTF-16 code
// units, folded into a signed 32-bit accumulator and reduced modulo 37.
package hue

import (
	"fmt"
	"unicode/utf16"
)

const (
	// BucketCount is the number of discrete buckets.
	BucketCount = 37

	// MaxBucket is the highest valid bucket value.
	MaxBucket = BucketCount - 1

	// degreesPerBucket spreads the buckets across the color wheel.
	degreesPerBucket = 10
)

// Bucket is a classification of a string into one of BucketCount colors.
type Bucket int

// Valid reports whether b lies in [0, MaxBucket].
func (b Bucket) Valid() bool {
	return b >= 0 && b <= MaxBucket
}

// Validate returns an error if b is out of range.
func (b Bucket) Validate() error {
	if !b.Valid() {
		return fmt.Errorf("bucket must be in [0,%d], got %d", MaxBucket, int(b))
	}
	return nil
}

// Hue returns the bucket's position on the color wheel in degrees.
func (b Bucket) Hue() int {
	return int(b) * degreesPerBucket
}

// Classify maps id to its bucket. It is pure and deterministic.
func Classify(id string) Bucket {
	var acc int32
	for _, code := range utf16.Encode([]rune(id)) {
		acc = acc*31 + int32(code)
	}

	// int64 so that abs(MinInt32) does not overflow
	abs := int64(acc)
	if abs < 0 {
		abs = -abs
	}
	return Bucket(abs % BucketCount)
}
