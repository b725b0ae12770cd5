// Package filter selects presence entries for display.
package filter

import (
	"path/filepath"

	"github.com/dyluth/veil/pkg/hue"
	"github.com/dyluth/veil/pkg/presence"
)

// Criteria defines filtering criteria for presence entries.
// All filters are ANDed together - an entry must match ALL criteria to pass.
type Criteria struct {
	KeyGlob string      // Glob pattern for the shown key, empty = no filter
	Bucket  *hue.Bucket // Hue bucket of the shown key, nil = no filter
	Fields  []string    // Fields the value must carry, empty = no filter
}

// Matches returns true if the entry matches all filter criteria.
// key is the key as shown, so pseudonyms are matched rather than raw IDs.
func (c *Criteria) Matches(key string, value any) bool {
	if c.KeyGlob != "" {
		matched, err := filepath.Match(c.KeyGlob, key)
		if err != nil || !matched {
			return false
		}
	}

	if c.Bucket != nil && hue.Classify(key) != *c.Bucket {
		return false
	}

	if len(c.Fields) > 0 {
		rec, ok := presence.AsRecord(value)
		if !ok {
			return false
		}
		for _, f := range c.Fields {
			if !rec.Has(f) {
				return false
			}
		}
	}

	return true
}

// HasFilters returns true if any filters are active.
func (c *Criteria) HasFilters() bool {
	return c.KeyGlob != "" || c.Bucket != nil || len(c.Fields) > 0
}
