// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package merge

import (
	"time"

	"github.com/pdiddy/bibmerge/pkg/types"
)

// Stats holds counts from one merge run.
type Stats struct {
	Sources       int `json:"sources" yaml:"sources"`
	Records       int `json:"records" yaml:"records"`
	Primaries     int `json:"primaries" yaml:"primaries"`
	Aliases       int `json:"aliases" yaml:"aliases"`
	Replaced      int `json:"replaced" yaml:"replaced"`
	DuplicateKeys int `json:"duplicate_keys" yaml:"duplicate_keys"`
	Dubious       int `json:"dubious" yaml:"dubious"`
}

// Collection is the read-only result of a merge.
type Collection struct {
	order      []string
	records    map[string]types.Record
	sourceTime map[string]time.Time
	keys       map[string]keyState
	aliases    map[string][]string
	stats      Stats
}

// Len returns the number of primary records.
func (c *Collection) Len() int {
	return len(c.order)
}

// Keys returns the primary keys in order of first appearance.
func (c *Collection) Keys() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Records returns copies of the merged records in order of first appearance
// of their primary key.
func (c *Collection) Records() []types.Record {
	out := make([]types.Record, len(c.order))
	for i, k := range c.order {
		out[i] = c.records[k].Clone()
	}
	return out
}

// Record returns a copy of the record stored under a primary key.
func (c *Collection) Record(primary string) (types.Record, bool) {
	r, ok := c.records[primary]
	if !ok {
		return types.Record{}, false
	}
	return r.Clone(), true
}

// Resolve returns the primary key any seen key maps to. A primary resolves
// to itself.
func (c *Collection) Resolve(key string) (string, bool) {
	ks, ok := c.keys[key]
	return ks.primary, ok
}

// IsAlias reports whether key was folded into another record.
func (c *Collection) IsAlias(key string) bool {
	return c.keys[key].alias
}

// Aliases returns a copy of the alias sets, keyed by primary, each in
// registration order. Primaries without aliases are absent.
func (c *Collection) Aliases() map[string][]string {
	out := make(map[string][]string, len(c.aliases))
	for p, ids := range c.aliases {
		cp := make([]string, len(ids))
		copy(cp, ids)
		out[p] = cp
	}
	return out
}

// SourceTime returns the timestamp of the source owning a primary's current
// version.
func (c *Collection) SourceTime(primary string) (time.Time, bool) {
	t, ok := c.sourceTime[primary]
	return t, ok
}

// Stats returns the counts of the merge run.
func (c *Collection) Stats() Stats {
	return c.stats
}
