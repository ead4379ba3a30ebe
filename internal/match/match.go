// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package match decides whether a record under a new key describes the same
// work as a record already in the merged collection.
//
// Two rules are tried per candidate, first success wins:
//
//  1. identifier: a strong identifier field (doi by default) holds the same
//     non-empty raw value on both sides and the titles are equivalent after
//     normalization. Equal identifiers with different titles are reported
//     as dubious and do not match.
//  2. author/title: author and title are non-empty and equal on both sides.
//
// The author/title rule compares raw bytes while the identifier rule compares
// normalized titles. That asymmetry is the legacy behaviour and is kept by
// default; MatchConfig.NormalizeAuthorTitle switches rule 2 to normalized
// comparison.
package match

import (
	"github.com/pdiddy/bibmerge/internal/normalize"
	"github.com/pdiddy/bibmerge/pkg/types"
)

// Rule identifies which match rule fired.
type Rule string

const (
	RuleIdentifier  Rule = "identifier"
	RuleAuthorTitle Rule = "author/title"
)

// Result holds the outcome of matching one new record against the
// collection.
type Result struct {
	// Key is the matching primary key, empty when nothing matched.
	Key string

	// Rule is the rule that produced the match.
	Rule Rule

	// Field is the identifier field for RuleIdentifier matches.
	Field string

	// Dubious lists candidates whose identifiers agreed but whose titles did
	// not. They were rejected.
	Dubious []Dubious
}

// Found reports whether a match was declared.
func (r Result) Found() bool {
	return r.Key != ""
}

// Dubious describes an identifier match rejected by the title check.
type Dubious struct {
	Field       string
	Value       string
	ExistingKey string
	NewKey      string
}

// Matcher applies the match rules. The zero value uses the default
// identifier set and legacy author/title comparison.
type Matcher struct {
	cfg types.MatchConfig
}

// New returns a Matcher for cfg.
func New(cfg types.MatchConfig) *Matcher {
	return &Matcher{cfg: cfg}
}

// Match compares the record stored under key against every candidate in
// order. It returns the single matching candidate, or a Result with an empty
// Key when none match. More than one match is a consistency violation.
func (m *Matcher) Match(key string, rec types.Record, candidates []types.Record) (Result, error) {
	var res Result
	var matched []string

	for _, cand := range candidates {
		if cand.ID == key {
			return Result{}, types.NewConsistencyError(types.ViolationSelfMatch, key)
		}
		v := m.compare(key, rec, cand)
		if v.dubious != nil {
			res.Dubious = append(res.Dubious, *v.dubious)
		}
		if !v.ok {
			continue
		}
		matched = append(matched, cand.ID)
		if res.Key == "" {
			res.Key, res.Rule, res.Field = cand.ID, v.rule, v.field
		}
	}

	if len(matched) > 1 {
		return Result{}, types.NewConsistencyError(types.ViolationAmbiguousMatch, append([]string{key}, matched...)...)
	}
	return res, nil
}

type verdict struct {
	ok      bool
	rule    Rule
	field   string
	dubious *Dubious
}

// compare checks one pair of records.
func (m *Matcher) compare(newKey string, n types.Record, o types.Record) verdict {
	var v verdict
	otitle, ntitle := o.Get(types.FieldTitle), n.Get(types.FieldTitle)

	for _, field := range m.cfg.Identifiers() {
		oval, nval := o.Get(field), n.Get(field)
		if oval == "" || oval != nval {
			continue
		}
		if !normalize.Equivalent(otitle, ntitle) {
			// A shared identifier with a different title rejects the pair
			// outright; the author/title rule is not consulted.
			return verdict{dubious: &Dubious{Field: field, Value: oval, ExistingKey: o.ID, NewKey: newKey}}
		}
		return verdict{ok: true, rule: RuleIdentifier, field: field}
	}

	if m.sameAuthorTitle(o, n) {
		v.ok, v.rule = true, RuleAuthorTitle
	}
	return v
}

func (m *Matcher) sameAuthorTitle(o, n types.Record) bool {
	oauthor, nauthor := o.Get(types.FieldAuthor), n.Get(types.FieldAuthor)
	otitle, ntitle := o.Get(types.FieldTitle), n.Get(types.FieldTitle)
	if m.cfg.NormalizeAuthorTitle {
		oauthor, nauthor = normalize.Normalize(oauthor), normalize.Normalize(nauthor)
		otitle, ntitle = normalize.Normalize(otitle), normalize.Normalize(ntitle)
	}
	if oauthor == "" || oauthor != nauthor {
		return false
	}
	return otitle != "" && otitle == ntitle
}
