// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for bibmerge: bibliographic
// records, the sources they are read from, and tool configuration.
package types

import (
	"strings"
	"time"
)

// Field names the merge core inspects. All other fields are carried through
// unchanged.
const (
	FieldAuthor = "author"
	FieldTitle  = "title"
	FieldDOI    = "doi"
	FieldIDs    = "ids"
)

// Field is one name/value pair of a record. Value holds the raw text between
// the outer delimiters, inner braces and line breaks included.
type Field struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`

	// Bare marks values written without delimiters in the input, such as
	// macro references or # concatenations. They are written back unbraced.
	Bare bool `json:"bare,omitempty" yaml:"bare,omitempty"`
}

// Record is one bibliographic entry.
type Record struct {
	// ID is the citation key.
	ID string `json:"id" yaml:"id"`

	// Type is the lowercased entry type (article, book, misc, ...).
	Type string `json:"type" yaml:"type"`

	// Fields lists the entry's fields in file order.
	Fields []Field `json:"fields" yaml:"fields"`
}

// Get returns the value of the named field, or "" when absent. Field names
// are matched case-insensitively.
func (r Record) Get(name string) string {
	v, _ := r.Lookup(name)
	return v
}

// Lookup returns the value of the named field and whether it is present.
func (r Record) Lookup(name string) (string, bool) {
	for _, f := range r.Fields {
		if strings.EqualFold(f.Name, name) {
			return f.Value, true
		}
	}
	return "", false
}

// Set replaces the value of the named field, or appends the field when it is
// absent. The receiver's field slice is modified in place; callers holding a
// record owned by someone else must Clone it first.
func (r *Record) Set(name, value string) {
	for i, f := range r.Fields {
		if strings.EqualFold(f.Name, name) {
			r.Fields[i].Value = value
			r.Fields[i].Bare = false
			return
		}
	}
	r.Fields = append(r.Fields, Field{Name: name, Value: value})
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	c := r
	c.Fields = make([]Field, len(r.Fields))
	copy(c.Fields, r.Fields)
	return c
}

// Source is one imported collection of records together with its
// provenance timestamp. Entries keep file order and have unique keys.
type Source struct {
	// Name identifies the source, usually the path it was read from.
	Name string `json:"name" yaml:"name"`

	// ModTime is the last-modified time of the source. Newer sources win
	// conflicts.
	ModTime time.Time `json:"mod_time" yaml:"mod_time"`

	// Entries holds the parsed records in file order.
	Entries []Record `json:"entries" yaml:"entries"`
}

// Keys returns the citation keys of the source in file order.
func (s Source) Keys() []string {
	keys := make([]string, len(s.Entries))
	for i, e := range s.Entries {
		keys[i] = e.ID
	}
	return keys
}
