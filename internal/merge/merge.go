// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package merge folds ordered record sources into one deduplicated
// collection. Keys seen again resolve to their primary record; new keys are
// checked against the collection with the match rules and folded in as
// aliases when they describe a known work. Conflicting versions are settled
// by source recency, with ties going to the version already stored. After
// all sources are folded, each surviving record with aliases gets them
// written to its ids field.
//
// The engine logs nothing itself. Observations go to the Sink passed to
// Merge, and broken invariants are returned as *types.ConsistencyError.
package merge

import (
	"errors"
	"fmt"
	"time"

	"github.com/pdiddy/bibmerge/internal/match"
	"github.com/pdiddy/bibmerge/pkg/types"
)

// Options configures a merge.
type Options struct {
	Match types.MatchConfig
}

// keyState resolves a key seen during the merge. A key is either a primary
// (primary == the key itself, alias false) or an alias of exactly one
// primary. Keeping both cases in one table means no key can be both.
type keyState struct {
	primary string
	alias   bool
}

type merger struct {
	matcher *match.Matcher
	sink    Sink

	order      []string
	records    map[string]types.Record
	sourceTime map[string]time.Time
	keys       map[string]keyState
	aliases    map[string][]string
	stats      Stats
}

// Merge folds sources left to right, records within a source in file
// order, and returns the merged collection. sink may be nil.
func Merge(sources []types.Source, opts Options, sink Sink) (*Collection, error) {
	if sink == nil {
		sink = Discard
	}
	m := &merger{
		matcher:    match.New(opts.Match),
		sink:       sink,
		records:    make(map[string]types.Record),
		sourceTime: make(map[string]time.Time),
		keys:       make(map[string]keyState),
		aliases:    make(map[string][]string),
	}

	for _, src := range sources {
		m.stats.Sources++
		for _, rec := range src.Entries {
			m.stats.Records++
			if err := m.add(src, rec); err != nil {
				var cerr *types.ConsistencyError
				if errors.As(err, &cerr) && cerr.Source == "" {
					cerr.Source = src.Name
				}
				return nil, err
			}
		}
	}

	if err := m.recordAliases(); err != nil {
		return nil, err
	}

	m.stats.Primaries = len(m.order)
	return &Collection{
		order:      m.order,
		records:    m.records,
		sourceTime: m.sourceTime,
		keys:       m.keys,
		aliases:    m.aliases,
		stats:      m.stats,
	}, nil
}

func (m *merger) add(src types.Source, rec types.Record) error {
	key := rec.ID

	if ks, ok := m.keys[key]; ok {
		m.stats.DuplicateKeys++
		m.sink.Emit(Event{
			Level:   LevelDebug,
			Kind:    EventDuplicateKey,
			Source:  src.Name,
			Key:     key,
			Primary: ks.primary,
			Message: fmt.Sprintf("Duplicate key %s", key),
		})
		m.adopt(src, ks.primary, rec)
		return nil
	}

	res, err := m.matcher.Match(key, rec, m.primaries())
	if err != nil {
		return err
	}
	for _, d := range res.Dubious {
		m.stats.Dubious++
		m.sink.Emit(Event{
			Level:   LevelWarn,
			Kind:    EventDubiousMatch,
			Source:  src.Name,
			Key:     d.NewKey,
			Primary: d.ExistingKey,
			Rule:    match.RuleIdentifier,
			Field:   d.Field,
			Message: fmt.Sprintf("Skipping dubious %s match for %s and %s", d.Field, d.ExistingKey, d.NewKey),
		})
	}

	if !res.Found() {
		m.keys[key] = keyState{primary: key}
		m.order = append(m.order, key)
		m.records[key] = rec.Clone()
		m.sourceTime[key] = src.ModTime
		m.sink.Emit(Event{
			Level:   LevelDebug,
			Kind:    EventNewPrimary,
			Source:  src.Name,
			Key:     key,
			Primary: key,
		})
		return nil
	}

	if err := m.registerAlias(key, res.Key); err != nil {
		return err
	}
	basis := string(res.Rule)
	if res.Field != "" {
		basis = res.Field
	}
	m.sink.Emit(Event{
		Level:   LevelInfo,
		Kind:    EventMatch,
		Source:  src.Name,
		Key:     key,
		Primary: res.Key,
		Rule:    res.Rule,
		Field:   res.Field,
		Message: fmt.Sprintf("Found match between %s and %s based on %s", res.Key, key, basis),
	})
	m.adopt(src, res.Key, rec)
	return nil
}

// adopt replaces the record stored under primary when src is strictly newer
// than the source that owns it. The stored copy always carries the primary
// key as its ID.
func (m *merger) adopt(src types.Source, primary string, rec types.Record) {
	if !src.ModTime.After(m.sourceTime[primary]) {
		return
	}
	r := rec.Clone()
	r.ID = primary
	m.records[primary] = r
	m.sourceTime[primary] = src.ModTime
	m.stats.Replaced++
	m.sink.Emit(Event{
		Level:   LevelDebug,
		Kind:    EventReplaced,
		Source:  src.Name,
		Key:     rec.ID,
		Primary: primary,
	})
}

func (m *merger) registerAlias(key, primary string) error {
	if ks, ok := m.keys[key]; ok && ks.alias {
		return types.NewConsistencyError(types.ViolationDuplicateAlias, key, ks.primary, primary)
	}
	m.keys[key] = keyState{primary: primary, alias: true}
	m.aliases[primary] = append(m.aliases[primary], key)
	m.stats.Aliases++
	return nil
}

func (m *merger) primaries() []types.Record {
	out := make([]types.Record, len(m.order))
	for i, k := range m.order {
		out[i] = m.records[k]
	}
	return out
}
