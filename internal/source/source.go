// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package source reads BibTeX files into record sources stamped with the
// file's modification time.
package source

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pdiddy/bibmerge/internal/bibtex"
	"github.com/pdiddy/bibmerge/pkg/types"
)

// Load opens path, takes its modification time, and parses its entries.
func Load(path string) (types.Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.Source{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return types.Source{}, fmt.Errorf("stat %s: %w", path, err)
	}
	return Read(path, info.ModTime(), f)
}

// LoadAll loads every path in order. The first failure aborts.
func LoadAll(paths []string) ([]types.Source, error) {
	sources := make([]types.Source, 0, len(paths))
	for _, path := range paths {
		src, err := Load(path)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, nil
}

// Read parses BibTeX from r into a source named name. Lines whose first
// non-whitespace character is '%' are dropped before parsing: a commented
// line inside an entry would otherwise break it. Duplicate keys within the
// source are a consistency violation.
func Read(name string, modTime time.Time, r io.Reader) (types.Source, error) {
	text, err := StripCommentLines(r)
	if err != nil {
		return types.Source{}, fmt.Errorf("reading %s: %w", name, err)
	}
	entries, err := bibtex.ParseString(text)
	if err != nil {
		return types.Source{}, fmt.Errorf("parsing %s: %w", name, err)
	}

	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if seen[e.ID] {
			cerr := types.NewConsistencyError(types.ViolationDuplicateKeyInSource, e.ID)
			cerr.Source = name
			return types.Source{}, cerr
		}
		seen[e.ID] = true
	}

	return types.Source{
		Name:    name,
		ModTime: modTime,
		Entries: entries,
	}, nil
}

// StripCommentLines returns the content of r without full-line '%'
// comments. Remaining lines are joined with "\n".
func StripCommentLines(r io.Reader) (string, error) {
	var kept []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(strings.TrimLeft(line, " \t\r\f\v"), "%") {
			continue
		}
		kept = append(kept, line)
	}
	if err := sc.Err(); err != nil {
		return "", err
	}
	return strings.Join(kept, "\n"), nil
}
