// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bibtex

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/pdiddy/bibmerge/pkg/types"
)

const indent = " "

// WriteOptions controls record and field ordering on output.
type WriteOptions struct {
	// KeepOrder writes records and fields in the order given. By default
	// records are sorted by key and fields by name.
	KeepOrder bool
}

// Write renders records as BibTeX to w.
func Write(w io.Writer, records []types.Record, opts WriteOptions) error {
	if !opts.KeepOrder {
		sorted := make([]types.Record, len(records))
		copy(sorted, records)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].ID < sorted[j].ID
		})
		records = sorted
	}

	bw := bufio.NewWriter(w)
	for _, rec := range records {
		writeRecord(bw, rec, opts)
	}
	return bw.Flush()
}

func writeRecord(w *bufio.Writer, rec types.Record, opts WriteOptions) {
	typ := rec.Type
	if typ == "" {
		typ = "misc"
	}
	fields := rec.Fields
	if !opts.KeepOrder {
		fields = make([]types.Field, len(rec.Fields))
		copy(fields, rec.Fields)
		sort.SliceStable(fields, func(i, j int) bool {
			return fields[i].Name < fields[j].Name
		})
	}

	fmt.Fprintf(w, "@%s{%s", typ, rec.ID)
	for _, f := range fields {
		w.WriteString(",\n")
		w.WriteString(indent)
		w.WriteString(f.Name)
		w.WriteString(" = ")
		if f.Bare {
			w.WriteString(f.Value)
		} else {
			w.WriteString("{" + f.Value + "}")
		}
	}
	w.WriteString("\n}\n\n")
}

// WriteFile writes records to path, creating or truncating it. The file is
// closed on every path; a close error is returned when writing succeeded.
func WriteFile(path string, records []types.Record, opts WriteOptions) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing %s: %w", path, cerr)
		}
	}()

	if err := Write(f, records, opts); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
