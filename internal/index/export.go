// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/bibmerge/pkg/types"
)

// ExportEntry holds one merged record with its aliases for export.
type ExportEntry struct {
	ID         string            `json:"id" yaml:"id"`
	Type       string            `json:"type" yaml:"type"`
	Aliases    []string          `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	SourceTime *time.Time        `json:"source_time,omitempty" yaml:"source_time,omitempty"`
	Fields     map[string]string `json:"fields" yaml:"fields"`
}

// Export writes the stored collection to w in the given format.
func (s *Store) Export(ctx context.Context, w io.Writer, format types.OutputFormat) error {
	switch format {
	case types.OutputYAML, "":
		return s.ExportYAML(ctx, w)
	case types.OutputJSON:
		return s.ExportJSON(ctx, w)
	case types.OutputCSL:
		return s.ExportCSL(ctx, w)
	default:
		return fmt.Errorf("unsupported format %q: use yaml, json or csl", format)
	}
}

// ExportYAML writes the stored collection as a YAML list.
func (s *Store) ExportYAML(ctx context.Context, w io.Writer) error {
	entries, err := s.exportEntries(ctx)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return nil
}

// ExportJSON writes the stored collection as indented JSON.
func (s *Store) ExportJSON(ctx context.Context, w io.Writer) error {
	entries, err := s.exportEntries(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return nil
}

// ExportCSL writes the stored collection as a CSL-YAML list.
func (s *Store) ExportCSL(ctx context.Context, w io.Writer) error {
	stored, err := s.Records(ctx)
	if err != nil {
		return err
	}
	items := make([]CSLItem, len(stored))
	for i, sr := range stored {
		items[i] = ToCSLItem(sr.Record)
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(items)
}

func (s *Store) exportEntries(ctx context.Context) ([]ExportEntry, error) {
	stored, err := s.Records(ctx)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}

	entries := make([]ExportEntry, len(stored))
	for i, sr := range stored {
		fields := make(map[string]string, len(sr.Fields))
		for _, f := range sr.Fields {
			fields[f.Name] = f.Value
		}
		entries[i] = ExportEntry{
			ID:      sr.ID,
			Type:    sr.Type,
			Aliases: sr.Aliases,
			Fields:  fields,
		}
		if !sr.SourceTime.IsZero() {
			t := sr.SourceTime
			entries[i].SourceTime = &t
		}
	}
	return entries, nil
}
