// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/pdiddy/bibmerge/internal/bibtex"
	"github.com/pdiddy/bibmerge/internal/index"
	"github.com/pdiddy/bibmerge/internal/logging"
	"github.com/pdiddy/bibmerge/internal/merge"
	"github.com/pdiddy/bibmerge/internal/source"
	"github.com/pdiddy/bibmerge/pkg/types"
)

var mergeCmd = &cobra.Command{
	Use:   "merge IN... OUT",
	Short: "Merge BibTeX files into OUT",
	Long: `Merge reads every IN file in order, folds duplicate records, and writes
the merged bibliography to OUT. Lines starting with % are treated as comments.
The most recently modified file wins when two records describe the same work.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runMerge,
}

func init() {
	mergeCmd.Flags().StringSlice("identifier-fields", nil, "fields treated as strong identifiers (default doi)")
	mergeCmd.Flags().Bool("normalize-author-title", false, "compare author and title after normalization")
	mergeCmd.Flags().String("index", "", "also save the merged collection to this SQLite index")
	mergeCmd.Flags().Bool("stats", false, "print merge statistics to stderr")
	mergeCmd.Flags().Bool("keep-order", false, "write records and fields in merge order instead of sorted")

	rootCmd.AddCommand(mergeCmd)
}

func runMerge(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	inputs, out := args[:len(args)-1], args[len(args)-1]
	sources, err := source.LoadAll(inputs)
	if err != nil {
		return err
	}

	debug, _ := cmd.Flags().GetBool("debug")
	verbose, _ := cmd.Flags().GetBool("verbose")
	if debug || verbose {
		printSources(cmd.OutOrStdout(), sources)
	}

	c, err := merge.Merge(sources, merge.Options{Match: cfg.Match}, logging.NewSink(logger))
	if err != nil {
		return fmt.Errorf("merging: %w", err)
	}

	keepOrder, _ := cmd.Flags().GetBool("keep-order")
	if err := bibtex.WriteFile(out, c.Records(), bibtex.WriteOptions{KeepOrder: keepOrder}); err != nil {
		return err
	}
	logger.Info().Str("out", out).Int("records", c.Len()).Msg("wrote merged bibliography")

	if cfg.Index.Path != "" {
		if err := saveIndex(cmd.Context(), cfg.Index, c, sources); err != nil {
			return err
		}
		logger.Info().Str("index", cfg.Index.Path).Msg("saved alias index")
	}

	if showStats, _ := cmd.Flags().GetBool("stats"); showStats {
		printStats(cmd.ErrOrStderr(), c.Stats())
	}
	return nil
}

func saveIndex(ctx context.Context, cfg types.IndexConfig, c *merge.Collection, sources []types.Source) error {
	if ctx == nil {
		ctx = context.Background()
	}
	store, err := index.Open(cfg)
	if err != nil {
		return fmt.Errorf("opening index: %w", err)
	}
	defer store.Close()

	if err := store.Save(ctx, c, sources); err != nil {
		return fmt.Errorf("saving index: %w", err)
	}
	return nil
}

func printSources(w io.Writer, sources []types.Source) {
	fmt.Fprintf(w, "Bibs: %d\n", len(sources))
	for _, src := range sources {
		fmt.Fprintf(w, "- %s: %d entries, modified %s\n",
			src.Name, len(src.Entries), src.ModTime.Format("2006-01-02 15:04:05"))
	}
}

func printStats(w io.Writer, s merge.Stats) {
	fmt.Fprintf(w, "Sources:        %d\n", s.Sources)
	fmt.Fprintf(w, "Records read:   %d\n", s.Records)
	fmt.Fprintf(w, "Primaries:      %d\n", s.Primaries)
	fmt.Fprintf(w, "Aliases:        %d\n", s.Aliases)
	fmt.Fprintf(w, "Replaced:       %d\n", s.Replaced)
	fmt.Fprintf(w, "Duplicate keys: %d\n", s.DuplicateKeys)
	fmt.Fprintf(w, "Dubious:        %d\n", s.Dubious)
}
