// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/bibmerge/internal/index"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve KEY...",
	Short: "Map citation keys to their surviving primary keys",
	Long: `Resolve looks up each KEY in the alias index written by merge --index and
prints the key the merged bibliography cites it under. Keys the index has
never seen are reported and cause a non-zero exit.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().String("index", "", "SQLite index path (default bibmerge.db)")
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	store, err := index.Open(cfg.Index)
	if err != nil {
		return fmt.Errorf("opening index: %w", err)
	}
	defer store.Close()

	out := cmd.OutOrStdout()
	missing := 0
	for _, key := range args {
		res, err := store.Resolve(cmd.Context(), key)
		if errors.Is(err, index.ErrNotFound) {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: not found\n", key)
			missing++
			continue
		}
		if err != nil {
			return err
		}
		if res.Alias {
			fmt.Fprintf(out, "%s -> %s\n", res.Key, res.Primary)
		} else {
			fmt.Fprintf(out, "%s\n", res.Key)
		}
	}
	if missing > 0 {
		return fmt.Errorf("%d of %d keys not found", missing, len(args))
	}
	return nil
}
