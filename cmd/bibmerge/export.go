// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/bibmerge/internal/index"
	"github.com/pdiddy/bibmerge/pkg/types"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the alias index as YAML, JSON or CSL-YAML",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().String("index", "", "SQLite index path (default bibmerge.db)")
	exportCmd.Flags().String("format", string(types.OutputYAML), "output format: yaml, json or csl")
	exportCmd.Flags().StringP("out", "o", "", "write to this file instead of stdout")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) (err error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")
	outPath, _ := cmd.Flags().GetString("out")

	store, err := index.Open(cfg.Index)
	if err != nil {
		return fmt.Errorf("opening index: %w", err)
	}
	defer store.Close()

	var w io.Writer = cmd.OutOrStdout()
	if outPath != "" {
		f, ferr := os.Create(outPath)
		if ferr != nil {
			return fmt.Errorf("creating %s: %w", outPath, ferr)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("closing %s: %w", outPath, cerr)
			}
		}()
		w = f
	}

	return store.Export(cmd.Context(), w, types.OutputFormat(format))
}
