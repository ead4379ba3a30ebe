// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"

	"github.com/pdiddy/bibmerge/internal/source"
)

var infoCmd = &cobra.Command{
	Use:   "info IN...",
	Short: "Show entry counts and modification times of BibTeX files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sources, err := source.LoadAll(args)
		if err != nil {
			return err
		}
		printSources(cmd.OutOrStdout(), sources)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
