// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the bibmerge CLI. bibmerge merges
// BibTeX files into one deduplicated file, folding records that appear under
// different keys into one entry and keeping the most recent version.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/bibmerge/internal/logging"
	"github.com/pdiddy/bibmerge/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the bibmerge CLI.
var rootCmd = &cobra.Command{
	Use:   "bibmerge",
	Short: "Merge BibTeX files into one deduplicated bibliography",
	Long: `bibmerge merges BibTeX files into one deduplicated bibliography. Entries
that share a key, a DOI (with a matching title), or an identical author and
title are folded into one entry. When two files disagree, the entry from the
most recently modified file wins; folded keys are kept in the ids field.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./bibmerge.yaml or ~/.config/bibmerge/config.yaml)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "debug output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().String("log-format", "", "log format: console or json")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("bibmerge")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "bibmerge"))
		}
	}

	viper.SetEnvPrefix("BIBMERGE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("match.identifier_fields", types.DefaultIdentifierFields)
	viper.SetDefault("match.normalize_author_title", false)
	viper.SetDefault("log.level", logging.DefaultLevel)
	viper.SetDefault("log.format", logging.FormatConsole)
	viper.SetDefault("index.path", "")

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig reads the configuration from viper and applies any flags set
// on cmd.
func loadConfig(cmd *cobra.Command) (types.Config, error) {
	var cfg types.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("reading configuration: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("identifier-fields") {
		cfg.Match.IdentifierFields, _ = flags.GetStringSlice("identifier-fields")
	}
	if flags.Changed("normalize-author-title") {
		cfg.Match.NormalizeAuthorTitle, _ = flags.GetBool("normalize-author-title")
	}
	if flags.Changed("index") {
		cfg.Index.Path, _ = flags.GetString("index")
	}
	if flags.Changed("log-format") {
		cfg.Log.Format, _ = flags.GetString("log-format")
	}

	debug, _ := flags.GetBool("debug")
	verbose, _ := flags.GetBool("verbose")
	cfg.Log.Level = logging.LevelFromFlags(debug, verbose, cfg.Log.Level)
	return cfg, nil
}

// newLogger builds the stderr logger for cfg.
func newLogger(cfg types.Config) zerolog.Logger {
	return logging.New(cfg.Log, os.Stderr)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
