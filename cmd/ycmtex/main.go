// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the ycmtex CLI, the scripting
// and debugging surface over the completion engine. Editor hosts use
// the library packages directly; the CLI exposes the same operations
// for inspection: complete, scan, index, version.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/l3nkz/ycmtex/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the ycmtex CLI.
var rootCmd = &cobra.Command{
	Use:   "ycmtex",
	Short: "Completion engine for TeX cross-references and citations",
	Long: `ycmtex scans a directory of TeX documents and the bibliographic databases
they declare, and answers completion queries for reference and citation
commands. The scan results are cached per file and invalidated on change,
so repeated queries only re-read what actually changed.

Each operation is a subcommand: complete answers a single query, scan
inspects what the extractors see in one file, and index builds or exports
the merged candidate tables.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./ycmtex.yaml or ~/.config/ycmtex/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("ycmtex")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "ycmtex"))
		}
	}

	viper.SetEnvPrefix("YCMTEX")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// engineConfig assembles the engine configuration from the config file
// and environment, with zero values filled by defaults.
func engineConfig() types.Config {
	cfg := types.Config{
		Resolver: types.ResolverConfig{
			Extension:      viper.GetString("resolver.extension"),
			FollowIncludes: viper.GetBool("resolver.follow_includes"),
		},
		Scan: types.ScanConfig{
			LookbackLines:       viper.GetInt("scan.lookback_lines"),
			LookaheadLines:      viper.GetInt("scan.lookahead_lines"),
			DuplicateReferences: types.DuplicatePolicy(viper.GetString("scan.duplicate_references")),
			DuplicateCitations:  types.DuplicatePolicy(viper.GetString("scan.duplicate_citations")),
		},
		Cache: types.CacheConfig{
			MaxEntries: viper.GetInt("cache.max_entries"),
		},
		Index: types.IndexConfig{
			Parallelism: viper.GetInt("index.parallelism"),
			ExportDir:   viper.GetString("index.export_dir"),
		},
	}
	return cfg.Normalized()
}

// printWarnings writes scan warnings to stderr, one per line.
func printWarnings(warnings []types.Warning) {
	for _, w := range warnings {
		fmt.Fprintln(os.Stderr, "warning:", w)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
