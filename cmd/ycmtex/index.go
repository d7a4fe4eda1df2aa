// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/l3nkz/ycmtex/internal/index"
	"github.com/l3nkz/ycmtex/internal/resolver"
	"github.com/l3nkz/ycmtex/internal/scancache"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build or export the merged candidate tables",
	Long: `Index resolves the document set under a directory, scans every file and
the databases they declare, and merges the results into the reference and
citation tables a completion query runs against.`,
}

// --- build subcommand ---

var indexBuildCmd = &cobra.Command{
	Use:   "build <dir>",
	Short: "Build the candidate index for a directory and print counts",
	Args:  cobra.ExactArgs(1),
	RunE:  runIndexBuild,
}

func runIndexBuild(cmd *cobra.Command, args []string) error {
	idx, err := buildIndex(cmd, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("references: %d\n", len(idx.References))
	fmt.Printf("citations:  %d\n", len(idx.Citations))
	fmt.Printf("warnings:   %d\n", len(idx.Warnings))
	return nil
}

// --- export subcommand ---

var indexExportCmd = &cobra.Command{
	Use:   "export <dir>",
	Short: "Build the candidate index and write it out",
	Long: `Export builds the index for a directory and writes it in the chosen
format: a SQLite database (labels and citations tables), YAML, or JSON.
The sqlite export replaces the previous snapshot wholesale.`,
	Args: cobra.ExactArgs(1),
	RunE: runIndexExport,
}

func runIndexExport(cmd *cobra.Command, args []string) error {
	idx, err := buildIndex(cmd, args[0])
	if err != nil {
		return err
	}

	cfg := engineConfig()
	format, _ := cmd.Flags().GetString("format")
	out, _ := cmd.Flags().GetString("out")

	switch format {
	case "sqlite", "":
		dir := out
		if dir == "" {
			dir = cfg.Index.ExportDir
		}
		store, err := index.NewStore(dir)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Save(context.Background(), idx); err != nil {
			return err
		}
		fmt.Printf("Exported to %s\n", filepath.Join(dir, "ycmtex.db"))
	case "yaml":
		if out == "" {
			out = filepath.Join(cfg.Index.ExportDir, "export.yaml")
		}
		if err := index.ExportYAML(idx, out); err != nil {
			return err
		}
		fmt.Printf("Exported to %s\n", out)
	case "json":
		if out == "" {
			out = filepath.Join(cfg.Index.ExportDir, "export.json")
		}
		if err := index.ExportJSON(idx, out); err != nil {
			return err
		}
		fmt.Printf("Exported to %s\n", out)
	default:
		return fmt.Errorf("unknown format %q: use sqlite, yaml or json", format)
	}
	return nil
}

// buildIndex resolves dir and rebuilds the candidate index over it.
func buildIndex(cmd *cobra.Command, dir string) (*index.Index, error) {
	cfg := engineConfig()

	files, err := resolver.Resolve(dir, cfg.Resolver)
	if err != nil {
		return nil, err
	}

	cache, err := scancache.New(cfg.Cache)
	if err != nil {
		return nil, err
	}

	idx, err := index.NewBuilder(cache, cfg).Rebuild(context.Background(), files)
	if err != nil {
		return nil, err
	}
	printWarnings(idx.Warnings)
	return idx, nil
}

func init() {
	indexExportCmd.Flags().String("format", "sqlite", "export format: sqlite, yaml or json")
	indexExportCmd.Flags().String("out", "", "output path (sqlite: directory; yaml/json: file)")

	indexCmd.AddCommand(indexBuildCmd)
	indexCmd.AddCommand(indexExportCmd)

	rootCmd.AddCommand(indexCmd)
}
