// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/l3nkz/ycmtex/internal/bibtex"
	"github.com/l3nkz/ycmtex/internal/texscan"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Inspect what the extractors see in a single file",
	Long: `Scan runs one extractor over one file and prints the raw entries,
bypassing the cache and the index merge. Useful for checking why a label
or citation does or does not show up in completions.`,
}

// --- labels subcommand ---

var scanLabelsCmd = &cobra.Command{
	Use:   "labels <file.tex>",
	Short: "Print the label definitions found in a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runScanLabels,
}

func runScanLabels(cmd *cobra.Command, args []string) error {
	path, content, err := readArg(args[0])
	if err != nil {
		return err
	}

	cfg := engineConfig()
	entries, warnings := texscan.ScanLabels(path, content, cfg.Scan)
	printWarnings(warnings)

	if len(entries) == 0 {
		fmt.Println("No labels found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-30s  %-10s  %-6s  %s\n", "Key", "Kind", "Line", "Caption")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 80))
	for _, e := range entries {
		caption := e.Caption
		if len(caption) > 40 {
			caption = caption[:37] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-30s  %-10s  %-6d  %s\n", e.Key, e.Kind, e.Line, caption)
	}
	fmt.Fprintf(os.Stdout, "\n%d labels\n", len(entries))
	return nil
}

// --- bib subcommand ---

var scanBibCmd = &cobra.Command{
	Use:   "bib <file.bib>",
	Short: "Print the entries parsed from a bibliographic database",
	RunE:  runScanBib,
	Args:  cobra.ExactArgs(1),
}

func runScanBib(cmd *cobra.Command, args []string) error {
	path, content, err := readArg(args[0])
	if err != nil {
		return err
	}

	cfg := engineConfig()
	entries, warnings := bibtex.ParseDatabase(path, content, cfg.Scan.DuplicateCitations)
	printWarnings(warnings)

	if len(entries) == 0 {
		fmt.Println("No entries found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-20s  %-14s  %-30s  %s\n", "Key", "Type", "Author", "Title")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))
	for _, e := range entries {
		author := e.Field("author")
		if len(author) > 30 {
			author = author[:27] + "..."
		}
		title := e.Field("title")
		if len(title) > 40 {
			title = title[:37] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-20s  %-14s  %-30s  %s\n", e.Key, e.Type, author, title)
	}
	fmt.Fprintf(os.Stdout, "\n%d entries\n", len(entries))
	return nil
}

// readArg reads one file argument, returning its absolute path and
// content.
func readArg(arg string) (string, string, error) {
	abs, err := filepath.Abs(arg)
	if err != nil {
		return "", "", fmt.Errorf("resolving %s: %w", arg, err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return "", "", fmt.Errorf("reading %s: %w", abs, err)
	}
	return abs, string(data), nil
}

func init() {
	scanCmd.AddCommand(scanLabelsCmd)
	scanCmd.AddCommand(scanBibCmd)

	rootCmd.AddCommand(scanCmd)
}
