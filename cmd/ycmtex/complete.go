// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/l3nkz/ycmtex/internal/complete"
	"github.com/l3nkz/ycmtex/internal/index"
	"github.com/l3nkz/ycmtex/internal/scancache"
)

var completeCmd = &cobra.Command{
	Use:   "complete",
	Short: "Answer a single completion query",
	Long: `Complete takes the text before the cursor and the file being edited,
extracts the triggering command itself, and prints the ranked candidates
as a JSON list of completion items. A line that does not end in a
recognized reference or citation command yields an empty list.

The file may be given as a plain path or a file:// URI.`,
	RunE: runComplete,
}

func runComplete(cmd *cobra.Command, args []string) error {
	line, _ := cmd.Flags().GetString("line")
	column, _ := cmd.Flags().GetInt("column")
	file, _ := cmd.Flags().GetString("file")
	if file == "" {
		return fmt.Errorf("--file is required")
	}
	if column < 0 {
		column = len(line)
	}

	cfg := engineConfig()
	cache, err := scancache.New(cfg.Cache)
	if err != nil {
		return err
	}
	service := complete.NewService(index.NewBuilder(cache, cfg), cfg)

	items, warnings, err := service.Complete(context.Background(), complete.Trigger{
		PrecedingText:   line,
		CursorColumn:    column,
		CurrentFilePath: file,
	})
	printWarnings(warnings)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if len(items) == 0 {
		fmt.Println("[]")
		return nil
	}
	return enc.Encode(items)
}

func init() {
	completeCmd.Flags().String("line", "", "text of the current line up to the cursor")
	completeCmd.Flags().Int("column", -1, "cursor column as a byte offset (-1 = end of line)")
	completeCmd.Flags().String("file", "", "path or file:// URI of the document being edited")

	rootCmd.AddCommand(completeCmd)
}
