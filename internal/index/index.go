// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package index merges per-file scan results into the two candidate
// tables a completion query runs against: label references and
// citations. A rebuild always produces a fresh Index value; nothing is
// patched in place, so a query sees either the old index or the new
// one, never a mix, and a superseded rebuild is discarded by simply
// dropping its value.
package index

import (
	"context"
	"path/filepath"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/l3nkz/ycmtex/internal/bibtex"
	"github.com/l3nkz/ycmtex/internal/scancache"
	"github.com/l3nkz/ycmtex/internal/texscan"
	"github.com/l3nkz/ycmtex/pkg/types"
)

// Index holds the merged candidate tables for one resolution round.
type Index struct {
	References map[string]types.ReferenceEntry
	Citations  map[string]types.CitationEntry

	// Warnings collects every non-fatal problem from the round:
	// unreadable files, malformed entries, duplicate keys.
	Warnings []types.Warning
}

// ReferenceKeys returns the reference keys in ascending order.
func (idx *Index) ReferenceKeys() []string {
	keys := make([]string, 0, len(idx.References))
	for k := range idx.References {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// CitationKeys returns the citation keys in ascending order.
func (idx *Index) CitationKeys() []string {
	keys := make([]string, 0, len(idx.Citations))
	for k := range idx.Citations {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Builder rebuilds the candidate index over a resolved file set,
// reusing cached per-file results where fingerprints are unchanged.
type Builder struct {
	cache *scancache.Cache
	cfg   types.Config
}

// NewBuilder wires a builder to its scan cache.
func NewBuilder(cache *scancache.Cache, cfg types.Config) *Builder {
	return &Builder{cache: cache, cfg: cfg.Normalized()}
}

// Rebuild scans every file in files (in parallel, bounded by the
// configured parallelism), discovers and parses the bibliography
// databases they declare, and merges everything into a fresh Index.
// Both merge passes run after all scans of the round have finished.
// An unreadable file is skipped with a warning; only context
// cancellation fails the rebuild.
func (b *Builder) Rebuild(ctx context.Context, files []string) (*Index, error) {
	docResults, err := b.scanAll(ctx, files, b.scanDocument)
	if err != nil {
		return nil, err
	}

	// Collect declared databases in file-resolution order, first
	// declaration first.
	var (
		databases []string
		seenDB    = map[string]bool{}
	)
	for _, r := range docResults {
		for _, db := range r.Databases {
			if !seenDB[db] {
				seenDB[db] = true
				databases = append(databases, db)
			}
		}
	}

	dbResults, err := b.scanAll(ctx, databases, b.scanBibDatabase)
	if err != nil {
		return nil, err
	}

	idx := &Index{
		References: map[string]types.ReferenceEntry{},
		Citations:  map[string]types.CitationEntry{},
	}

	refPolicy := b.cfg.Scan.DuplicateReferences
	citePolicy := b.cfg.Scan.DuplicateCitations

	for _, r := range docResults {
		idx.Warnings = append(idx.Warnings, r.Warnings...)
		for _, entry := range r.References {
			prev, dup := idx.References[entry.Key]
			if dup {
				idx.Warnings = append(idx.Warnings,
					types.Warningf(entry.File, entry.Line, "duplicate label %s (also %s:%d)", entry.Key, prev.File, prev.Line))
				if refPolicy == types.FirstWins {
					continue
				}
			}
			idx.References[entry.Key] = entry
		}
	}

	for _, r := range dbResults {
		idx.Warnings = append(idx.Warnings, r.Warnings...)
		for _, entry := range r.Citations {
			prev, dup := idx.Citations[entry.Key]
			if dup {
				idx.Warnings = append(idx.Warnings,
					types.Warningf(entry.File, entry.Line, "duplicate entry %s (also %s:%d)", entry.Key, prev.File, prev.Line))
				if citePolicy == types.FirstWins {
					continue
				}
			}
			idx.Citations[entry.Key] = entry
		}
	}

	return idx, nil
}

// scanAll runs scan over every file through the cache, overlapping
// independent files and joining before it returns: the rebuild
// barrier. Results keep the input order so merge policies apply in
// file-resolution order regardless of scan completion order.
func (b *Builder) scanAll(ctx context.Context, files []string, scan scancache.ScanFunc) ([]scancache.Result, error) {
	results := make([]scancache.Result, len(files))

	g, ctx := errgroup.WithContext(ctx)
	limit := b.cfg.Index.Parallelism
	if limit <= 0 {
		limit = runtime.NumCPU()
	}
	g.SetLimit(limit)

	for i, file := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := b.cache.GetOrScan(file, scan)
			if err != nil {
				// Unreadable file: skip it, keep the round alive.
				res = scancache.Result{Warnings: []types.Warning{
					types.Warningf(file, 0, "skipped: %v", err),
				}}
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// scanDocument extracts labels and database declarations from one TeX
// source file.
func (b *Builder) scanDocument(path, content string) scancache.Result {
	refs, warnings := texscan.ScanLabels(path, content, b.cfg.Scan)
	dbs, dbWarnings := texscan.FindDatabases(path, content, dirOf(path))
	return scancache.Result{
		References: refs,
		Databases:  dbs,
		Warnings:   append(warnings, dbWarnings...),
	}
}

// scanBibDatabase parses one bibliographic database file.
func (b *Builder) scanBibDatabase(path, content string) scancache.Result {
	entries, warnings := bibtex.ParseDatabase(path, content, b.cfg.Scan.DuplicateCitations)
	return scancache.Result{Citations: entries, Warnings: warnings}
}

// dirOf returns the owning directory used to resolve database names
// declared in a document. Paths coming through the cache are absolute.
func dirOf(path string) string {
	return filepath.Dir(path)
}
