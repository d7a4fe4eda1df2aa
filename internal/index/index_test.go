// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3nkz/ycmtex/internal/scancache"
	"github.com/l3nkz/ycmtex/pkg/types"
)

func newTestBuilder(t *testing.T) *Builder {
	t.Helper()
	cfg := types.Defaults()
	cache, err := scancache.New(cfg.Cache)
	require.NoError(t, err)
	return NewBuilder(cache, cfg)
}

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRebuildMergesDocumentsAndDatabases(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "refs.bib", strings.Join([]string{
		`@article{smith99, author = {A. Smith}, title = {A Study}, year = 1999}`,
		`@book{knuth84, author = {D. Knuth}, title = {The TeXbook}}`,
	}, "\n"))
	main := write(t, dir, "main.tex", strings.Join([]string{
		`\section{Introduction}`,
		`\label{sec:intro}`,
		`\bibliography{refs}`,
	}, "\n"))
	appendix := write(t, dir, "appendix.tex", strings.Join([]string{
		`\begin{figure}`,
		`\label{fig:a}`,
		`\caption{A sample figure}`,
		`\end{figure}`,
	}, "\n"))

	idx, err := newTestBuilder(t).Rebuild(context.Background(), []string{main, appendix})
	require.NoError(t, err)

	assert.Len(t, idx.References, 2)
	assert.Len(t, idx.Citations, 2)
	assert.Empty(t, idx.Warnings)

	fig := idx.References["fig:a"]
	assert.Equal(t, types.KindFigure, fig.Kind)
	assert.Equal(t, "A sample figure", fig.Caption)

	smith := idx.Citations["smith99"]
	assert.Equal(t, "article", smith.Type)
	assert.Equal(t, "A. Smith", smith.Field("author"))
}

func TestRebuildCrossFileDuplicatePolicies(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "one.bib", `@article{cite:dup, title = {From one}}`)
	write(t, dir, "two.bib", `@article{cite:dup, title = {From two}}`)
	a := write(t, dir, "a.tex", "\\section{A}\n\\label{ref:dup}\n\\bibliography{one,two}")
	b := write(t, dir, "b.tex", "\\section{B}\n\\label{ref:dup}")

	idx, err := newTestBuilder(t).Rebuild(context.Background(), []string{a, b})
	require.NoError(t, err)

	// References: last occurrence across the file set wins.
	require.Contains(t, idx.References, "ref:dup")
	assert.Equal(t, "B", idx.References["ref:dup"].Caption)

	// Citations: first occurrence wins.
	require.Contains(t, idx.Citations, "cite:dup")
	assert.Equal(t, "From one", idx.Citations["cite:dup"].Field("title"))

	// Exactly one warning per duplicate.
	var refDups, citeDups int
	for _, w := range idx.Warnings {
		if strings.Contains(w.Msg, "duplicate label ref:dup") {
			refDups++
		}
		if strings.Contains(w.Msg, "duplicate entry cite:dup") {
			citeDups++
		}
	}
	assert.Equal(t, 1, refDups)
	assert.Equal(t, 1, citeDups)
}

func TestRebuildReflectsFileChanges(t *testing.T) {
	dir := t.TempDir()
	path := write(t, dir, "main.tex", "\\section{Old}\n\\label{sec:old}")
	require.NoError(t, os.Chtimes(path, time.Now().Add(-time.Hour), time.Now().Add(-time.Hour)))

	builder := newTestBuilder(t)

	idx, err := builder.Rebuild(context.Background(), []string{path})
	require.NoError(t, err)
	require.Contains(t, idx.References, "sec:old")

	write(t, dir, "main.tex", "\\section{New}\n\\label{sec:new}")

	idx, err = builder.Rebuild(context.Background(), []string{path})
	require.NoError(t, err)

	assert.Contains(t, idx.References, "sec:new")
	assert.NotContains(t, idx.References, "sec:old",
		"a rescan must replace the file's entries wholesale, not merge versions")
}

func TestRebuildSkipsUnreadableFiles(t *testing.T) {
	dir := t.TempDir()
	good := write(t, dir, "good.tex", `\label{ok}`)
	missing := filepath.Join(dir, "missing.tex")

	idx, err := newTestBuilder(t).Rebuild(context.Background(), []string{good, missing})
	require.NoError(t, err, "an unreadable file must not fail the round")

	assert.Contains(t, idx.References, "ok")
	require.Len(t, idx.Warnings, 1)
	assert.Contains(t, idx.Warnings[0].Msg, "skipped")
}

func TestRebuildPropagatesScanWarnings(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "refs.bib", strings.Join([]string{
		`@article{broken, author = {never closed,`,
		`@article{fine, title = {Complete}}`,
	}, "\n"))
	main := write(t, dir, "main.tex", `\bibliography{refs,absent}`)

	idx, err := newTestBuilder(t).Rebuild(context.Background(), []string{main})
	require.NoError(t, err)

	assert.Contains(t, idx.Citations, "fine")
	assert.NotContains(t, idx.Citations, "broken")
	require.Len(t, idx.Warnings, 2, "one for the absent database, one for the broken entry")
}

func TestRebuildCancelled(t *testing.T) {
	dir := t.TempDir()
	path := write(t, dir, "main.tex", `\label{x}`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestBuilder(t).Rebuild(ctx, []string{path})
	require.ErrorIs(t, err, context.Canceled)
}

func TestKeyOrderings(t *testing.T) {
	idx := &Index{
		References: map[string]types.ReferenceEntry{
			"b": {Key: "b"}, "a": {Key: "a"}, "c": {Key: "c"},
		},
		Citations: map[string]types.CitationEntry{
			"z": {Key: "z"}, "m": {Key: "m"},
		},
	}
	assert.Equal(t, []string{"a", "b", "c"}, idx.ReferenceKeys())
	assert.Equal(t, []string{"m", "z"}, idx.CitationKeys())
}
