// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package complete answers completion queries: given the text before
// the cursor and the file it was typed in, it decides whether a
// reference or citation command is being completed, rebuilds the
// candidate index for the file's document set and returns ranked,
// annotated completion items in LSP shape.
package complete

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"

	"github.com/l3nkz/ycmtex/internal/index"
	"github.com/l3nkz/ycmtex/internal/resolver"
	"github.com/l3nkz/ycmtex/pkg/types"
)

// Action is what the typed command asks for.
type Action int

const (
	ActionNone Action = iota
	ActionReference
	ActionCitation
)

// Command sets recognized as completion triggers.
var (
	referenceCommands = []string{"ref", "refv"}
	citationCommands  = []string{"cite", "citep", "citev"}
)

// Trigger is the query a host hands over: the text on the current line
// before the cursor, the cursor column (byte offset into that text),
// and the file being edited.
type Trigger struct {
	PrecedingText   string
	CursorColumn    int
	CurrentFilePath string
}

// ParseTrigger extracts the triggering command token from the text
// before the cursor. It returns the action the command asks for and
// the already-typed key prefix. For multi-key citation arguments the
// prefix is the part after the last comma.
func ParseTrigger(t Trigger) (Action, string) {
	text := t.PrecedingText
	if t.CursorColumn >= 0 && t.CursorColumn < len(text) {
		text = text[:t.CursorColumn]
	}

	i := strings.LastIndexByte(text, '\\')
	if i < 0 {
		return ActionNone, ""
	}
	rest := text[i+1:]

	j := strings.IndexByte(rest, '{')
	if j < 0 {
		return ActionNone, ""
	}
	cmd := rest[:j]
	arg := rest[j+1:]
	if strings.ContainsRune(arg, '}') {
		// The argument is already closed; nothing to complete.
		return ActionNone, ""
	}

	// Drop an optional [..] argument, as in \cite[p. 5]{.
	if k := strings.IndexByte(cmd, '['); k >= 0 {
		cmd = cmd[:k]
	}
	cmd = strings.TrimSuffix(strings.TrimSpace(cmd), "*")

	prefix := arg
	if k := strings.LastIndexByte(prefix, ','); k >= 0 {
		prefix = prefix[k+1:]
	}
	prefix = strings.TrimLeft(prefix, " \t")

	for _, c := range referenceCommands {
		if cmd == c {
			return ActionReference, prefix
		}
	}
	for _, c := range citationCommands {
		if cmd == c {
			return ActionCitation, prefix
		}
	}
	return ActionNone, ""
}

// NormalizePath accepts either a plain path or a file:// URI, the two
// forms hosts hand over, and returns a filesystem path.
func NormalizePath(s string) string {
	if strings.HasPrefix(s, "file://") {
		return uri.New(s).Filename()
	}
	return s
}

// Service answers completion queries against a candidate index that is
// rebuilt per request through the scan cache. Rebuilds never mutate a
// published index, so a request superseded mid-flight just discards
// its own result.
type Service struct {
	builder *index.Builder
	cfg     types.Config
}

// NewService wires a completion service to its index builder.
func NewService(builder *index.Builder, cfg types.Config) *Service {
	return &Service{builder: builder, cfg: cfg.Normalized()}
}

// Complete returns ranked completion items for the trigger, plus the
// warnings collected during the scan round. A trigger that is not a
// recognized command yields an empty result, not an error. Only an
// invalid resolution root fails the call.
func (s *Service) Complete(ctx context.Context, t Trigger) ([]protocol.CompletionItem, []types.Warning, error) {
	action, prefix := ParseTrigger(t)
	if action == ActionNone {
		return nil, nil, nil
	}

	current := NormalizePath(t.CurrentFilePath)

	var (
		files    []string
		warnings []types.Warning
	)
	if s.cfg.Resolver.FollowIncludes {
		var err error
		files, warnings, err = resolver.ResolveTree(current, s.cfg.Resolver)
		if err != nil {
			return nil, nil, err
		}
	} else {
		dir, err := resolver.DirOf(current)
		if err != nil {
			return nil, nil, err
		}
		files, err = resolver.Resolve(dir, s.cfg.Resolver)
		if err != nil {
			return nil, nil, err
		}
	}

	idx, err := s.builder.Rebuild(ctx, files)
	if err != nil {
		return nil, warnings, err
	}
	warnings = append(warnings, idx.Warnings...)

	var items []protocol.CompletionItem
	switch action {
	case ActionReference:
		items = referenceItems(idx, prefix)
	case ActionCitation:
		items = citationItems(idx, prefix)
	}
	return items, warnings, nil
}

// referenceItems filters and ranks label candidates. Matching is a
// case-sensitive literal prefix match; candidates are ordered by key
// ascending.
func referenceItems(idx *index.Index, prefix string) []protocol.CompletionItem {
	var keys []string
	for key := range idx.References {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	items := make([]protocol.CompletionItem, 0, len(keys))
	for rank, key := range keys {
		entry := idx.References[key]
		items = append(items, protocol.CompletionItem{
			Label:      key,
			InsertText: key,
			Kind:       protocol.CompletionItemKindReference,
			Detail:     referenceDetail(entry),
			SortText:   fmt.Sprintf("%05d", rank),
		})
	}
	return items
}

// citationItems filters and ranks citation candidates.
func citationItems(idx *index.Index, prefix string) []protocol.CompletionItem {
	var keys []string
	for key := range idx.Citations {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	items := make([]protocol.CompletionItem, 0, len(keys))
	for rank, key := range keys {
		entry := idx.Citations[key]
		items = append(items, protocol.CompletionItem{
			Label:      key,
			InsertText: key,
			Kind:       protocol.CompletionItemKindConstant,
			Detail:     citationDetail(entry),
			SortText:   fmt.Sprintf("%05d", rank),
		})
	}
	return items
}

// referenceDetail renders the annotation line for a label candidate,
// e.g. `figure — A sample figure`.
func referenceDetail(e types.ReferenceEntry) string {
	if e.Caption == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s — %s", e.Kind, e.Caption)
}

// citationDetail renders the annotation line for a citation candidate,
// e.g. `article — A. Smith, "A Study" (1999)`.
func citationDetail(e types.CitationEntry) string {
	var b strings.Builder
	b.WriteString(e.Type)

	var parts []string
	if author := e.Field("author"); author != "" {
		parts = append(parts, author)
	}
	if title := e.Field("title"); title != "" {
		parts = append(parts, fmt.Sprintf("%q", title))
	}
	if len(parts) > 0 {
		b.WriteString(" — ")
		b.WriteString(strings.Join(parts, ", "))
	}
	if year := e.Field("year"); year != "" {
		fmt.Fprintf(&b, " (%s)", year)
	}
	return b.String()
}
