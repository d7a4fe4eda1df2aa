// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package texscan extracts completion facts from TeX source text: label
// definitions with their kind and caption, and bibliography database
// declarations. The scanning is deliberately heuristic, a bounded
// look-back and look-ahead over lines rather than a grammar; malformed
// input degrades to partial entries plus warnings, never a failed scan.
package texscan

import (
	"strings"

	"github.com/l3nkz/ycmtex/pkg/types"
)

// sectioningCommands lists the structural commands whose argument
// doubles as the caption of a label placed under them. Order matters
// only for documentation; matching tries each.
var sectioningCommands = []string{
	"chapter", "section", "subsection", "subsubsection", "paragraph", "subparagraph",
}

// sectioningKind maps a sectioning command to the reference kind it
// produces.
func sectioningKind(cmd string) types.RefKind {
	switch cmd {
	case "chapter":
		return types.KindChapter
	case "section", "subsection", "subsubsection":
		return types.KindSection
	default:
		return types.KindOther
	}
}

// environmentKind maps an environment name to a reference kind.
// Starred float variants share their base kind.
func environmentKind(env string) types.RefKind {
	switch strings.TrimSuffix(env, "*") {
	case "figure":
		return types.KindFigure
	case "table":
		return types.KindTable
	case "equation", "align", "eqnarray", "gather", "multline":
		return types.KindEquation
	default:
		return types.KindOther
	}
}

// ScanLabels extracts every \label definition (and label= option) from
// content. For each label it derives the kind from the nearest
// enclosing structural command within the look-back window and the
// caption from the enclosing block. Duplicate keys within the file are
// resolved by cfg.DuplicateReferences with one warning per duplicate.
func ScanLabels(path, content string, cfg types.ScanConfig) ([]types.ReferenceEntry, []types.Warning) {
	lines := strings.Split(content, "\n")

	var (
		entries  []types.ReferenceEntry
		warnings []types.Warning
		byKey    = map[string]int{} // key → index into entries
	)

	for lineNr, raw := range lines {
		line := stripComment(raw)

		for _, occ := range labelOccurrences(line) {
			key, ok := occ.key, occ.balanced
			if key == "" {
				continue
			}
			if !ok {
				warnings = append(warnings,
					types.Warningf(path, lineNr+1, "unbalanced braces in label, using %q", key))
			}

			entry := types.ReferenceEntry{
				Key:  key,
				Kind: types.KindOther,
				File: path,
				Line: lineNr + 1,
			}

			ctx := enclosingContext(lines, lineNr, occ.start, cfg.LookbackLines)
			switch {
			case ctx.env != "":
				entry.Kind = environmentKind(ctx.env)
				caption, capOK := environmentCaption(lines, ctx.env, ctx.line, cfg.LookaheadLines)
				entry.Caption = caption
				if !capOK {
					warnings = append(warnings,
						types.Warningf(path, lineNr+1, "unbalanced braces in caption near label %s", key))
				}
			case ctx.sectCmd != "":
				entry.Kind = sectioningKind(ctx.sectCmd)
				entry.Caption = ctx.sectTitle
			}

			if prev, dup := byKey[key]; dup {
				warnings = append(warnings,
					types.Warningf(path, lineNr+1, "duplicate label %s (also line %d)", key, entries[prev].Line))
				if cfg.DuplicateReferences != types.FirstWins {
					entries[prev] = entry
				}
				continue
			}
			byKey[key] = len(entries)
			entries = append(entries, entry)
		}
	}

	return entries, warnings
}

// labelOccurrence is one label definition found on a line.
type labelOccurrence struct {
	key      string
	start    int // byte offset of the backslash or option name
	balanced bool
}

// labelOccurrences finds \label{...} commands and label= options on a
// single comment-stripped line. An unclosed brace yields the rest of
// the line as a best-effort key with balanced=false.
func labelOccurrences(line string) []labelOccurrence {
	var occs []labelOccurrence

	const cmd = `\label{`
	for i := 0; ; {
		j := strings.Index(line[i:], cmd)
		if j < 0 {
			break
		}
		start := i + j
		argStart := start + len(cmd)
		if end := strings.IndexByte(line[argStart:], '}'); end >= 0 {
			occs = append(occs, labelOccurrence{
				key:      strings.TrimSpace(line[argStart : argStart+end]),
				start:    start,
				balanced: true,
			})
			i = argStart + end + 1
		} else {
			occs = append(occs, labelOccurrence{
				key:      strings.TrimSpace(line[argStart:]),
				start:    start,
				balanced: false,
			})
			break
		}
	}

	const opt = `label=`
	for i := 0; ; {
		j := strings.Index(line[i:], opt)
		if j < 0 {
			break
		}
		start := i + j
		// Skip \label{ matches and identifiers ending in "label=".
		if start > 0 && (line[start-1] == '\\' || isWordByte(line[start-1])) {
			i = start + len(opt)
			continue
		}
		argStart := start + len(opt)
		key, next, balanced := optionValue(line, argStart)
		if key != "" {
			occs = append(occs, labelOccurrence{key: key, start: start, balanced: balanced})
		}
		i = next
	}

	return occs
}

// optionValue reads a key=value argument starting at pos: either a
// braced group or a bare token ending at space, comma, ] or }.
func optionValue(line string, pos int) (value string, next int, balanced bool) {
	if pos >= len(line) {
		return "", len(line), true
	}
	if line[pos] == '{' {
		if end := strings.IndexByte(line[pos+1:], '}'); end >= 0 {
			return strings.TrimSpace(line[pos+1 : pos+1+end]), pos + 1 + end + 1, true
		}
		return strings.TrimSpace(line[pos+1:]), len(line), false
	}
	end := pos
	for end < len(line) && !strings.ContainsRune(" ,]}", rune(line[end])) {
		end++
	}
	return strings.TrimSpace(line[pos:end]), end, true
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

// labelContext describes the structural command nearest above a label.
type labelContext struct {
	env  string // enclosing environment name, "" if none
	line int    // line index of its \begin

	sectCmd   string // sectioning command, "" if none
	sectTitle string
}

// enclosingContext walks backward from the label position, at most
// lookback lines, for the nearest still-open \begin{...} or sectioning
// command. An \end{X} seen on the way up cancels the next \begin{X},
// so a label after a closed float is not attributed to it.
func enclosingContext(lines []string, labelLine, labelCol, lookback int) labelContext {
	if lookback <= 0 {
		lookback = 40
	}
	closed := map[string]int{}

	first := labelLine - lookback
	if first < 0 {
		first = 0
	}

	for ln := labelLine; ln >= first; ln-- {
		line := stripComment(lines[ln])
		if ln == labelLine && labelCol < len(line) {
			line = line[:labelCol]
		}

		toks := structuralTokens(line)
		for i := len(toks) - 1; i >= 0; i-- {
			tok := toks[i]
			switch tok.kind {
			case tokEnd:
				closed[tok.name]++
			case tokBegin:
				if closed[tok.name] > 0 {
					closed[tok.name]--
					continue
				}
				return labelContext{env: tok.name, line: ln}
			case tokSection:
				return labelContext{sectCmd: tok.name, sectTitle: tok.arg}
			}
		}
	}
	return labelContext{}
}

type tokenKind int

const (
	tokBegin tokenKind = iota
	tokEnd
	tokSection
)

type structuralToken struct {
	kind tokenKind
	pos  int
	name string // environment or command name
	arg  string // sectioning title
}

// structuralTokens finds \begin{...}, \end{...} and sectioning
// commands on one line, in positional order.
func structuralTokens(line string) []structuralToken {
	var toks []structuralToken

	scan := func(marker string, kind tokenKind) {
		for i := 0; ; {
			j := strings.Index(line[i:], marker)
			if j < 0 {
				break
			}
			start := i + j
			argStart := start + len(marker)
			end := strings.IndexByte(line[argStart:], '}')
			if end < 0 {
				break
			}
			toks = append(toks, structuralToken{
				kind: kind,
				pos:  start,
				name: strings.TrimSpace(line[argStart : argStart+end]),
			})
			i = argStart + end + 1
		}
	}
	scan(`\begin{`, tokBegin)
	scan(`\end{`, tokEnd)

	for _, cmd := range sectioningCommands {
		for _, marker := range []string{`\` + cmd + `{`, `\` + cmd + `*{`} {
			for i := 0; ; {
				j := strings.Index(line[i:], marker)
				if j < 0 {
					break
				}
				start := i + j
				argStart := start + len(marker)
				arg, _, ok := matchBraced(line, argStart-1)
				if !ok {
					arg = line[argStart:]
				}
				toks = append(toks, structuralToken{
					kind: tokSection,
					pos:  start,
					name: cmd,
					arg:  strings.TrimSpace(arg),
				})
				i = argStart
			}
		}
	}

	sortTokens(toks)
	return toks
}

// sortTokens orders tokens by position. Insertion sort; lines hold a
// handful of tokens at most.
func sortTokens(toks []structuralToken) {
	for i := 1; i < len(toks); i++ {
		for j := i; j > 0 && toks[j].pos < toks[j-1].pos; j-- {
			toks[j], toks[j-1] = toks[j-1], toks[j]
		}
	}
}

// environmentCaption searches the environment starting at beginLine for
// a \caption{...} or caption= argument. The search window runs from
// the \begin to the matching \end or lookahead lines, whichever comes
// first, so captions placed before or after the label are both found.
// Returns ok=false when a caption was found but its braces never
// closed inside the window.
func environmentCaption(lines []string, env string, beginLine, lookahead int) (string, bool) {
	if lookahead <= 0 {
		lookahead = 40
	}
	last := beginLine + lookahead
	if last > len(lines)-1 {
		last = len(lines) - 1
	}

	endMarker := `\end{` + env + `}`
	var window []string
	for ln := beginLine; ln <= last; ln++ {
		line := stripComment(lines[ln])
		if i := strings.Index(line, endMarker); i >= 0 {
			window = append(window, line[:i])
			break
		}
		window = append(window, line)
	}
	text := strings.Join(window, "\n")

	const cmd = `\caption{`
	if i := strings.Index(text, cmd); i >= 0 {
		caption, _, ok := matchBraced(text, i+len(cmd)-1)
		return flatten(caption), ok
	}
	if i := strings.Index(text, `caption=`); i >= 0 && (i == 0 || (!isWordByte(text[i-1]) && text[i-1] != '\\')) {
		caption, _, ok := optionValue(text, i+len(`caption=`))
		return flatten(caption), ok
	}
	return "", true
}

// matchBraced extracts the contents of a brace group. open must point
// at the opening '{'. Nested braces are tracked by depth; an escaped
// brace does not count. Returns ok=false with the best-effort tail
// when the group never closes.
func matchBraced(s string, open int) (content string, end int, ok bool) {
	if open < 0 || open >= len(s) || s[open] != '{' {
		return "", open, false
	}
	depth := 0
	for i := open; i < len(s); i++ {
		if i > 0 && s[i-1] == '\\' {
			continue
		}
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[open+1 : i], i, true
			}
		}
	}
	return s[open+1:], len(s), false
}

// flatten collapses a possibly multi-line caption into a single line.
func flatten(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// stripComment removes a trailing TeX comment. A % escaped as \% does
// not start a comment.
func stripComment(line string) string {
	for i := 0; i < len(line); i++ {
		if line[i] == '%' && (i == 0 || line[i-1] != '\\') {
			return line[:i]
		}
	}
	return line
}
