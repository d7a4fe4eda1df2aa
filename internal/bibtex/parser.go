// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package bibtex parses bibliographic database files into structured
// citation entries. The parser is a small explicit state machine
// (seek entry → read type → read key → read fields) with depth-counted
// brace values. A malformed entry is abandoned with a warning and
// parsing resumes at the next @, so one broken record never takes down
// the rest of the file.
package bibtex

import (
	"strings"

	"github.com/l3nkz/ycmtex/pkg/types"
)

// ParseDatabase parses content into citation entries. Duplicate keys
// within the file are resolved by policy (the format's convention is
// first-wins) with one warning per duplicate. @comment, @preamble and
// @string blocks and %-prefixed comment lines are skipped.
func ParseDatabase(path, content string, policy types.DuplicatePolicy) ([]types.CitationEntry, []types.Warning) {
	p := &parser{src: content, path: path, line: 1, bol: true}

	var (
		entries  []types.CitationEntry
		warnings []types.Warning
		byKey    = map[string]int{}
	)

	for p.seekEntry() {
		entry, warn, ok := p.readEntry()
		if warn != nil {
			warnings = append(warnings, *warn)
		}
		if !ok {
			continue
		}

		if prev, dup := byKey[entry.Key]; dup {
			warnings = append(warnings,
				types.Warningf(path, entry.Line, "duplicate entry %s (also line %d)", entry.Key, entries[prev].Line))
			if policy == types.LastWins {
				entries[prev] = entry
			}
			continue
		}
		byKey[entry.Key] = len(entries)
		entries = append(entries, entry)
	}

	return entries, warnings
}

type parser struct {
	src  string
	pos  int
	line int
	path string

	// bol is true while only whitespace has been seen since the last
	// newline. An @ in that position starts a new record even when the
	// previous one never closed, which is what confines a runaway
	// brace value to its own entry.
	bol bool
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

// next consumes and returns one byte, tracking the line counter and
// the beginning-of-line state.
func (p *parser) next() byte {
	b := p.src[p.pos]
	p.pos++
	switch {
	case b == '\n':
		p.line++
		p.bol = true
	case b != ' ' && b != '\t' && b != '\r':
		p.bol = false
	}
	return b
}

// atBoundary reports whether the next byte opens a new record: an @
// with nothing but whitespace before it on its line.
func (p *parser) atBoundary() bool {
	return !p.eof() && p.bol && p.peek() == '@'
}

func (p *parser) peek() byte { return p.src[p.pos] }

// skipSpace consumes whitespace and %-comments up to end of line.
func (p *parser) skipSpace() {
	for !p.eof() {
		switch p.peek() {
		case ' ', '\t', '\r', '\n':
			p.next()
		case '%':
			for !p.eof() && p.peek() != '\n' {
				p.next()
			}
		default:
			return
		}
	}
}

// seekEntry advances to the next @ and consumes it. Comment lines are
// skipped so an @ inside them does not open an entry.
func (p *parser) seekEntry() bool {
	for !p.eof() {
		switch p.peek() {
		case '@':
			p.next()
			return true
		case '%':
			for !p.eof() && p.peek() != '\n' {
				p.next()
			}
		default:
			p.next()
		}
	}
	return false
}

// readIdent consumes an identifier: letters, digits and a few
// punctuation bytes that appear in field names.
func (p *parser) readIdent() string {
	start := p.pos
	for !p.eof() {
		b := p.peek()
		if b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9' ||
			b == '-' || b == '_' || b == ':' || b == '.' || b == '+' {
			p.next()
			continue
		}
		break
	}
	return p.src[start:p.pos]
}

// skippedBlocks are non-entry record types consumed without producing
// a citation.
var skippedBlocks = map[string]bool{"comment": true, "preamble": true, "string": true}

// readEntry parses one record after its @ has been consumed. It
// returns ok=false for skipped blocks and for malformed entries; the
// latter also carry a warning. The parser position is left where the
// failure occurred, so the next seekEntry resumes at the following @.
func (p *parser) readEntry() (types.CitationEntry, *types.Warning, bool) {
	startLine := p.line

	p.skipSpace()
	typ := strings.ToLower(p.readIdent())
	if typ == "" {
		w := types.Warningf(p.path, startLine, "entry with missing type, skipped")
		return types.CitationEntry{}, &w, false
	}

	p.skipSpace()
	if p.eof() || (p.peek() != '{' && p.peek() != '(') {
		w := types.Warningf(p.path, startLine, "entry @%s without opening delimiter, skipped", typ)
		return types.CitationEntry{}, &w, false
	}
	open := p.next()
	closer := byte('}')
	if open == '(' {
		closer = ')'
	}

	if skippedBlocks[typ] {
		if !p.skipBalanced(closer) {
			w := types.Warningf(p.path, startLine, "unterminated @%s block", typ)
			return types.CitationEntry{}, &w, false
		}
		return types.CitationEntry{}, nil, false
	}

	// ReadKey: everything up to the first comma.
	p.skipSpace()
	keyStart := p.pos
	for !p.eof() && p.peek() != ',' && p.peek() != closer && !p.atBoundary() {
		p.next()
	}
	key := strings.TrimSpace(p.src[keyStart:p.pos])
	if key == "" {
		w := types.Warningf(p.path, startLine, "entry @%s without key, skipped", typ)
		return types.CitationEntry{}, &w, false
	}

	entry := types.CitationEntry{
		Key:    key,
		Type:   typ,
		Fields: map[string]string{},
		File:   p.path,
		Line:   startLine,
	}

	// ReadFields: name = value pairs separated by commas until the
	// entry's closing delimiter.
	for {
		p.skipSpace()
		if p.eof() || p.atBoundary() {
			w := types.Warningf(p.path, startLine, "unterminated entry %s, abandoned", key)
			return types.CitationEntry{}, &w, false
		}
		switch p.peek() {
		case ',':
			p.next()
			continue
		case closer:
			p.next()
			return entry, nil, true
		}

		fieldLine := p.line
		name := strings.ToLower(p.readIdent())
		if name == "" {
			w := types.Warningf(p.path, fieldLine, "malformed field in entry %s, abandoned", key)
			return types.CitationEntry{}, &w, false
		}
		p.skipSpace()
		if p.eof() || p.peek() != '=' {
			w := types.Warningf(p.path, fieldLine, "field %s in entry %s has no value, abandoned", name, key)
			return types.CitationEntry{}, &w, false
		}
		p.next()

		value, ok := p.readValue(closer)
		if !ok {
			w := types.Warningf(p.path, fieldLine, "unbalanced value for field %s in entry %s, abandoned", name, key)
			return types.CitationEntry{}, &w, false
		}
		entry.Fields[name] = value
	}
}

// readValue parses a field value: a depth-counted brace group, a
// quoted string, or a bare token. Concatenations with # are joined.
func (p *parser) readValue(closer byte) (string, bool) {
	var parts []string
	for {
		p.skipSpace()
		if p.eof() {
			return "", false
		}

		var part string
		switch p.peek() {
		case '{':
			p.next()
			start := p.pos
			depth := 1
			for depth > 0 {
				if p.eof() || p.atBoundary() {
					return "", false
				}
				switch b := p.next(); b {
				case '\\':
					if !p.eof() {
						p.next()
					}
				case '{':
					depth++
				case '}':
					depth--
				}
			}
			part = p.src[start : p.pos-1]
		case '"':
			p.next()
			start := p.pos
			for {
				if p.eof() || p.atBoundary() {
					return "", false
				}
				b := p.next()
				if b == '\\' && !p.eof() {
					p.next()
					continue
				}
				if b == '"' {
					break
				}
			}
			part = p.src[start : p.pos-1]
		default:
			start := p.pos
			for !p.eof() {
				b := p.peek()
				if b == ',' || b == closer || b == '#' || b == ' ' || b == '\t' || b == '\r' || b == '\n' {
					break
				}
				p.next()
			}
			part = p.src[start:p.pos]
			if part == "" {
				return "", false
			}
		}
		parts = append(parts, part)

		p.skipSpace()
		if !p.eof() && p.peek() == '#' {
			p.next()
			continue
		}
		return normalizeValue(strings.Join(parts, "")), true
	}
}

// skipBalanced consumes a balanced block after its opening delimiter.
func (p *parser) skipBalanced(closer byte) bool {
	depth := 1
	opener := byte('{')
	if closer == ')' {
		opener = '('
	}
	for depth > 0 {
		if p.eof() || p.atBoundary() {
			return false
		}
		switch b := p.next(); b {
		case opener:
			depth++
		case closer:
			depth--
		}
	}
	return true
}

// normalizeValue collapses internal whitespace runs, so multi-line
// values come out as a single line.
func normalizeValue(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
