// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types holds the shared data model for the completion engine:
// the records extracted from TeX sources and bibliographic databases,
// the warning side channel, and the configuration structs.
package types

import "fmt"

// RefKind categorizes what a label points at, derived from the nearest
// enclosing structural command.
type RefKind string

const (
	KindChapter  RefKind = "chapter"
	KindSection  RefKind = "section"
	KindFigure   RefKind = "figure"
	KindTable    RefKind = "table"
	KindEquation RefKind = "equation"
	KindOther    RefKind = "other"
)

// ReferenceEntry is one \label definition found in a source document.
// Entries are immutable once created; a rescan of the source file
// replaces them wholesale.
type ReferenceEntry struct {
	// Key is the label identifier used by \ref commands.
	Key string `json:"key" yaml:"key"`

	// Kind classifies the enclosing structure (chapter, figure, ...).
	Kind RefKind `json:"kind" yaml:"kind"`

	// Caption is the caption or section title text, empty if none was
	// found near the label.
	Caption string `json:"caption" yaml:"caption"`

	// File is the absolute path of the declaring document.
	File string `json:"file" yaml:"file"`

	// Line is the 1-based line of the \label command.
	Line int `json:"line" yaml:"line"`
}

// CitationEntry is one record parsed from a bibliographic database.
type CitationEntry struct {
	// Key is the citation key used by \cite commands.
	Key string `json:"key" yaml:"key"`

	// Type is the lowercased entry type (article, book, ...). Unknown
	// types are preserved verbatim.
	Type string `json:"type" yaml:"type"`

	// Fields maps lowercased field names to raw values (author, title,
	// year, ...). Unknown fields are preserved.
	Fields map[string]string `json:"fields" yaml:"fields"`

	// File is the absolute path of the database the entry came from.
	File string `json:"file" yaml:"file"`

	// Line is the 1-based line of the @ that opened the entry.
	Line int `json:"line" yaml:"line"`
}

// Field returns the named field, case-insensitively on the caller's
// side since keys are stored lowercased. Missing fields yield "".
func (c CitationEntry) Field(name string) string {
	return c.Fields[name]
}

// Warning records a non-fatal problem found during a scan: a malformed
// entry, an unresolvable database name, a duplicate key. Warnings
// accumulate beside results and never abort a scan round.
type Warning struct {
	File string `json:"file" yaml:"file"`
	Line int    `json:"line" yaml:"line"`
	Msg  string `json:"msg" yaml:"msg"`
}

func (w Warning) String() string {
	if w.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", w.File, w.Line, w.Msg)
	}
	return fmt.Sprintf("%s: %s", w.File, w.Msg)
}

// Warningf builds a Warning with a formatted message.
func Warningf(file string, line int, format string, args ...any) Warning {
	return Warning{File: file, Line: line, Msg: fmt.Sprintf(format, args...)}
}

// Fingerprint is a cheap change-detection signature for a file:
// modification time plus size. Two fingerprints are comparable with ==.
type Fingerprint struct {
	ModTime string `json:"mod_time" yaml:"mod_time"`
	Size    int64  `json:"size" yaml:"size"`
}

// IsZero reports whether the fingerprint has never been set.
func (f Fingerprint) IsZero() bool {
	return f.ModTime == "" && f.Size == 0
}

// ConfigError reports an invalid resolution root. It is the only error
// class that fails a completion request outright; hosts should render
// it as "no completions available".
type ConfigError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid root %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid root %s: %s", e.Path, e.Reason)
}

func (e *ConfigError) Unwrap() error { return e.Err }
