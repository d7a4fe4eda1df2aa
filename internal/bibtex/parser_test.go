package bibtex

import (
	"strings"
	"testing"

	"github.com/l3nkz/ycmtex/pkg/types"
)

func parse(t *testing.T, content string) ([]types.CitationEntry, []types.Warning) {
	t.Helper()
	return ParseDatabase("refs.bib", content, types.FirstWins)
}

func TestParseDatabaseArticle(t *testing.T) {
	entries, warnings := parse(t,
		`@article{smith99, author = {A. Smith}, title = {A Study}, year = 1999}`)

	if len(warnings) != 0 {
		t.Fatalf("warnings = %v, want none", warnings)
	}
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.Key != "smith99" || e.Type != "article" {
		t.Errorf("entry = {key:%q type:%q}, want {key:smith99 type:article}", e.Key, e.Type)
	}
	want := map[string]string{"author": "A. Smith", "title": "A Study", "year": "1999"}
	for name, value := range want {
		if got := e.Fields[name]; got != value {
			t.Errorf("Fields[%q] = %q, want %q", name, got, value)
		}
	}
}

func TestParseDatabaseValueForms(t *testing.T) {
	tests := []struct {
		name    string
		content string
		field   string
		want    string
	}{
		{
			name:    "nested braces",
			content: `@book{k, title = {The {Go} Programming Language}}`,
			field:   "title",
			want:    "The {Go} Programming Language",
		},
		{
			name:    "quoted value",
			content: `@book{k, title = "A Quoted Title"}`,
			field:   "title",
			want:    "A Quoted Title",
		},
		{
			name:    "bare number",
			content: `@book{k, year = 2004}`,
			field:   "year",
			want:    "2004",
		},
		{
			name:    "multiline value flattened",
			content: "@book{k, title = {Spread\n  over lines}}",
			field:   "title",
			want:    "Spread over lines",
		},
		{
			name:    "concatenation",
			content: `@book{k, title = "Part one" # " and two"}`,
			field:   "title",
			want:    "Part one and two",
		},
		{
			name:    "uppercase field name normalized",
			content: `@book{k, TITLE = {Shouted}}`,
			field:   "title",
			want:    "Shouted",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, warnings := parse(t, tt.content)
			if len(warnings) != 0 {
				t.Fatalf("warnings = %v, want none", warnings)
			}
			if len(entries) != 1 {
				t.Fatalf("len(entries) = %d, want 1", len(entries))
			}
			if got := entries[0].Fields[tt.field]; got != tt.want {
				t.Errorf("Fields[%q] = %q, want %q", tt.field, got, tt.want)
			}
		})
	}
}

func TestParseDatabaseParenthesizedEntry(t *testing.T) {
	entries, warnings := parse(t, `@misc(note1, note = "paren delimited")`)
	if len(warnings) != 0 {
		t.Fatalf("warnings = %v, want none", warnings)
	}
	if len(entries) != 1 || entries[0].Key != "note1" {
		t.Fatalf("entries = %+v, want the paren-delimited entry", entries)
	}
}

func TestParseDatabaseUnknownTypePreserved(t *testing.T) {
	entries, _ := parse(t, `@Patent{p1, title = {Something}}`)
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	if entries[0].Type != "patent" {
		t.Errorf("Type = %q, want patent (lowercased, not rejected)", entries[0].Type)
	}
}

func TestParseDatabaseFaultIsolation(t *testing.T) {
	content := strings.Join([]string{
		`@article{broken, author = {Unclosed value,`,
		`@book{good, title = {Fine}}`,
	}, "\n")

	entries, warnings := parse(t, content)
	if len(warnings) != 1 {
		t.Fatalf("warnings = %v, want exactly 1 for the broken entry", warnings)
	}
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1 valid entry after the broken one", len(entries))
	}
	if entries[0].Key != "good" || entries[0].Fields["title"] != "Fine" {
		t.Errorf("entry = %+v, want the well-formed record", entries[0])
	}
	if warnings[0].Line != 1 {
		t.Errorf("warning line = %d, want 1", warnings[0].Line)
	}
}

func TestParseDatabaseTruncatedFinalEntry(t *testing.T) {
	content := strings.Join([]string{
		`@book{ok, title = {Complete}}`,
		`@article{cut, author = {Never closed`,
	}, "\n")

	entries, warnings := parse(t, content)
	if len(entries) != 1 || entries[0].Key != "ok" {
		t.Fatalf("entries = %+v, want only the complete record", entries)
	}
	if len(warnings) != 1 {
		t.Errorf("warnings = %v, want 1 for the truncated record", warnings)
	}
}

func TestParseDatabaseDuplicateKeys(t *testing.T) {
	content := strings.Join([]string{
		`@article{dup, title = {First}}`,
		`@article{dup, title = {Second}}`,
	}, "\n")

	t.Run("first wins", func(t *testing.T) {
		entries, warnings := ParseDatabase("refs.bib", content, types.FirstWins)
		if len(entries) != 1 || entries[0].Fields["title"] != "First" {
			t.Errorf("entries = %+v, want single entry with title First", entries)
		}
		if len(warnings) != 1 {
			t.Errorf("len(warnings) = %d, want exactly 1 per duplicate", len(warnings))
		}
	})

	t.Run("last wins when configured", func(t *testing.T) {
		entries, warnings := ParseDatabase("refs.bib", content, types.LastWins)
		if len(entries) != 1 || entries[0].Fields["title"] != "Second" {
			t.Errorf("entries = %+v, want single entry with title Second", entries)
		}
		if len(warnings) != 1 {
			t.Errorf("len(warnings) = %d, want 1", len(warnings))
		}
	})
}

func TestParseDatabaseSkipsNonEntries(t *testing.T) {
	content := strings.Join([]string{
		`% a comment line with an @article inside`,
		`@comment{ignore all of this}`,
		`@preamble{"\newcommand{\x}{y}"}`,
		`@string{anthology = {Collected Works}}`,
		`@book{real, title = {Kept}}`,
	}, "\n")

	entries, warnings := parse(t, content)
	if len(warnings) != 0 {
		t.Fatalf("warnings = %v, want none", warnings)
	}
	if len(entries) != 1 || entries[0].Key != "real" {
		t.Errorf("entries = %+v, want only the book entry", entries)
	}
}

func TestParseDatabaseEntryWithoutFields(t *testing.T) {
	entries, warnings := parse(t, `@misc{bare}`)
	if len(warnings) != 0 {
		t.Fatalf("warnings = %v, want none", warnings)
	}
	if len(entries) != 1 || entries[0].Key != "bare" {
		t.Fatalf("entries = %+v, want the field-less entry", entries)
	}
	if len(entries[0].Fields) != 0 {
		t.Errorf("Fields = %v, want empty", entries[0].Fields)
	}
}

func TestParseDatabaseLineNumbers(t *testing.T) {
	content := strings.Join([]string{
		``,
		``,
		`@article{third, title = {On Line Three}}`,
	}, "\n")

	entries, _ := parse(t, content)
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	if entries[0].Line != 3 {
		t.Errorf("Line = %d, want 3", entries[0].Line)
	}
}
