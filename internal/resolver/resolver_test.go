package resolver

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/l3nkz/ycmtex/pkg/types"
)

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "main.tex", "")
	write(t, dir, "appendix.tex", "")
	write(t, dir, "notes.md", "")
	write(t, dir, "refs.bib", "")
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}

	files, err := Resolve(dir, types.ResolverConfig{})
	if err != nil {
		t.Fatal(err)
	}

	want := []string{filepath.Join(dir, "appendix.tex"), filepath.Join(dir, "main.tex")}
	if len(files) != len(want) {
		t.Fatalf("files = %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("files[%d] = %q, want %q", i, files[i], want[i])
		}
	}
}

func TestResolveMissingRoot(t *testing.T) {
	_, err := Resolve(filepath.Join(t.TempDir(), "absent"), types.ResolverConfig{})
	var cfgErr *types.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("err = %v, want *types.ConfigError", err)
	}
}

func TestResolveRootIsFile(t *testing.T) {
	dir := t.TempDir()
	path := write(t, dir, "main.tex", "")

	_, err := Resolve(path, types.ResolverConfig{})
	var cfgErr *types.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("err = %v, want *types.ConfigError", err)
	}
}

func TestResolveCustomExtension(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "doc.ltx", "")
	write(t, dir, "doc.tex", "")

	files, err := Resolve(dir, types.ResolverConfig{Extension: ".ltx"})
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || filepath.Base(files[0]) != "doc.ltx" {
		t.Errorf("files = %v, want only doc.ltx", files)
	}
}

func TestResolveTree(t *testing.T) {
	dir := t.TempDir()
	root := write(t, dir, "main.tex", "\\input{chapters/one}\n\\include{two}\n")
	if err := os.Mkdir(filepath.Join(dir, "chapters"), 0o755); err != nil {
		t.Fatal(err)
	}
	one := write(t, filepath.Join(dir, "chapters"), "one.tex", "text")
	two := write(t, dir, "two.tex", "text")

	files, warnings, err := ResolveTree(root, types.ResolverConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) != 0 {
		t.Fatalf("warnings = %v, want none", warnings)
	}

	want := []string{root, one, two}
	if len(files) != len(want) {
		t.Fatalf("files = %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("files[%d] = %q, want %q", i, files[i], want[i])
		}
	}
}

func TestResolveTreeCycle(t *testing.T) {
	dir := t.TempDir()
	a := write(t, dir, "a.tex", "\\input{b}")
	write(t, dir, "b.tex", "\\input{a}")

	files, warnings, err := ResolveTree(a, types.ResolverConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) != 0 {
		t.Fatalf("warnings = %v, want none", warnings)
	}
	if len(files) != 2 {
		t.Errorf("files = %v, want each file exactly once despite the cycle", files)
	}
}

func TestResolveTreeMissingInclude(t *testing.T) {
	dir := t.TempDir()
	root := write(t, dir, "main.tex", "\\input{ghost}")

	files, warnings, err := ResolveTree(root, types.ResolverConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 {
		t.Errorf("files = %v, want only the root", files)
	}
	if len(warnings) != 1 {
		t.Errorf("warnings = %v, want 1 for the missing include", warnings)
	}
}

func TestResolveTreeCommentedInclude(t *testing.T) {
	dir := t.TempDir()
	root := write(t, dir, "main.tex", "% \\input{ghost}\ntext")

	files, warnings, err := ResolveTree(root, types.ResolverConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || len(warnings) != 0 {
		t.Errorf("files = %v, warnings = %v; commented include must be ignored", files, warnings)
	}
}
