// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package texscan

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/l3nkz/ycmtex/pkg/types"
)

// bibliographyCommands declare one or more databases. \bibliography
// takes a comma-separated list of names without extension;
// \addbibresource takes a single name with extension.
var bibliographyCommands = []string{"bibliography", "addbibresource"}

// FindDatabases scans content for bibliography declarations and
// resolves each named database against dir. Names without an
// extension get ".bib". A name that does not resolve to an existing
// file produces a warning and is dropped from the result.
func FindDatabases(path, content, dir string) ([]string, []types.Warning) {
	var (
		resolved []string
		warnings []types.Warning
		seen     = map[string]bool{}
	)

	for lineNr, raw := range strings.Split(content, "\n") {
		line := stripComment(raw)

		for _, cmd := range bibliographyCommands {
			marker := `\` + cmd + `{`
			rest := line
			for {
				i := strings.Index(rest, marker)
				if i < 0 {
					break
				}
				rest = rest[i+len(marker):]
				j := strings.IndexByte(rest, '}')
				if j < 0 {
					warnings = append(warnings,
						types.Warningf(path, lineNr+1, `unclosed \%s argument`, cmd))
					break
				}
				for _, name := range strings.Split(rest[:j], ",") {
					name = strings.TrimSpace(name)
					if name == "" {
						continue
					}
					target := name
					if filepath.Ext(target) == "" {
						target += ".bib"
					}
					if !filepath.IsAbs(target) {
						target = filepath.Join(dir, target)
					}
					if seen[target] {
						continue
					}
					seen[target] = true
					if info, err := os.Stat(target); err != nil || info.IsDir() {
						warnings = append(warnings,
							types.Warningf(path, lineNr+1, "bibliography database %s not found", name))
						continue
					}
					resolved = append(resolved, target)
				}
				rest = rest[j+1:]
			}
		}
	}

	return resolved, warnings
}
