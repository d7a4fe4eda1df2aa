// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"encoding/json"
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/l3nkz/ycmtex/pkg/types"
)

// Export is the flat file representation of a built index.
type Export struct {
	References []types.ReferenceEntry `json:"references" yaml:"references"`
	Citations  []types.CitationEntry  `json:"citations" yaml:"citations"`
	Warnings   []types.Warning        `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Snapshot flattens the index into deterministic key order.
func (idx *Index) Snapshot() Export {
	out := Export{Warnings: idx.Warnings}
	for _, key := range idx.ReferenceKeys() {
		out.References = append(out.References, idx.References[key])
	}
	for _, key := range idx.CitationKeys() {
		out.Citations = append(out.Citations, idx.Citations[key])
	}
	return out
}

// ExportYAML writes the index snapshot to path as YAML.
func ExportYAML(idx *Index, path string) error {
	data, err := yaml.Marshal(idx.Snapshot())
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ExportJSON writes the index snapshot to path as indented JSON.
func ExportJSON(idx *Index, path string) error {
	data, err := json.MarshalIndent(idx.Snapshot(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
