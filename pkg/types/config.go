// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// DuplicatePolicy selects which occurrence survives when the same key
// is defined more than once.
type DuplicatePolicy string

const (
	FirstWins DuplicatePolicy = "first-wins"
	LastWins  DuplicatePolicy = "last-wins"
)

// Valid reports whether the policy is one of the recognized values.
func (p DuplicatePolicy) Valid() bool {
	return p == FirstWins || p == LastWins
}

// ResolverConfig holds settings for document discovery.
type ResolverConfig struct {
	// Extension is the document extension to pick up (default ".tex").
	Extension string `json:"extension" yaml:"extension"`

	// FollowIncludes enables transitive \input/\include resolution
	// starting from the triggering file instead of flat sibling
	// discovery.
	FollowIncludes bool `json:"follow_includes" yaml:"follow_includes"`
}

// ScanConfig holds settings for label and bibliography scanning.
type ScanConfig struct {
	// LookbackLines bounds how far above a \label the scanner searches
	// for the enclosing structural command (default 40).
	LookbackLines int `json:"lookback_lines" yaml:"lookback_lines"`

	// LookaheadLines bounds the caption search below a \label when the
	// environment's \end is not found first (default 40).
	LookaheadLines int `json:"lookahead_lines" yaml:"lookahead_lines"`

	// DuplicateReferences selects the survivor for duplicate label
	// keys (default last-wins).
	DuplicateReferences DuplicatePolicy `json:"duplicate_references" yaml:"duplicate_references"`

	// DuplicateCitations selects the survivor for duplicate citation
	// keys (default first-wins, the format's convention).
	DuplicateCitations DuplicatePolicy `json:"duplicate_citations" yaml:"duplicate_citations"`
}

// CacheConfig holds settings for the scan cache.
type CacheConfig struct {
	// MaxEntries bounds the number of cached file scans (default 512).
	MaxEntries int `json:"max_entries" yaml:"max_entries"`
}

// IndexConfig holds settings for index rebuilds and exports.
type IndexConfig struct {
	// Parallelism caps concurrent file scans during a rebuild.
	// Zero means one scanner goroutine per CPU.
	Parallelism int `json:"parallelism" yaml:"parallelism"`

	// ExportDir is the directory for persistent index exports
	// (default "index").
	ExportDir string `json:"export_dir" yaml:"export_dir"`
}

// Config groups all engine configuration.
type Config struct {
	Resolver ResolverConfig `json:"resolver" yaml:"resolver"`
	Scan     ScanConfig     `json:"scan" yaml:"scan"`
	Cache    CacheConfig    `json:"cache" yaml:"cache"`
	Index    IndexConfig    `json:"index" yaml:"index"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Resolver: ResolverConfig{Extension: ".tex"},
		Scan: ScanConfig{
			LookbackLines:       40,
			LookaheadLines:      40,
			DuplicateReferences: LastWins,
			DuplicateCitations:  FirstWins,
		},
		Cache: CacheConfig{MaxEntries: 512},
		Index: IndexConfig{ExportDir: "index"},
	}
}

// Normalized fills zero values with defaults and discards invalid
// duplicate policies.
func (c Config) Normalized() Config {
	d := Defaults()
	if c.Resolver.Extension == "" {
		c.Resolver.Extension = d.Resolver.Extension
	}
	if c.Scan.LookbackLines <= 0 {
		c.Scan.LookbackLines = d.Scan.LookbackLines
	}
	if c.Scan.LookaheadLines <= 0 {
		c.Scan.LookaheadLines = d.Scan.LookaheadLines
	}
	if !c.Scan.DuplicateReferences.Valid() {
		c.Scan.DuplicateReferences = d.Scan.DuplicateReferences
	}
	if !c.Scan.DuplicateCitations.Valid() {
		c.Scan.DuplicateCitations = d.Scan.DuplicateCitations
	}
	if c.Cache.MaxEntries <= 0 {
		c.Cache.MaxEntries = d.Cache.MaxEntries
	}
	if c.Index.ExportDir == "" {
		c.Index.ExportDir = d.Index.ExportDir
	}
	return c
}
