// Package config loads the toolkit's binary-specific tunables — paths,
// the giveall inventory-flag range, the opening path used for location
// discovery, and the mirror's reflection variant — as data rather than
// hard-coded constants (spec.md §9 Open Questions).
package config

import (
	"github.com/BurntSushi/toml"
)

// GiveAllRange describes the inventory-flag address range GiveAll zeroes.
// The default (2670..2734 stride 4) is specific to one known binary;
// spec.md §9 calls out that a correctness-preserving implementation should
// treat this as configuration, not semantics.
type GiveAllRange struct {
	Start  uint16
	End    uint16
	Stride uint16
}

// Addrs expands the range into the concrete address list GiveAll writes to.
func (r GiveAllRange) Addrs() []uint16 {
	if r.Stride == 0 {
		return nil
	}
	var addrs []uint16
	for a := r.Start; a <= r.End; a += r.Stride {
		addrs = append(addrs, a)
	}
	return addrs
}

// Config holds every binary-specific tunable the toolkit needs.
type Config struct {
	BinaryPath   string `toml:"binary_path"`
	ArchSpecPath string `toml:"arch_spec_path"`
	SnapshotDir  string `toml:"snapshot_dir"`
	MacroDir     string `toml:"macro_dir"`

	GiveAllRange GiveAllRange `toml:"give_all_range"`
	OpeningPath  []string     `toml:"opening_path"`

	// ReflectionPairs is stored as a flat "XY" string list (e.g. "db",
	// "pq", "25") since TOML has no native rune-map type; Pairs() expands
	// it into the map internal/scrape expects.
	ReflectionPairs []string `toml:"reflection_pairs"`

	ExploreWorkers int `toml:"explore_workers"`
}

// Default returns the configuration matching the canonical binary,
// resolving spec.md §9's Open Questions about the giveall range, opening
// path, and reflection variant as concrete defaults rather than leaving
// them unspecified.
func Default() Config {
	return Config{
		BinaryPath:   "challenge.bin",
		ArchSpecPath: "arch-spec",
		SnapshotDir:  "snapshots",
		MacroDir:     "macros",
		GiveAllRange: GiveAllRange{Start: 2670, End: 2734, Stride: 4},
		OpeningPath:  []string{"doorway", "north", "north"},
		// Extended variant (includes 2<->5), per spec.md §9: "this matches
		// the source's extended variant." Override with ["db", "pq"] for
		// the minimal variant.
		ReflectionPairs: []string{"db", "pq", "25"},
		ExploreWorkers:  4,
	}
}

// Pairs expands ReflectionPairs into the rune-to-rune involution map
// internal/scrape.ReflectWith consumes.
func (c Config) Pairs() map[rune]rune {
	m := make(map[rune]rune, len(c.ReflectionPairs)*2)
	for _, pair := range c.ReflectionPairs {
		runes := []rune(pair)
		if len(runes) != 2 {
			continue
		}
		m[runes[0]] = runes[1]
		m[runes[1]] = runes[0]
	}
	return m
}

// Load reads and merges a TOML config file over Default(), so a file that
// only sets one field leaves every other default intact.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
