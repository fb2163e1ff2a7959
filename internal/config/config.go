// Package config loads and validates the chrysalis.toml build configuration.
package config

import (
	"github.com/BurntSushi/toml"

	"github.com/chrysalis-build/chrysalis/internal/build"
)

// Build holds the [build] table.
type Build struct {
	CleanBeforeBuild bool `toml:"clean_before_build"`
	Verbose          bool `toml:"verbose"`
	ParallelJobs     int  `toml:"parallel_jobs"`
}

// Web holds the [platforms.web] table.
type Web struct {
	Enabled         bool     `toml:"enabled"`
	OutputDir       string   `toml:"output_dir"`
	ExcludePatterns []string `toml:"exclude_patterns"`
}

// Platforms holds the [platforms] table.
type Platforms struct {
	Web Web `toml:"web"`
}

// Minify holds the [plugins.minify] table.
type Minify struct {
	Enabled    bool `toml:"enabled"`
	MinifyJS   bool `toml:"minify_js"`
	MinifyCSS  bool `toml:"minify_css"`
	MinifyHTML bool `toml:"minify_html"`
	MinifyJSON bool `toml:"minify_json"`
}

// Hash holds the [plugins.hash] table.
type Hash struct {
	Enabled    bool     `toml:"enabled"`
	Include    []string `toml:"include"`
	Exclude    []string `toml:"exclude"`
	HashLength int      `toml:"hash_length"`
}

// Chunk holds the [plugins.chunk] table.
type Chunk struct {
	Enabled        bool     `toml:"enabled"`
	Include        []string `toml:"include"`
	Exclude        []string `toml:"exclude"`
	ChunkSizeKB    int      `toml:"chunk_size_kb"`
	MinChunkSizeKB int      `toml:"min_chunk_size_kb"`
}

// Inject holds the [plugins.inject] table.
type Inject struct {
	Enabled        bool `toml:"enabled"`
	InlineManifest bool `toml:"inline_manifest"`
}

// Plugins holds the [plugins] table.
type Plugins struct {
	Minify Minify `toml:"minify"`
	Hash   Hash   `toml:"hash"`
	Chunk  Chunk  `toml:"chunk"`
	Inject Inject `toml:"inject"`
}

// Config is the fully decoded chrysalis.toml document.
type Config struct {
	Build     Build     `toml:"build"`
	Platforms Platforms `toml:"platforms"`
	Plugins   Plugins   `toml:"plugins"`
}

// DefaultTOML is the document `chrysalis init` writes: the same values
// Default returns, spelled out as TOML so the generated file is a
// human-editable starting point rather than an opaque default.
const DefaultTOML = `[build]
clean_before_build = true
verbose = false
parallel_jobs = 0

[platforms.web]
enabled = true
output_dir = "dist/web"
exclude_patterns = ["*.map", "*.txt"]

[plugins.minify]
enabled = true
minify_js = true
minify_css = true
minify_html = true
minify_json = true

[plugins.hash]
enabled = true
include = ["*.js", "*.css"]
exclude = ["*.map"]
hash_length = 8

[plugins.chunk]
enabled = true
include = ["*.js"]
exclude = ["flutter_service_worker.js"]
chunk_size_kb = 400
min_chunk_size_kb = 400

[plugins.inject]
enabled = true
inline_manifest = true
`

// Default returns the configuration that applies when chrysalis.toml is
// absent.
func Default() *Config {
	return &Config{
		Build: Build{
			CleanBeforeBuild: true,
			Verbose:          false,
			ParallelJobs:     0,
		},
		Platforms: Platforms{
			Web: Web{
				Enabled:         true,
				OutputDir:       "dist/web",
				ExcludePatterns: []string{"*.map", "*.txt"},
			},
		},
		Plugins: Plugins{
			Minify: Minify{Enabled: true, MinifyJS: true, MinifyCSS: true, MinifyHTML: true, MinifyJSON: true},
			Hash: Hash{
				Enabled:    true,
				Include:    []string{"*.js", "*.css"},
				Exclude:    []string{"*.map"},
				HashLength: 8,
			},
			Chunk: Chunk{
				Enabled:        true,
				Include:        []string{"*.js"},
				Exclude:        []string{build.ProtectedServiceWorker},
				ChunkSizeKB:    400,
				MinChunkSizeKB: 400,
			},
			Inject: Inject{Enabled: true, InlineManifest: true},
		},
	}
}

// Load decodes path over top of Default, so missing tables or keys fall back
// to documented defaults rather than Go zero values. An empty path returns
// Default unchanged.
//
// Fails with build.KindConfigInvalid if the file can't be read or parsed
// (a path that does not exist included), or if
// validation fails (hash_length out of [1, 32], chunk sizes non-positive).
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, build.WithPath(build.KindConfigInvalid, path, "parse: %s", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values no pipeline run could honor. A hash_length
// outside [1, 32] can never produce a recognisable hash segment once
// embedded by AddHash/ExtractHash, so it fails at load time rather than
// surfacing as silent hash-stage misbehavior later.
func (c *Config) Validate() error {
	hl := c.Plugins.Hash.HashLength
	if hl < 1 || hl > 32 {
		return build.Newf(build.KindConfigInvalid, "plugins.hash.hash_length %d out of range [1, 32]", hl)
	}
	if c.Plugins.Chunk.Enabled {
		if c.Plugins.Chunk.ChunkSizeKB <= 0 {
			return build.Newf(build.KindConfigInvalid, "plugins.chunk.chunk_size_kb must be positive, got %d", c.Plugins.Chunk.ChunkSizeKB)
		}
		if c.Plugins.Chunk.MinChunkSizeKB <= 0 {
			return build.Newf(build.KindConfigInvalid, "plugins.chunk.min_chunk_size_kb must be positive, got %d", c.Plugins.Chunk.MinChunkSizeKB)
		}
	}
	return nil
}
