package app

import (
	"bytes"
	"regexp"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrysalis-build/chrysalis/internal/config"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func seedAssetRoot(t *testing.T, fsys afero.Fs) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fsys, "build/web/index.html",
		[]byte(`<html><head><script src="main.js"></script></head><body></body></html>`), 0o644))
	require.NoError(t, afero.WriteFile(fsys, "build/web/main.js",
		[]byte("function add(a, b) {\n  return a + b;\n}\n"), 0o644))
}

func TestBuildRunsFullPipelineInPlace(t *testing.T) {
	fsys := afero.NewMemMapFs()
	seedAssetRoot(t, fsys)

	cfg := config.Default()
	cfg.Platforms.Web.OutputDir = ""
	cfg.Plugins.Chunk.Enabled = false
	cfg.Plugins.Inject.Enabled = false

	stats, err := Build(fsys, cfg, Options{AssetRoot: "build/web"}, testLogger())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalFiles)
	assert.Equal(t, 2, stats.MinifiedFiles)
	assert.Equal(t, 1, stats.HashedFiles, "only main.js matches the default hash include patterns")

	exists, err := afero.Exists(fsys, "build/web/main.js")
	require.NoError(t, err)
	assert.False(t, exists, "the original unhashed name must be gone once hashing renamed it")
}

func TestBuildDryRunTouchesNothing(t *testing.T) {
	fsys := afero.NewMemMapFs()
	seedAssetRoot(t, fsys)

	cfg := config.Default()
	cfg.Platforms.Web.OutputDir = ""

	stats, err := Build(fsys, cfg, Options{AssetRoot: "build/web", DryRun: true}, testLogger())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalFiles)
	assert.Zero(t, stats.MinifiedFiles)

	exists, err := afero.Exists(fsys, "build/web/main.js")
	require.NoError(t, err)
	assert.True(t, exists, "dry run must leave the original file untouched")
}

func TestBuildWithOutputDirCopiesTreeAndLeavesOriginalAlone(t *testing.T) {
	fsys := afero.NewMemMapFs()
	seedAssetRoot(t, fsys)

	cfg := config.Default()
	cfg.Platforms.Web.OutputDir = "dist/web"
	cfg.Plugins.Chunk.Enabled = false
	cfg.Plugins.Inject.Enabled = false

	_, err := Build(fsys, cfg, Options{AssetRoot: "build/web"}, testLogger())
	require.NoError(t, err)

	originalStillThere, err := afero.Exists(fsys, "build/web/main.js")
	require.NoError(t, err)
	assert.True(t, originalStillThere, "output_dir mode must never mutate the compiler's own tree")

	copyRenamed, err := afero.Exists(fsys, "dist/web/main.js")
	require.NoError(t, err)
	assert.False(t, copyRenamed, "the copy is what gets hashed, not left under its original name")
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	fsys := afero.NewMemMapFs()
	seedAssetRoot(t, fsys)

	cfg := config.Default()
	cfg.Plugins.Hash.HashLength = 0

	_, err := Build(fsys, cfg, Options{AssetRoot: "build/web"}, testLogger())
	assert.Error(t, err)
}

func TestBuildObservesMetricsWhenProvided(t *testing.T) {
	fsys := afero.NewMemMapFs()
	seedAssetRoot(t, fsys)

	cfg := config.Default()
	cfg.Platforms.Web.OutputDir = ""
	cfg.Plugins.Chunk.Enabled = false
	cfg.Plugins.Inject.Enabled = false

	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	stats, err := Build(fsys, cfg, Options{AssetRoot: "build/web", Metrics: metrics}, testLogger())
	require.NoError(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)
	assert.Equal(t, stats.TotalFiles, 2)

	var filesTotal float64
	for _, mf := range families {
		if mf.GetName() == "chrysalis_files_total" {
			filesTotal = mf.GetMetric()[0].GetGauge().GetValue()
		}
	}
	assert.Equal(t, float64(stats.TotalFiles), filesTotal)
}

func TestBuildChunksHashesAndInjectsLoader(t *testing.T) {
	fsys := afero.NewMemMapFs()
	content := bytes.Repeat([]byte{0x41}, 1_000_000)
	require.NoError(t, afero.WriteFile(fsys, "build/web/main.js", content, 0o644))
	require.NoError(t, afero.WriteFile(fsys, "build/web/index.html",
		[]byte(`<html><head><script src="main.js"></script></head><body></body></html>`), 0o644))

	cfg := config.Default()
	cfg.Platforms.Web.OutputDir = ""
	cfg.Plugins.Minify.Enabled = false

	stats, err := Build(fsys, cfg, Options{AssetRoot: "build/web"}, testLogger())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ChunkedFiles)
	assert.Equal(t, 3, stats.TotalChunks)

	entries, err := afero.ReadDir(fsys, "build/web")
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}

	stubRe := regexp.MustCompile(`^main\.[0-9a-f]{8}\.js$`)
	chunkRe := regexp.MustCompile(`^main\.[0-9a-f]{8}\.chunk[0-2]\.js$`)
	var stubName string
	var chunkNames []string
	for _, n := range names {
		switch {
		case stubRe.MatchString(n):
			stubName = n
		case chunkRe.MatchString(n):
			chunkNames = append(chunkNames, n)
		}
	}
	require.NotEmpty(t, stubName, "hashed stub must exist, got %v", names)
	require.Len(t, chunkNames, 3, "three hashed chunks must exist, got %v", names)
	assert.NotContains(t, names, "main.js")

	// the chunks reassemble to the original bytes
	var total []byte
	for i := 0; i < 3; i++ {
		re := regexp.MustCompile(`^main\.[0-9a-f]{8}\.chunk` + string(rune('0'+i)) + `\.js$`)
		for _, n := range chunkNames {
			if re.MatchString(n) {
				data, readErr := afero.ReadFile(fsys, "build/web/"+n)
				require.NoError(t, readErr)
				total = append(total, data...)
			}
		}
	}
	assert.Equal(t, content, total)

	// the stub carries its own hashed name: the hash stage's reference
	// rewrite updates its quoted fileName literal
	stub, err := afero.ReadFile(fsys, "build/web/"+stubName)
	require.NoError(t, err)
	assert.Contains(t, string(stub), "const fileName = '"+stubName+"';")

	// index.html references the stub and carries the manifest with every chunk
	html, err := afero.ReadFile(fsys, "build/web/index.html")
	require.NoError(t, err)
	assert.Contains(t, string(html), "ChunkLoader")
	assert.Contains(t, string(html), stubName)
	for _, n := range chunkNames {
		assert.Contains(t, string(html), n)
	}
	assert.NotContains(t, string(html), `src="main.js"`)
}
