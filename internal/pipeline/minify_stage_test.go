package pipeline

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrysalis-build/chrysalis/internal/build"
)

func TestMinifyStageShrinksEnabledExtensions(t *testing.T) {
	sources := map[string][]byte{
		"main.js":   []byte("function add(a, b) {\n  return a + b;\n}\n"),
		"style.css": []byte("body {\n  color:   red;\n}\n"),
		"data.json": []byte(`{ "a" : 1,   "b" : 2 }`),
	}
	ctx, fs := newTestContext(t, sources)

	stage := NewMinifyStage(MinifyConfig{
		Enabled: true, MinifyJS: true, MinifyCSS: true, MinifyHTML: true, MinifyJSON: true,
	}, testLogger(t))
	require.NoError(t, stage.Run(ctx))

	for _, name := range []string{"main.js", "style.css", "data.json"} {
		f, ok := ctx.GetFile(testRoot + "/" + name)
		require.True(t, ok, name)
		assert.False(t, f.Modified, name)
		assert.Less(t, len(f.Content), len(sources[name]), name)

		onDisk, err := afero.ReadFile(fs, f.Absolute)
		require.NoError(t, err)
		assert.Equal(t, f.Content, onDisk, name)
	}

	stats := ctx.Stats()
	assert.Equal(t, 3, stats.MinifiedFiles)
}

func TestMinifyStageDisabledLeavesFilesUntouched(t *testing.T) {
	ctx, _ := newTestContext(t, map[string][]byte{
		"main.js": []byte("function add(a, b) {\n  return a + b;\n}\n"),
	})
	stage := NewMinifyStage(MinifyConfig{Enabled: false}, testLogger(t))
	require.NoError(t, stage.Run(ctx))
	assert.Zero(t, ctx.Stats().MinifiedFiles)
}

func TestMinifyStageRespectsPerExtensionFlags(t *testing.T) {
	ctx, fs := newTestContext(t, map[string][]byte{
		"main.js":   []byte("function add(a, b) {\n  return a + b;\n}\n"),
		"style.css": []byte("body {\n  color:   red;\n}\n"),
	})
	stage := NewMinifyStage(MinifyConfig{Enabled: true, MinifyJS: true, MinifyCSS: false}, testLogger(t))
	require.NoError(t, stage.Run(ctx))

	assert.Equal(t, 1, ctx.Stats().MinifiedFiles)
	onDisk, err := afero.ReadFile(fs, testRoot+"/style.css")
	require.NoError(t, err)
	assert.Equal(t, "body {\n  color:   red;\n}\n", string(onDisk))
}

func TestMinifyStageSkipsEntryPointWhenConfigured(t *testing.T) {
	ctx, fs := newTestContext(t, map[string][]byte{
		build.EntryPoint: []byte("<html>\n  <body>  Hi </body>\n</html>\n"),
	})
	stage := NewMinifyStage(MinifyConfig{Enabled: true, MinifyHTML: true, SkipEntryPoint: true}, testLogger(t))
	require.NoError(t, stage.Run(ctx))

	assert.Zero(t, ctx.Stats().MinifiedFiles)
	onDisk, err := afero.ReadFile(fs, testRoot+"/"+build.EntryPoint)
	require.NoError(t, err)
	assert.Equal(t, "<html>\n  <body>  Hi </body>\n</html>\n", string(onDisk))
}
