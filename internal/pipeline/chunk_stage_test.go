package pipeline

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrysalis-build/chrysalis/internal/build"
)

func TestChunkStageSplitsLargeScriptIntoChunksAndStub(t *testing.T) {
	content := bytes.Repeat([]byte{0x41}, 1_000_000)
	ctx, fs := newTestContext(t, map[string][]byte{"main.js": content})

	stage, err := NewChunkStage(ChunkConfig{
		Enabled:           true,
		Include:           []string{"*.js"},
		ChunkSizeBytes:    409_600,
		MinChunkSizeBytes: 409_600,
	}, testLogger(t))
	require.NoError(t, err)
	require.NoError(t, stage.Run(ctx))

	parentAbs := testRoot + "/main.js"
	chunkPaths, ok := ctx.GetChunkInfo(parentAbs)
	require.True(t, ok)
	require.Len(t, chunkPaths, 3)

	var total []byte
	for i, p := range chunkPaths {
		f, ok := ctx.GetFile(p)
		require.True(t, ok, "chunk %d", i)
		data, err := afero.ReadFile(fs, f.Absolute)
		require.NoError(t, err)
		total = append(total, data...)
	}
	assert.Equal(t, content, total, "chunk round-trip must reproduce the original bytes")
	assert.EqualValues(t, 409_600, mustSize(t, fs, chunkPaths[0]))
	assert.EqualValues(t, 409_600, mustSize(t, fs, chunkPaths[1]))
	assert.EqualValues(t, 180_800, mustSize(t, fs, chunkPaths[2]))

	stub, ok := ctx.GetFile(parentAbs)
	require.True(t, ok, "the parent script becomes a stub, not removed")
	assert.True(t, strings.Contains(string(stub.Content), "main.js"))
	assert.True(t, strings.Contains(string(stub.Content), "ChunkLoader"))

	assert.Equal(t, 1, ctx.Stats().ChunkedFiles)
	assert.Equal(t, 3, ctx.Stats().TotalChunks)
}

func TestChunkStageDeletesNonScriptParent(t *testing.T) {
	content := bytes.Repeat([]byte{0x42}, 1_000_000)
	ctx, fs := newTestContext(t, map[string][]byte{"data.bin": content})

	stage, err := NewChunkStage(ChunkConfig{
		Enabled:           true,
		Include:           []string{"*.bin"},
		ChunkSizeBytes:    409_600,
		MinChunkSizeBytes: 409_600,
	}, testLogger(t))
	require.NoError(t, err)
	require.NoError(t, stage.Run(ctx))

	_, stillIndexed := ctx.GetFile(testRoot + "/data.bin")
	assert.False(t, stillIndexed)

	exists, err := afero.Exists(fs, testRoot+"/data.bin")
	require.NoError(t, err)
	assert.False(t, exists)

	chunkPaths, ok := ctx.GetChunkInfo(testRoot + "/data.bin")
	require.True(t, ok)
	assert.Len(t, chunkPaths, 3)
}

func TestChunkStageSkipsFilesBelowMinSize(t *testing.T) {
	ctx, _ := newTestContext(t, map[string][]byte{"small.js": []byte("console.log(1)")})
	stage, err := NewChunkStage(ChunkConfig{
		Enabled:           true,
		Include:           []string{"*.js"},
		ChunkSizeBytes:    409_600,
		MinChunkSizeBytes: 409_600,
	}, testLogger(t))
	require.NoError(t, err)
	require.NoError(t, stage.Run(ctx))

	_, hasChunks := ctx.GetChunkInfo(testRoot + "/small.js")
	assert.False(t, hasChunks)
}

func TestChunkStageNeverChunksProtectedOrEntryPoint(t *testing.T) {
	content := bytes.Repeat([]byte{0x43}, 1_000_000)
	ctx, _ := newTestContext(t, map[string][]byte{
		build.ProtectedServiceWorker: content,
		build.EntryPoint:             content,
	})
	stage, err := NewChunkStage(ChunkConfig{
		Enabled:           true,
		Include:           []string{"*.js", "*.html"},
		ChunkSizeBytes:    409_600,
		MinChunkSizeBytes: 409_600,
	}, testLogger(t))
	require.NoError(t, err)
	require.NoError(t, stage.Run(ctx))

	assert.Zero(t, ctx.Stats().ChunkedFiles)
}

func mustSize(t *testing.T, fs afero.Fs, path string) int64 {
	t.Helper()
	info, err := fs.Stat(path)
	require.NoError(t, err)
	return info.Size()
}
