package pipeline

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/chrysalis-build/chrysalis/internal/build"
)

const testRoot = "/build/web"

func newTestContext(t *testing.T, files map[string][]byte) (*build.Context, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll(testRoot, 0o755))

	ctx := build.NewContext(testRoot, fs)
	for relative, content := range files {
		abs := testRoot + "/" + relative
		require.NoError(t, afero.WriteFile(fs, abs, content, 0o644))
		require.NoError(t, ctx.AddFile(build.NewFile(abs, relative, int64(len(content)))))
	}
	return ctx, fs
}

func testLogger(t *testing.T) *logrus.Logger {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}
