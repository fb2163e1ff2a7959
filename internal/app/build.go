// Package app wires config, the scanner, and the pipeline stages into the
// single entry point the CLI front-end calls, keeping cmd/chrysalis a thin
// argument-parsing shell.
package app

import (
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/chrysalis-build/chrysalis/internal/build"
	"github.com/chrysalis-build/chrysalis/internal/config"
	"github.com/chrysalis-build/chrysalis/internal/pipeline"
)

// Options controls one Build invocation beyond what's in the config file.
type Options struct {
	// AssetRoot is the directory the upstream compiler produced, e.g.
	// "build/web". Required.
	AssetRoot string
	// DryRun runs the scanner and config validation only; no stage touches
	// the filesystem.
	DryRun bool
	// Metrics, if non-nil, receives the final stats as Prometheus gauges.
	// Library callers that don't want a metrics endpoint simply leave this
	// nil.
	Metrics *Metrics
}

// Build runs the full pipeline against cfg and returns the final stats.
// When cfg.Build.CleanBeforeBuild and an output_dir are both set, the
// output directory is removed before the tree is copied into it; when
// output_dir is empty the pipeline mutates AssetRoot in place.
func Build(fsys afero.Fs, cfg *config.Config, opts Options, log *logrus.Logger) (*build.Stats, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	root, err := resolveRoot(fsys, cfg, opts, log)
	if err != nil {
		return nil, err
	}

	scanner, err := build.NewScanner(fsys, root, cfg.Platforms.Web.ExcludePatterns)
	if err != nil {
		return nil, err
	}
	files, err := scanner.Scan()
	if err != nil {
		return nil, err
	}

	ctx := build.NewContext(root, fsys)
	var originalSize uint64
	for _, f := range files {
		if err := ctx.AddFile(f); err != nil {
			return nil, err
		}
		originalSize += uint64(f.Size)
	}
	ctx.Stats().TotalFiles = len(files)
	ctx.Stats().OriginalSize = originalSize

	if opts.DryRun {
		log.WithField("files", len(files)).Info("dry run: scan and validation complete, no files changed")
		return ctx.Stats(), nil
	}

	driver, err := buildDriver(cfg, log)
	if err != nil {
		return ctx.Stats(), err
	}
	if err := driver.Run(ctx); err != nil {
		return ctx.Stats(), err
	}

	var finalSize uint64
	for _, f := range ctx.Files() {
		finalSize += uint64(f.Size)
	}
	ctx.Stats().FinalSize = finalSize

	if opts.Metrics != nil {
		opts.Metrics.Observe(ctx.Stats())
	}

	return ctx.Stats(), nil
}

func resolveRoot(fsys afero.Fs, cfg *config.Config, opts Options, log *logrus.Logger) (string, error) {
	web := cfg.Platforms.Web
	if web.OutputDir == "" || opts.DryRun {
		return opts.AssetRoot, nil
	}

	if cfg.Build.CleanBeforeBuild {
		if err := fsys.RemoveAll(web.OutputDir); err != nil {
			return "", build.Wrap(build.KindIO, web.OutputDir, err)
		}
	}
	if err := copyTree(fsys, opts.AssetRoot, web.OutputDir); err != nil {
		return "", err
	}
	log.WithFields(logrus.Fields{"from": opts.AssetRoot, "to": web.OutputDir}).Info("copied asset tree to output directory")
	return web.OutputDir, nil
}

// copyTree copies every regular file under src into dst, preserving the
// relative directory structure, so later stages mutate only the copy and
// never the compiler's original output.
func copyTree(fsys afero.Fs, src, dst string) error {
	if err := fsys.MkdirAll(dst, 0o755); err != nil {
		return build.Wrap(build.KindIO, dst, err)
	}
	return afero.Walk(fsys, src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		relative, relErr := filepath.Rel(src, path)
		if relErr != nil {
			return relErr
		}
		target := filepath.Join(dst, relative)
		if info.IsDir() {
			return fsys.MkdirAll(target, 0o755)
		}
		data, readErr := afero.ReadFile(fsys, path)
		if readErr != nil {
			return readErr
		}
		return afero.WriteFile(fsys, target, data, 0o644)
	})
}

func buildDriver(cfg *config.Config, log *logrus.Logger) (*pipeline.Driver, error) {
	plugins := cfg.Plugins

	minifyStage := pipeline.NewMinifyStage(pipeline.MinifyConfig{
		Enabled:        plugins.Minify.Enabled,
		MinifyJS:       plugins.Minify.MinifyJS,
		MinifyCSS:      plugins.Minify.MinifyCSS,
		MinifyHTML:     plugins.Minify.MinifyHTML,
		MinifyJSON:     plugins.Minify.MinifyJSON,
		ParallelJobs:   cfg.Build.ParallelJobs,
		SkipEntryPoint: plugins.Inject.Enabled && plugins.Chunk.Enabled,
	}, log)

	chunkStage, err := pipeline.NewChunkStage(pipeline.ChunkConfig{
		Enabled:           plugins.Chunk.Enabled,
		Include:           plugins.Chunk.Include,
		Exclude:           plugins.Chunk.Exclude,
		ChunkSizeBytes:    int64(plugins.Chunk.ChunkSizeKB) * 1024,
		MinChunkSizeBytes: int64(plugins.Chunk.MinChunkSizeKB) * 1024,
	}, log)
	if err != nil {
		return nil, err
	}

	hashStage, err := pipeline.NewHashStage(pipeline.HashConfig{
		Enabled:      plugins.Hash.Enabled,
		Include:      plugins.Hash.Include,
		Exclude:      plugins.Hash.Exclude,
		HashLength:   plugins.Hash.HashLength,
		ParallelJobs: cfg.Build.ParallelJobs,
	}, log)
	if err != nil {
		return nil, err
	}

	injectStage := pipeline.NewInjectStage(pipeline.InjectConfig{
		Enabled:        plugins.Inject.Enabled && plugins.Chunk.Enabled,
		InlineManifest: plugins.Inject.InlineManifest,
	}, log)

	return pipeline.NewDriver(log, minifyStage, chunkStage, hashStage, injectStage), nil
}
