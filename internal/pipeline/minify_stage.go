package pipeline

import (
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/chrysalis-build/chrysalis/internal/build"
	"github.com/chrysalis-build/chrysalis/internal/minify"
)

// MinifyConfig is the subset of [plugins.minify] the stage needs.
type MinifyConfig struct {
	Enabled      bool
	MinifyJS     bool
	MinifyCSS    bool
	MinifyHTML   bool
	MinifyJSON   bool
	ParallelJobs int
	// SkipEntryPoint is set by the driver when the inject stage is also
	// enabled: inject performs the final minify pass on index.html itself,
	// so the minify stage must leave it untouched here.
	SkipEntryPoint bool
}

// MinifyStage replaces the content of each file whose extension is enabled
// with a backend-minified version. Backend failures are recovered locally
// (logged, file left untouched); they never abort the pipeline.
type MinifyStage struct {
	cfg MinifyConfig
	log *logrus.Entry
}

// NewMinifyStage builds the minify stage.
func NewMinifyStage(cfg MinifyConfig, log *logrus.Logger) *MinifyStage {
	return &MinifyStage{cfg: cfg, log: log.WithField("stage", "minify")}
}

// Name identifies this stage.
func (s *MinifyStage) Name() string { return "minify" }

// Run minifies every eligible file in ctx, in parallel bounded by
// cfg.ParallelJobs (0 means one worker per core). Stats updates are
// serialized through Stats' own locking rather than a second lock here.
func (s *MinifyStage) Run(ctx *build.Context) error {
	if !s.cfg.Enabled {
		s.log.Debug("minification disabled")
		return nil
	}

	files := ctx.Files()
	g := new(errgroup.Group)
	g.SetLimit(parallelLimit(s.cfg.ParallelJobs))

	for _, f := range files {
		f := f
		if s.cfg.SkipEntryPoint && f.Name == build.EntryPoint {
			continue
		}
		backend, mediaEnabled := s.backendFor(f)
		if backend == nil || !mediaEnabled {
			continue
		}
		g.Go(func() error {
			s.minifyOne(ctx, f, backend)
			return nil
		})
	}

	return g.Wait()
}

func (s *MinifyStage) backendFor(f *build.File) (minify.Backend, bool) {
	switch {
	case f.IsJS():
		return minify.JS, s.cfg.MinifyJS
	case f.IsCSS():
		return minify.CSS, s.cfg.MinifyCSS
	case f.IsHTML():
		return minify.HTML, s.cfg.MinifyHTML
	case f.IsJSON():
		return minify.JSON, s.cfg.MinifyJSON
	default:
		return nil, false
	}
}

func (s *MinifyStage) minifyOne(ctx *build.Context, f *build.File, backend minify.Backend) {
	if err := ctx.LoadContent(f); err != nil {
		s.log.WithField("file", f.Relative).WithError(err).Warn("failed to load")
		return
	}

	originalSize := f.Size
	minified, err := backend(f.Content)
	if err != nil {
		s.log.WithField("file", f.Relative).WithError(err).Warn("minify backend failed")
		return
	}

	f.SetContent(minified)
	if err := ctx.Flush(f); err != nil {
		s.log.WithField("file", f.Relative).WithError(err).Warn("failed to flush")
		return
	}
	ctx.Stats().RecordMinification(originalSize, f.Size)
}
