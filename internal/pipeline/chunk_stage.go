package pipeline

import (
	"path/filepath"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/chrysalis-build/chrysalis/internal/build"
	"github.com/chrysalis-build/chrysalis/internal/glob"
	"github.com/chrysalis-build/chrysalis/internal/loader"
)

// ChunkConfig is the subset of [plugins.chunk] the stage needs. Sizes are in
// bytes (the driver converts the config file's *_kb fields).
type ChunkConfig struct {
	Enabled           bool
	Include           []string
	Exclude           []string
	ChunkSizeBytes    int64
	MinChunkSizeBytes int64
}

// ChunkStage splits files larger than a threshold into fixed-size parts,
// replacing scripts with a loader stub and deleting the original for any
// other chunked file.
type ChunkStage struct {
	cfg     ChunkConfig
	matcher *glob.Matcher
	log     *logrus.Entry
}

// NewChunkStage builds the chunk stage.
func NewChunkStage(cfg ChunkConfig, log *logrus.Logger) (*ChunkStage, error) {
	matcher, err := glob.NewMatcher(cfg.Include, cfg.Exclude)
	if err != nil {
		return nil, build.Newf(build.KindConfigInvalid, "plugins.chunk: %s", err)
	}
	return &ChunkStage{cfg: cfg, matcher: matcher, log: log.WithField("stage", "chunk")}, nil
}

// Name identifies this stage.
func (s *ChunkStage) Name() string { return "chunk" }

// Run splits every eligible file into fixed-size chunks. Eligibility and
// the split itself run against a snapshot of the index taken at the start
// of the stage, so the chunk files it adds never feed back into its own
// candidate list.
func (s *ChunkStage) Run(ctx *build.Context) error {
	if !s.cfg.Enabled {
		s.log.Debug("chunking disabled")
		return nil
	}

	candidates := lo.Filter(ctx.Files(), func(f *build.File, _ int) bool { return s.shouldChunk(f) })
	for _, f := range candidates {
		if err := s.chunkOne(ctx, f); err != nil {
			return err
		}
	}
	return nil
}

func (s *ChunkStage) shouldChunk(f *build.File) bool {
	if build.IsProtected(f.Name) || f.Name == build.EntryPoint {
		return false
	}
	if f.Size < s.cfg.MinChunkSizeBytes {
		return false
	}
	return s.matcher.Included(f.Relative)
}

func (s *ChunkStage) chunkOne(ctx *build.Context, f *build.File) error {
	if err := ctx.LoadContent(f); err != nil {
		s.log.WithField("file", f.Relative).WithError(err).Warn("failed to load")
		return nil
	}

	content := f.Content
	chunkSize := s.cfg.ChunkSizeBytes
	numChunks := (int64(len(content)) + chunkSize - 1) / chunkSize
	if numChunks <= 1 {
		return nil
	}

	parentDir := filepath.Dir(f.Absolute)
	chunkAbsolutes := make([]string, 0, numChunks)

	for i := int64(0); i < numChunks; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > int64(len(content)) {
			end = int64(len(content))
		}
		chunkName := build.AddChunkSuffix(f.Name, int(i))
		chunkAbs := filepath.Join(parentDir, chunkName)
		chunkRel, err := filepath.Rel(ctx.Root(), chunkAbs)
		if err != nil {
			return build.WithPath(build.KindChunkFailed, f.Absolute, "chunk path outside root: %s", err)
		}

		chunkContent := content[start:end]
		if err := afero.WriteFile(ctx.Fs(), chunkAbs, chunkContent, 0o644); err != nil {
			return build.Wrap(build.KindChunkFailed, chunkAbs, err)
		}

		chunkFile := build.NewFile(chunkAbs, filepath.ToSlash(chunkRel), int64(len(chunkContent)))
		chunkFile.Content = chunkContent
		if err := ctx.AddFile(chunkFile); err != nil {
			return err
		}
		chunkAbsolutes = append(chunkAbsolutes, chunkAbs)
	}

	ctx.AddChunkInfo(f.Absolute, chunkAbsolutes)
	s.log.WithField("file", f.Relative).WithField("chunks", len(chunkAbsolutes)).Info("chunked file")

	if f.IsJS() {
		stub := loader.Stub(f.Name)
		f.SetContent([]byte(stub))
		return ctx.Flush(f)
	}

	if err := ctx.Fs().Remove(f.Absolute); err != nil {
		return build.Wrap(build.KindChunkFailed, f.Absolute, err)
	}
	ctx.RemoveFile(f.Absolute)
	return nil
}
