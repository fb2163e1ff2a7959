package pipeline

import (
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/chrysalis-build/chrysalis/internal/build"
	"github.com/chrysalis-build/chrysalis/internal/loader"
	"github.com/chrysalis-build/chrysalis/internal/minify"
)

// InjectConfig is the subset of [plugins.inject] the stage needs.
type InjectConfig struct {
	Enabled        bool
	InlineManifest bool
}

// InjectStage installs the runtime chunk loader. It only ever runs when the
// chunk stage also ran (the driver enforces this), since it builds its
// manifest from the chunk graph chunking leaves behind.
type InjectStage struct {
	cfg InjectConfig
	log *logrus.Entry
}

// NewInjectStage builds the inject stage.
func NewInjectStage(cfg InjectConfig, log *logrus.Logger) *InjectStage {
	return &InjectStage{cfg: cfg, log: log.WithField("stage", "inject")}
}

// Name identifies this stage.
func (s *InjectStage) Name() string { return "inject" }

// Run builds the chunk manifest, generates the loader, splices it into
// index.html, rewrites index.html's references, runs the final HTML
// minify pass, and patches every stub's embedded file name.
func (s *InjectStage) Run(ctx *build.Context) error {
	if !s.cfg.Enabled {
		s.log.Debug("injection disabled")
		return nil
	}

	chunks := ctx.Chunks()
	if len(chunks) == 0 {
		s.log.Debug("no chunks to inject a loader for")
		return nil
	}

	manifest, err := s.buildManifest(ctx, chunks)
	if err != nil {
		return err
	}
	s.log.WithField("entries", len(manifest)).Info("built chunk manifest")

	loaderScript, err := loader.Script(manifest)
	if err != nil {
		return build.Newf(build.KindInjectFailed, "render loader: %s", err)
	}

	if err := s.injectEntryPoint(ctx, loaderScript); err != nil {
		return err
	}

	return s.patchStubs(ctx, chunks)
}

func (s *InjectStage) buildManifest(ctx *build.Context, chunks map[string][]string) (loader.Manifest, error) {
	manifest := make(loader.Manifest, len(chunks))
	for parentAbs, chunkAbsolutes := range chunks {
		parentFile, ok := ctx.GetFile(parentAbs)
		if !ok {
			continue
		}
		chunkNames := make([]string, 0, len(chunkAbsolutes))
		for _, chunkAbs := range chunkAbsolutes {
			chunkFile, ok := ctx.GetFile(chunkAbs)
			if !ok {
				return nil, build.WithPath(build.KindInjectFailed, chunkAbs, "chunk missing from index")
			}
			chunkNames = append(chunkNames, chunkFile.Name)
		}
		if len(chunkNames) > 0 {
			manifest[parentFile.Name] = chunkNames
		}
	}
	return manifest, nil
}

func (s *InjectStage) findEntryPoint(ctx *build.Context) *build.File {
	for _, f := range ctx.Files() {
		if f.Name == build.EntryPoint {
			return f
		}
	}
	return nil
}

func (s *InjectStage) injectEntryPoint(ctx *build.Context, loaderScript string) error {
	entry := s.findEntryPoint(ctx)
	if entry == nil {
		s.log.Warn("no index.html found, nothing to inject into")
		return nil
	}
	if err := ctx.LoadContent(entry); err != nil {
		return build.Wrap(build.KindInjectFailed, entry.Absolute, err)
	}

	html := string(entry.Content)
	html = applyRules(html, buildSubstitutionRules(ctx.RenameMap()))
	html = spliceScript(html, loaderScript)

	minified, err := minify.HTML([]byte(html))
	if err != nil {
		s.log.WithField("file", entry.Relative).WithError(err).Warn("failed to minify after injection")
		minified = []byte(html)
	}

	entry.SetContent(minified)
	if err := ctx.Flush(entry); err != nil {
		return build.Wrap(build.KindInjectFailed, entry.Absolute, err)
	}
	s.log.WithField("file", entry.Relative).Info("injected loader")
	return nil
}

// spliceScript inserts the loader as a <script> block immediately before
// </head>, falling back to immediately after <body ...> or, failing that,
// the very start of the document.
func spliceScript(html, loaderScript string) string {
	block := "<script>" + loaderScript + "</script>"

	if idx := strings.Index(html, "</head>"); idx >= 0 {
		return html[:idx] + block + html[idx:]
	}

	if idx := strings.Index(html, "<body"); idx >= 0 {
		if end := strings.Index(html[idx:], ">"); end >= 0 {
			insertAt := idx + end + 1
			return html[:insertAt] + block + html[insertAt:]
		}
	}

	return block + html
}

// patchStubs rewrites each chunked script's embedded fileName literal from
// its pre-hash name to its current (hashed) name. A parent that was never
// renamed by the hash stage (hashing disabled, or excluded from it) needs no
// patch: its stub already carries the correct name.
func (s *InjectStage) patchStubs(ctx *build.Context, chunks map[string][]string) error {
	reverseRenames := make(map[string]string, len(chunks))
	for oldRel, newRel := range ctx.RenameMap() {
		reverseRenames[newRel] = oldRel
	}

	for parentAbs := range chunks {
		parent, ok := ctx.GetFile(parentAbs)
		if !ok || !parent.IsJS() {
			continue
		}
		oldRel, wasRenamed := reverseRenames[parent.Relative]
		if !wasRenamed {
			continue
		}

		if err := ctx.LoadContent(parent); err != nil {
			s.log.WithField("file", parent.Relative).WithError(err).Warn("failed to load stub")
			continue
		}

		oldName := filepath.Base(oldRel)
		patched, changed := loader.PatchStubFileName(string(parent.Content), oldName, parent.Name)
		if !changed {
			s.log.WithField("file", parent.Relative).Warn("stub fileName literal not found for patching")
			continue
		}

		parent.SetContent([]byte(patched))
		if err := ctx.Flush(parent); err != nil {
			return build.Wrap(build.KindInjectFailed, parent.Absolute, err)
		}
	}
	return nil
}
