package pipeline

import (
	"crypto/md5"
	"encoding/hex"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/chrysalis-build/chrysalis/internal/build"
	"github.com/chrysalis-build/chrysalis/internal/glob"
)

// HashConfig is the subset of [plugins.hash] the stage needs.
type HashConfig struct {
	Enabled      bool
	Include      []string
	Exclude      []string
	HashLength   int
	ParallelJobs int
}

// HashStage computes a content digest per eligible file, renames the file
// with the digest embedded, then rewrites textual references to every
// renamed file inside every script/markup/style/structured-data file.
type HashStage struct {
	cfg     HashConfig
	matcher *glob.Matcher
	log     *logrus.Entry
}

// NewHashStage builds the hash stage.
func NewHashStage(cfg HashConfig, log *logrus.Logger) (*HashStage, error) {
	matcher, err := glob.NewMatcher(cfg.Include, cfg.Exclude)
	if err != nil {
		return nil, build.Newf(build.KindConfigInvalid, "plugins.hash: %s", err)
	}
	return &HashStage{cfg: cfg, matcher: matcher, log: log.WithField("stage", "hash")}, nil
}

// Name identifies this stage.
func (s *HashStage) Name() string { return "hash" }

// Run renames every eligible file with its digest embedded, then rewrites
// references. The rename phase snapshots the eligible file list before any
// rename happens, so renames within the phase never change which files it
// considers or which relative paths the include/exclude patterns saw.
func (s *HashStage) Run(ctx *build.Context) error {
	if !s.cfg.Enabled {
		s.log.Debug("hashing disabled")
		return nil
	}

	if err := s.renamePhase(ctx); err != nil {
		return err
	}
	return s.rewritePhase(ctx)
}

func (s *HashStage) shouldHash(f *build.File) bool {
	if build.IsProtected(f.Name) {
		return false
	}
	return s.matcher.Included(f.Relative)
}

// renamePhase digests and renames candidates in parallel. Each file is an
// independent unit; RenameFile serializes through the context's own lock and
// the stats counters through Stats' lock, and the substitution ordering used
// later is recomputed
// from the completed rename map, so completion order here cannot leak into
// the rewrite.
func (s *HashStage) renamePhase(ctx *build.Context) error {
	candidates := lo.Filter(ctx.Files(), func(f *build.File, _ int) bool { return s.shouldHash(f) })

	g := new(errgroup.Group)
	g.SetLimit(parallelLimit(s.cfg.ParallelJobs))
	for _, f := range candidates {
		f := f
		g.Go(func() error {
			if err := ctx.LoadContent(f); err != nil {
				s.log.WithField("file", f.Relative).WithError(err).Warn("failed to load")
				return nil
			}

			sum := md5.Sum(f.Content)
			hash := hex.EncodeToString(sum[:])[:s.cfg.HashLength]
			newName := build.AddHash(f.Name, hash)
			newAbs := filepath.Join(filepath.Dir(f.Absolute), newName)

			if err := ctx.RenameFile(f.Absolute, newAbs); err != nil {
				s.log.WithField("file", f.Relative).WithError(err).Warn("failed to rename")
				return nil
			}
			ctx.Stats().RecordHash()
			return nil
		})
	}
	return g.Wait()
}

func (s *HashStage) rewritePhase(ctx *build.Context) error {
	renameMap := ctx.RenameMap()
	if len(renameMap) == 0 {
		return nil
	}
	rules := buildSubstitutionRules(renameMap)

	textFiles := lo.Filter(ctx.Files(), func(f *build.File, _ int) bool { return f.IsText() })
	for _, f := range textFiles {
		if err := ctx.LoadContent(f); err != nil {
			s.log.WithField("file", f.Relative).WithError(err).Warn("failed to load")
			continue
		}

		original := string(f.Content)
		rewritten := applyRules(original, rules)
		if rewritten == original {
			continue
		}

		f.SetContent([]byte(rewritten))
		if err := ctx.Flush(f); err != nil {
			s.log.WithField("file", f.Relative).WithError(err).Warn("failed to flush")
		}
	}
	return nil
}

// substitutionRule is one ordered old->new literal replacement, covering one
// quoted or attribute reference shape.
type substitutionRule struct {
	old string
	new string
}

// buildSubstitutionRules expands renameMap into quoted substitutions for both
// the bare file name and the full relative path, plus attribute
// substitutions for the bare file name, ordered by descending length of the originating old relative path so a
// longer match is never shadowed by a shorter one sharing a suffix.
func buildSubstitutionRules(renameMap map[string]string) []substitutionRule {
	type entry struct{ oldRel, newRel string }
	entries := make([]entry, 0, len(renameMap))
	for old, new := range renameMap {
		entries = append(entries, entry{old, new})
	}
	sort.Slice(entries, func(i, j int) bool {
		return len(entries[i].oldRel) > len(entries[j].oldRel)
	})

	var rules []substitutionRule
	for _, e := range entries {
		oldName := filepath.Base(e.oldRel)
		newName := filepath.Base(e.newRel)
		if oldName == newName {
			continue
		}
		rules = append(rules, quotedRules(oldName, newName)...)
		if e.oldRel != oldName {
			rules = append(rules, quotedRules(e.oldRel, e.newRel)...)
		}
		rules = append(rules, attributeRules(oldName, newName)...)
	}
	return rules
}

func quotedRules(old, new string) []substitutionRule {
	return []substitutionRule{
		{`"` + old + `"`, `"` + new + `"`},
		{`'` + old + `'`, `'` + new + `'`},
		{"`" + old + "`", "`" + new + "`"},
	}
}

func attributeRules(old, new string) []substitutionRule {
	rules := make([]substitutionRule, 0, 6)
	for _, attr := range []string{"src", "href"} {
		rules = append(rules,
			substitutionRule{attr + "=" + old, attr + "=" + new},
			substitutionRule{attr + `="` + old + `"`, attr + `="` + new + `"`},
			substitutionRule{attr + `='` + old + `'`, attr + `='` + new + `'`},
		)
	}
	return rules
}

func applyRules(content string, rules []substitutionRule) string {
	for _, r := range rules {
		content = strings.ReplaceAll(content, r.old, r.new)
	}
	return content
}
