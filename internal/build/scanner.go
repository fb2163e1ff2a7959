package build

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
	"golang.org/x/text/unicode/norm"

	"github.com/chrysalis-build/chrysalis/internal/glob"
)

// Scanner walks an asset tree and produces one File record per regular file,
// skipping symbolic links and any path an exclude pattern prunes.
type Scanner struct {
	fs      afero.Fs
	root    string
	exclude *glob.Matcher
}

// NewScanner builds a Scanner rooted at root, backed by fsys. excludePatterns
// are glob-style patterns matched against tree-relative paths; a matching
// path is pruned from the scan entirely (files and directories alike).
func NewScanner(fsys afero.Fs, root string, excludePatterns []string) (*Scanner, error) {
	matcher, err := glob.NewMatcher(nil, excludePatterns)
	if err != nil {
		return nil, Newf(KindConfigInvalid, "exclude_patterns: %s", err)
	}
	return &Scanner{fs: fsys, root: root, exclude: matcher}, nil
}

// Scan walks the tree rooted at s.root and returns one File record per
// regular file found, sorted by relative path for deterministic output.
// A missing root is fatal (KindScanFailed); a per-entry stat failure is
// fatal as well.
func (s *Scanner) Scan() ([]*File, error) {
	if _, err := s.fs.Stat(s.root); err != nil {
		return nil, Wrap(KindScanFailed, s.root, err)
	}

	var files []*File
	walkErr := afero.Walk(s.fs, s.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relative, relErr := filepath.Rel(s.root, path)
		if relErr != nil {
			return relErr
		}
		if relative == "." {
			return nil
		}
		// NFC-normalize so a tree produced on a decomposing filesystem
		// (HFS+) hashes and renames identically to one produced on an
		// NFC-native one.
		relative = norm.NFC.String(filepath.ToSlash(relative))

		if s.exclude.Excluded(relative) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if info.Mode()&os.ModeSymlink != 0 {
			return nil
		}
		if info.IsDir() {
			return nil
		}

		files = append(files, NewFile(path, relative, info.Size()))
		return nil
	})
	if walkErr != nil {
		return nil, Wrap(KindScanFailed, s.root, walkErr)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Relative < files[j].Relative })
	return files, nil
}
