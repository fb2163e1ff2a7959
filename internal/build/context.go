package build

import (
	"path/filepath"
	"sort"
	"sync"

	"github.com/spf13/afero"
)

// Context is the single owner of the file index, the parent->chunks graph,
// the rename map and the running statistics. Every stage receives it by
// exclusive reference and mutates it only through the methods below, which
// keeps the index, chunk graph and rename map mutually consistent at every
// stage boundary. It operates through an afero.Fs, so the whole pipeline
// runs unchanged against an in-memory tree in tests.
type Context struct {
	mu sync.Mutex

	root string
	fs   afero.Fs

	files     map[string]*File    // absolute -> record
	renameMap map[string]string   // old relative -> new relative
	chunks    map[string][]string // parent absolute -> ordered chunk absolutes

	stats *Stats
}

// NewContext creates an empty build context rooted at root, backed by fsys.
func NewContext(root string, fsys afero.Fs) *Context {
	return &Context{
		root:      root,
		fs:        fsys,
		files:     make(map[string]*File),
		renameMap: make(map[string]string),
		chunks:    make(map[string][]string),
		stats:     NewStats(),
	}
}

// Root returns the asset-tree root this context was built against.
func (c *Context) Root() string { return c.root }

// Fs returns the filesystem backing this context.
func (c *Context) Fs() afero.Fs { return c.fs }

// Stats returns the running build statistics. The returned pointer is
// shared; stages record through it directly as they do work.
func (c *Context) Stats() *Stats { return c.stats }

// AddFile inserts a new record. It fails with KindFileAlreadyExists if
// Absolute already has a record.
func (c *Context) AddFile(f *File) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.files[f.Absolute]; exists {
		return WithPath(KindFileAlreadyExists, f.Absolute, "already indexed")
	}
	c.files[f.Absolute] = f
	return nil
}

// GetFile returns the record for absolute, if any.
func (c *Context) GetFile(absolute string) (*File, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.files[absolute]
	return f, ok
}

// RemoveFile deletes and returns the record for absolute, if present. It does
// not touch disk; callers remove the on-disk file themselves first.
func (c *Context) RemoveFile(absolute string) (*File, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.files[absolute]
	if !ok {
		return nil, false
	}
	delete(c.files, absolute)
	return f, true
}

// Files returns a snapshot slice of every record, sorted by Relative path for
// deterministic iteration. Stages that mutate the index while processing
// files always iterate this snapshot rather than the live map.
func (c *Context) Files() []*File {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*File, 0, len(c.files))
	for _, f := range c.files {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Relative < out[j].Relative })
	return out
}

// RenameFile performs an atomic (from the caller's perspective) disk rename
// plus index update: it renames oldAbs to newAbs on disk, updates the
// record's Absolute/Relative/Name/Extension, appends (oldRelative ->
// newRelative) to the rename map, and patches any occurrence of oldAbs in
// the chunk graph (as parent key or as a chunk value) to newAbs, all before
// returning, so no later stage can observe a half-updated chunk graph.
//
// Fails with KindFileNotFound if oldAbs has no record, or KindIO if the
// filesystem rename fails.
func (c *Context) RenameFile(oldAbs, newAbs string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, ok := c.files[oldAbs]
	if !ok {
		return WithPath(KindFileNotFound, oldAbs, "not indexed")
	}

	if err := c.fs.Rename(oldAbs, newAbs); err != nil {
		return Wrap(KindIO, oldAbs, err)
	}

	newRelative, err := filepath.Rel(c.root, newAbs)
	if err != nil {
		return WithPath(KindInvalidPath, newAbs, "not under root %q", c.root)
	}
	oldRelative := f.Relative

	delete(c.files, oldAbs)
	f.rename(newAbs, newRelative)
	c.files[newAbs] = f

	c.renameMap[oldRelative] = newRelative

	if chunkPaths, isParent := c.chunks[oldAbs]; isParent {
		delete(c.chunks, oldAbs)
		c.chunks[newAbs] = chunkPaths
	}
	for parent, chunkPaths := range c.chunks {
		for i, cp := range chunkPaths {
			if cp == oldAbs {
				c.chunks[parent][i] = newAbs
			}
		}
	}

	return nil
}

// AddChunkInfo records the ordered list of chunk paths produced for parent
// and bumps stats.TotalChunks by len(chunkPaths).
func (c *Context) AddChunkInfo(parentAbs string, chunkPaths []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := make([]string, len(chunkPaths))
	copy(cp, chunkPaths)
	c.chunks[parentAbs] = cp
	c.stats.RecordChunk(len(cp))
}

// GetChunkInfo returns the ordered chunk paths for parentAbs, if any.
func (c *Context) GetChunkInfo(parentAbs string) ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp, ok := c.chunks[parentAbs]
	return cp, ok
}

// Chunks returns a shallow copy of the parent->chunks graph.
func (c *Context) Chunks() map[string][]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string][]string, len(c.chunks))
	for k, v := range c.chunks {
		cp := make([]string, len(v))
		copy(cp, v)
		out[k] = cp
	}
	return out
}

// RenameMap returns a copy of the old-relative -> new-relative map
// accumulated so far this run.
func (c *Context) RenameMap() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]string, len(c.renameMap))
	for k, v := range c.renameMap {
		out[k] = v
	}
	return out
}

// LoadContent reads f's content from disk into memory if not already
// loaded. Safe to call repeatedly; a no-op once content is present.
func (c *Context) LoadContent(f *File) error {
	if f.Content != nil {
		return nil
	}
	data, err := afero.ReadFile(c.fs, f.Absolute)
	if err != nil {
		return Wrap(KindIO, f.Absolute, err)
	}
	f.Content = data
	return nil
}

// Flush writes f's in-memory content to disk and clears the Modified flag.
func (c *Context) Flush(f *File) error {
	if err := afero.WriteFile(c.fs, f.Absolute, f.Content, 0o644); err != nil {
		return Wrap(KindIO, f.Absolute, err)
	}
	f.Modified = false
	return nil
}
