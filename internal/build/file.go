package build

import (
	"path/filepath"
	"strings"
)

// File is a single entry in the build context's index. Content is loaded
// lazily and may be dropped again at any point to cap memory; Modified is
// set whenever in-memory content diverges from what was last read from disk.
type File struct {
	Absolute  string
	Relative  string
	Name      string
	Extension string
	Size      int64
	Content   []byte
	Modified  bool
}

// NewFile builds a File record from an absolute and tree-relative path plus
// its current on-disk size. Name and Extension are derived from Relative.
func NewFile(absolute, relative string, size int64) *File {
	name := filepath.Base(relative)
	return &File{
		Absolute:  absolute,
		Relative:  relative,
		Name:      name,
		Extension: extensionOf(name),
		Size:      size,
	}
}

func extensionOf(name string) string {
	ext := filepath.Ext(name)
	return strings.ToLower(ext)
}

// IsJS reports whether the file's extension is .js.
func (f *File) IsJS() bool { return f.Extension == ".js" }

// IsCSS reports whether the file's extension is .css.
func (f *File) IsCSS() bool { return f.Extension == ".css" }

// IsHTML reports whether the file's extension is .html.
func (f *File) IsHTML() bool { return f.Extension == ".html" }

// IsJSON reports whether the file's extension is .json.
func (f *File) IsJSON() bool { return f.Extension == ".json" }

// IsText reports whether the file is one of the four kinds the hash stage
// rewrites references inside of (script, style, markup, structured data).
func (f *File) IsText() bool {
	return f.IsJS() || f.IsCSS() || f.IsHTML() || f.IsJSON()
}

// SetContent replaces the in-memory content, updates Size and marks the
// record Modified. It does not touch disk; callers flush explicitly.
func (f *File) SetContent(content []byte) {
	f.Content = content
	f.Size = int64(len(content))
	f.Modified = true
}

// ClearContent drops the in-memory buffer to cap peak memory use across a
// large asset tree. Safe to call whether or not content is loaded.
func (f *File) ClearContent() {
	f.Content = nil
}

// rename updates the derived fields after the absolute/relative path changes.
// Callers (Context.RenameFile) are responsible for the actual disk rename and
// for updating the owning map's key.
func (f *File) rename(newAbsolute, newRelative string) {
	f.Absolute = newAbsolute
	f.Relative = newRelative
	f.Name = filepath.Base(newRelative)
	f.Extension = extensionOf(f.Name)
}
