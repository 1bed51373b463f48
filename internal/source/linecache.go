package source

import (
	"golang.org/x/sync/singleflight"
)

// LineCache serves source lines by path. Files already in the set are used
// as is; other paths are read from disk once, concurrent first reads of the
// same path sharing a single load.
type LineCache struct {
	files *FileSet
	group singleflight.Group
}

// NewLineCache returns a cache backed by files.
func NewLineCache(files *FileSet) *LineCache {
	return &LineCache{files: files}
}

// Line returns line n (1-based) of file without its newline. Unknown files
// and out-of-range lines yield "".
func (c *LineCache) Line(file string, n int) string {
	f, ok := c.files.GetByPath(file)
	if !ok {
		f, ok = c.load(file)
		if !ok {
			return ""
		}
	}
	return f.GetLine(n)
}

func (c *LineCache) load(path string) (*File, bool) {
	if path == "" || path[0] == '<' {
		return nil, false
	}
	v, err, _ := c.group.Do(normalizePath(path), func() (any, error) {
		if f, ok := c.files.GetByPath(path); ok {
			return f, nil
		}
		id, err := c.files.Load(path)
		if err != nil {
			return nil, err
		}
		return c.files.Get(id), nil
	})
	if err != nil {
		return nil, false
	}
	return v.(*File), true
}
