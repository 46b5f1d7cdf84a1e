package changelog

import (
	"errors"
	"io/fs"
)

// SearchPath is a resource accessor that looks a resource up in each file system in order.
type SearchPath []fs.FS

var _ fs.FS = SearchPath(nil)

// Open opens name from the first file system that has it.
// Errors other than fs.ErrNotExist stop the search.
func (s SearchPath) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	for _, fsys := range s {
		if fsys == nil {
			continue
		}
		f, err := fsys.Open(name)
		if err == nil {
			return f, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
}
