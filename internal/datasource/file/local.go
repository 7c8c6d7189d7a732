// Package file provides the local-filesystem data source.
package file

import (
	"context"
	"io"
	"os"
)

// Local reads a file from the local filesystem.
type Local struct {
	path string
}

// NewLocal returns a source for the given path.
func NewLocal(path string) Local {
	return Local{path: path}
}

// Open opens the file for reading. The context is accepted for interface
// symmetry with remote sources; local opens do not block on it.
func (l Local) Open(_ context.Context) (io.ReadCloser, error) {
	return os.Open(l.path)
}
