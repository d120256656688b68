// Package document holds the pending-file handle selected for upload.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// AcceptedExtensions lists the document types the indexing backend understands.
var AcceptedExtensions = []string{".pdf", ".txt", ".md"}

// File is an opaque handle to a document chosen by the user. Only the name
// is visible; the content is produced lazily by Open.
type File struct {
	Name string `json:"name"`
	Size int64  `json:"size"`

	open func() (io.ReadCloser, error)
}

// FromPath returns a handle backed by a file on disk.
func FromPath(path string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	return &File{
		Name: filepath.Base(path),
		Size: info.Size(),
		open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

// FromBytes returns a handle over an in-memory copy of data.
func FromBytes(name string, data []byte) *File {
	buf := append([]byte(nil), data...)
	return &File{
		Name: name,
		Size: int64(len(buf)),
		open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(buf)), nil
		},
	}
}

// Open returns a fresh reader over the document content.
func (f *File) Open() (io.ReadCloser, error) {
	if f == nil || f.open == nil {
		return nil, errors.New("document: file has no content source")
	}
	return f.open()
}

// Accepted reports whether name carries one of AcceptedExtensions.
func Accepted(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range AcceptedExtensions {
		if ext == e {
			return true
		}
	}
	return false
}
