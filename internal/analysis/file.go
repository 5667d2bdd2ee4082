package analysis

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"

	"reportcard-analyzer/internal/shared/storage/object"
)

// File is a selected report card. Its bytes are read only at submission time.
type File struct {
	Name        string
	ContentType string
	Size        int64
	// StorageKey is set when the file is staged in an object store.
	StorageKey string

	open func(ctx context.Context) (io.ReadCloser, error)
}

// Open returns the file contents.
func (f File) Open(ctx context.Context) (io.ReadCloser, error) {
	if f.open == nil {
		return nil, fmt.Errorf("file %q has no content", f.Name)
	}
	return f.open(ctx)
}

// FileFromBytes wraps in-memory content.
func FileFromBytes(name string, data []byte) File {
	return File{
		Name:        name,
		ContentType: mimetype.Detect(data).String(),
		Size:        int64(len(data)),
		open: func(ctx context.Context) (io.ReadCloser, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// FileFromPath references a file on disk.
func FileFromPath(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return File{}, fmt.Errorf("%s is a directory", path)
	}
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return File{}, fmt.Errorf("detect type %s: %w", path, err)
	}
	return File{
		Name:        filepath.Base(path),
		ContentType: mt.String(),
		Size:        info.Size(),
		open: func(ctx context.Context) (io.ReadCloser, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return os.Open(path)
		},
	}, nil
}

// FileFromStore references a file staged in an object store.
func FileFromStore(store object.ObjectStore, key, name, contentType string, size int64) File {
	return File{
		Name:        name,
		ContentType: contentType,
		Size:        size,
		StorageKey:  key,
		open: func(ctx context.Context) (io.ReadCloser, error) {
			return store.Open(ctx, key)
		},
	}
}
