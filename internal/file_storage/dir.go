package filestorage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// DirSink writes materialized files into a local directory.
type DirSink struct {
	dir string
}

// NewDirSink creates the directory if needed.
func NewDirSink(dir string) (*DirSink, error) {
	// 0755 mean owner can read, write and execute
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &DirSink{dir: dir}, nil
}

func (ds *DirSink) Dir() string {
	return ds.dir
}

func (ds *DirSink) Key(name string) string {
	return filepath.Join(ds.dir, filepath.Base(name))
}

func (ds *DirSink) Put(ctx context.Context, name, _ string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	// The file can be read by the owner, read by users in the file's group, and read by anyone else on the system
	return os.WriteFile(ds.Key(name), data, 0644)
}

func (ds *DirSink) Get(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadFile(ds.Key(name))
}
