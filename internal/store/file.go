package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/afero"
)

// FileBackend keeps one <name>.json file per collection under dir.
type FileBackend struct {
	fs  afero.Fs
	dir string
	mu  sync.Mutex
}

func NewFileBackend(fsys afero.Fs, dir string) (*FileBackend, error) {
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dir, err)
	}
	return &FileBackend{fs: fsys, dir: dir}, nil
}

func (f *FileBackend) path(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid collection name %q", name)
	}
	return filepath.Join(f.dir, name+".json"), nil
}

func (f *FileBackend) Load(_ context.Context, name string) ([]byte, error) {
	p, err := f.path(name)
	if err != nil {
		return nil, err
	}
	raw, err := afero.ReadFile(f.fs, p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return raw, err
}

// Save writes to a sibling temp file and renames it over the target so
// readers never observe a partial payload.
func (f *FileBackend) Save(_ context.Context, name string, payload []byte) error {
	p, err := f.path(name)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	tmp := p + ".tmp"
	if err := afero.WriteFile(f.fs, tmp, payload, 0o644); err != nil {
		return err
	}
	return f.fs.Rename(tmp, p)
}

func (f *FileBackend) Ping(context.Context) error {
	_, err := f.fs.Stat(f.dir)
	return err
}

func (f *FileBackend) Close(context.Context) error { return nil }
