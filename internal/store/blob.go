package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Blob is a single named document that is always read and written whole.
type Blob interface {
	// Read returns the document, or ErrNotFound if it was never written.
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	// Name identifies the document in logs.
	Name() string
}

// LocalBlob stores a document on local disk.
type LocalBlob struct {
	Path string
}

func (b *LocalBlob) Name() string { return b.Path }

func (b *LocalBlob) Read(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(b.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

// Write replaces the file atomically through a temp file and rename.
func (b *LocalBlob) Write(ctx context.Context, data []byte) error {
	dir := filepath.Dir(b.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(b.Path)+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), b.Path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}

// MemBlob keeps a document in process memory.
type MemBlob struct {
	mu   sync.Mutex
	name string
	data []byte
}

func NewMemBlob(name string) *MemBlob {
	return &MemBlob{name: name}
}

func (b *MemBlob) Name() string { return "mem://" + b.name }

func (b *MemBlob) Read(ctx context.Context) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.data == nil {
		return nil, ErrNotFound
	}
	return bytes.Clone(b.data), nil
}

func (b *MemBlob) Write(ctx context.Context, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = bytes.Clone(data)
	return nil
}
