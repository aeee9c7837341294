// Package jsonstore persists whole tables of records either in process memory or
// as a single JSON document on disk. Every mutation is a read-modify-write of the
// complete table; callers serialize writers within the process.
package jsonstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Table loads and saves a complete slice of rows.
type Table[T any] interface {
	// Load returns every row. A table that was never saved yields an empty slice.
	Load(ctx context.Context) ([]T, error)
	// Save replaces the table contents.
	Save(ctx context.Context, rows []T) error
}

// Memory is a Table held in process memory.
type Memory[T any] struct {
	mu   sync.RWMutex
	rows []T
}

// NewMemory returns an empty in-memory table.
func NewMemory[T any]() *Memory[T] {
	return &Memory[T]{}
}

// Load returns a copy of the rows.
func (m *Memory[T]) Load(_ context.Context) ([]T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]T, len(m.rows))
	copy(out, m.rows)
	return out, nil
}

// Save stores a copy of rows.
func (m *Memory[T]) Save(_ context.Context, rows []T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = make([]T, len(rows))
	copy(m.rows, rows)
	return nil
}

// File is a Table stored as an indented JSON array at Path.
type File[T any] struct {
	Path string
}

// NewFile returns a table backed by the JSON document at path.
func NewFile[T any](path string) *File[T] {
	return &File[T]{Path: path}
}

// Load reads and decodes the document. A missing file is an empty table.
func (f *File[T]) Load(_ context.Context) ([]T, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []T{}, nil
		}
		return nil, fmt.Errorf("jsonstore: read %s: %w", f.Path, err)
	}
	var rows []T
	if len(data) == 0 {
		return []T{}, nil
	}
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("jsonstore: decode %s: %w", f.Path, err)
	}
	if rows == nil {
		rows = []T{}
	}
	return rows, nil
}

// Save writes the document through a temporary file and a rename so readers never
// observe a half-written table.
func (f *File[T]) Save(_ context.Context, rows []T) error {
	if rows == nil {
		rows = []T{}
	}
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Errorf("jsonstore: encode %s: %w", f.Path, err)
	}
	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("jsonstore: create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(f.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("jsonstore: temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("jsonstore: write %s: %w", f.Path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("jsonstore: close %s: %w", f.Path, err)
	}
	if err := os.Rename(tmp.Name(), f.Path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("jsonstore: rename %s: %w", f.Path, err)
	}
	return nil
}
