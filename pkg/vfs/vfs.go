// Package vfs provides the file systems Sea sources are read from: the host
// disk, an in-memory disk and the embedded standard library.
package vfs

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

var (
	ErrFileNotFound = errors.New("file not found")
	ErrInvalidPath  = errors.New("invalid path")
)

// FS is the read side the module resolver needs.
type FS interface {
	ReadFile(path string) ([]byte, error)
	Exists(path string) bool
}

// OSFS reads the host file system.
type OSFS struct{}

func (OSFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (OSFS) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// EmbedFS serves an fs.FS (usually an embed.FS) under a virtual Root, so
// "<Root>/std/lib.sea" reads "std/lib.sea" from FS.
type EmbedFS struct {
	Root string
	FS   fs.FS
}

func (e EmbedFS) rel(path string) (string, bool) {
	rel, ok := strings.CutPrefix(filepath.ToSlash(path), filepath.ToSlash(e.Root)+"/")
	if !ok || !fs.ValidPath(rel) {
		return "", false
	}
	return rel, true
}

func (e EmbedFS) ReadFile(path string) ([]byte, error) {
	rel, ok := e.rel(path)
	if !ok {
		return nil, ErrFileNotFound
	}
	return fs.ReadFile(e.FS, rel)
}

func (e EmbedFS) Exists(path string) bool {
	rel, ok := e.rel(path)
	if !ok {
		return false
	}
	info, err := fs.Stat(e.FS, rel)
	return err == nil && !info.IsDir()
}

// Union reads from the first member that has the file.
type Union []FS

func (u Union) ReadFile(path string) ([]byte, error) {
	for _, member := range u {
		if member.Exists(path) {
			return member.ReadFile(path)
		}
	}
	return nil, ErrFileNotFound
}

func (u Union) Exists(path string) bool {
	return slices.ContainsFunc(u, func(member FS) bool { return member.Exists(path) })
}

type FileEntry struct {
	Data     []byte
	Modified time.Time
}

// MemFS is an in-memory disk keyed by cleaned slash paths. It backs tests
// and in-process compilation.
type MemFS struct {
	Mu    sync.RWMutex
	Files map[string]*FileEntry
}

func NewMemFS() *MemFS {
	return &MemFS{Files: make(map[string]*FileEntry)}
}

// NewMemFSFrom builds a MemFS holding files (path -> contents).
func NewMemFSFrom(files map[string]string) (*MemFS, error) {
	m := NewMemFS()
	for path, src := range files {
		if err := m.Write(path, []byte(src)); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func cleanPath(path string) (string, error) {
	p := filepath.ToSlash(filepath.Clean(path))
	if p == "." || p == "/" || strings.HasPrefix(p, "../") || p == ".." {
		return "", ErrInvalidPath
	}
	return p, nil
}

// Write stores a copy of data at path, overwriting any existing file.
func (m *MemFS) Write(path string, data []byte) error {
	p, err := cleanPath(path)
	if err != nil {
		return err
	}
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Files[p] = &FileEntry{Data: slices.Clone(data), Modified: time.Now()}
	return nil
}

func (m *MemFS) ReadFile(path string) ([]byte, error) {
	p, err := cleanPath(path)
	if err != nil {
		return nil, err
	}
	m.Mu.RLock()
	defer m.Mu.RUnlock()
	entry, ok := m.Files[p]
	if !ok {
		return nil, ErrFileNotFound
	}
	return slices.Clone(entry.Data), nil
}

func (m *MemFS) Exists(path string) bool {
	p, err := cleanPath(path)
	if err != nil {
		return false
	}
	m.Mu.RLock()
	defer m.Mu.RUnlock()
	_, ok := m.Files[p]
	return ok
}

func (m *MemFS) Delete(path string) error {
	p, err := cleanPath(path)
	if err != nil {
		return err
	}
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if _, ok := m.Files[p]; !ok {
		return ErrFileNotFound
	}
	delete(m.Files, p)
	return nil
}

// List returns every stored path in sorted order.
func (m *MemFS) List() []string {
	m.Mu.RLock()
	defer m.Mu.RUnlock()
	keys := maps.Keys(m.Files)
	slices.Sort(keys)
	return keys
}

// PersistTo writes every file under dir on the host, creating directories
// as needed. It returns the first error.
func (m *MemFS) PersistTo(dir string) error {
	m.Mu.RLock()
	snapshot := make(map[string][]byte, len(m.Files))
	for name, entry := range m.Files {
		snapshot[name] = slices.Clone(entry.Data)
	}
	m.Mu.RUnlock()

	var firstErr error
	for name, data := range snapshot {
		target := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if err := os.WriteFile(target, data, 0o644); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
