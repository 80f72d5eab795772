// Package fsutil provides the filesystem abstraction used to read measurement
// CSVs, list image folders and write figures, so tests can run in memory.
package fsutil

import (
	"bytes"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"
)

// FileSystem is the subset of os the analysis tools touch.
type FileSystem interface {
	Open(name string) (fs.File, error)
	// Create truncates or creates name. The parent directory must exist.
	Create(name string) (io.WriteCloser, error)
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm os.FileMode) error
	// ReadDir lists a directory sorted by name.
	ReadDir(name string) ([]fs.DirEntry, error)
	Stat(name string) (fs.FileInfo, error)
	MkdirAll(path string, perm os.FileMode) error
	Exists(name string) bool
}

// OSFileSystem is the real filesystem.
type OSFileSystem struct{}

func (OSFileSystem) Open(name string) (fs.File, error)          { return os.Open(name) }
func (OSFileSystem) Create(name string) (io.WriteCloser, error) { return os.Create(name) }
func (OSFileSystem) ReadFile(name string) ([]byte, error)       { return os.ReadFile(name) }
func (OSFileSystem) ReadDir(name string) ([]fs.DirEntry, error) { return os.ReadDir(name) }
func (OSFileSystem) Stat(name string) (fs.FileInfo, error)      { return os.Stat(name) }

func (OSFileSystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	return os.WriteFile(name, data, perm)
}

func (OSFileSystem) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

func (OSFileSystem) Exists(name string) bool {
	_, err := os.Stat(name)
	return err == nil
}

// MemoryFileSystem is an in-memory FileSystem for tests.
//
// WriteFile registers parent directories implicitly so fixtures can be seeded
// in one call; Create does not, and fails like os.Create when the parent
// directory is missing.
type MemoryFileSystem struct {
	mu    sync.RWMutex
	nodes map[string]*node
}

// node is a file or, when dir is set, a directory.
type node struct {
	data []byte
	mode os.FileMode
	dir  bool
}

func (n *node) info(name string) *fileInfo {
	return &fileInfo{name: filepath.Base(name), size: int64(len(n.data)), mode: n.mode, dir: n.dir}
}

// NewMemoryFileSystem returns an empty MemoryFileSystem.
func NewMemoryFileSystem() *MemoryFileSystem {
	return &MemoryFileSystem{nodes: make(map[string]*node)}
}

func (m *MemoryFileSystem) file(op, name string) (*node, error) {
	n, ok := m.nodes[name]
	if !ok || n.dir {
		return nil, &fs.PathError{Op: op, Path: name, Err: fs.ErrNotExist}
	}
	return n, nil
}

func (m *MemoryFileSystem) Open(name string) (fs.File, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	name = filepath.Clean(name)
	n, err := m.file("open", name)
	if err != nil {
		return nil, err
	}
	return &openFile{Reader: bytes.NewReader(n.data), info: n.info(name)}, nil
}

func (m *MemoryFileSystem) Create(name string) (io.WriteCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	name = filepath.Clean(name)
	if parent := filepath.Dir(name); !isRoot(parent) && !m.isDir(parent) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	m.nodes[name] = &node{mode: 0644}
	return &pendingFile{fs: m, name: name}, nil
}

func (m *MemoryFileSystem) ReadFile(name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n, err := m.file("read", filepath.Clean(name))
	if err != nil {
		return nil, err
	}
	return bytes.Clone(n.data), nil
}

func (m *MemoryFileSystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	name = filepath.Clean(name)
	if err := m.mkdirs(filepath.Dir(name)); err != nil {
		return err
	}
	m.nodes[name] = &node{data: bytes.Clone(data), mode: perm}
	return nil
}

func (m *MemoryFileSystem) ReadDir(name string) ([]fs.DirEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	name = filepath.Clean(name)
	if !isRoot(name) && !m.isDir(name) {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrNotExist}
	}

	var entries []fs.DirEntry
	for p, n := range m.nodes {
		if p != name && filepath.Dir(p) == name {
			entries = append(entries, fs.FileInfoToDirEntry(n.info(p)))
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	return entries, nil
}

func (m *MemoryFileSystem) Stat(name string) (fs.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	name = filepath.Clean(name)
	n, ok := m.nodes[name]
	if !ok {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
	}
	return n.info(name), nil
}

func (m *MemoryFileSystem) MkdirAll(path string, perm os.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.mkdirs(filepath.Clean(path))
}

func (m *MemoryFileSystem) Exists(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.nodes[filepath.Clean(name)]
	return ok
}

// mkdirs registers dir and its ancestors. Like the OS it fails with ENOTDIR
// when one of them is a file. Caller holds mu.
func (m *MemoryFileSystem) mkdirs(dir string) error {
	var missing []string
	for d := dir; !isRoot(d); {
		if n, ok := m.nodes[d]; ok {
			if !n.dir {
				return &fs.PathError{Op: "mkdir", Path: dir, Err: syscall.ENOTDIR}
			}
		} else {
			missing = append(missing, d)
		}
		parent := filepath.Dir(d)
		if parent == d {
			break
		}
		d = parent
	}
	for _, d := range missing {
		m.nodes[d] = &node{mode: fs.ModeDir | 0755, dir: true}
	}
	return nil
}

func (m *MemoryFileSystem) isDir(name string) bool {
	n, ok := m.nodes[name]
	return ok && n.dir
}

func isRoot(p string) bool {
	return p == "." || p == string(filepath.Separator) || strings.HasSuffix(p, ":"+string(filepath.Separator))
}

// openFile is a read handle onto a node's data.
type openFile struct {
	*bytes.Reader
	info *fileInfo
}

func (f *openFile) Stat() (fs.FileInfo, error) { return f.info, nil }
func (f *openFile) Close() error               { return nil }

// pendingFile buffers writes and publishes them on Close.
type pendingFile struct {
	fs   *MemoryFileSystem
	name string
	buf  bytes.Buffer
}

func (f *pendingFile) Write(p []byte) (int, error) { return f.buf.Write(p) }

func (f *pendingFile) Close() error {
	f.fs.mu.Lock()
	defer f.fs.mu.Unlock()

	f.fs.nodes[f.name] = &node{data: bytes.Clone(f.buf.Bytes()), mode: 0644}
	return nil
}

type fileInfo struct {
	name string
	size int64
	mode os.FileMode
	dir  bool
}

func (i *fileInfo) Name() string       { return i.name }
func (i *fileInfo) Size() int64        { return i.size }
func (i *fileInfo) Mode() os.FileMode  { return i.mode }
func (i *fileInfo) ModTime() time.Time { return time.Time{} }
func (i *fileInfo) IsDir() bool        { return i.dir }
func (i *fileInfo) Sys() any           { return nil }
