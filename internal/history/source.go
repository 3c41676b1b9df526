package history

import (
	"io"
	"strconv"
	"sync"

	"github.com/spf13/afero"
)

// Source hands out a readable CSV byte stream.
type Source interface {
	Open() (io.ReadCloser, error)
}

// Versioned is implemented by sources that can report a change token without
// reading their content.
type Versioned interface {
	Version() (string, error)
}

// FileSource reads the dataset from a path on an afero filesystem.
type FileSource struct {
	fs   afero.Fs
	path string
}

// NewFileSource returns a Source for path on fs. A nil fs means the OS
// filesystem.
func NewFileSource(fs afero.Fs, path string) *FileSource {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &FileSource{fs: fs, path: path}
}

func (s *FileSource) Open() (io.ReadCloser, error) {
	return s.fs.Open(s.path)
}

// Path returns the configured file path.
func (s *FileSource) Path() string { return s.path }

// Version derives a change token from the file's modification time and size.
func (s *FileSource) Version() (string, error) {
	fi, err := s.fs.Stat(s.path)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(fi.ModTime().UnixNano(), 10) + ":" + strconv.FormatInt(fi.Size(), 10), nil
}

// CachingLoader keeps the last Table parsed from a Versioned source and
// reparses only when its version changes. Other sources are parsed on every
// call. Failed loads are never cached.
//
// The returned Table is shared between callers and must not be modified.
type CachingLoader struct {
	src Source

	mu      sync.Mutex
	version string
	table   Table
	loaded  bool
}

// NewCachingLoader wraps src.
func NewCachingLoader(src Source) *CachingLoader {
	return &CachingLoader{src: src}
}

// Load returns the resampled table, reusing the previous parse when possible.
func (l *CachingLoader) Load() (Table, error) {
	v, ok := l.src.(Versioned)
	if !ok {
		return LoadSource(l.src)
	}

	version, err := v.Version()
	if err != nil {
		// Let Open report the failure as a fatal load error.
		return LoadSource(l.src)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.loaded && l.version == version {
		return l.table, nil
	}

	table, err := LoadSource(l.src)
	if err != nil {
		l.loaded = false
		return Table{}, err
	}
	l.version, l.table, l.loaded = version, table, true
	return table, nil
}
