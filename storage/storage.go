// Package storage provides the file system the runtime's file built-ins
// work on: a small table of open files addressed by integer handles.
package storage

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/Herwig9820/Justina-interpreter-sub002/errz"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
)

// DefaultMaxOpenFiles is the default size of the handle table.
const DefaultMaxOpenFiles = 5

// Open modes.
const (
	ModeRead   = 1
	ModeWrite  = 2
	ModeAppend = 3
)

type handle struct {
	name   string
	mode   int
	file   afero.File
	reader *bufio.Reader
	writer *bufio.Writer
}

// Files is a handle table over an afero file system.
type Files struct {
	fs       afero.Fs
	handles  []*handle
	maxFiles int
}

// Option is a configuration function for Files.
type Option func(*Files)

// WithMaxOpenFiles sets the handle table size.
func WithMaxOpenFiles(n int) Option {
	return func(f *Files) {
		f.maxFiles = n
	}
}

// New returns a handle table on fs.
func New(fs afero.Fs, options ...Option) *Files {
	f := &Files{fs: fs, maxFiles: DefaultMaxOpenFiles}
	for _, opt := range options {
		opt(f)
	}
	f.handles = make([]*handle, f.maxFiles)
	return f
}

// NewOsFiles returns a handle table rooted at dir on the host file system.
func NewOsFiles(dir string, options ...Option) *Files {
	return New(afero.NewBasePathFs(afero.NewOsFs(), dir), options...)
}

// NewMemFiles returns a handle table on an in-memory file system.
func NewMemFiles(options ...Option) *Files {
	return New(afero.NewMemMapFs(), options...)
}

// Fs returns the underlying file system.
func (f *Files) Fs() afero.Fs { return f.fs }

func clean(name string) string {
	return path.Clean("/" + name)
}

func ioError(err error) *errz.Error {
	return errz.Wrap(errz.ErrFileIO, err)
}

// Open opens a file and returns its handle, starting at 1.
func (f *Files) Open(name string, mode int) (int, error) {
	slot := -1
	for i, h := range f.handles {
		if h == nil {
			slot = i
			break
		}
		if h.name == clean(name) {
			return 0, errz.Newf(errz.ErrFileIO, "%s is already open", name)
		}
	}
	if slot < 0 {
		return 0, errz.New(errz.ErrTooManyFiles)
	}
	var flag int
	switch mode {
	case ModeRead:
		flag = os.O_RDONLY
	case ModeWrite:
		flag = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	case ModeAppend:
		flag = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	default:
		return 0, errz.Newf(errz.ErrArgRange, "invalid open mode %d", mode)
	}
	file, err := f.fs.OpenFile(clean(name), flag, 0o644)
	if err != nil {
		return 0, ioError(err)
	}
	h := &handle{name: clean(name), mode: mode, file: file}
	if mode == ModeRead {
		h.reader = bufio.NewReader(file)
	} else {
		h.writer = bufio.NewWriter(file)
	}
	f.handles[slot] = h
	return slot + 1, nil
}

func (f *Files) get(n int) (*handle, error) {
	if n < 1 || n > len(f.handles) || f.handles[n-1] == nil {
		return nil, errz.New(errz.ErrFileNotOpen)
	}
	return f.handles[n-1], nil
}

// Close flushes and closes a handle.
func (f *Files) Close(n int) error {
	h, err := f.get(n)
	if err != nil {
		return err
	}
	f.handles[n-1] = nil
	return closeHandle(h)
}

func closeHandle(h *handle) error {
	var result error
	if h.writer != nil {
		if err := h.writer.Flush(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if err := h.file.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	if result != nil {
		return ioError(result)
	}
	return nil
}

// CloseAll closes every open handle and aggregates the failures.
func (f *Files) CloseAll() error {
	var result error
	for i, h := range f.handles {
		if h == nil {
			continue
		}
		f.handles[i] = nil
		if err := closeHandle(h); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", h.name, err))
		}
	}
	return result
}

// OpenCount returns the number of open handles.
func (f *Files) OpenCount() int {
	n := 0
	for _, h := range f.handles {
		if h != nil {
			n++
		}
	}
	return n
}

// ReadLine reads the next line, without its terminator.
func (f *Files) ReadLine(n int) (string, error) {
	h, err := f.get(n)
	if err != nil {
		return "", err
	}
	if h.reader == nil {
		return "", errz.Newf(errz.ErrFileIO, "%s is not open for reading", h.name)
	}
	line, err := h.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", ioError(err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// WriteLine writes s followed by a newline.
func (f *Files) WriteLine(n int, s string) error {
	h, err := f.get(n)
	if err != nil {
		return err
	}
	if h.writer == nil {
		return errz.Newf(errz.ErrFileIO, "%s is not open for writing", h.name)
	}
	if _, err := h.writer.WriteString(s + "\n"); err != nil {
		return ioError(err)
	}
	return nil
}

// EOF reports whether a read handle has no more data.
func (f *Files) EOF(n int) (bool, error) {
	h, err := f.get(n)
	if err != nil {
		return false, err
	}
	if h.reader == nil {
		return true, nil
	}
	_, err = h.reader.Peek(1)
	if errors.Is(err, io.EOF) {
		return true, nil
	}
	if err != nil {
		return false, ioError(err)
	}
	return false, nil
}

// Seek moves a handle to an absolute byte offset.
func (f *Files) Seek(n int, offset int64) error {
	h, err := f.get(n)
	if err != nil {
		return err
	}
	if h.writer != nil {
		if err := h.writer.Flush(); err != nil {
			return ioError(err)
		}
	}
	if _, err := h.file.Seek(offset, io.SeekStart); err != nil {
		return ioError(err)
	}
	if h.reader != nil {
		h.reader.Reset(h.file)
	}
	return nil
}

// Flush writes buffered data of a write handle.
func (f *Files) Flush(n int) error {
	h, err := f.get(n)
	if err != nil {
		return err
	}
	if h.writer == nil {
		return nil
	}
	if err := h.writer.Flush(); err != nil {
		return ioError(err)
	}
	return nil
}

// Exists reports whether a file or directory exists.
func (f *Files) Exists(name string) bool {
	ok, err := afero.Exists(f.fs, clean(name))
	return err == nil && ok
}

// Mkdir creates a directory and any missing parents.
func (f *Files) Mkdir(name string) error {
	if err := f.fs.MkdirAll(clean(name), 0o755); err != nil {
		return ioError(err)
	}
	return nil
}

// Rmdir removes an empty directory.
func (f *Files) Rmdir(name string) error {
	ok, err := afero.IsDir(f.fs, clean(name))
	if err != nil {
		return ioError(err)
	}
	if !ok {
		return errz.Newf(errz.ErrFileIO, "%s is not a directory", name)
	}
	empty, err := afero.IsEmpty(f.fs, clean(name))
	if err != nil {
		return ioError(err)
	}
	if !empty {
		return errz.Newf(errz.ErrFileIO, "%s is not empty", name)
	}
	if err := f.fs.Remove(clean(name)); err != nil {
		return ioError(err)
	}
	return nil
}

// Remove deletes a file.
func (f *Files) Remove(name string) error {
	for _, h := range f.handles {
		if h != nil && h.name == clean(name) {
			return errz.Newf(errz.ErrFileIO, "%s is open", name)
		}
	}
	if err := f.fs.Remove(clean(name)); err != nil {
		return ioError(err)
	}
	return nil
}

// ListDir returns the sorted entry names of a directory. Directories carry
// a trailing slash.
func (f *Files) ListDir(name string) ([]string, error) {
	infos, err := afero.ReadDir(f.fs, clean(name))
	if err != nil {
		return nil, ioError(err)
	}
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		n := info.Name()
		if info.IsDir() {
			n += "/"
		}
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

// ReadFile returns the whole content of a file. Hosts use it to load
// programs.
func (f *Files) ReadFile(name string) (string, error) {
	data, err := afero.ReadFile(f.fs, clean(name))
	if err != nil {
		return "", ioError(err)
	}
	return string(data), nil
}
