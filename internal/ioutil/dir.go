// Package ioutil wraps github.com/hack-pad/hackpadfs so the rest of the
// module never touches os.* directly. It gives every component a
// configurable base directory and an atomic rename-based write, the two
// primitives the commit log and snapshot manager build their durability
// guarantees on.
package ioutil

import (
	"errors"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/hack-pad/hackpadfs"
	hpos "github.com/hack-pad/hackpadfs/os"
)

// Dir is a small handle rooted at a base directory on the host filesystem.
// Every method takes paths relative to that base directory.
type Dir struct {
	fs   hackpadfs.FS
	base string // fs-relative path (no leading slash) corresponding to baseDir
}

// Open resolves baseDir to an absolute path and ensures it exists, returning
// a Dir rooted there.
func Open(baseDir string) (*Dir, error) {
	fsys, err := hpos.NewFS()
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, err
	}
	rel := toFSPath(abs)
	if err := hackpadfs.MkdirAll(fsys, rel, 0o755); err != nil && !errors.Is(err, hackpadfs.ErrExist) {
		return nil, err
	}
	return &Dir{fs: fsys, base: rel}, nil
}

func toFSPath(absOSPath string) string {
	p := filepath.ToSlash(absOSPath)
	return strings.TrimPrefix(p, "/")
}

func (d *Dir) join(name string) string {
	return path.Join(d.base, name)
}

// Exists reports whether name exists under the directory.
func (d *Dir) Exists(name string) bool {
	_, err := hackpadfs.Stat(d.fs, d.join(name))
	return err == nil
}

// ReadFile reads name's full contents.
func (d *Dir) ReadFile(name string) ([]byte, error) {
	return hackpadfs.ReadFile(d.fs, d.join(name))
}

// WriteFile writes data to name, creating or truncating it.
func (d *Dir) WriteFile(name string, data []byte, perm hackpadfs.FileMode) error {
	f, err := hackpadfs.OpenFile(d.fs, d.join(name), hackpadfs.FlagWriteOnly|hackpadfs.FlagCreate|hackpadfs.FlagTruncate, perm)
	if err != nil {
		return err
	}
	defer f.Close()
	w, ok := f.(io.Writer)
	if !ok {
		return errors.New("ioutil: file does not support Write")
	}
	_, err = w.Write(data)
	return err
}

// WriteFileAtomic writes data to a sibling ".tmp" file and renames it onto
// name, so a crash mid-write never leaves name partially written.
func (d *Dir) WriteFileAtomic(name string, data []byte, perm hackpadfs.FileMode) error {
	tmp := name + ".tmp"
	if err := d.WriteFile(tmp, data, perm); err != nil {
		return err
	}
	return hackpadfs.Rename(d.fs, d.join(tmp), d.join(name))
}

// AppendHandle is a long-lived append-only file handle, held open for as
// long as its owner keeps appending to it.
type AppendHandle struct {
	f hackpadfs.File
}

// OpenAppend opens (creating if needed) name for appending and fsyncing.
func (d *Dir) OpenAppend(name string, perm hackpadfs.FileMode) (*AppendHandle, error) {
	f, err := hackpadfs.OpenFile(d.fs, d.join(name), hackpadfs.FlagReadWrite|hackpadfs.FlagCreate|hackpadfs.FlagAppend, perm)
	if err != nil {
		return nil, err
	}
	return &AppendHandle{f: f}, nil
}

// WriteAndSync appends data and fsyncs before returning, so a crash before
// this call returns loses the in-progress record but a crash after
// preserves it.
func (h *AppendHandle) WriteAndSync(data []byte) error {
	w, ok := h.f.(io.Writer)
	if !ok {
		return errors.New("ioutil: append handle does not support Write")
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	if s, ok := h.f.(interface{ Sync() error }); ok {
		return s.Sync()
	}
	return nil
}

// Close closes the handle.
func (h *AppendHandle) Close() error {
	return h.f.Close()
}
