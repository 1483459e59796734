// Package fsx is the repository engine's filesystem abstraction
// (spec.md §4.A): a root-scoped view over github.com/spf13/afero.Fs,
// giving the engine existence checks, streamed open/create, delete,
// glob enumeration, and a delisting "hidden" toggle, all pluggable to an
// in-memory afero.MemMapFs for tests.
package fsx

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// hiddenSuffix names the sidecar marker used to model a delisted
// archive's hidden attribute. There is no portable file-attribute bit in
// afero or io/fs, so delisting a file is modeled as creating this
// zero-byte marker beside it, and relisting as removing it — see
// DESIGN.md for the full rationale.
const hiddenSuffix = ".hidden"

// ErrEscapesRoot is returned when a requested path would resolve outside
// the filesystem's root.
var ErrEscapesRoot = fmt.Errorf("fsx: path escapes root")

// FS is a root-scoped filesystem. All paths passed to its methods are
// relative to Root; FS rejects anything that would resolve outside it.
type FS struct {
	afero.Fs
	Root string
}

// NewOS returns an FS backed by the real operating system filesystem,
// rooted at root. root is created if it does not already exist.
func NewOS(root string) (*FS, error) {
	fsys := &FS{Fs: afero.NewOsFs(), Root: root}
	if err := fsys.Fs.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("fsx: creating root %s: %w", root, err)
	}
	return fsys, nil
}

// NewMem returns an in-memory FS rooted at root, for tests.
func NewMem(root string) *FS {
	return &FS{Fs: afero.NewMemMapFs(), Root: root}
}

// resolve joins rel onto Root and verifies the result does not escape it.
func (f *FS) resolve(rel string) (string, error) {
	full := filepath.Join(f.Root, rel)
	cleanRoot := filepath.Clean(f.Root)
	if full != cleanRoot && !strings.HasPrefix(full, cleanRoot+string(filepath.Separator)) {
		return "", ErrEscapesRoot
	}
	return full, nil
}

// Abs returns the absolute path for a root-relative path, without
// touching the filesystem.
func (f *FS) Abs(rel string) (string, error) { return f.resolve(rel) }

// Rel returns the root-relative form of an absolute path under Root.
func (f *FS) Rel(abs string) (string, error) {
	return filepath.Rel(filepath.Clean(f.Root), abs)
}

// Exists reports whether rel exists.
func (f *FS) Exists(rel string) (bool, error) {
	full, err := f.resolve(rel)
	if err != nil {
		return false, err
	}
	_, err = f.Fs.Stat(full)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// Open opens rel for reading.
func (f *FS) Open(rel string) (afero.File, error) {
	full, err := f.resolve(rel)
	if err != nil {
		return nil, err
	}
	return f.Fs.Open(full)
}

// Create creates (or truncates) rel for writing, creating parent
// directories as needed.
func (f *FS) Create(rel string) (afero.File, error) {
	full, err := f.resolve(rel)
	if err != nil {
		return nil, err
	}
	if err := f.Fs.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return nil, err
	}
	return f.Fs.Create(full)
}

// CreateAtomic writes data to rel by writing to a temp file in the same
// directory and renaming over the destination, so a reader never
// observes a partially-written file.
func (f *FS) CreateAtomic(rel string, write func(io.Writer) error) error {
	full, err := f.resolve(rel)
	if err != nil {
		return err
	}
	if err := f.Fs.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	tmp := full + ".tmp-" + strconv.FormatInt(time.Now().UnixNano(), 10)
	out, err := f.Fs.Create(tmp)
	if err != nil {
		return err
	}
	if err := write(out); err != nil {
		out.Close()
		f.Fs.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		f.Fs.Remove(tmp)
		return err
	}
	return f.Fs.Rename(tmp, full)
}

// Remove deletes rel. Removing a missing file is not an error.
func (f *FS) Remove(rel string) error {
	full, err := f.resolve(rel)
	if err != nil {
		return err
	}
	err = f.Fs.Remove(full)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

// RemoveAll recursively deletes rel.
func (f *FS) RemoveAll(rel string) error {
	full, err := f.resolve(rel)
	if err != nil {
		return err
	}
	return f.Fs.RemoveAll(full)
}

// Size returns the size in bytes of rel.
func (f *FS) Size(rel string) (int64, error) {
	full, err := f.resolve(rel)
	if err != nil {
		return 0, err
	}
	info, err := f.Fs.Stat(full)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// ModTime returns the modification time of rel.
func (f *FS) ModTime(rel string) (time.Time, error) {
	full, err := f.resolve(rel)
	if err != nil {
		return time.Time{}, err
	}
	info, err := f.Fs.Stat(full)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// Glob enumerates root-relative paths matching pattern directly under
// dir (non-recursive), using filepath.Match semantics.
func (f *FS) Glob(dir, pattern string) ([]string, error) {
	full, err := f.resolve(dir)
	if err != nil {
		return nil, err
	}
	entries, err := afero.ReadDir(f.Fs, full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ok, err := filepath.Match(pattern, e.Name())
		if err != nil {
			return nil, err
		}
		if ok {
			rel, err := f.Rel(filepath.Join(full, e.Name()))
			if err != nil {
				return nil, err
			}
			out = append(out, rel)
		}
	}
	return out, nil
}

// Walk recursively visits every regular file under root-relative dir,
// calling fn with the root-relative path of each.
func (f *FS) Walk(dir string, fn func(rel string) error) error {
	full, err := f.resolve(dir)
	if err != nil {
		return err
	}
	return afero.Walk(f.Fs, full, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, relErr := f.Rel(path)
		if relErr != nil {
			return relErr
		}
		return fn(rel)
	})
}

// SetHidden flips the delisting marker for rel. Setting hidden=true
// creates the marker; hidden=false removes it.
func (f *FS) SetHidden(rel string, hidden bool) error {
	full, err := f.resolve(rel)
	if err != nil {
		return err
	}
	marker := full + hiddenSuffix
	if !hidden {
		err := f.Fs.Remove(marker)
		if err != nil && os.IsNotExist(err) {
			return nil
		}
		return err
	}
	fh, err := f.Fs.Create(marker)
	if err != nil {
		return err
	}
	return fh.Close()
}

// IsHidden reports whether rel currently carries the delisting marker.
func (f *FS) IsHidden(rel string) (bool, error) {
	full, err := f.resolve(rel)
	if err != nil {
		return false, err
	}
	_, err = f.Fs.Stat(full + hiddenSuffix)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}
