// Package storage keeps uploaded file bytes in a local directory.
//
// Files are named <fileId><ext>. Writes go to a temporary file that is
// fsynced and then renamed into place, so a name in the directory always
// refers to a complete upload.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var (
	// ErrWrite wraps any failure while persisting an upload.
	ErrWrite = errors.New("storage write failed")
	// ErrInvalidName is returned for names that are not a single path element.
	ErrInvalidName = errors.New("invalid file name")
	// ErrNotFound is returned when a name does not refer to a regular file.
	ErrNotFound = errors.New("file not found")
)

const tmpSuffix = ".part"

// Disk stores files under a single directory.
type Disk struct {
	dir string
}

// NewDisk creates the directory if needed and returns a Disk rooted there.
func NewDisk(dir string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create storage dir %s: %w", dir, err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve storage dir %s: %w", dir, err)
	}
	return &Disk{dir: abs}, nil
}

// Dir returns the absolute storage directory.
func (d *Disk) Dir() string {
	return d.dir
}

// Save streams r into a file called name and returns the number of bytes
// written. The data is flushed to stable storage before Save returns.
// On failure nothing is left under name.
func (d *Disk) Save(name string, r io.Reader) (int64, error) {
	if err := checkName(name); err != nil {
		return 0, err
	}

	final := filepath.Join(d.dir, name)
	tmp := final + tmpSuffix

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return 0, fmt.Errorf("%w: create %s: %w", ErrWrite, tmp, err)
	}

	size, err := io.Copy(f, r)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return 0, fmt.Errorf("%w: copy: %w", ErrWrite, err)
	}

	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return 0, fmt.Errorf("%w: fsync: %w", ErrWrite, err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return 0, fmt.Errorf("%w: close: %w", ErrWrite, err)
	}

	if err := os.Rename(tmp, final); err != nil {
		_ = os.Remove(tmp)
		return 0, fmt.Errorf("%w: rename: %w", ErrWrite, err)
	}

	return size, nil
}

// Open returns the regular file called name for reading.
func (d *Disk) Open(name string) (*os.File, os.FileInfo, error) {
	if err := checkName(name); err != nil {
		return nil, nil, err
	}
	if strings.HasSuffix(name, tmpSuffix) {
		return nil, nil, ErrNotFound
	}

	f, err := os.Open(filepath.Join(d.dir, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, nil, err
	}
	if !info.Mode().IsRegular() {
		_ = f.Close()
		return nil, nil, ErrNotFound
	}

	return f, info, nil
}

// Remove deletes the file called name. A missing file is not an error.
func (d *Disk) Remove(name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(d.dir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Writable reports whether new files can be created in the directory.
func (d *Disk) Writable() error {
	f, err := os.CreateTemp(d.dir, ".probe-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}

// SweepTemp deletes temporary files last modified before cutoff. These are
// left behind only when the process dies mid-upload. It returns how many
// files were removed.
func (d *Disk) SweepTemp(cutoff time.Time) (int, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.HasSuffix(e.Name(), tmpSuffix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue // removed concurrently
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(d.dir, e.Name())); err != nil && !errors.Is(err, os.ErrNotExist) {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// checkName rejects anything that could resolve outside the directory.
func checkName(name string) error {
	if name == "" || name == "." || name == ".." {
		return ErrInvalidName
	}
	if strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return ErrInvalidName
	}
	if filepath.Base(name) != name {
		return ErrInvalidName
	}
	return nil
}
