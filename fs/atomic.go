// Package fs provides file-based storage: the on-disk page cache and
// atomic file replacement shared by the file-backed dataset stores.
package fs

import (
	"io"
	"os"
	"path/filepath"
)

// WriteFileAtomic replaces the file at path with the output of write.
// Data goes to a temporary file in the same directory, which is synced and
// renamed over path, so readers see either the old or the new file.
// Parent directories are created if missing.
func WriteFileAtomic(path string, write func(w io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(f.Name())
		}
	}()

	if err = write(f); err != nil {
		return err
	}
	if err = f.Chmod(0644); err != nil {
		return err
	}
	if err = f.Sync(); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}
