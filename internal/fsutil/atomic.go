package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteFileAtomic writes data to a temporary file next to path, syncs it and
// renames it over path. A crash leaves either the old or the new content.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file in %s: %w", dir, err)
	}

	tmpPath := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	if err = tmp.Chmod(perm); err != nil {
		cleanup()

		return fmt.Errorf("chmod %s: %w", tmpPath, err)
	}

	if _, err = tmp.Write(data); err != nil {
		cleanup()

		return fmt.Errorf("write %s: %w", tmpPath, err)
	}

	if err = tmp.Sync(); err != nil {
		cleanup()

		return fmt.Errorf("fsync %s: %w", tmpPath, err)
	}

	if err = tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)

		return fmt.Errorf("close %s: %w", tmpPath, err)
	}

	if err = os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)

		return fmt.Errorf("rename %s -> %s: %w", tmpPath, path, err)
	}

	syncDir(dir)

	return nil
}

// syncDir persists the rename. Failures are ignored: not every platform can
// sync a directory.
func syncDir(dir string) {
	f, err := os.Open(filepath.Clean(dir))
	if err != nil {
		return
	}

	_ = f.Sync()
	_ = f.Close()
}
