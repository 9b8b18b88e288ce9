package inkframe

import (
	"fmt"
	"os"
	"path/filepath"
)

// commitTemp moves a fully written temporary file over dest. The temp file must
// live in the same directory as dest so the rename stays atomic.
func commitTemp(tmp *os.File, dest string) error {
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return fmt.Errorf("rename into %s: %w", dest, err)
	}
	syncDir(filepath.Dir(dest))
	return nil
}

// openTemp truncates or creates the temporary file at path. The name is fixed
// so a copy orphaned by power loss is reused by the next write, not leaked.
func openTemp(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create temp: %w", err)
	}
	return f, nil
}

// writeFileAtomic writes data to path+".tmp" and renames it into place.
// Readers see either the old file or the new one.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := openTemp(path + ".tmp")
	if err != nil {
		return err
	}
	success := false
	defer func() {
		if !success {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := commitTemp(tmp, path); err != nil {
		return err
	}
	success = true
	return nil
}

// syncDir flushes directory metadata so a rename survives power loss. Errors
// are ignored: not every filesystem supports fsync on directories.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	d.Close()
}
