// Package jsonstore reads and atomically replaces small JSON state files.
package jsonstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// Read decodes path into v. It reports false without error when the file does not exist.
func Read(fs afero.Fs, path string, v any) (bool, error) {
	file, err := fs.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(v); err != nil {
		return false, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return true, nil
}

// Write encodes v to a temp file next to path, syncs it, then renames it over path.
func Write(fs afero.Fs, path string, v any) error {
	name := filepath.Base(path)
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s dir: %w", name, err)
	}

	tmp := path + ".tmp"
	file, err := fs.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s temp file: %w", name, err)
	}

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		file.Close()
		_ = fs.Remove(tmp)
		return fmt.Errorf("encode %s: %w", name, err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		_ = fs.Remove(tmp)
		return fmt.Errorf("sync %s: %w", name, err)
	}

	if err := file.Close(); err != nil {
		_ = fs.Remove(tmp)
		return fmt.Errorf("close %s temp file: %w", name, err)
	}

	if err := fs.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}
