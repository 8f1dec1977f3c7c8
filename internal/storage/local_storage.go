package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

var ErrInvalidPath = errors.New("invalid path")

// LocalStorage keeps image files flat under one directory.
type LocalStorage struct {
	basePath string
}

func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{basePath: basePath}, nil
}

func (ls *LocalStorage) BasePath() string {
	return ls.basePath
}

// resolve accepts only a bare file name; dots inside the name are fine.
func (ls *LocalStorage) resolve(name string) (string, error) {
	if name == "." || !filepath.IsLocal(name) || filepath.Base(name) != name {
		return "", ErrInvalidPath
	}

	return filepath.Join(ls.basePath, name), nil
}

// Path returns the full path of name inside the storage directory.
func (ls *LocalStorage) Path(name string) (string, error) {
	return ls.resolve(name)
}

// CopyIn copies the bytes of src into the storage directory under name.
func (ls *LocalStorage) CopyIn(src, name string) error {
	fullPath, err := ls.resolve(name)
	if err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer in.Close()

	dst, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := io.Copy(dst, in); err != nil {
		dst.Close()
		os.Remove(fullPath)
		return fmt.Errorf("failed to copy file: %w", err)
	}

	if err := dst.Close(); err != nil {
		os.Remove(fullPath)
		return fmt.Errorf("failed to close file: %w", err)
	}

	return nil
}

// DeleteFile removes name from the storage directory. It reports whether a
// file was actually removed; a missing file is not an error.
func (ls *LocalStorage) DeleteFile(name string) (bool, error) {
	fullPath, err := ls.resolve(name)
	if err != nil {
		return false, err
	}

	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to delete file: %w", err)
	}

	return true, nil
}
