// Package filesystem provides the directory operations used to clear vcpkg
// caches.
package filesystem

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// Exists reports whether the given path exists.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Usage is the content of a directory tree.
type Usage struct {
	Files int64
	Bytes int64
}

// DirUsage counts the regular files under dir and their total size. A
// missing dir has zero usage.
func DirUsage(dir string) (Usage, error) {
	var u Usage
	err := filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		u.Files++
		u.Bytes += info.Size()
		return nil
	})
	return u, err
}

// RemoveTree deletes dir and everything below it. It reports false when dir
// did not exist. Entries that cannot be removed because they are read-only
// are made writable and the removal is retried once.
func RemoveTree(dir string) (bool, error) {
	if _, err := os.Lstat(dir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}

	err := os.RemoveAll(dir)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, fs.ErrPermission) {
		return true, err
	}

	if chmodErr := makeWritable(dir); chmodErr != nil {
		return true, errors.Join(err, chmodErr)
	}
	return true, os.RemoveAll(dir)
}

// makeWritable grants the owner write access to dir and every entry under
// it. The parent of dir is left alone.
func makeWritable(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			if d == nil {
				return err
			}
		}
		if d != nil && d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		return addOwnerWrite(path)
	})
}

func addOwnerWrite(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		return err
	}
	mode := info.Mode().Perm() | 0o200
	if info.IsDir() {
		mode |= 0o700
	}
	if mode == info.Mode().Perm() {
		return nil
	}
	return os.Chmod(path, mode)
}
