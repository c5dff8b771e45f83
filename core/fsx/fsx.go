package fsx

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"syscall"

	coreerrors "github.com/yeah705-lgtm/ccs-sub000/core/errors"
)

// WriteFileAtomic writes content to a sibling temp file and renames it onto
// path, so a concurrent reader sees either the old file or the new one and
// never a partial write. The temp name carries the writing pid so two
// processes racing past the lock still cannot collide on the temp path. The
// temp file is removed before any error propagates.
func WriteFileAtomic(path string, content []byte, mode os.FileMode) error {
	parent := filepath.Dir(path)
	base := filepath.Base(path)

	tempFile, err := os.CreateTemp(parent, fmt.Sprintf(".%s.%d.tmp-*", base, os.Getpid()))
	if err != nil {
		return classifyWriteError(fmt.Errorf("create temp file: %w", err))
	}
	tempPath := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempPath)
		}
	}()

	if _, err := tempFile.Write(content); err != nil {
		_ = tempFile.Close()
		return classifyWriteError(fmt.Errorf("write temp file: %w", err))
	}
	if err := tempFile.Sync(); err != nil {
		_ = tempFile.Close()
		return classifyWriteError(fmt.Errorf("sync temp file: %w", err))
	}
	if err := tempFile.Chmod(mode); err != nil {
		_ = tempFile.Close()
		return classifyWriteError(fmt.Errorf("chmod temp file: %w", err))
	}
	if err := tempFile.Close(); err != nil {
		return classifyWriteError(fmt.Errorf("close temp file: %w", err))
	}

	if err := os.Rename(tempPath, path); err != nil {
		if runtime.GOOS != "windows" {
			return classifyWriteError(fmt.Errorf("rename temp file: %w", err))
		}
		if removeErr := os.Remove(path); removeErr != nil && !os.IsNotExist(removeErr) {
			return classifyWriteError(fmt.Errorf("remove destination before rename: %w", removeErr))
		}
		if renameErr := os.Rename(tempPath, path); renameErr != nil {
			return classifyWriteError(fmt.Errorf("rename temp file after remove: %w", renameErr))
		}
	}
	cleanup = false

	syncDirectory(parent)
	return nil
}

// classifyWriteError buckets filesystem failures into disk-full,
// permission-denied, and generic I/O so callers can print an actionable
// message instead of a raw errno.
func classifyWriteError(err error) error {
	switch {
	case stderrors.Is(err, syscall.ENOSPC):
		return coreerrors.Wrap(err, coreerrors.CategoryIOFailure, coreerrors.CodeDiskFull,
			"free disk space and retry", false)
	case os.IsPermission(err), stderrors.Is(err, syscall.EROFS):
		return coreerrors.Wrap(err, coreerrors.CategoryIOFailure, coreerrors.CodePermissionDenied,
			"check file permissions or choose a writable config directory", false)
	default:
		return coreerrors.Wrap(err, coreerrors.CategoryIOFailure, coreerrors.CodeIOError,
			"retry; if the failure persists check the filesystem", true)
	}
}

// EnsureDir creates dir and any missing parents.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return classifyWriteError(fmt.Errorf("create directory: %w", err))
	}
	return nil
}

// CopyFile copies src to dst preserving the source mode. dst's parent must
// already exist.
func CopyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}
	// #nosec G304 -- source path is an explicit caller-provided local path.
	content, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read source: %w", err)
	}
	return WriteFileAtomic(dst, content, info.Mode().Perm())
}

// CopyTree copies every regular file under src into dst, recreating the
// directory layout. Symlinks and other special files are skipped.
func CopyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, entry os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		relative, err := filepath.Rel(src, path)
		if err != nil {
			return fmt.Errorf("relative path: %w", err)
		}
		target := filepath.Join(dst, relative)
		if entry.IsDir() {
			return EnsureDir(target)
		}
		if !entry.Type().IsRegular() {
			return nil
		}
		return CopyFile(path, target)
	})
}

// ReadFileIfExists returns (nil, nil) when path is absent; absence is a
// normal state for config files, not an error.
func ReadFileIfExists(path string) ([]byte, error) {
	// #nosec G304 -- path is an explicit caller-provided local path.
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read file: %w", err)
	}
	return content, nil
}

func syncDirectory(dir string) {
	// #nosec G304 -- directory path is derived from a caller-provided file path.
	if handle, err := os.Open(dir); err == nil {
		_ = handle.Sync()
		_ = handle.Close()
	}
}
