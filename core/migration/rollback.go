package migration

import (
	"fmt"
	"os"
	"path/filepath"

	coreerrors "github.com/yeah705-lgtm/ccs-sub000/core/errors"
	"github.com/yeah705-lgtm/ccs-sub000/core/fsx"
)

// Rollback restores the pre-migration state from a backup snapshot: the
// current-version file is deleted, restructured cache files move back to
// their legacy locations, and every file in the snapshot is copied back into
// the live directory. Failures here are the most severe in the store, since
// the directory may be left half-restored, so they are logged prominently
// and never retried automatically.
func (e *Engine) Rollback(backupPath string) error {
	info, err := os.Stat(backupPath)
	if err != nil {
		return e.rollbackFailure(fmt.Errorf("backup path %q does not exist: %w", backupPath, err))
	}
	if !info.IsDir() {
		return e.rollbackFailure(fmt.Errorf("backup path %q is not a directory", backupPath))
	}

	if err := os.Remove(e.store.Path()); err != nil && !os.IsNotExist(err) {
		return e.rollbackFailure(fmt.Errorf("remove current config: %w", err))
	}

	if err := e.restoreCacheFiles(); err != nil {
		return e.rollbackFailure(err)
	}

	if err := fsx.CopyTree(backupPath, e.store.BaseDir()); err != nil {
		return e.rollbackFailure(fmt.Errorf("restore backup snapshot: %w", err))
	}

	e.logger.Info("configuration rolled back", "backup", backupPath)
	return nil
}

func (e *Engine) restoreCacheFiles() error {
	cacheDir := filepath.Join(e.store.BaseDir(), CacheDirName)
	matches, err := filepath.Glob(filepath.Join(cacheDir, "*"+cacheFileSuffix))
	if err != nil {
		return fmt.Errorf("scan restructured cache files: %w", err)
	}
	for _, cacheFile := range matches {
		target := filepath.Join(e.store.BaseDir(), filepath.Base(cacheFile))
		if err := os.Rename(cacheFile, target); err != nil {
			return fmt.Errorf("move cache file %s back: %w", filepath.Base(cacheFile), err)
		}
	}
	return nil
}

func (e *Engine) rollbackFailure(cause error) error {
	wrapped := coreerrors.Wrap(cause, coreerrors.CategoryRollbackFailed, "",
		"inspect the config directory and the backup before retrying; state may be inconsistent", false)
	e.logger.Error("config rollback failed", "error", cause,
		"hint", "inspect the config directory and the backup before retrying")
	return wrapped
}
