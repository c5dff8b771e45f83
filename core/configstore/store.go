// Package configstore persists the configuration document on local disk:
// explicit Store instances (no module-level singleton), advisory cross-process
// locking around writes, atomic file replacement, and transparent version
// upgrades on load.
package configstore

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/yeah705-lgtm/ccs-sub000/core/configdoc"
	coreerrors "github.com/yeah705-lgtm/ccs-sub000/core/errors"
	"github.com/yeah705-lgtm/ccs-sub000/core/fsx"
	"github.com/yeah705-lgtm/ccs-sub000/core/lockfile"
	"github.com/yeah705-lgtm/ccs-sub000/core/schema"
)

const (
	// ConfigFileName is the primary versioned document inside the base dir.
	ConfigFileName = "config.yaml"

	lockSuffix     = ".lock"
	configFileMode = 0o600
)

type Store struct {
	baseDir string
	logger  *slog.Logger
}

// New constructs a store rooted at baseDir. A nil logger falls back to
// slog.Default; the store never writes diagnostics anywhere else.
func New(baseDir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{baseDir: baseDir, logger: logger}
}

func (s *Store) BaseDir() string {
	return s.baseDir
}

// Path returns the location of the primary versioned document.
func (s *Store) Path() string {
	return filepath.Join(s.baseDir, ConfigFileName)
}

func (s *Store) lock() *lockfile.Lock {
	return lockfile.New(s.Path() + lockSuffix)
}

// Load reads the document from disk. An absent file returns nil: "no config
// yet" is a normal state, not an error. Corrupt or non-document content also
// returns nil, with the diagnostic logged: a broken config file must never
// crash an unrelated command. Documents below the current version are
// upgraded in memory and re-persisted best-effort; a failed upgrade save is
// logged and the upgraded in-memory copy returned anyway.
func (s *Store) Load() *configdoc.Document {
	path := s.Path()
	content, err := fsx.ReadFileIfExists(path)
	if err != nil {
		s.logger.Warn("config file unreadable, treating as absent", "path", path, "error", err)
		return nil
	}
	if content == nil {
		return nil
	}

	partial, err := configdoc.Deserialize(content)
	if err != nil {
		s.logger.Warn("config file is corrupt, ignoring it", "path", path, "error", err)
		return nil
	}
	if partial == nil {
		s.logger.Warn("config file is not a config document, ignoring it", "path", path)
		return nil
	}
	for _, warning := range partial.Warnings {
		s.logger.Warn("config section degraded to defaults", "path", path, "detail", warning)
	}

	doc := configdoc.Merge(*partial)
	s.logSchemaFindings(doc)

	if partial.Version < configdoc.CurrentVersion {
		doc.Version = configdoc.CurrentVersion
		if err := s.Save(doc); err != nil {
			s.logger.Warn("config auto-upgrade could not be persisted, continuing with in-memory copy",
				"path", path, "from_version", partial.Version, "to_version", configdoc.CurrentVersion, "error", err)
		} else {
			s.logger.Info("config upgraded",
				"path", path, "from_version", partial.Version, "to_version", configdoc.CurrentVersion)
		}
	}
	return &doc
}

// LoadOrCreate returns a fully-populated document regardless of path taken:
// the loaded document (Load output is always merger output) or the default
// document when none exists on disk.
func (s *Store) LoadOrCreate() configdoc.Document {
	if doc := s.Load(); doc != nil {
		return *doc
	}
	return configdoc.DefaultDocument()
}

// Save persists the document: lock, ensure the base directory, stamp the
// version, serialize, atomic write. The lock is released in a defer so a
// failed write can never orphan it. A save that cannot acquire the lock
// fails explicitly and leaves the on-disk file untouched.
func (s *Store) Save(doc configdoc.Document) error {
	if err := fsx.EnsureDir(s.baseDir); err != nil {
		return fmt.Errorf("ensure config directory: %w", err)
	}

	lock := s.lock()
	acquired, err := lock.AcquireWithRetry(lockfile.DefaultMaxAttempts, lockfile.DefaultRetryDelay)
	if err != nil {
		return coreerrors.Wrap(fmt.Errorf("acquire config lock: %w", err),
			coreerrors.CategoryIOFailure, coreerrors.CodeIOError,
			"retry; if the failure persists check the config directory", true)
	}
	if !acquired {
		cause := fmt.Errorf("config is locked by another process")
		if holder, holderErr := lock.Holder(); holderErr == nil && holder != nil {
			cause = fmt.Errorf("config is locked by another process (pid %d)", holder.PID)
		}
		return coreerrors.Wrap(cause, coreerrors.CategoryLockContention, "",
			"wait a moment and try again", true)
	}
	defer func() {
		_ = lock.Release()
	}()

	// Version is strictly non-decreasing: stamp the current version, but
	// never downgrade a document written by a newer build.
	if doc.Version < configdoc.CurrentVersion {
		doc.Version = configdoc.CurrentVersion
	}

	encoded, err := configdoc.Serialize(doc)
	if err != nil {
		return coreerrors.Wrap(fmt.Errorf("serialize config: %w", err),
			coreerrors.CategoryInternalFailure, "", "", false)
	}
	if err := fsx.WriteFileAtomic(s.Path(), encoded, configFileMode); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Update loads (or creates) the document, applies patch with whole-section
// replacement semantics (see configdoc.ApplyPatch), saves, and returns the
// merged result.
func (s *Store) Update(patch configdoc.Partial) (configdoc.Document, error) {
	merged := configdoc.ApplyPatch(s.LoadOrCreate(), patch)
	if err := s.Save(merged); err != nil {
		return configdoc.Document{}, err
	}
	if merged.Version < configdoc.CurrentVersion {
		merged.Version = configdoc.CurrentVersion
	}
	return merged, nil
}

func (s *Store) logSchemaFindings(doc configdoc.Document) {
	warnings, err := schema.ValidateDocument(doc)
	if err != nil {
		s.logger.Warn("config schema validation unavailable", "error", err)
		return
	}
	for _, warning := range warnings {
		s.logger.Warn("config schema finding", "detail", warning)
	}
}
