// Package migration performs the one-time transformation of the legacy
// (pre-versioning) on-disk layout into the current versioned document, with
// a mandatory backup snapshot before any mutation and a corresponding
// rollback. It also supports an incremental pass that imports legacy
// entities missing from an already-migrated document without ever
// overwriting live data.
package migration

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yeah705-lgtm/ccs-sub000/core/configdoc"
	"github.com/yeah705-lgtm/ccs-sub000/core/configstore"
	coreerrors "github.com/yeah705-lgtm/ccs-sub000/core/errors"
	"github.com/yeah705-lgtm/ccs-sub000/core/fsx"
	"github.com/yeah705-lgtm/ccs-sub000/core/jcs"
)

const (
	// LegacyConfigFileName is the unversioned primary file migrated from.
	LegacyConfigFileName = "config.json"

	// BackupDirPrefix names backup snapshots: prefix plus the current date,
	// uniquified on collision.
	BackupDirPrefix = "backup-"

	// CacheDirName is the destination for cache files restructured out of
	// the base directory.
	CacheDirName = "cache"

	cacheFileSuffix = ".cache.json"
)

// Result reports a migration attempt. On failure, MigratedItems and
// Warnings still carry the partial progress made before the error.
type Result struct {
	Success       bool
	BackupPath    string
	MigratedItems []string
	Warnings      []string
	Err           error
}

type Engine struct {
	store  *configstore.Store
	logger *slog.Logger
	now    func() time.Time
}

func New(store *configstore.Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, logger: logger, now: time.Now}
}

func (e *Engine) legacyConfigPath() string {
	return filepath.Join(e.store.BaseDir(), LegacyConfigFileName)
}

// NeedsMigration reports whether a legacy primary file exists while no
// current-version file does. It turns false the moment the new config is
// written, which is what makes migration non-repeatable and AutoMigrate
// idempotent.
func (e *Engine) NeedsMigration() bool {
	if _, err := os.Stat(e.legacyConfigPath()); err != nil {
		return false
	}
	if _, err := os.Stat(e.store.Path()); err == nil {
		return false
	}
	return true
}

// Migrate runs the one-time migration: snapshot every legacy file into a
// backup directory, translate the legacy data into a current document, save
// the document, and only then restructure cache files. With dryRun set it
// performs no writes at all but still reports what would have migrated.
func (e *Engine) Migrate(dryRun bool) Result {
	result := Result{}

	if !e.NeedsMigration() {
		result.Err = coreerrors.Wrap(fmt.Errorf("no legacy configuration to migrate"),
			coreerrors.CategoryInvalidInput, "", "nothing to do; the configuration is already current", false)
		return result
	}

	legacyContent, err := os.ReadFile(e.legacyConfigPath())
	if err != nil {
		result.Err = migrationFailure(fmt.Errorf("read legacy config: %w", err))
		return result
	}
	legacy, err := parseLegacyConfig(legacyContent)
	if err != nil {
		result.Err = migrationFailure(fmt.Errorf("parse legacy config: %w", err))
		return result
	}

	if !dryRun {
		backupPath, err := e.createBackup(legacy)
		if err != nil {
			result.Err = migrationFailure(err)
			return result
		}
		result.BackupPath = backupPath
	}

	doc := e.buildDocument(legacy, &result)

	// Ordering matters from here: the new config must exist on disk before
	// any legacy cache file moves, so an interruption can never strand
	// moved cache files with no config to go with them.
	if !dryRun {
		if err := e.store.Save(doc); err != nil {
			result.Err = migrationFailure(fmt.Errorf("write migrated config: %w", err))
			return result
		}
	}

	if err := e.restructureCacheFiles(dryRun, &result); err != nil {
		result.Err = migrationFailure(err)
		return result
	}

	result.Success = true
	return result
}

// AutoMigrate is the best-effort startup hook: a no-op when migration is
// already done, and on failure it logs and returns so the caller can proceed
// with whatever document is available.
func (e *Engine) AutoMigrate() {
	defer func() {
		if recovered := recover(); recovered != nil {
			e.logger.Error("config migration panicked", "panic", recovered)
		}
	}()

	if !e.NeedsMigration() {
		return
	}
	result := e.Migrate(false)
	if !result.Success {
		e.logger.Error("automatic config migration failed",
			"error", result.Err, "migrated", result.MigratedItems, "warnings", result.Warnings,
			"hint", "re-run migration with the migrate command")
		return
	}
	e.logger.Info("legacy config migrated",
		"backup", result.BackupPath, "migrated", len(result.MigratedItems), "warnings", len(result.Warnings))
}

// MigrateMissing imports legacy entities absent from the already-migrated
// current document. Entities present in both with different data are left
// untouched and reported as collision warnings: stale legacy data never
// overwrites live data.
func (e *Engine) MigrateMissing() Result {
	result := Result{}

	legacyContent, err := fsx.ReadFileIfExists(e.legacyConfigPath())
	if err != nil {
		result.Err = migrationFailure(err)
		return result
	}
	if legacyContent == nil {
		result.Success = true
		return result
	}
	legacy, err := parseLegacyConfig(legacyContent)
	if err != nil {
		result.Err = migrationFailure(fmt.Errorf("parse legacy config: %w", err))
		return result
	}

	doc := e.store.LoadOrCreate()
	changed := false

	for _, name := range sortedKeys(legacy.Accounts) {
		legacyAccount := legacy.Accounts[name]
		current, exists := doc.Accounts[name]
		if !exists {
			doc.Accounts[name] = legacyAccount
			result.MigratedItems = append(result.MigratedItems, "account:"+name)
			changed = true
			continue
		}
		if differs, err := entitiesDiffer(current, legacyAccount); err != nil {
			result.Err = migrationFailure(err)
			return result
		} else if differs {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("account %q exists with different data; keeping current value", name))
		}
	}

	for _, name := range sortedKeys(legacy.Profiles) {
		legacyEntry := legacy.Profiles[name]
		current, exists := doc.Profiles[name]
		if !exists {
			doc.Profiles[name] = legacyEntry.Profile
			result.MigratedItems = append(result.MigratedItems, "profile:"+name)
			changed = true
			continue
		}
		if differs, err := entitiesDiffer(current, legacyEntry.Profile); err != nil {
			result.Err = migrationFailure(err)
			return result
		} else if differs {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("profile %q exists with different data; keeping current value", name))
		}
	}

	if changed {
		if err := e.store.Save(doc); err != nil {
			result.Err = migrationFailure(fmt.Errorf("write updated config: %w", err))
			return result
		}
	}
	result.Success = true
	return result
}

// createBackup snapshots every legacy file before anything is mutated:
// the primary file, each referenced per-profile settings file, and any
// cache files. The snapshot directory is never overwritten; same-day re-runs
// get a unique suffix.
func (e *Engine) createBackup(legacy legacyConfig) (string, error) {
	backupPath := filepath.Join(e.store.BaseDir(), BackupDirPrefix+e.now().UTC().Format("2006-01-02"))
	if _, err := os.Stat(backupPath); err == nil {
		backupPath = backupPath + "-" + uuid.NewString()[:8]
	}
	if err := fsx.EnsureDir(backupPath); err != nil {
		return "", fmt.Errorf("create backup directory: %w", err)
	}

	if err := fsx.CopyFile(e.legacyConfigPath(), filepath.Join(backupPath, LegacyConfigFileName)); err != nil {
		return "", fmt.Errorf("back up legacy config: %w", err)
	}

	settingsBackupDir := filepath.Join(backupPath, "settings")
	for _, name := range sortedKeys(legacy.Profiles) {
		entry := legacy.Profiles[name]
		if strings.TrimSpace(entry.SettingsPath) == "" {
			continue
		}
		resolved, err := resolveSettingsPath(e.store.BaseDir(), entry.SettingsPath)
		if err != nil {
			continue
		}
		if _, err := os.Stat(resolved); err != nil {
			continue
		}
		if err := fsx.EnsureDir(settingsBackupDir); err != nil {
			return "", fmt.Errorf("create settings backup directory: %w", err)
		}
		target := filepath.Join(settingsBackupDir, name+filepath.Ext(resolved))
		if err := fsx.CopyFile(resolved, target); err != nil {
			return "", fmt.Errorf("back up settings for profile %q: %w", name, err)
		}
	}

	cacheFiles, err := e.legacyCacheFiles()
	if err != nil {
		return "", err
	}
	for _, cacheFile := range cacheFiles {
		if err := fsx.CopyFile(cacheFile, filepath.Join(backupPath, filepath.Base(cacheFile))); err != nil {
			return "", fmt.Errorf("back up cache file %s: %w", filepath.Base(cacheFile), err)
		}
	}
	return backupPath, nil
}

// buildDocument translates legacy entities into a current document. A
// profile whose referenced settings file cannot be found is skipped with a
// warning rather than aborting the whole migration.
func (e *Engine) buildDocument(legacy legacyConfig, result *Result) configdoc.Document {
	partial := configdoc.Partial{
		Accounts: map[string]configdoc.Account{},
		Profiles: map[string]configdoc.Profile{},
	}

	for _, name := range sortedKeys(legacy.Accounts) {
		partial.Accounts[name] = legacy.Accounts[name]
		result.MigratedItems = append(result.MigratedItems, "account:"+name)
	}

	for _, name := range sortedKeys(legacy.Profiles) {
		entry := legacy.Profiles[name]
		if strings.TrimSpace(entry.SettingsPath) != "" {
			resolved, err := resolveSettingsPath(e.store.BaseDir(), entry.SettingsPath)
			if err != nil {
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("profile %q: settings path %q unusable (%v); skipped", name, entry.SettingsPath, err))
				continue
			}
			if _, err := os.Stat(resolved); err != nil {
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("profile %q: settings file %q not found; skipped", name, entry.SettingsPath))
				continue
			}
		}
		partial.Profiles[name] = entry.Profile
		result.MigratedItems = append(result.MigratedItems, "profile:"+name)
	}

	if legacy.DefaultProfile != "" {
		defaultProfile := legacy.DefaultProfile
		partial.Preferences = &configdoc.PartialPreferences{DefaultProfile: &defaultProfile}
	}
	return configdoc.Merge(partial)
}

// restructureCacheFiles moves cache-only files (never the legacy primary)
// into the cache subdirectory, recording each move.
func (e *Engine) restructureCacheFiles(dryRun bool, result *Result) error {
	cacheFiles, err := e.legacyCacheFiles()
	if err != nil {
		return err
	}
	if len(cacheFiles) == 0 {
		return nil
	}

	cacheDir := filepath.Join(e.store.BaseDir(), CacheDirName)
	if !dryRun {
		if err := fsx.EnsureDir(cacheDir); err != nil {
			return fmt.Errorf("create cache directory: %w", err)
		}
	}
	for _, cacheFile := range cacheFiles {
		base := filepath.Base(cacheFile)
		if !dryRun {
			if err := os.Rename(cacheFile, filepath.Join(cacheDir, base)); err != nil {
				return fmt.Errorf("move cache file %s: %w", base, err)
			}
		}
		result.MigratedItems = append(result.MigratedItems, "cache:"+base)
	}
	return nil
}

func (e *Engine) legacyCacheFiles() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(e.store.BaseDir(), "*"+cacheFileSuffix))
	if err != nil {
		return nil, fmt.Errorf("scan cache files: %w", err)
	}
	slices.Sort(matches)
	return matches, nil
}

func entitiesDiffer(current, legacy any) (bool, error) {
	currentDigest, err := jcs.CanonicalDigest(current)
	if err != nil {
		return false, fmt.Errorf("digest current entity: %w", err)
	}
	legacyDigest, err := jcs.CanonicalDigest(legacy)
	if err != nil {
		return false, fmt.Errorf("digest legacy entity: %w", err)
	}
	return currentDigest != legacyDigest, nil
}

func migrationFailure(cause error) error {
	return coreerrors.Wrap(cause, coreerrors.CategoryMigrationFailed, "",
		"fix the underlying problem and re-run migration with the migrate command", true)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}
