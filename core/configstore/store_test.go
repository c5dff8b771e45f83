package configstore

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/yeah705-lgtm/ccs-sub000/core/configdoc"
	coreerrors "github.com/yeah705-lgtm/ccs-sub000/core/errors"
	"github.com/yeah705-lgtm/ccs-sub000/core/lockfile"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(t.TempDir(), quietLogger())
}

func TestLoadAbsentReturnsNil(t *testing.T) {
	store := newTestStore(t)
	if doc := store.Load(); doc != nil {
		t.Fatalf("expected nil for absent config, got %#v", doc)
	}
}

func TestLoadOrCreateReturnsFullyPopulatedDefaults(t *testing.T) {
	store := newTestStore(t)

	doc := store.LoadOrCreate()
	if !reflect.DeepEqual(doc, configdoc.DefaultDocument()) {
		t.Fatalf("unexpected created document: %#v", doc)
	}
	if doc.Accounts == nil || doc.Profiles == nil || doc.Providers == nil {
		t.Fatal("expected every section structurally present")
	}
	// LoadOrCreate alone does not persist.
	if _, err := os.Stat(store.Path()); !os.IsNotExist(err) {
		t.Fatal("expected no file written by LoadOrCreate")
	}
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)
	doc := configdoc.Merge(configdoc.Partial{
		Accounts: map[string]configdoc.Account{"acme": {Provider: "anthropic"}},
		Profiles: map[string]configdoc.Profile{"work": {Account: "acme", Settings: "~/creds/work.json"}},
	})

	if err := store.Save(doc); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded := store.Load()
	if loaded == nil {
		t.Fatal("expected document after save")
	}
	if !reflect.DeepEqual(*loaded, doc) {
		t.Fatalf("round trip diverged:\n%#v\n%#v", *loaded, doc)
	}
	if _, err := os.Stat(store.Path() + ".lock"); !os.IsNotExist(err) {
		t.Fatal("expected lock released after save")
	}
}

func TestInterruptedWriteLeavesOriginalIntact(t *testing.T) {
	store := newTestStore(t)
	doc := configdoc.Merge(configdoc.Partial{
		Accounts: map[string]configdoc.Account{"acme": {Provider: "anthropic"}},
	})
	if err := store.Save(doc); err != nil {
		t.Fatalf("save: %v", err)
	}
	original, err := os.ReadFile(store.Path())
	if err != nil {
		t.Fatalf("read saved config: %v", err)
	}

	// A writer that dies between writing its temp file and renaming it onto
	// the config leaves exactly this on disk: the intact original plus an
	// orphaned, half-written sibling temp file.
	orphan := filepath.Join(store.BaseDir(),
		fmt.Sprintf(".%s.%d.tmp-crashed", ConfigFileName, os.Getpid()))
	if err := os.WriteFile(orphan, []byte("version: 3\naccounts:\n  acm"), 0o600); err != nil {
		t.Fatalf("write orphaned temp file: %v", err)
	}

	after, err := os.ReadFile(store.Path())
	if err != nil {
		t.Fatalf("re-read config: %v", err)
	}
	if string(after) != string(original) {
		t.Fatal("interrupted write mutated the original file")
	}
	loaded := store.Load()
	if loaded == nil {
		t.Fatal("expected original document to remain loadable")
	}
	if !reflect.DeepEqual(*loaded, doc) {
		t.Fatalf("loaded document diverged from the one saved:\n%#v\n%#v", *loaded, doc)
	}
}

func TestSaveForcesCurrentVersion(t *testing.T) {
	store := newTestStore(t)
	doc := configdoc.DefaultDocument()
	doc.Version = 1

	if err := store.Save(doc); err != nil {
		t.Fatalf("save: %v", err)
	}
	content, err := os.ReadFile(store.Path())
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	firstLine := strings.SplitN(string(content), "\n", 2)[0]
	if firstLine != fmt.Sprintf("version: %d", configdoc.CurrentVersion) {
		t.Fatalf("unexpected first line %q", firstLine)
	}
}

func TestLoadUpgradesStaleVersionIdempotently(t *testing.T) {
	store := newTestStore(t)
	content := "version: 1\nprofiles:\n  work:\n    settings: ~/creds/work.json\n"
	if err := os.MkdirAll(store.BaseDir(), 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(store.Path(), []byte(content), 0o600); err != nil {
		t.Fatalf("write stale config: %v", err)
	}

	first := store.Load()
	if first == nil {
		t.Fatal("expected upgraded document")
	}
	if first.Version != configdoc.CurrentVersion {
		t.Fatalf("expected upgraded version %d, got %d", configdoc.CurrentVersion, first.Version)
	}
	if first.Profiles["work"].Settings != "~/creds/work.json" {
		t.Fatal("expected profile preserved across upgrade")
	}

	upgradedContent, err := os.ReadFile(store.Path())
	if err != nil {
		t.Fatalf("read upgraded config: %v", err)
	}

	second := store.Load()
	if second == nil || !reflect.DeepEqual(*first, *second) {
		t.Fatalf("second load diverged:\n%#v\n%#v", first, second)
	}
	unchangedContent, err := os.ReadFile(store.Path())
	if err != nil {
		t.Fatalf("re-read config: %v", err)
	}
	if string(upgradedContent) != string(unchangedContent) {
		t.Fatal("second load mutated an already-current file")
	}
}

func TestLoadCorruptFileReturnsNilWithoutCrashing(t *testing.T) {
	store := newTestStore(t)
	if err := os.MkdirAll(store.BaseDir(), 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(store.Path(), []byte("version: [\n"), 0o600); err != nil {
		t.Fatalf("write corrupt config: %v", err)
	}

	if doc := store.Load(); doc != nil {
		t.Fatalf("expected nil for corrupt config, got %#v", doc)
	}
	if doc := store.LoadOrCreate(); doc.Version != configdoc.CurrentVersion {
		t.Fatal("expected defaults when config is corrupt")
	}
}

func TestSaveFailsExplicitlyUnderLockContention(t *testing.T) {
	store := newTestStore(t)
	if err := os.MkdirAll(store.BaseDir(), 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	// A fresh marker owned by this live process keeps the lock held.
	marker := fmt.Sprintf("%d\n%d\n", os.Getpid(), time.Now().UTC().UnixMilli())
	if err := os.WriteFile(store.Path()+".lock", []byte(marker), 0o600); err != nil {
		t.Fatalf("write marker: %v", err)
	}

	err := store.Save(configdoc.DefaultDocument())
	if err == nil {
		t.Fatal("expected save to fail while lock is held")
	}
	if coreerrors.CategoryOf(err) != coreerrors.CategoryLockContention {
		t.Fatalf("unexpected category %q", coreerrors.CategoryOf(err))
	}
	if coreerrors.HintOf(err) == "" {
		t.Fatal("expected actionable hint on lock contention")
	}
	if _, statErr := os.Stat(store.Path()); !os.IsNotExist(statErr) {
		t.Fatal("failed save must leave the on-disk file untouched")
	}
}

func TestConcurrentSavesSerialize(t *testing.T) {
	store := newTestStore(t)
	if err := os.MkdirAll(store.BaseDir(), 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	// Simulate a peer process holding the lock for 200ms, with the second
	// writer starting 50ms later on the default retry budget.
	peer := lockfile.New(store.Path() + ".lock")
	acquired, err := peer.TryAcquire()
	if err != nil || !acquired {
		t.Fatalf("peer acquire: acquired=%v err=%v", acquired, err)
	}
	go func() {
		time.Sleep(200 * time.Millisecond)
		_ = peer.Release()
	}()

	time.Sleep(50 * time.Millisecond)
	started := time.Now()
	if err := store.Save(configdoc.DefaultDocument()); err != nil {
		t.Fatalf("save after release: %v", err)
	}
	if elapsed := time.Since(started); elapsed > 1200*time.Millisecond {
		t.Fatalf("save took too long: %v", elapsed)
	}
	if doc := store.Load(); doc == nil {
		t.Fatal("expected saved document")
	}
}

func TestUpdateReplacesWholeSections(t *testing.T) {
	store := newTestStore(t)
	initial := configdoc.Merge(configdoc.Partial{
		Accounts: map[string]configdoc.Account{
			"acme":     {Provider: "anthropic"},
			"personal": {Provider: "openai"},
		},
		Preferences: configdoc.PreferencesPatch(configdoc.Preferences{DefaultProfile: "work", ColorOutput: true, Editor: "vim"}),
	})
	if err := store.Save(initial); err != nil {
		t.Fatalf("save initial: %v", err)
	}

	updated, err := store.Update(configdoc.Partial{
		Accounts: map[string]configdoc.Account{"acme": {Provider: "anthropic", APIKeyEnv: "ACME_KEY"}},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	// Whole-section replacement: the accounts section is exactly the patch.
	if len(updated.Accounts) != 1 || updated.Accounts["acme"].APIKeyEnv != "ACME_KEY" {
		t.Fatalf("unexpected accounts after update: %#v", updated.Accounts)
	}
	// Untouched sections survive.
	if updated.Preferences.Editor != "vim" || updated.Preferences.DefaultProfile != "work" {
		t.Fatalf("unexpected preferences after update: %#v", updated.Preferences)
	}

	reloaded := store.Load()
	if reloaded == nil || !reflect.DeepEqual(*reloaded, updated) {
		t.Fatalf("persisted state diverged:\n%#v\n%#v", reloaded, updated)
	}
}

func TestUpdateOnEmptyStoreCreatesDocument(t *testing.T) {
	store := newTestStore(t)

	updated, err := store.Update(configdoc.Partial{
		Profiles: map[string]configdoc.Profile{"work": {Settings: "~/creds/work.json"}},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Version != configdoc.CurrentVersion {
		t.Fatalf("unexpected version %d", updated.Version)
	}
	if updated.Profiles["work"].Settings != "~/creds/work.json" {
		t.Fatalf("unexpected profiles: %#v", updated.Profiles)
	}
	if updated.Usage.Currency != "USD" {
		t.Fatal("expected defaulted sections in created document")
	}

	target := filepath.Join(store.BaseDir(), ConfigFileName)
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file written: %v", err)
	}
}
