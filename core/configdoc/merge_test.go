package configdoc

import (
	"reflect"
	"testing"
)

func TestDefaultDocumentEqualsMergeOfEmptyPartial(t *testing.T) {
	created := DefaultDocument()
	merged := Merge(Partial{})

	if !reflect.DeepEqual(created, merged) {
		t.Fatalf("create-empty and merge-defaults paths diverged:\n%#v\n%#v", created, merged)
	}
}

func TestDefaultDocumentIsFullyPopulated(t *testing.T) {
	doc := DefaultDocument()

	if doc.Version != CurrentVersion {
		t.Fatalf("expected version %d, got %d", CurrentVersion, doc.Version)
	}
	if doc.Accounts == nil || doc.Profiles == nil || doc.Providers == nil {
		t.Fatal("expected every map section to be structurally present")
	}
	if !doc.Preferences.ColorOutput {
		t.Fatal("expected preferences default color_output=true")
	}
	if doc.Usage.Currency != "USD" {
		t.Fatalf("unexpected usage currency default %q", doc.Usage.Currency)
	}
	if doc.Updates.Channel != "stable" {
		t.Fatalf("unexpected updates channel default %q", doc.Updates.Channel)
	}
}

func TestMergePreservesSuppliedFields(t *testing.T) {
	editor := "vim"
	colorOutput := false
	partial := Partial{
		Version: 2,
		Profiles: map[string]Profile{
			"work": {Account: "acme", Settings: "~/creds/work.json"},
		},
		Preferences: &PartialPreferences{
			ColorOutput: &colorOutput,
			Editor:      &editor,
		},
	}

	merged := Merge(partial)

	if merged.Version != 2 {
		t.Fatalf("expected supplied version preserved, got %d", merged.Version)
	}
	if merged.Profiles["work"].Settings != "~/creds/work.json" {
		t.Fatalf("unexpected profile settings %q", merged.Profiles["work"].Settings)
	}
	if merged.Preferences.Editor != "vim" {
		t.Fatalf("unexpected editor %q", merged.Preferences.Editor)
	}
	if merged.Preferences.ColorOutput {
		t.Fatal("expected supplied color_output=false preserved")
	}
	// Fields absent from the partial pick up defaults.
	if merged.Preferences.DefaultProfile != "" {
		t.Fatalf("unexpected default_profile %q", merged.Preferences.DefaultProfile)
	}
	if merged.Accounts == nil || len(merged.Accounts) != 0 {
		t.Fatalf("expected empty accounts default, got %#v", merged.Accounts)
	}
}

func TestMergeDoesNotAliasPartialMaps(t *testing.T) {
	partial := Partial{
		Accounts: map[string]Account{"acme": {Provider: "anthropic"}},
	}
	merged := Merge(partial)

	merged.Accounts["intruder"] = Account{}
	if _, exists := partial.Accounts["intruder"]; exists {
		t.Fatal("merge must clone map sections, not alias them")
	}
}

func TestMergeTreatsVersionBelowOneAsAbsent(t *testing.T) {
	if got := Merge(Partial{Version: 0}).Version; got != CurrentVersion {
		t.Fatalf("expected current version for absent version, got %d", got)
	}
	if got := Merge(Partial{Version: -4}).Version; got != CurrentVersion {
		t.Fatalf("expected current version for negative version, got %d", got)
	}
}
