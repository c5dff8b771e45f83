package configdoc

import "maps"

// ApplyPatch returns doc with every section present in patch replaced as a
// whole. The merge is shallow at the top level by contract: callers supply
// complete sections (the *Patch helpers build them from full values). A
// sparse struct section falls back to section defaults for its unsupplied
// fields, so passing a partial section loses sibling fields. That is the
// documented contract, not an accident.
//
// The document version is never taken from the patch.
func ApplyPatch(doc Document, patch Partial) Document {
	if patch.Accounts != nil {
		doc.Accounts = maps.Clone(patch.Accounts)
	}
	if patch.Profiles != nil {
		doc.Profiles = maps.Clone(patch.Profiles)
	}
	if patch.Providers != nil {
		doc.Providers = maps.Clone(patch.Providers)
	}
	if patch.Preferences != nil {
		doc.Preferences = mergePreferences(patch.Preferences)
	}
	if patch.Usage != nil {
		doc.Usage = mergeUsage(patch.Usage)
	}
	if patch.Updates != nil {
		doc.Updates = mergeUpdates(patch.Updates)
	}
	return doc
}
