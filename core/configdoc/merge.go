package configdoc

import "maps"

// Section defaults are defined once, here, and feed both the create-empty
// path and the merge-partial path: DefaultDocument is literally
// Merge(Partial{}), so the two cannot diverge.

func defaultAccounts() map[string]Account {
	return map[string]Account{}
}

func defaultProfiles() map[string]Profile {
	return map[string]Profile{}
}

func defaultProviders() map[string]ProviderVariant {
	return map[string]ProviderVariant{}
}

func defaultPreferences() Preferences {
	return Preferences{ColorOutput: true}
}

func defaultUsage() UsageConfig {
	return UsageConfig{TrackCost: true, Currency: "USD"}
}

func defaultUpdates() UpdatesConfig {
	return UpdatesConfig{CheckOnStart: true, Channel: "stable"}
}

// DefaultDocument returns a fully-populated document at the current version.
func DefaultDocument() Document {
	return Merge(Partial{})
}

// Merge fills every absent section and field of partial with its default and
// returns a fully-populated document. It is total and pure: it never fails,
// never mutates partial, and ignores nothing the caller supplied. A partial
// version below 1 is treated as absent and defaults to the current version.
func Merge(partial Partial) Document {
	version := partial.Version
	if version < 1 {
		version = CurrentVersion
	}
	return Document{
		Version:     version,
		Accounts:    mergeMapSection(partial.Accounts, defaultAccounts),
		Profiles:    mergeMapSection(partial.Profiles, defaultProfiles),
		Providers:   mergeMapSection(partial.Providers, defaultProviders),
		Preferences: mergePreferences(partial.Preferences),
		Usage:       mergeUsage(partial.Usage),
		Updates:     mergeUpdates(partial.Updates),
	}
}

func mergeMapSection[V any](section map[string]V, fallback func() map[string]V) map[string]V {
	if section == nil {
		return fallback()
	}
	return maps.Clone(section)
}

func mergePreferences(partial *PartialPreferences) Preferences {
	merged := defaultPreferences()
	if partial == nil {
		return merged
	}
	if partial.DefaultProfile != nil {
		merged.DefaultProfile = *partial.DefaultProfile
	}
	if partial.ColorOutput != nil {
		merged.ColorOutput = *partial.ColorOutput
	}
	if partial.Editor != nil {
		merged.Editor = *partial.Editor
	}
	return merged
}

func mergeUsage(partial *PartialUsage) UsageConfig {
	merged := defaultUsage()
	if partial == nil {
		return merged
	}
	if partial.TrackCost != nil {
		merged.TrackCost = *partial.TrackCost
	}
	if partial.Currency != nil {
		merged.Currency = *partial.Currency
	}
	return merged
}

func mergeUpdates(partial *PartialUpdates) UpdatesConfig {
	merged := defaultUpdates()
	if partial == nil {
		return merged
	}
	if partial.CheckOnStart != nil {
		merged.CheckOnStart = *partial.CheckOnStart
	}
	if partial.Channel != nil {
		merged.Channel = *partial.Channel
	}
	return merged
}
