package configdoc

// Partial is the loosely-populated shape parsed from disk. Sections may be
// absent (nil) and scalar fields inside struct sections are pointers so the
// merger can tell "absent" from "zero". Only Deserialize and callers
// assembling an Update patch construct values of this type; everything else
// consumes the merger's Document output.
type Partial struct {
	Version   int
	Accounts  map[string]Account
	Profiles  map[string]Profile
	Providers map[string]ProviderVariant

	Preferences *PartialPreferences
	Usage       *PartialUsage
	Updates     *PartialUpdates

	// Warnings records sections whose on-disk value had the wrong type and
	// was replaced with the section default during deserialization.
	Warnings []string
}

type PartialPreferences struct {
	DefaultProfile *string `yaml:"default_profile"`
	ColorOutput    *bool   `yaml:"color_output"`
	Editor         *string `yaml:"editor"`
}

type PartialUsage struct {
	TrackCost *bool   `yaml:"track_cost"`
	Currency  *string `yaml:"currency"`
}

type PartialUpdates struct {
	CheckOnStart *bool   `yaml:"check_on_start"`
	Channel      *string `yaml:"channel"`
}

// PreferencesPatch builds a PartialPreferences that replaces the whole
// section, for callers assembling an Update patch from a full value.
func PreferencesPatch(preferences Preferences) *PartialPreferences {
	return &PartialPreferences{
		DefaultProfile: &preferences.DefaultProfile,
		ColorOutput:    &preferences.ColorOutput,
		Editor:         &preferences.Editor,
	}
}

// UsagePatch builds a PartialUsage replacing the whole section.
func UsagePatch(usage UsageConfig) *PartialUsage {
	return &PartialUsage{TrackCost: &usage.TrackCost, Currency: &usage.Currency}
}

// UpdatesPatch builds a PartialUpdates replacing the whole section.
func UpdatesPatch(updates UpdatesConfig) *PartialUpdates {
	return &PartialUpdates{CheckOnStart: &updates.CheckOnStart, Channel: &updates.Channel}
}
