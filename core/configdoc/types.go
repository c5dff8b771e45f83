// Package configdoc defines the versioned configuration document, its
// per-section defaults, and the on-disk YAML form. The document is the single
// aggregate the store persists; sections are independently defaulted and
// always structurally present after merging.
package configdoc

// CurrentVersion is the schema version written by this build. A document's
// version is strictly non-decreasing: loads upgrade older documents in place
// and saves always stamp the current version.
const CurrentVersion = 3

// Document is the fully-populated configuration aggregate. Only the merger
// produces values of this type from disk input; partially-populated disk
// state lives in Partial.
//
// Field order here is the serialization order: version first, then each
// section in fixed enumeration order, so serialized diffs stay stable.
type Document struct {
	Version     int                        `yaml:"version" json:"version"`
	Accounts    map[string]Account         `yaml:"accounts" json:"accounts"`
	Profiles    map[string]Profile         `yaml:"profiles" json:"profiles"`
	Providers   map[string]ProviderVariant `yaml:"providers" json:"providers"`
	Preferences Preferences                `yaml:"preferences" json:"preferences"`
	Usage       UsageConfig                `yaml:"usage" json:"usage"`
	Updates     UpdatesConfig              `yaml:"updates" json:"updates"`
}

// Account identifies one provider credential source, keyed by name.
type Account struct {
	Provider  string `yaml:"provider,omitempty" json:"provider,omitempty"`
	APIKeyEnv string `yaml:"api_key_env,omitempty" json:"api_key_env,omitempty"`
	BaseURL   string `yaml:"base_url,omitempty" json:"base_url,omitempty"`
}

// Profile is a named launch configuration. Settings points at a free-form
// per-profile settings file; the document stores the path, not the contents.
type Profile struct {
	Account  string            `yaml:"account,omitempty" json:"account,omitempty"`
	Model    string            `yaml:"model,omitempty" json:"model,omitempty"`
	Settings string            `yaml:"settings,omitempty" json:"settings,omitempty"`
	Env      map[string]string `yaml:"env,omitempty" json:"env,omitempty"`
}

// ProviderVariant describes one entry of the provider variant registry.
type ProviderVariant struct {
	DisplayName string   `yaml:"display_name,omitempty" json:"display_name,omitempty"`
	APIFormat   string   `yaml:"api_format,omitempty" json:"api_format,omitempty"`
	BaseURL     string   `yaml:"base_url,omitempty" json:"base_url,omitempty"`
	Models      []string `yaml:"models,omitempty" json:"models,omitempty"`
}

type Preferences struct {
	DefaultProfile string `yaml:"default_profile" json:"default_profile"`
	ColorOutput    bool   `yaml:"color_output" json:"color_output"`
	Editor         string `yaml:"editor,omitempty" json:"editor,omitempty"`
}

// UsageConfig controls the cost-tracking feature.
type UsageConfig struct {
	TrackCost bool   `yaml:"track_cost" json:"track_cost"`
	Currency  string `yaml:"currency" json:"currency"`
}

// UpdatesConfig controls update checking.
type UpdatesConfig struct {
	CheckOnStart bool   `yaml:"check_on_start" json:"check_on_start"`
	Channel      string `yaml:"channel" json:"channel"`
}

// SectionNames enumerates the document's sections in serialization order.
func SectionNames() []string {
	return []string{"accounts", "profiles", "providers", "preferences", "usage", "updates"}
}
