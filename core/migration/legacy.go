package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/yeah705-lgtm/ccs-sub000/core/configdoc"
)

// legacyProfile pairs the translated profile entity with the raw settings
// path the legacy file referenced, so migration can verify and back it up.
type legacyProfile struct {
	Profile      configdoc.Profile
	SettingsPath string
}

// legacyConfig is the parsed pre-versioning primary file. The legacy format
// was never validated, so everything is read tolerantly: wrong-typed or
// unknown keys are simply ignored.
type legacyConfig struct {
	Accounts       map[string]configdoc.Account
	Profiles       map[string]legacyProfile
	DefaultProfile string
}

func parseLegacyConfig(content []byte) (legacyConfig, error) {
	if !gjson.ValidBytes(content) {
		return legacyConfig{}, fmt.Errorf("legacy config is not valid json")
	}
	root := gjson.ParseBytes(content)
	if !root.IsObject() {
		return legacyConfig{}, fmt.Errorf("legacy config is not a json object")
	}

	parsed := legacyConfig{
		Accounts: map[string]configdoc.Account{},
		Profiles: map[string]legacyProfile{},
	}

	root.Get("accounts").ForEach(func(name, value gjson.Result) bool {
		if !value.IsObject() {
			return true
		}
		parsed.Accounts[name.String()] = configdoc.Account{
			Provider:  value.Get("provider").String(),
			APIKeyEnv: value.Get("api_key_env").String(),
			BaseURL:   value.Get("base_url").String(),
		}
		return true
	})

	// Two legacy spellings: a bare string is a settings-file path, an object
	// carries the full profile shape.
	root.Get("profiles").ForEach(func(name, value gjson.Result) bool {
		switch {
		case value.Type == gjson.String:
			parsed.Profiles[name.String()] = legacyProfile{
				Profile:      configdoc.Profile{Settings: value.String()},
				SettingsPath: value.String(),
			}
		case value.IsObject():
			profile := configdoc.Profile{
				Account:  value.Get("account").String(),
				Model:    value.Get("model").String(),
				Settings: value.Get("settings").String(),
			}
			if env := value.Get("env"); env.IsObject() {
				profile.Env = map[string]string{}
				env.ForEach(func(key, envValue gjson.Result) bool {
					profile.Env[key.String()] = envValue.String()
					return true
				})
			}
			parsed.Profiles[name.String()] = legacyProfile{
				Profile:      profile,
				SettingsPath: profile.Settings,
			}
		}
		return true
	})

	if value := root.Get("default_profile"); value.Exists() {
		parsed.DefaultProfile = value.String()
	} else if value := root.Get("default"); value.Exists() {
		parsed.DefaultProfile = value.String()
	}
	return parsed, nil
}

// resolveSettingsPath turns a legacy settings reference into an absolute
// path: "~/" expands to the home directory and relative paths resolve
// against the config base directory.
func resolveSettingsPath(baseDir, path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("empty settings path")
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		return filepath.Join(home, strings.TrimPrefix(strings.TrimPrefix(trimmed, "~"), "/")), nil
	}
	if filepath.IsAbs(trimmed) {
		return trimmed, nil
	}
	return filepath.Join(baseDir, trimmed), nil
}
