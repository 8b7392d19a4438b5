// Package yaml provides YAML-based settings parsing.
package yaml

import (
	"fmt"
	"os"

	"github.com/ilastik/app-pass/internal/domain/entities"
	"gopkg.in/yaml.v3"
)

// Settings carries the tunable policy for a check or fix pass.
type Settings struct {
	// DefaultBuild is written into binaries whose build metadata is
	// missing or overwritable.
	DefaultBuild entities.BuildInfo

	// AllowedPrefixes extends the built-in list of path prefixes that
	// are accepted without resolution.
	AllowedPrefixes []string

	// RpathDelete removes unresolvable run-path entries instead of
	// reporting them as unfixable.
	RpathDelete bool

	// ForceUpdate overwrites valid but outdated build metadata of
	// container binaries.
	ForceUpdate bool
}

// yamlSettings represents the raw YAML structure
type yamlSettings struct {
	DefaultBuild    yamlBuild `yaml:"default_build"`
	AllowedPrefixes []string  `yaml:"allowed_prefixes"`
	RpathDelete     bool      `yaml:"rpath_delete"`
	ForceUpdate     bool      `yaml:"force_update"`
}

type yamlBuild struct {
	Platform string `yaml:"platform"`
	MinOS    string `yaml:"min_os"`
	SDK      string `yaml:"sdk"`
}

// DefaultSettings returns the settings used when no config file is
// given: write macos 11.0 build metadata, keep dangling run paths,
// leave valid metadata alone.
func DefaultSettings() Settings {
	return Settings{
		DefaultBuild: entities.BuildInfo{Platform: "macos", MinOS: "11.0", SDK: "11.0"},
	}
}

// SettingsParser parses YAML settings files
type SettingsParser struct{}

// NewSettingsParser creates a new YAML parser
func NewSettingsParser() *SettingsParser {
	return &SettingsParser{}
}

// ParseFile parses a YAML settings file. An empty path yields the
// defaults.
func (p *SettingsParser) ParseFile(filePath string) (Settings, error) {
	if filePath == "" {
		return DefaultSettings(), nil
	}

	//nolint:gosec // G304: filePath is the user-provided settings path
	data, err := os.ReadFile(filePath)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read file %s: %w", filePath, err)
	}

	return p.Parse(data)
}

// Parse parses YAML bytes into Settings. Omitted build fields fall
// back to the defaults so a file may override just one knob.
func (p *SettingsParser) Parse(data []byte) (Settings, error) {
	var raw yamlSettings
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Settings{}, fmt.Errorf("failed to parse YAML: %w", err)
	}

	settings := DefaultSettings()
	if raw.DefaultBuild.Platform != "" {
		settings.DefaultBuild.Platform = raw.DefaultBuild.Platform
	}
	if raw.DefaultBuild.MinOS != "" {
		settings.DefaultBuild.MinOS = raw.DefaultBuild.MinOS
	}
	if raw.DefaultBuild.SDK != "" {
		settings.DefaultBuild.SDK = raw.DefaultBuild.SDK
	}
	if !entities.VersionAtLeast(settings.DefaultBuild.MinOS, entities.GatekeeperMinOS) {
		return Settings{}, fmt.Errorf("default minimum OS %s is below %s", settings.DefaultBuild.MinOS, entities.GatekeeperMinOS)
	}

	settings.AllowedPrefixes = raw.AllowedPrefixes
	settings.RpathDelete = raw.RpathDelete
	settings.ForceUpdate = raw.ForceUpdate
	return settings, nil
}
