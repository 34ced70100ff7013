package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Settings is the effective compiler configuration for a workspace. A change
// in value invalidates the cached compiler instance.
type Settings struct {
	// ClassPath lists explicit class path entries. When non-empty it is used
	// verbatim and dependency inference is skipped entirely.
	ClassPath []string `yaml:"classPath" json:"classPath"`
	// ExternalDependencies names Maven-style artifacts to resolve when the
	// class path has to be inferred.
	ExternalDependencies []string `yaml:"externalDependencies" json:"externalDependencies"`
	// AddExports lists module/package pairs passed through to javac.
	AddExports []string `yaml:"addExports" json:"addExports"`
}

// Equal reports whether two settings snapshots are the same by value.
func (s Settings) Equal(other Settings) bool {
	return stringSlicesEqual(s.ClassPath, other.ClassPath) &&
		stringSlicesEqual(s.ExternalDependencies, other.ExternalDependencies) &&
		stringSlicesEqual(s.AddExports, other.AddExports)
}

func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// AbsoluteClassPath returns the explicit class path entries as absolute paths.
func (s Settings) AbsoluteClassPath() []string {
	var paths []string
	for _, entry := range s.ClassPath {
		abs, err := filepath.Abs(entry)
		if err != nil {
			abs = entry
		}
		paths = append(paths, abs)
	}
	return paths
}

// FromJSON parses the "java" sub-object delivered by a
// workspace/didChangeConfiguration notification.
func FromJSON(raw json.RawMessage) (Settings, error) {
	var wrapper struct {
		Java Settings `json:"java"`
	}
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return Settings{}, fmt.Errorf("failed to parse settings: %w", err)
	}
	return wrapper.Java, nil
}

// LoadSettings loads workspace settings from a YAML file.
func LoadSettings(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file: %w", err)
	}

	var settings Settings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}
	return settings, nil
}

// SaveSettings saves workspace settings to a YAML file.
func SaveSettings(settings Settings, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// DefaultSettingsPath returns the conventional per-workspace settings file.
func DefaultSettingsPath(workspaceRoot string) string {
	return filepath.Join(workspaceRoot, ".java-lsp.yaml")
}

// LoadWorkspaceSettings loads the workspace settings file if one exists.
// A missing file is not an error; it yields empty settings.
func LoadWorkspaceSettings(workspaceRoot string) (Settings, error) {
	path := DefaultSettingsPath(workspaceRoot)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Settings{}, nil
	}
	return LoadSettings(path)
}
