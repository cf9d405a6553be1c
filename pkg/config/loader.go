package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// configHeader tops generated config files so a reader can tell them from
// hand-written ones.
const configHeader = "# codesweep configuration\n# `codesweep config show` prints the effective settings\n\n"

// Loader reads and writes codesweep configuration files
type Loader struct {
	configPath string
}

// NewLoader returns a loader bound to configPath. An empty path means the
// loader searches the standard locations instead.
func NewLoader(configPath string) *Loader {
	return &Loader{configPath: configPath}
}

// LoadConfig resolves the configuration file and overlays it on the
// defaults. A missing file is not an error: the defaults plus environment
// overrides already describe a working setup.
func (l *Loader) LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath == "" {
		l.configPath = firstExistingConfig()
	}

	data, err := os.ReadFile(l.configPath) // #nosec G304 - the path comes from the user's own flag, env or home
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg.ApplyEnvironmentOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", l.configPath, err)
	}

	if err := unmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", l.configPath, err)
	}

	cfg.ApplyEnvironmentOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", l.configPath, err)
	}

	return cfg, nil
}

// unmarshalStrict decodes YAML into cfg and rejects keys that match no
// configuration field, so a typo cannot silently fall back to a default.
// An empty document leaves the defaults untouched.
func unmarshalStrict(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// SaveConfig writes the configuration as YAML, creating the directory if
// needed. A loader constructed without a path saves to the user-level
// default location.
func (l *Loader) SaveConfig(config *Config) error {
	if l.configPath == "" {
		path, err := defaultConfigPath()
		if err != nil {
			return err
		}
		l.configPath = path
	}

	configDir := filepath.Dir(l.configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory %s: %w", configDir, err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	content := append([]byte(configHeader), data...)
	if err := os.WriteFile(l.configPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", l.configPath, err)
	}

	return nil
}

// GetConfigPath returns the path the loader is bound to. After LoadConfig
// it is the file that was actually read, or empty when the search found
// nothing.
func (l *Loader) GetConfigPath() string {
	return l.configPath
}

// firstExistingConfig walks the standard locations and returns the first
// config file that exists, or empty when there is none.
func firstExistingConfig() string {
	for _, path := range GetConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// defaultConfigPath is where first-run configuration lands when no config
// file exists anywhere on the search path.
func defaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "codesweep", "config.yaml"), nil
}

// CreateDefaultConfig writes a default configuration file to path
func CreateDefaultConfig(path string) error {
	return NewLoader(path).SaveConfig(DefaultConfig())
}

// LoadOrCreateConfig loads the configuration, writing a default config file
// on first use so later runs have a concrete file to edit. An explicit path
// is never created implicitly, and a failure to create the file falls back
// to the in-memory defaults.
func LoadOrCreateConfig(configPath string) (*Config, error) {
	loader := NewLoader(configPath)

	cfg, err := loader.LoadConfig()
	if err != nil || configPath != "" || loader.GetConfigPath() != "" {
		return cfg, err
	}

	path, err := defaultConfigPath()
	if err != nil {
		return cfg, nil
	}
	if err := CreateDefaultConfig(path); err != nil {
		return cfg, nil
	}

	return NewLoader(path).LoadConfig()
}
