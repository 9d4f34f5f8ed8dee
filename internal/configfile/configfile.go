// Package configfile reads and writes the per-project configuration stored
// under the .agiledev directory.
package configfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ConfigFileName is the file inside the project config directory.
const ConfigFileName = "metadata.json"

// ConfigDirName is the project config directory, relative to the project root.
const ConfigDirName = ".agiledev"

// Config is the persisted project configuration.
type Config struct {
	Database string `json:"database"`
	DocsDir  string `json:"docs_dir"`

	// Actor recorded on audit entries when none is given on the command line.
	Actor string `json:"actor,omitempty"`

	// Policy is the sync conflict resolution policy: database_wins,
	// document_wins or manual.
	Policy string `json:"policy,omitempty"`
}

// DefaultConfig returns the configuration a fresh project starts with.
func DefaultConfig() *Config {
	return &Config{
		Database: "agiledev.db",
		DocsDir:  "docs",
		Policy:   "manual",
	}
}

// ConfigPath returns the path of the config file inside configDir.
func ConfigPath(configDir string) string {
	return filepath.Join(configDir, ConfigFileName)
}

// Load reads the config from configDir. A missing file returns (nil, nil) so
// callers can distinguish "no project here" from a broken config.
func Load(configDir string) (*Config, error) {
	data, err := os.ReadFile(ConfigPath(configDir))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Save writes the config to configDir, creating the directory if needed.
func (c *Config) Save(configDir string) error {
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(ConfigPath(configDir), data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// FindProjectRoot walks up from start looking for a directory containing
// ConfigDirName. Returns the project root, or an error when none is found.
func FindProjectRoot(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	for {
		if info, err := os.Stat(filepath.Join(dir, ConfigDirName)); err == nil && info.IsDir() {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no %s directory found above %s", ConfigDirName, start)
		}
		dir = parent
	}
}
