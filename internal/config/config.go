// Package config manages substore configuration and the .substore directory
// structure. It handles loading, saving, and initializing the store
// directory.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

const (
	StoreDir     = ".substore"
	ConfigFile   = "config"
	SnapshotFile = "store.db"
	JournalFile  = "journal.db"
	ArchivesDir  = "archives"
)

// Config represents the substore configuration.
type Config struct {
	// GenesisID is the hex identifier of the genesis master program.
	GenesisID string `toml:"genesis_id,omitempty"`
	path      string // path to the .substore directory
}

// FindRoot finds the .substore directory by walking up from the current
// directory.
func FindRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		storePath := filepath.Join(dir, StoreDir)
		if info, err := os.Stat(storePath); err == nil && info.IsDir() {
			return storePath, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not a substore directory (or any parent up to root)")
		}
		dir = parent
	}
}

// Load loads the configuration from the .substore directory.
func Load() (*Config, error) {
	storePath, err := FindRoot()
	if err != nil {
		return nil, err
	}

	configPath := filepath.Join(storePath, ConfigFile)
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.path = storePath
	return &cfg, nil
}

// Save saves the configuration to disk.
func (c *Config) Save() error {
	configPath := filepath.Join(c.path, ConfigFile)
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(configPath, data, 0644)
}

// Path returns the path to the .substore directory.
func (c *Config) Path() string {
	return c.path
}

// SnapshotPath returns the path to the bbolt snapshot database.
func (c *Config) SnapshotPath() string {
	return filepath.Join(c.path, SnapshotFile)
}

// JournalPath returns the path to the SQLite execution journal.
func (c *Config) JournalPath() string {
	return filepath.Join(c.path, JournalFile)
}

// ArchivesPath returns the path to the snapshot archives directory.
func (c *Config) ArchivesPath() string {
	return filepath.Join(c.path, ArchivesDir)
}

// Initialize creates a new .substore directory with initial configuration.
func Initialize() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	storePath := filepath.Join(cwd, StoreDir)

	// Check if already initialized
	if _, err := os.Stat(storePath); err == nil {
		return nil, fmt.Errorf("substore directory already exists")
	}

	if err := os.MkdirAll(storePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create .substore directory: %w", err)
	}

	archivesPath := filepath.Join(storePath, ArchivesDir)
	if err := os.MkdirAll(archivesPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create archives directory: %w", err)
	}

	cfg := &Config{path: storePath}

	if err := cfg.Save(); err != nil {
		// Cleanup on failure
		os.RemoveAll(storePath)
		return nil, err
	}

	return cfg, nil
}
