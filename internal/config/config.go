// Package config handles repository and global configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents repository configuration stored in .citegraph/config.json.
type Config struct {
	ProjectID string `json:"project_id"`         // Default project for commands
	PDFRoot   string `json:"pdf_root,omitempty"` // Absolute path to PDF folder
}

const (
	CitegraphDir = ".citegraph"
	ConfigFile   = "config.json"
	ArticlesFile = "articles.jsonl"
	DBFile       = "citegraph.db"
)

// CitegraphPath returns the path to the .citegraph directory from a root path.
func CitegraphPath(root string) string {
	return filepath.Join(root, CitegraphDir)
}

// ConfigPath returns the path to config.json from a root path.
func ConfigPath(root string) string {
	return filepath.Join(root, CitegraphDir, ConfigFile)
}

// ArticlesPath returns the path to articles.jsonl from a root path.
func ArticlesPath(root string) string {
	return filepath.Join(root, CitegraphDir, ArticlesFile)
}

// DBPath returns the path to the database from a root path.
func DBPath(root string) string {
	return filepath.Join(root, CitegraphDir, DBFile)
}

// IsRepository checks if the given path contains a citegraph repository.
func IsRepository(root string) bool {
	info, err := os.Stat(CitegraphPath(root))
	return err == nil && info.IsDir()
}

// FindRepository walks up from the given path to find a citegraph
// repository. Returns the repository root path or an error if not found.
func FindRepository(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	for {
		if IsRepository(abs) {
			return abs, nil
		}

		parent := filepath.Dir(abs)
		if parent == abs {
			return "", fmt.Errorf("not in a citegraph repository (no .citegraph directory found)")
		}
		abs = parent
	}
}

// Load reads configuration from the repository at the given root.
func Load(root string) (*Config, error) {
	data, err := os.ReadFile(ConfigPath(root))
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Save writes configuration to the repository at the given root.
func Save(root string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(ConfigPath(root), append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Init creates the .citegraph directory and an initial config at root.
func Init(root string, cfg *Config) error {
	if IsRepository(root) {
		return fmt.Errorf("already a citegraph repository: %s", root)
	}
	if err := os.MkdirAll(CitegraphPath(root), 0755); err != nil {
		return fmt.Errorf("creating %s: %w", CitegraphDir, err)
	}
	return Save(root, cfg)
}
