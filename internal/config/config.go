// Package config loads engine configuration from .cutline.json files.
// Files are HuJSON (JSON with comments and trailing commas). A global file
// under XDG config is layered below a per-project file found by walking up
// from the working directory; CLI flags override both.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"
)

// ConfigFileName is the per-project config file name.
const ConfigFileName = ".cutline.json"

// Config holds all configuration options.
type Config struct {
	// HistoryDir overrides where snapshot history lives. Empty means a
	// .cutline directory next to the project document.
	HistoryDir string `json:"history_dir,omitempty"`

	// HistoryLimit caps undo/checkpoint records kept per project; 0 keeps
	// everything (records are pruned only on explicit limits).
	HistoryLimit int `json:"history_limit,omitempty"`

	// CheckFiles enables producer file-existence checks during validation.
	CheckFiles bool `json:"check_files,omitempty"`

	// Logging.
	LogLevel  string `json:"log_level,omitempty"`
	LogFormat string `json:"log_format,omitempty"` // json or console

	// Defaults for project.create.
	FPS    float64 `json:"fps,omitempty"`
	Width  int     `json:"width,omitempty"`
	Height int     `json:"height,omitempty"`

	// Sources tracks which config files were loaded (for diagnostics).
	Sources Sources `json:"-"`
}

// Sources records which config files contributed.
type Sources struct {
	Global  string
	Project string
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel:  "info",
		LogFormat: "console",
		FPS:       30,
		Width:     1920,
		Height:    1080,
	}
}

// Load builds the effective configuration for a working directory.
// Missing files are fine; malformed files are errors.
func Load(workDir string, env map[string]string) (Config, error) {
	cfg := Default()

	globalPath := globalConfigPath(env)
	if globalPath != "" {
		loaded, err := applyFile(&cfg, globalPath)
		if err != nil {
			return Config{}, err
		}

		if loaded {
			cfg.Sources.Global = globalPath
		}
	}

	projectPath := findProjectConfig(workDir)
	if projectPath != "" {
		loaded, err := applyFile(&cfg, projectPath)
		if err != nil {
			return Config{}, err
		}

		if loaded {
			cfg.Sources.Project = projectPath
		}
	}

	return cfg, nil
}

// globalConfigPath resolves $XDG_CONFIG_HOME/cutline/config.json, falling
// back to ~/.config/cutline/config.json.
func globalConfigPath(env map[string]string) string {
	if xdg := env["XDG_CONFIG_HOME"]; xdg != "" {
		return filepath.Join(xdg, "cutline", "config.json")
	}

	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", "cutline", "config.json")
	}

	return ""
}

// findProjectConfig walks up from workDir looking for the project file.
func findProjectConfig(workDir string) string {
	dir := filepath.Clean(workDir)

	for {
		candidate := filepath.Join(dir, ConfigFileName)

		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}

		dir = parent
	}
}

// applyFile merges one config file into cfg. Returns false when the file
// does not exist.
func applyFile(cfg *Config, path string) (bool, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}

		return false, fmt.Errorf("read config %s: %w", path, err)
	}

	standardized, err := hujson.Standardize(raw)
	if err != nil {
		return false, fmt.Errorf("parse config %s: %w", path, err)
	}

	err = json.Unmarshal(standardized, cfg)
	if err != nil {
		return false, fmt.Errorf("parse config %s: %w", path, err)
	}

	return true, nil
}
