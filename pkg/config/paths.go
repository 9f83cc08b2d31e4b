package config

import (
	"os"
	"path/filepath"
)

const (
	appName = "tokensync"
	// FileName is the project-local config file name.
	FileName = "tokensync.toml"
)

// Dir returns the config directory using the XDG standard
// (~/.config/tokensync/).
func Dir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// CacheDir returns the cache directory using the XDG standard
// (~/.cache/tokensync/).
func CacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// Find looks for ./tokensync.toml, then config.toml in [Dir].
func Find() (string, bool) {
	candidates := []string{FileName}
	if dir, err := Dir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "config.toml"))
	}
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, true
		}
	}
	return "", false
}
