//go:build darwin

package config

import (
	"os"
	"path/filepath"
)

// defaultConfigDir returns the default configuration directory for macOS.
// Returns ~/Library/Application Support/<appName>/
func defaultConfigDir(appName string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "Library", "Application Support", appName), nil
}
