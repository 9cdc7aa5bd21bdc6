//go:build !darwin && !windows

package config

import (
	"os"
	"path/filepath"
)

// defaultConfigDir returns the default configuration directory on Linux and
// other Unix systems. Uses $XDG_CONFIG_HOME/<appName>/ if set,
// otherwise ~/.config/<appName>/
func defaultConfigDir(appName string) (string, error) {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}
