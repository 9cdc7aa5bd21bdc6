//go:build windows

package config

import (
	"os"
	"path/filepath"
)

// defaultConfigDir returns the default configuration directory for Windows.
// Returns %APPDATA%\<appName>\
func defaultConfigDir(appName string) (string, error) {
	appData := os.Getenv("APPDATA")
	if appData == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		appData = filepath.Join(home, "AppData", "Roaming")
	}
	return filepath.Join(appData, appName), nil
}
