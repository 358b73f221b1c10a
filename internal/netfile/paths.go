package netfile

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "nnueprobe"

// dataRoot returns the platform-specific base directory for application data.
// - macOS: ~/Library/Application Support/
// - Linux: $XDG_DATA_HOME or ~/.local/share/
// - Windows: %APPDATA%
func dataRoot() (string, error) {
	switch runtime.GOOS {
	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(homeDir, "Library", "Application Support"), nil

	case "windows":
		if baseDir := os.Getenv("APPDATA"); baseDir != "" {
			return baseDir, nil
		}
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(homeDir, "AppData", "Roaming"), nil

	default:
		if baseDir := os.Getenv("XDG_DATA_HOME"); baseDir != "" {
			return baseDir, nil
		}
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(homeDir, ".local", "share"), nil
	}
}

// ensureDir builds <dataRoot>/nnueprobe/<sub> and creates it if missing.
func ensureDir(sub string) (string, error) {
	baseDir, err := dataRoot()
	if err != nil {
		return "", err
	}

	dir := filepath.Join(baseDir, appName, sub)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// GetDataDir returns the platform-specific data directory for the library.
func GetDataDir() (string, error) {
	return ensureDir("")
}

// GetNNUEDir returns the directory for storing NNUE network files.
func GetNNUEDir() (string, error) {
	return ensureDir("nnue")
}

// GetDatabaseDir returns the directory for the persistent trace store.
func GetDatabaseDir() (string, error) {
	return ensureDir("db")
}
