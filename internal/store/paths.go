package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultFileName is the recorder database name inside the orbitsim directory.
const DefaultFileName = "runs.db"

// GlobalPath returns the path to the global .orbitsim directory.
// On Unix: ~/.orbitsim
// On Windows: %USERPROFILE%\.orbitsim
func GlobalPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".orbitsim"), nil
}

// DefaultDBPath returns ~/.orbitsim/runs.db.
func DefaultDBPath() (string, error) {
	dir, err := GlobalPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DefaultFileName), nil
}
