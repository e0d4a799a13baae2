// Package pathutil confines file paths supplied by remote callers to a set of
// allowed directories.
package pathutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ScenarioDirName is the per-user directory scenario files may be loaded from.
const ScenarioDirName = "scenarios"

// ErrOutsideAllowed is returned when a path resolves outside every allowed
// directory.
var ErrOutsideAllowed = errors.New("path is outside allowed directories")

// RedactPath reduces a full path to .../<parent>/<basename> for error
// messages. "/home/user/.orbitsim/scenarios/solar.yaml" becomes
// ".../scenarios/solar.yaml".
func RedactPath(path string) string {
	if path == "" {
		return ""
	}
	cleaned := filepath.Clean(path)
	parent := filepath.Base(filepath.Dir(cleaned))
	if parent == "." || parent == string(filepath.Separator) {
		return filepath.Base(cleaned)
	}
	return ".../" + parent + "/" + filepath.Base(cleaned)
}

// Resolve checks that path lies inside one of allowedDirs after cleaning it
// and resolving symlinks, and returns the resolved absolute path. Relative
// paths are taken relative to the first allowed directory.
func Resolve(path string, allowedDirs []string) (string, error) {
	if path == "" {
		return "", errors.New("path is empty")
	}
	if len(allowedDirs) == 0 {
		return "", errors.New("no allowed directories configured")
	}
	if strings.ContainsRune(path, '\x00') {
		return "", errors.New("path contains null byte")
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(allowedDirs[0], path)
	}
	absPath, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("cannot resolve absolute path: %w", err)
	}

	// The file itself may not exist; resolve its deepest existing ancestor.
	resolvedDir, err := resolveExistingParent(filepath.Dir(absPath))
	if err != nil {
		return "", err
	}
	resolved := filepath.Join(resolvedDir, filepath.Base(absPath))
	if target, err := filepath.EvalSymlinks(resolved); err == nil {
		resolved = target
	}

	for _, allowed := range allowedDirs {
		allowedAbs, err := filepath.Abs(filepath.Clean(allowed))
		if err != nil {
			continue
		}
		allowedResolved, err := resolveExistingParent(allowedAbs)
		if err != nil {
			continue
		}
		if isSubpath(resolved, allowedResolved) {
			return resolved, nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrOutsideAllowed, RedactPath(absPath))
}

// resolveExistingParent resolves symlinks on the deepest existing ancestor of
// dir and re-appends the missing tail.
func resolveExistingParent(dir string) (string, error) {
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		return resolved, nil
	}

	parent := filepath.Dir(dir)
	if parent == dir {
		return "", fmt.Errorf("cannot resolve path: %s", RedactPath(dir))
	}
	resolvedParent, err := resolveExistingParent(parent)
	if err != nil {
		return "", err
	}
	return filepath.Join(resolvedParent, filepath.Base(dir)), nil
}

// isSubpath reports whether path is base or lies below it.
func isSubpath(path, base string) bool {
	if path == base {
		return true
	}
	return strings.HasPrefix(path, base+string(os.PathSeparator))
}

// DefaultScenarioDirs returns the directories scenario files may be loaded
// from by remote callers: ~/.orbitsim/scenarios/.
func DefaultScenarioDirs() ([]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return []string{filepath.Join(homeDir, ".orbitsim", ScenarioDirName)}, nil
}
