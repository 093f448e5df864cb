package sanitize

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SanitizePath validates that path resolves to a location inside base,
// defending against directory traversal and symlink escapes. It returns
// the resolved absolute path on success.
func SanitizePath(path, base string) (string, error) {
	resolvedBase, err := filepath.Abs(base)
	if err != nil {
		return "", fmt.Errorf("resolve base: %w", err)
	}
	resolvedBase = filepath.Clean(resolvedBase)

	candidate := path
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(resolvedBase, candidate)
	}

	if strings.Contains(candidate, "../") {
		return "", fmt.Errorf("path traversal attempt detected")
	}
	if strings.Contains(candidate, "/./") {
		return "", fmt.Errorf("suspicious path pattern detected")
	}
	if strings.Contains(candidate, "//") && !strings.HasPrefix(candidate, "//") {
		return "", fmt.Errorf("suspicious path pattern detected")
	}

	for parent := filepath.Dir(candidate); parent != "/" && parent != "."; parent = filepath.Dir(parent) {
		info, statErr := os.Lstat(parent)
		if statErr != nil {
			continue
		}
		if info.Mode()&os.ModeSymlink != 0 {
			return "", fmt.Errorf("symlink detected in path: %s", parent)
		}
	}

	target, err := resolveExisting(candidate)
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}

	rel, err := filepath.Rel(resolvedBase, target)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("path traversal attempt detected: %s is outside %s", path, resolvedBase)
	}

	return target, nil
}

// resolveExisting follows symlinks for every path component that exists,
// falling back to a non-symlink-resolved join for components that don't
// exist yet (e.g. a file about to be created).
func resolveExisting(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err == nil {
		return resolved, nil
	}
	if !os.IsNotExist(err) {
		return "", err
	}

	parent, err := filepath.EvalSymlinks(filepath.Dir(path))
	if err != nil {
		if os.IsNotExist(err) {
			return filepath.Clean(path), nil
		}
		return "", err
	}
	return filepath.Join(parent, filepath.Base(path)), nil
}
