package sanitize

import (
	"fmt"
	"strings"
)

// reservedBranchNames are Git internal refs that must never be used as a
// user-facing branch name.
var reservedBranchNames = map[string]bool{
	"HEAD":        true,
	"FETCH_HEAD":  true,
	"ORIG_HEAD":   true,
	"ORIGIN_HEAD": true,
}

// SanitizeBranchName validates and strips shell metacharacters from a Git
// branch name.
func SanitizeBranchName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("branch name cannot be empty")
	}
	if len(name) > MaxBranchNameLength {
		return "", fmt.Errorf("branch name too long: %d characters (max %d)", len(name), MaxBranchNameLength)
	}

	result := shellMetacharacters.ReplaceAllString(name, "")
	result = strings.TrimSpace(result)

	if result == "" {
		return "", fmt.Errorf("branch name contains only invalid characters")
	}
	if reservedBranchNames[result] {
		return "", fmt.Errorf("reserved branch name: %s", result)
	}

	return result, nil
}
