package ingest

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/deal-analyzer/constants"
)

// AllowedExt checks if a file extension is in the allowed set.
func AllowedExt(ext string) bool {
	return allowedIn(ext, constants.AllowedExtensions)
}

func allowedIn(ext string, exts map[string]struct{}) bool {
	if exts == nil {
		exts = constants.AllowedExtensions
	}
	_, ok := exts[constants.NormalizeExt(ext)]
	return ok
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".")
}

// isTransient reports editor and download scratch files that will be renamed shortly.
func isTransient(path string) bool {
	base := strings.ToLower(filepath.Base(path))
	return strings.HasPrefix(base, "~$") ||
		strings.HasSuffix(base, ".part") ||
		strings.HasSuffix(base, ".crdownload") ||
		strings.HasSuffix(base, ".tmp")
}
