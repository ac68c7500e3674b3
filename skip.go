package mad

import (
	"path/filepath"
	"slices"
	"strings"
)

// DefaultSkipNames are packages that hold engine data rather than assets and
// are left packed. Matching is on the base name, case-insensitively.
var DefaultSkipNames = []string{"mcap.mad", "mcapx.mad", "femcap.mad", "allmad.mad"}

// skipped reports whether path's base name is in names.
func skipped(path string, names []string) bool {
	base := filepath.Base(path)
	return slices.ContainsFunc(names, func(n string) bool {
		return strings.EqualFold(base, n)
	})
}
