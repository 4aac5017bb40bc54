package fileinfo

import (
	"path/filepath"
)

// ParentPath returns the parent directory of p.
// ok is false at a filesystem root (or for an empty path), where
// filepath.Dir returns its input unchanged.
func ParentPath(p string) (parent string, ok bool) {
	if p == "" {
		return "", false
	}
	clean := filepath.Clean(p)
	parent = filepath.Dir(clean)
	if parent == clean {
		return "", false
	}
	return parent, true
}

// BaseName returns the last path segment, or "" for a root
func BaseName(p string) string {
	clean := filepath.Clean(p)
	base := filepath.Base(clean)
	if base == string(filepath.Separator) || base == "." || filepath.VolumeName(clean)+string(filepath.Separator) == clean {
		return ""
	}
	return base
}
